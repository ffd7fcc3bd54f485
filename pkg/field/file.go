package field

import (
	"io"
	"strings"
)

// File is the value stored by file and file-multi fields. It is either a
// PendingFile selected in this session or an ExistingFile that was uploaded
// earlier and is referenced by URL.
type File interface {
	isFile()
	// DisplayName is a short human label for the file.
	DisplayName() string
}

// PendingFile is a new upload not yet sent to the backend.
type PendingFile struct {
	Name        string                        `json:"name"`
	ContentType string                        `json:"contentType,omitempty"`
	Size        int64                         `json:"size,omitempty"`
	Open        func() (io.ReadCloser, error) `json:"-"`
}

func (PendingFile) isFile() {}

// DisplayName implements File.
func (f PendingFile) DisplayName() string { return f.Name }

// ExistingFile references an already stored asset.
type ExistingFile struct {
	URL string `json:"url"`
}

func (ExistingFile) isFile() {}

// DisplayName implements File.
func (f ExistingFile) DisplayName() string {
	if idx := strings.LastIndex(f.URL, "/"); idx >= 0 && idx < len(f.URL)-1 {
		return f.URL[idx+1:]
	}
	return f.URL
}

// SplitFiles separates pending uploads from existing references, preserving
// order within each group.
func SplitFiles(files []File) (pending []PendingFile, existing []ExistingFile) {
	for _, f := range files {
		switch typed := f.(type) {
		case PendingFile:
			pending = append(pending, typed)
		case *PendingFile:
			if typed != nil {
				pending = append(pending, *typed)
			}
		case ExistingFile:
			existing = append(existing, typed)
		case *ExistingFile:
			if typed != nil {
				existing = append(existing, *typed)
			}
		}
	}
	return pending, existing
}
