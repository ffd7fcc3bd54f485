package openapi

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// SourceKind enumerates where a document is read from.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// Source identifies an OpenAPI document so the loader can read files,
// fs.FS entries and URLs alike.
type Source interface {
	Kind() SourceKind
	Location() string
}

type source struct {
	kind     SourceKind
	location string
}

func (s source) Kind() SourceKind { return s.kind }

func (s source) Location() string { return s.location }

// SourceFromFile points at a path on disk.
func SourceFromFile(path string) Source {
	return source{kind: SourceKindFile, location: filepath.Clean(path)}
}

// SourceFromFS points at a name inside the loader's fs.FS.
func SourceFromFS(name string) Source {
	return source{kind: SourceKindFS, location: name}
}

// SourceFromURL validates raw and points at an http(s) document.
func SourceFromURL(raw string) (Source, error) {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("openapi: unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("openapi: url %q has no host", raw)
	}
	return source{kind: SourceKindURL, location: u.String()}, nil
}

// ParseSource picks a URL source for http(s) locations and a file source
// otherwise.
func ParseSource(raw string) (Source, error) {
	location := strings.TrimSpace(raw)
	if location == "" {
		return nil, errors.New("openapi: empty source")
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return SourceFromURL(location)
	}
	return SourceFromFile(location), nil
}
