package schema

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store keeps the definitions parsed from a filesystem. Treat it as
// immutable after LoadFS.
type Store struct {
	definitions map[string]Definition
}

type documentFile struct {
	Wizards map[string]Definition `json:"wizards" yaml:"wizards"`
}

// LoadFS walks fsys and parses every .json/.yaml/.yml file. Wizard ids must
// be unique across files. A nil fsys yields an empty store.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{definitions: make(map[string]Definition)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", path, err)
		}
		doc, err := Parse(data, path)
		if err != nil {
			return err
		}
		for id, def := range doc {
			if _, exists := store.definitions[id]; exists {
				return fmt.Errorf("schema: duplicate wizard %q (file %s)", id, path)
			}
			store.definitions[id] = def
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Parse decodes one definition document, trying JSON first and YAML second.
// source is only used in error messages and Definition.Source.
func Parse(data []byte, source string) (map[string]Definition, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("schema: file %s is empty", source)
	}

	var doc documentFile
	if err := json.Unmarshal(data, &doc); err != nil {
		doc = documentFile{}
		if yerr := yaml.Unmarshal(data, &doc); yerr != nil {
			return nil, fmt.Errorf("schema: parse %s: %w", source, yerr)
		}
	}

	out := make(map[string]Definition, len(doc.Wizards))
	for rawID, def := range doc.Wizards {
		id := strings.TrimSpace(rawID)
		if id == "" {
			return nil, fmt.Errorf("schema: file %s defines an empty wizard id", source)
		}
		if len(def.Steps) == 0 {
			return nil, fmt.Errorf("schema: wizard %q (file %s) has no steps", id, source)
		}
		def.ID = id
		def.Source = source
		out[id] = def
	}
	return out, nil
}

// Definition returns the definition registered under id.
func (s *Store) Definition(id string) (Definition, bool) {
	if s == nil {
		return Definition{}, false
	}
	def, ok := s.definitions[id]
	return def, ok
}

// IDs lists the loaded wizard ids in order.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.definitions))
	for id := range s.definitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Add registers def, replacing any definition with the same id.
func (s *Store) Add(def Definition) {
	if s.definitions == nil {
		s.definitions = make(map[string]Definition)
	}
	s.definitions[def.ID] = def
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
