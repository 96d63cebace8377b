package state

import (
	"encoding/json"
	"fmt"

	"github.com/YoshitsuguKoike/ailcase/internal/infra/fs"
)

// MergeField loads the document, sets current_status/sikuli[key] = value and
// rewrites the whole file. The previous value under key is replaced, not
// deep-merged.
func (s *Store) MergeField(key string, value any) error {
	return s.Update(func(doc *Document) error {
		doc.Set(key, value)
		return nil
	})
}

// Update runs fn against a freshly loaded document and rewrites the file
// with the result. Nothing is written when fn returns an error.
func (s *Store) Update(fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.save(doc)
}

func (s *Store) save(doc *Document) error {
	data, err := json.Marshal(doc.raw)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal state: %v", ErrWrite, err)
	}
	if err := fs.RewriteFile(s.fs, s.path, data); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}
