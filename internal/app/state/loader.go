// Package state owns the run-state JSON document shared between the
// orchestrator, the running case and the analysis tooling.
//
// The document is kept as a generic JSON tree so that keys this package does
// not know about survive every rewrite. Typed views are derived on demand.
package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/afero"
)

// Well-known keys of the state document.
const (
	KeyCurrentStatus  = "current_status"
	KeySikuli         = "sikuli"
	KeyArgs           = "args"
	KeyAdditionalArgs = "additional_args"
	KeyRegion         = "region"
	KeyRegionOverride = "region_override"
)

var (
	// ErrRead is returned when the state file is missing or unreadable.
	ErrRead = errors.New("state file unreadable")
	// ErrParse is returned when the state file is not a JSON object.
	ErrParse = errors.New("state file is not valid JSON")
	// ErrWrite is returned when the rewritten document cannot be persisted.
	ErrWrite = errors.New("state file write failed")
)

// Store is the only gateway to the state file. Every mutation is a full
// read, in-memory merge and whole-document rewrite.
type Store struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// NewStore creates a store for the state file at path
func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Path returns the state file path
func (s *Store) Path() string {
	return s.path
}

// Load reads and parses the state file
func (s *Store) Load() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (*Document, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRead, s.path, err)
	}
	return Parse(data)
}

// Parse decodes a state document. Numbers are kept as json.Number so that
// values round-trip unchanged through a rewrite.
func Parse(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after document", ErrParse)
	}

	raw, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level must be an object", ErrParse)
	}
	return &Document{raw: raw}, nil
}

// Document is an in-memory state document
type Document struct {
	raw map[string]any
}

// Raw returns the underlying JSON tree
func (d *Document) Raw() map[string]any {
	return d.raw
}

// Sikuli returns the current_status/sikuli mapping, or an empty map when the
// path does not exist. The returned map is not attached to the document when
// the path is missing.
func (d *Document) Sikuli() map[string]any {
	cs, _ := d.raw[KeyCurrentStatus].(map[string]any)
	sk, _ := cs[KeySikuli].(map[string]any)
	if sk == nil {
		return map[string]any{}
	}
	return sk
}

// Field returns sikuli[key]
func (d *Document) Field(key string) (any, bool) {
	v, ok := d.Sikuli()[key]
	return v, ok
}

// sikuliForWrite returns the sikuli mapping, creating current_status and
// sikuli when they are absent or not objects.
func (d *Document) sikuliForWrite() map[string]any {
	cs, ok := d.raw[KeyCurrentStatus].(map[string]any)
	if !ok {
		cs = map[string]any{}
		d.raw[KeyCurrentStatus] = cs
	}
	sk, ok := cs[KeySikuli].(map[string]any)
	if !ok {
		sk = map[string]any{}
		cs[KeySikuli] = sk
	}
	return sk
}

// Set assigns sikuli[key] = value in memory
func (d *Document) Set(key string, value any) {
	d.sikuliForWrite()[key] = value
}

// SikuliStatus is the typed view of current_status/sikuli
type SikuliStatus struct {
	Args           map[string]any
	AdditionalArgs []any
	Region         map[string]map[string]any
	RegionOverride map[string]map[string]any
}

// Status derives the typed view. Missing or mistyped keys yield empty values.
func (d *Document) Status() SikuliStatus {
	sk := d.Sikuli()
	st := SikuliStatus{
		Args:           map[string]any{},
		AdditionalArgs: []any{},
		Region:         map[string]map[string]any{},
		RegionOverride: map[string]map[string]any{},
	}

	if a, ok := sk[KeyArgs].(map[string]any); ok {
		st.Args = a
	}
	if l, ok := sk[KeyAdditionalArgs].([]any); ok {
		st.AdditionalArgs = l
	}
	st.Region = regionMap(sk[KeyRegion])
	st.RegionOverride = regionMap(sk[KeyRegionOverride])
	return st
}

func regionMap(v any) map[string]map[string]any {
	out := map[string]map[string]any{}
	m, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for name, entry := range m {
		if e, ok := entry.(map[string]any); ok {
			out[name] = e
		}
	}
	return out
}
