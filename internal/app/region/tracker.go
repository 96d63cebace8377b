// Package region records where a running case actually found a calibrated
// screen region, for cropping during later analysis.
package region

import (
	"fmt"
	"strings"

	"github.com/YoshitsuguKoike/ailcase/internal/app"
	"github.com/YoshitsuguKoike/ailcase/internal/app/state"
)

// Mode selects how an override is written into region_override
type Mode string

const (
	// ModeReplace stores {name: rect} as the whole region_override value,
	// so only the most recent override survives. Existing analysis tooling
	// depends on this output.
	ModeReplace Mode = "replace"
	// ModeMerge adds or updates name inside the existing region_override.
	ModeMerge Mode = "merge"
)

// ParseMode converts a settings value to a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeReplace:
		return ModeReplace, nil
	case ModeMerge:
		return ModeMerge, nil
	default:
		return "", fmt.Errorf("unknown region override mode %q (expected replace or merge)", s)
	}
}

// Tracker writes region overrides through the state store
type Tracker struct {
	store *state.Store
	doc   *state.Document
	mode  Mode
	log   app.Logger
}

// NewTracker creates a tracker. doc is the document loaded at case start;
// its region mapping is the calibration data looked up by name.
func NewTracker(store *state.Store, doc *state.Document, mode Mode, log app.Logger) *Tracker {
	if log == nil {
		log = app.GetLogger()
	}
	if mode == "" {
		mode = ModeReplace
	}
	return &Tracker{store: store, doc: doc, mode: mode, log: log}
}

// SetOverrideRegion records r as the observed geometry of the calibrated
// region name. It returns false, leaving the state file untouched, when the
// name is not calibrated or r is invalid.
func (t *Tracker) SetOverrideRegion(name string, r state.Rect) bool {
	calibration, ok := t.doc.Status().Region[name]
	if !ok {
		t.log.Error("Cannot find the settings [%s] of Customized Region from index-config.", name)
		return false
	}
	if err := r.Validate(); err != nil {
		t.log.Error("Refusing override for [%s]: %v", name, err)
		return false
	}

	entry := r.Apply(calibration)

	var err error
	switch t.mode {
	case ModeMerge:
		err = t.store.Update(func(doc *state.Document) error {
			overrides := map[string]any{}
			if cur, ok := doc.Sikuli()[state.KeyRegionOverride].(map[string]any); ok {
				overrides = cur
			}
			overrides[name] = entry
			doc.Set(state.KeyRegionOverride, overrides)
			return nil
		})
	default:
		err = t.store.MergeField(state.KeyRegionOverride, map[string]any{name: entry})
	}
	if err != nil {
		t.log.Error("Failed to save override region [%s]: %v", name, err)
		return false
	}

	t.log.Info("Found [%s] with [x,y,w,h]: [%d,%d,%d,%d]", name, r.X, r.Y, r.W, r.H)
	return true
}
