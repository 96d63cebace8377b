// Package casebase is the startup contract shared by every case: it reads
// the process arguments, loads the run-state document, resolves the case's
// arguments and clears the previous run's region overrides.
package casebase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/ailcase/internal/app"
	"github.com/YoshitsuguKoike/ailcase/internal/app/caseargs"
	"github.com/YoshitsuguKoike/ailcase/internal/app/region"
	"github.com/YoshitsuguKoike/ailcase/internal/app/state"
)

// ErrUsage is returned when the process arguments lack the library path or
// the state file path
var ErrUsage = errors.New("usage: <library path> <state file> [additional args...]")

// Runner is implemented by every concrete case
type Runner interface {
	Run(ctx context.Context) error
}

// Case holds everything resolved at startup
type Case struct {
	LibPath   string
	StatePath string

	Store    *state.Store
	Document *state.Document
	Defaults caseargs.Defaults
	Regions  *region.Tracker
	Log      app.Logger
}

type options struct {
	mode region.Mode
	log  app.Logger
}

// Option customizes New
type Option func(*options)

// WithRegionMode selects how region overrides are written
func WithRegionMode(m region.Mode) Option {
	return func(o *options) { o.mode = m }
}

// WithLogger sets the case logger
func WithLogger(l app.Logger) Option {
	return func(o *options) { o.log = l }
}

// New performs case startup. argv[0] is the library path, argv[1] the state
// file path. Any error is fatal for the case.
func New(afs afero.Fs, argv []string, v caseargs.Variant, opts ...Option) (*Case, error) {
	o := options{mode: region.ModeReplace, log: app.GetLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	if len(argv) < 2 {
		return nil, fmt.Errorf("%w (got %d args)", ErrUsage, len(argv))
	}

	c := &Case{
		LibPath:   argv[0],
		StatePath: argv[1],
		Store:     state.NewStore(afs, argv[1]),
		Log:       o.log,
	}

	doc, err := c.Store.Load()
	if err != nil {
		return nil, err
	}
	c.Document = doc
	c.Defaults = caseargs.ResolveDefaults(doc)

	if err := caseargs.Resolve(doc, v); err != nil {
		return nil, err
	}

	if err := c.Store.MergeField(state.KeyRegionOverride, map[string]any{}); err != nil {
		return nil, fmt.Errorf("reset region overrides: %w", err)
	}
	c.Regions = region.NewTracker(c.Store, doc, o.mode, o.log)

	if extra := len(argv) - 2; extra > 0 {
		c.Log.Debug("ignoring %d process arguments after the state file", extra)
	}
	c.Log.Debug("case %q loaded from %s (target %s)", c.Defaults.CaseOutputName, c.StatePath, c.Defaults.TestTarget)
	return c, nil
}

// SetOverrideRegion forwards to the region tracker
func (c *Case) SetOverrideRegion(name string, r state.Rect) bool {
	return c.Regions.SetOverrideRegion(name, r)
}

// ResolveImage resolves a relative image pattern against the library path,
// where the shared pattern images live
func (c *Case) ResolveImage(pattern string) string {
	if pattern == "" || filepath.IsAbs(pattern) || c.LibPath == "" {
		return pattern
	}
	return filepath.Join(c.LibPath, pattern)
}
