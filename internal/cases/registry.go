// Package cases holds the concrete latency cases runnable from the CLI
package cases

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/ailcase/internal/app"
	"github.com/YoshitsuguKoike/ailcase/internal/app/casebase"
	"github.com/YoshitsuguKoike/ailcase/internal/app/config"
	"github.com/YoshitsuguKoike/ailcase/internal/app/latency"
	"github.com/YoshitsuguKoike/ailcase/internal/app/region"
)

// Input injects pointer and keyboard events
type Input interface {
	Hover(ctx context.Context, x, y int) error
	MouseDown(ctx context.Context) error
	MouseUp(ctx context.Context) error
	Type(ctx context.Context, text string) error
}

// Browser navigates the browser under test
type Browser interface {
	Open(ctx context.Context, url string) error
}

// Engine is every automation primitive a case may use
type Engine interface {
	latency.Matcher
	latency.Capturer
	Input
	Browser
}

// Options are the per-invocation knobs given on the command line
type Options struct {
	// ReadyPattern is the image that signals the page is ready
	ReadyPattern string
	// Region is the calibrated region name recorded from the ready match
	Region  string
	OffsetX int
	OffsetY int
	// Text is what type-latency types
	Text string
}

// Deps are the collaborators shared by all cases
type Deps struct {
	FS     afero.Fs
	Engine Engine
	Config *config.Config
	Clock  latency.Clock
	Log    app.Logger
}

// Factory builds a case from the process arguments
type Factory func(argv []string, deps Deps, opts Options) (casebase.Runner, error)

var registry = map[string]Factory{
	"click-latency": newClickLatency,
	"type-latency":  newTypeLatency,
	"run-time":      newRunTime,
}

// Names lists the registered case names
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New builds the named case
func New(name string, argv []string, deps Deps, opts Options) (casebase.Runner, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown case %q (available: %v)", name, Names())
	}
	if deps.Log == nil {
		deps.Log = app.GetLogger()
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("case %s: missing configuration", name)
	}
	return f(argv, deps, opts)
}

func caseOptions(deps Deps) ([]casebase.Option, error) {
	mode, err := region.ParseMode(deps.Config.RegionOverrideMode)
	if err != nil {
		return nil, err
	}
	return []casebase.Option{casebase.WithRegionMode(mode), casebase.WithLogger(deps.Log)}, nil
}

func newProtocol(c *casebase.Case, deps Deps) *latency.Protocol {
	return latency.NewProtocol(c.Store, deps.FS, deps.Engine, deps.Engine, latency.Config{
		PreCaptureSettle: deps.Config.PreCaptureSettle,
		PostInputSettle:  deps.Config.PostInputSettle,
		Clock:            deps.Clock,
		Log:              deps.Log,
	})
}
