package cases

import (
	"context"
	"fmt"

	"github.com/YoshitsuguKoike/ailcase/internal/app/casebase"
	"github.com/YoshitsuguKoike/ailcase/internal/app/latency"
	"github.com/YoshitsuguKoike/ailcase/internal/app/state"
)

// RunTime times page load: t1 before navigation, t2 once the ready
// pattern is on screen
type RunTime struct {
	*casebase.RunTimeCase
	deps     Deps
	opts     Options
	protocol *latency.Protocol
}

var _ casebase.Runner = (*RunTime)(nil)

func newRunTime(argv []string, deps Deps, opts Options) (casebase.Runner, error) {
	if opts.ReadyPattern == "" {
		return nil, fmt.Errorf("ready pattern is required")
	}
	copts, err := caseOptions(deps)
	if err != nil {
		return nil, err
	}
	c, err := casebase.NewRunTime(deps.FS, argv, copts...)
	if err != nil {
		return nil, err
	}
	return &RunTime{RunTimeCase: c, deps: deps, opts: opts, protocol: newProtocol(c.Case, deps)}, nil
}

func (c *RunTime) Run(ctx context.Context) error {
	var match state.Rect
	sample, err := c.protocol.Interval(ctx, c.deps.Config.TimestampKey, "", func(ctx context.Context) error {
		if err := c.deps.Engine.Open(ctx, c.Defaults.TestTarget); err != nil {
			return fmt.Errorf("open %s: %w", c.Defaults.TestTarget, err)
		}
		m, err := c.protocol.WaitReady(ctx, c.ResolveImage(c.opts.ReadyPattern), c.deps.Config.ReadyTimeout)
		if err != nil {
			return err
		}
		match = m
		return nil
	})
	if err != nil {
		return err
	}
	// the region write stays outside the timed interval
	if c.opts.Region != "" {
		c.SetOverrideRegion(c.opts.Region, match)
	}
	c.Log.Info("Run time of %s: %s", c.Defaults.TestTarget, sample.Latency())
	return nil
}
