package cases

import (
	"context"
	"fmt"

	"github.com/YoshitsuguKoike/ailcase/internal/app/casebase"
	"github.com/YoshitsuguKoike/ailcase/internal/app/latency"
	"github.com/YoshitsuguKoike/ailcase/internal/app/state"
)

const defaultText = "a"

// ClickLatency measures the frame change after releasing a mouse button
// held on an offset from the ready pattern
type ClickLatency struct {
	*casebase.InputLatencyCase
	deps     Deps
	opts     Options
	protocol *latency.Protocol
}

// TypeLatency measures the frame change after a key press
type TypeLatency struct {
	*casebase.InputLatencyCase
	deps     Deps
	opts     Options
	protocol *latency.Protocol
}

var (
	_ casebase.Runner = (*ClickLatency)(nil)
	_ casebase.Runner = (*TypeLatency)(nil)
)

func startInputLatency(argv []string, deps Deps, opts Options) (*casebase.InputLatencyCase, *latency.Protocol, error) {
	if opts.ReadyPattern == "" {
		return nil, nil, fmt.Errorf("ready pattern is required")
	}
	copts, err := caseOptions(deps)
	if err != nil {
		return nil, nil, err
	}
	c, err := casebase.NewInputLatency(deps.FS, argv, copts...)
	if err != nil {
		return nil, nil, err
	}
	return c, newProtocol(c.Case, deps), nil
}

func newClickLatency(argv []string, deps Deps, opts Options) (casebase.Runner, error) {
	c, p, err := startInputLatency(argv, deps, opts)
	if err != nil {
		return nil, err
	}
	return &ClickLatency{InputLatencyCase: c, deps: deps, opts: opts, protocol: p}, nil
}

func newTypeLatency(argv []string, deps Deps, opts Options) (casebase.Runner, error) {
	c, p, err := startInputLatency(argv, deps, opts)
	if err != nil {
		return nil, err
	}
	if opts.Text == "" {
		opts.Text = defaultText
	}
	return &TypeLatency{InputLatencyCase: c, deps: deps, opts: opts, protocol: p}, nil
}

// basePlan fills the fields shared by both input cases
func basePlan(c *casebase.InputLatencyCase, deps Deps, opts Options) (latency.Plan, error) {
	w, err := c.Args.Width()
	if err != nil {
		return latency.Plan{}, err
	}
	h, err := c.Args.Height()
	if err != nil {
		return latency.Plan{}, err
	}

	plan := latency.Plan{
		ReadyPattern:  c.ResolveImage(opts.ReadyPattern),
		ReadyTimeout:  deps.Config.ReadyTimeout,
		Width:         w,
		Height:        h,
		TimestampKey:  deps.Config.TimestampKey,
		TimestampFile: c.Args.TimestampFile,
		SampleDir:     c.Args.SampleDir,
		SampleName:    c.Args.SampleName,
	}
	if opts.Region != "" {
		plan.OnReady = func(match state.Rect) error {
			// a missing calibration only loses the crop hint
			c.SetOverrideRegion(opts.Region, match)
			return nil
		}
	}
	return plan, nil
}

// Run opens the target, holds the mouse button down on the target offset,
// captures the frame and times the button release
func (c *ClickLatency) Run(ctx context.Context) error {
	plan, err := basePlan(c.InputLatencyCase, c.deps, c.opts)
	if err != nil {
		return err
	}
	if err := c.deps.Engine.Open(ctx, c.Defaults.TestTarget); err != nil {
		return fmt.Errorf("open %s: %w", c.Defaults.TestTarget, err)
	}

	plan.Order = latency.StampAfterCapture
	plan.Arm = func(ctx context.Context, match state.Rect) error {
		x, y := match.Offset(c.opts.OffsetX, c.opts.OffsetY)
		if err := c.deps.Engine.Hover(ctx, x, y); err != nil {
			return err
		}
		return c.deps.Engine.MouseDown(ctx)
	}
	plan.Trigger = func(ctx context.Context, _ state.Rect) error {
		c.Log.Info("Mouse Click - Button Up")
		return c.deps.Engine.MouseUp(ctx)
	}

	sample, err := c.protocol.Run(ctx, plan)
	if err != nil {
		return err
	}
	c.Log.Info("Sample saved to %s (t2-t1 = %s)", sample.Path, sample.Latency())
	return nil
}

// Run opens the target, captures the frame and times a key press
func (c *TypeLatency) Run(ctx context.Context) error {
	plan, err := basePlan(c.InputLatencyCase, c.deps, c.opts)
	if err != nil {
		return err
	}
	if err := c.deps.Engine.Open(ctx, c.Defaults.TestTarget); err != nil {
		return fmt.Errorf("open %s: %w", c.Defaults.TestTarget, err)
	}

	plan.Order = latency.StampBeforeCapture
	plan.Trigger = func(ctx context.Context, _ state.Rect) error {
		c.Log.Info("TYPE %q", c.opts.Text)
		return c.deps.Engine.Type(ctx, c.opts.Text)
	}

	sample, err := c.protocol.Run(ctx, plan)
	if err != nil {
		return err
	}
	c.Log.Info("Sample saved to %s (t2-t1 = %s)", sample.Path, sample.Latency())
	return nil
}
