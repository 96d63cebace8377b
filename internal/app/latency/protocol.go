// Package latency implements the capture discipline around a single input
// event: wait for the page, settle, capture the screen, take t1, fire the
// input, settle, take t2, then persist the pair and the captured frame.
package latency

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/ailcase/internal/app"
	"github.com/YoshitsuguKoike/ailcase/internal/app/state"
	"github.com/YoshitsuguKoike/ailcase/internal/infra/fs"
)

// Default settle delays
const (
	DefaultPreCaptureSettle = 2 * time.Second
	DefaultPostInputSettle  = 100 * time.Millisecond
	DefaultReadyTimeout     = 15 * time.Second
	DefaultTimestampKey     = "timestamp"
	DefaultSampleIndex      = 2
)

var (
	// ErrNotReady is returned when the ready signal did not appear in time
	ErrNotReady = errors.New("application ready signal not found")
	// ErrClockSkew is returned when t2 precedes t1
	ErrClockSkew = errors.New("t2 recorded before t1")
)

// Matcher waits for an image pattern on screen and returns where it matched
type Matcher interface {
	Wait(ctx context.Context, pattern string, timeout time.Duration) (state.Rect, error)
}

// Capturer grabs a screen rectangle into a temporary image file
type Capturer interface {
	Capture(ctx context.Context, r state.Rect) (string, error)
}

// Action is an input step. match is the rectangle returned by the ready wait.
type Action func(ctx context.Context, match state.Rect) error

// StampOrder places t1 relative to the capture
type StampOrder int

const (
	// StampAfterCapture takes t1 right after the frame is captured
	StampAfterCapture StampOrder = iota
	// StampBeforeCapture takes t1 right before the frame is captured
	StampBeforeCapture
)

// TimestampRecord is the persisted {t1, t2} pair in seconds since the epoch
type TimestampRecord struct {
	T1 float64 `json:"t1"`
	T2 float64 `json:"t2"`
}

// Plan describes one latency sample
type Plan struct {
	ReadyPattern string
	ReadyTimeout time.Duration
	// OnReady runs after the ready wait, before the settle delay
	OnReady func(match state.Rect) error

	Width  int
	Height int
	Order  StampOrder

	// Arm runs before the capture (e.g. hover and mouse-down)
	Arm Action
	// Trigger is the input event under test
	Trigger Action

	TimestampKey  string
	TimestampFile string

	SampleDir   string
	SampleName  string
	SampleIndex int
}

// Sample is the outcome of a completed plan
type Sample struct {
	TimestampRecord
	Path  string
	Match state.Rect
}

// Latency returns t2 - t1
func (s *Sample) Latency() time.Duration {
	return time.Duration((s.T2 - s.T1) * float64(time.Second))
}

// Config holds the protocol's tunables
type Config struct {
	PreCaptureSettle time.Duration
	PostInputSettle  time.Duration
	Clock            Clock
	Log              app.Logger
}

// Protocol runs plans against the automation collaborators
type Protocol struct {
	store    *state.Store
	fs       afero.Fs
	matcher  Matcher
	capturer Capturer
	cfg      Config
}

// NewProtocol creates a protocol. Zero config fields take defaults.
func NewProtocol(store *state.Store, afs afero.Fs, m Matcher, c Capturer, cfg Config) *Protocol {
	if cfg.PreCaptureSettle == 0 {
		cfg.PreCaptureSettle = DefaultPreCaptureSettle
	}
	if cfg.PostInputSettle == 0 {
		cfg.PostInputSettle = DefaultPostInputSettle
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock()
	}
	if cfg.Log == nil {
		cfg.Log = app.GetLogger()
	}
	return &Protocol{store: store, fs: afs, matcher: m, capturer: c, cfg: cfg}
}

// Run executes the plan. Once the capture starts the sequence runs to the
// end; ctx is only consulted by the collaborators themselves.
func (p *Protocol) Run(ctx context.Context, plan Plan) (*Sample, error) {
	if plan.Trigger == nil {
		return nil, fmt.Errorf("latency plan has no trigger action")
	}
	if plan.Width <= 0 || plan.Height <= 0 {
		return nil, fmt.Errorf("invalid capture size %dx%d", plan.Width, plan.Height)
	}

	match, err := p.WaitReady(ctx, plan.ReadyPattern, plan.ReadyTimeout)
	if err != nil {
		return nil, err
	}
	if plan.OnReady != nil {
		if err := plan.OnReady(match); err != nil {
			return nil, err
		}
	}

	p.cfg.Clock.Sleep(p.cfg.PreCaptureSettle)

	if plan.Arm != nil {
		if err := plan.Arm(ctx, match); err != nil {
			return nil, fmt.Errorf("arm input: %w", err)
		}
	}

	var t1 time.Time
	if plan.Order == StampBeforeCapture {
		t1 = p.cfg.Clock.Now()
	}
	capture, err := p.capturer.Capture(ctx, state.Rect{X: 0, Y: 0, W: plan.Width, H: plan.Height})
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	if plan.Order == StampAfterCapture {
		t1 = p.cfg.Clock.Now()
	}

	if err := plan.Trigger(ctx, match); err != nil {
		p.discard(capture)
		return nil, fmt.Errorf("trigger input: %w", err)
	}
	p.cfg.Clock.Sleep(p.cfg.PostInputSettle)
	t2 := p.cfg.Clock.Now()

	rec, err := p.persist(plan.TimestampKey, plan.TimestampFile, t1, t2)
	if err != nil {
		p.discard(capture)
		return nil, err
	}

	index := plan.SampleIndex
	if index == 0 {
		index = DefaultSampleIndex
	}
	dst := SampleFilename(plan.SampleDir, plan.SampleName, index)
	if err := fs.MoveFile(p.fs, capture, dst); err != nil {
		p.discard(capture)
		return nil, fmt.Errorf("store capture: %w", err)
	}
	p.cfg.Log.Debug("sample %d stored at %s", index, dst)

	return &Sample{TimestampRecord: rec, Path: dst, Match: match}, nil
}

// discard removes a temporary capture that will not become a sample
func (p *Protocol) discard(capture string) {
	if err := p.fs.Remove(capture); err != nil && !os.IsNotExist(err) {
		p.cfg.Log.Warn("failed to remove capture %s: %v", capture, err)
	}
}

// WaitReady blocks until pattern is on screen or timeout elapses
func (p *Protocol) WaitReady(ctx context.Context, pattern string, timeout time.Duration) (state.Rect, error) {
	if timeout <= 0 {
		timeout = DefaultReadyTimeout
	}
	match, err := p.matcher.Wait(ctx, pattern, timeout)
	if err != nil {
		return state.Rect{}, fmt.Errorf("%w: %s within %s: %v", ErrNotReady, pattern, timeout, err)
	}
	return match, nil
}

// Interval brackets fn with t1 and t2 and persists the pair. It is used by
// cases that time a whole step rather than a single frame.
func (p *Protocol) Interval(ctx context.Context, key, file string, fn func(ctx context.Context) error) (*Sample, error) {
	t1 := p.cfg.Clock.Now()
	if err := fn(ctx); err != nil {
		return nil, err
	}
	t2 := p.cfg.Clock.Now()

	rec, err := p.persist(key, file, t1, t2)
	if err != nil {
		return nil, err
	}
	return &Sample{TimestampRecord: rec}, nil
}

func (p *Protocol) persist(key, file string, t1, t2 time.Time) (TimestampRecord, error) {
	// compare the wall-clock values that get written, not the monotonic readings
	rec := TimestampRecord{T1: epochSeconds(t1), T2: epochSeconds(t2)}
	if rec.T2 < rec.T1 {
		return TimestampRecord{}, fmt.Errorf("%w: t1=%.6f t2=%.6f", ErrClockSkew, rec.T1, rec.T2)
	}

	if key == "" {
		key = DefaultTimestampKey
	}
	if err := p.store.MergeField(key, rec); err != nil {
		return TimestampRecord{}, fmt.Errorf("save timestamps: %w", err)
	}
	if file != "" {
		if err := fs.UpdateJSON(p.fs, file, map[string]any{"t1": rec.T1, "t2": rec.T2}); err != nil {
			return TimestampRecord{}, fmt.Errorf("save timestamp file: %w", err)
		}
	}
	p.cfg.Log.Debug("timestamps t1=%.6f t2=%.6f", rec.T1, rec.T2)
	return rec, nil
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
