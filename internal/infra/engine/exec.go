// Package engine drives the screen through external command-line tools.
// Every primitive (wait, capture, hover, click, type, open) is a configured
// argv template expanded per call.
package engine

import (
	"bufio"
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/ailcase/internal/app"
	"github.com/YoshitsuguKoike/ailcase/internal/app/config"
	"github.com/YoshitsuguKoike/ailcase/internal/app/state"
)

// waitGrace is added to the wait timeout before the matcher process is killed
const waitGrace = 5 * time.Second

// ErrNotConfigured is returned for primitives without a command template
var ErrNotConfigured = errors.New("engine command not configured")

// Runner executes a command and returns its stdout
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Exec implements the automation primitives with external commands
type Exec struct {
	cfg config.EngineConfig
	fs  afero.Fs
	log app.Logger
	run Runner

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New creates an engine. run may be nil to use os/exec.
func New(cfg config.EngineConfig, fs afero.Fs, log app.Logger, run Runner) *Exec {
	if log == nil {
		log = app.GetLogger()
	}
	if run == nil {
		run = runCommand
	}
	return &Exec{
		cfg:     cfg,
		fs:      fs,
		log:     log,
		run:     run,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Wait runs the matcher command until it reports pattern on screen. The
// command is expected to print "x y w h" of the match; no output yields a
// zero rect.
func (e *Exec) Wait(ctx context.Context, pattern string, timeout time.Duration) (state.Rect, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout+waitGrace)
	defer cancel()

	out, err := e.exec(ctx, "wait", e.cfg.Wait, map[string]string{
		"pattern": pattern,
		"timeout": strconv.Itoa(int(timeout.Round(time.Second) / time.Second)),
	})
	if err != nil {
		return state.Rect{}, err
	}
	return ParseRect(out)
}

// Capture grabs r into a new file under the engine's temp dir
func (e *Exec) Capture(ctx context.Context, r state.Rect) (string, error) {
	if err := e.fs.MkdirAll(e.cfg.TmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create capture dir: %w", err)
	}
	out := filepath.Join(e.cfg.TmpDir, "capture-"+e.newID()+e.cfg.CaptureExt)

	if _, err := e.exec(ctx, "capture", e.cfg.Capture, map[string]string{
		"x":   strconv.Itoa(r.X),
		"y":   strconv.Itoa(r.Y),
		"w":   strconv.Itoa(r.W),
		"h":   strconv.Itoa(r.H),
		"out": out,
	}); err != nil {
		return "", err
	}

	if ok, err := afero.Exists(e.fs, out); err != nil || !ok {
		return "", fmt.Errorf("capture command did not produce %s", out)
	}
	return out, nil
}

// Hover moves the pointer to x, y
func (e *Exec) Hover(ctx context.Context, x, y int) error {
	_, err := e.exec(ctx, "hover", e.cfg.Hover, map[string]string{
		"x": strconv.Itoa(x),
		"y": strconv.Itoa(y),
	})
	return err
}

// MouseDown presses the left button
func (e *Exec) MouseDown(ctx context.Context) error {
	_, err := e.exec(ctx, "mouse_down", e.cfg.MouseDown, nil)
	return err
}

// MouseUp releases the left button
func (e *Exec) MouseUp(ctx context.Context) error {
	_, err := e.exec(ctx, "mouse_up", e.cfg.MouseUp, nil)
	return err
}

// Type sends text as key presses
func (e *Exec) Type(ctx context.Context, text string) error {
	_, err := e.exec(ctx, "type", e.cfg.Type, map[string]string{"text": text})
	return err
}

// Open navigates the browser to url
func (e *Exec) Open(ctx context.Context, url string) error {
	_, err := e.exec(ctx, "open", e.cfg.Open, map[string]string{"url": url})
	return err
}

func (e *Exec) exec(ctx context.Context, name string, tmpl []string, vars map[string]string) ([]byte, error) {
	if len(tmpl) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, name)
	}
	argv := Expand(tmpl, vars)
	e.log.Debug("engine %s: %s", name, strings.Join(argv, " "))

	out, err := e.run(ctx, argv[0], argv[1:]...)
	if err != nil {
		return nil, fmt.Errorf("engine %s: %w", name, err)
	}
	return out, nil
}

func (e *Exec) newID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), e.entropy).String()
}

// Expand replaces {name} placeholders in every template element
func Expand(tmpl []string, vars map[string]string) []string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)

	out := make([]string, len(tmpl))
	for i, s := range tmpl {
		out[i] = r.Replace(s)
	}
	return out
}

// ParseRect reads "x y w h" from the first non-empty output line
func ParseRect(out []byte) (state.Rect, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(strings.NewReplacer(",", " ").Replace(line))
		if len(fields) != 4 {
			return state.Rect{}, fmt.Errorf("unexpected match output %q (want x y w h)", line)
		}
		var n [4]int
		for i, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return state.Rect{}, fmt.Errorf("unexpected match output %q: %w", line, err)
			}
			n[i] = v
		}
		r := state.Rect{X: n[0], Y: n[1], W: n[2], H: n[3]}
		return r, r.Validate()
	}
	return state.Rect{}, nil
}
