package engine

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/ailcase/internal/app"
	"github.com/YoshitsuguKoike/ailcase/internal/app/config"
	"github.com/YoshitsuguKoike/ailcase/internal/app/state"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls  []call
	output []byte
	err    error
	fs     afero.Fs
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.err != nil {
		return nil, f.err
	}
	// emulate a capture tool writing its last argument
	if name == "grab" && f.fs != nil {
		if err := afero.WriteFile(f.fs, args[len(args)-1], []byte("img"), 0o644); err != nil {
			return nil, err
		}
	}
	return f.output, nil
}

func testConfig() config.EngineConfig {
	return config.EngineConfig{
		Wait:       []string{"match", "{pattern}", "--timeout", "{timeout}"},
		Capture:    []string{"grab", "{w}x{h}+{x}+{y}", "{out}"},
		Hover:      []string{"pointer", "move", "{x}", "{y}"},
		MouseDown:  []string{"pointer", "down"},
		MouseUp:    []string{"pointer", "up"},
		Type:       []string{"keys", "{text}"},
		Open:       []string{"browser", "{url}"},
		CaptureExt: ".tiff",
		TmpDir:     "/tmp/ail",
	}
}

func newTestExec(cfg config.EngineConfig, r *fakeRunner) *Exec {
	return New(cfg, r.fs, app.NewLogger(app.LogLevelError, &bytes.Buffer{}), r.run)
}

func TestExec_Wait(t *testing.T) {
	r := &fakeRunner{output: []byte("\n120 340 64 32\n")}
	e := newTestExec(testConfig(), r)

	match, err := e.Wait(context.Background(), "icons.png", 15*time.Second)
	require.NoError(t, err)
	assert.Equal(t, state.Rect{X: 120, Y: 340, W: 64, H: 32}, match)
	require.Len(t, r.calls, 1)
	assert.Equal(t, call{name: "match", args: []string{"icons.png", "--timeout", "15"}}, r.calls[0])
}

func TestExec_WaitTimeout(t *testing.T) {
	r := &fakeRunner{err: errors.New("exit status 1")}
	e := newTestExec(testConfig(), r)

	_, err := e.Wait(context.Background(), "icons.png", time.Second)
	assert.Error(t, err)
}

func TestExec_WaitNotConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Wait = nil
	e := newTestExec(cfg, &fakeRunner{})

	_, err := e.Wait(context.Background(), "icons.png", time.Second)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestExec_Capture(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := &fakeRunner{fs: fs}
	e := newTestExec(testConfig(), r)

	first, err := e.Capture(context.Background(), state.Rect{W: 800, H: 600})
	require.NoError(t, err)
	second, err := e.Capture(context.Background(), state.Rect{W: 800, H: 600})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "/tmp/ail", filepath.Dir(first))
	assert.True(t, strings.HasPrefix(filepath.Base(first), "capture-"))
	assert.Equal(t, ".tiff", filepath.Ext(first))
	assert.Equal(t, []string{"800x600+0+0", first}, r.calls[0].args)

	exists, err := afero.Exists(fs, first)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExec_CaptureMissingOutput(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := &fakeRunner{} // does not write the file
	e := New(testConfig(), fs, app.NewLogger(app.LogLevelError, &bytes.Buffer{}), r.run)

	_, err := e.Capture(context.Background(), state.Rect{W: 1, H: 1})
	assert.Error(t, err)
}

func TestExec_InputPrimitives(t *testing.T) {
	r := &fakeRunner{}
	e := newTestExec(testConfig(), r)
	ctx := context.Background()

	require.NoError(t, e.Open(ctx, "http://x"))
	require.NoError(t, e.Hover(ctx, 10, 20))
	require.NoError(t, e.MouseDown(ctx))
	require.NoError(t, e.MouseUp(ctx))
	require.NoError(t, e.Type(ctx, "a"))

	assert.Equal(t, []call{
		{"browser", []string{"http://x"}},
		{"pointer", []string{"move", "10", "20"}},
		{"pointer", []string{"down"}},
		{"pointer", []string{"up"}},
		{"keys", []string{"a"}},
	}, r.calls)
}

func TestExpand(t *testing.T) {
	got := Expand([]string{"{w}x{h}", "{missing}", "plain"}, map[string]string{"w": "8", "h": "6"})
	assert.Equal(t, []string{"8x6", "{missing}", "plain"}, got)
}

func TestParseRect(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    state.Rect
		wantErr bool
	}{
		{"spaces", "1 2 3 4\n", state.Rect{X: 1, Y: 2, W: 3, H: 4}, false},
		{"commas", "1,2,3,4", state.Rect{X: 1, Y: 2, W: 3, H: 4}, false},
		{"empty", "", state.Rect{}, false},
		{"too few", "1 2 3", state.Rect{}, true},
		{"not numbers", "a b c d", state.Rect{}, true},
		{"negative size", "0 0 -1 4", state.Rect{X: 0, Y: 0, W: -1, H: 4}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRect([]byte(tt.out))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
