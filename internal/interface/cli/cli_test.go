package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/ailcase/internal/app"
	"github.com/YoshitsuguKoike/ailcase/internal/app/casebase"
	"github.com/YoshitsuguKoike/ailcase/internal/app/config"
	"github.com/YoshitsuguKoike/ailcase/internal/app/state"
	"github.com/YoshitsuguKoike/ailcase/internal/cases"
)

const statPath = "/run/stat.json"

type stubEngine struct {
	fs    afero.Fs
	clock *stubClock
	waits []string
}

func (e *stubEngine) Wait(_ context.Context, pattern string, _ time.Duration) (state.Rect, error) {
	e.waits = append(e.waits, pattern)
	e.clock.Sleep(250 * time.Millisecond)
	return state.Rect{X: 10, Y: 20, W: 30, H: 40}, nil
}

func (e *stubEngine) Capture(_ context.Context, _ state.Rect) (string, error) {
	return "/tmp/capture.tiff", afero.WriteFile(e.fs, "/tmp/capture.tiff", []byte("frame"), 0o644)
}

func (e *stubEngine) Hover(context.Context, int, int) error { return nil }
func (e *stubEngine) MouseDown(context.Context) error       { return nil }
func (e *stubEngine) MouseUp(context.Context) error         { return nil }
func (e *stubEngine) Type(context.Context, string) error    { return nil }
func (e *stubEngine) Open(context.Context, string) error    { return nil }

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time        { return c.now }
func (c *stubClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

// setup swaps the package collaborators for in-memory ones
func setup(t *testing.T, stateContent string) (afero.Fs, *stubEngine) {
	t.Helper()
	fs := afero.NewMemMapFs()
	if stateContent != "" {
		require.NoError(t, afero.WriteFile(fs, statPath, []byte(stateContent), 0o644))
	}
	clock := &stubClock{now: time.Unix(1700000000, 0)}
	eng := &stubEngine{fs: fs, clock: clock}

	prevFS, prevClock, prevEngine, prevLog := appFS, caseClock, newEngine, app.GetLogger()
	appFS, caseClock = fs, clock
	newEngine = func(*config.Config, afero.Fs, app.Logger) cases.Engine { return eng }
	t.Setenv("AILCASE_CONFIG", "")
	t.Cleanup(func() {
		appFS, caseClock, newEngine = prevFS, prevClock, prevEngine
		app.SetLogger(prevLog)
		globalConfig = nil
	})
	return fs, eng
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	root := NewRoot()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRun_RunTimeCase(t *testing.T) {
	fs, eng := setup(t, `{"current_status":{"sikuli":{"args":{"test_target":"http://x"},"region_override":{"old":{}}}}}`)

	out, err := execute("run", "run-time", "/lib", statPath, "--pattern", "ready.png")
	require.NoError(t, err)
	assert.Contains(t, out, "[INFO] Run time of http://x")
	assert.Equal(t, []string{"/lib/ready.png"}, eng.waits)

	doc, err := state.NewStore(fs, statPath).Load()
	require.NoError(t, err)
	_, ok := doc.Field("timestamp")
	assert.True(t, ok)
	assert.Empty(t, doc.Status().RegionOverride)
}

func TestRun_ClickLatencyWithSettings(t *testing.T) {
	fs, _ := setup(t, `{"current_status":{"sikuli":{
		"args":{"test_target":"http://x"},
		"additional_args":["/out","case_sample_1.jpg","640","480","/out/ts.json"],
		"region":{"viewer":{"x":0,"y":0,"w":0,"h":0}}}}}`)
	require.NoError(t, afero.WriteFile(fs, "/etc/ailcase.yaml", []byte("timestamp_key: click\nregion_override_mode: merge\n"), 0o644))

	_, err := execute("--config", "/etc/ailcase.yaml", "run", "click-latency", "/lib", statPath,
		"--pattern", "icons.png", "--region", "viewer", "--offset-x", "5")
	require.NoError(t, err)

	doc, err := state.NewStore(fs, statPath).Load()
	require.NoError(t, err)
	_, ok := doc.Field("click")
	assert.True(t, ok)
	assert.Contains(t, doc.Status().RegionOverride, "viewer")

	exists, err := afero.Exists(fs, "/out/case_sample_2.png")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRun_Errors(t *testing.T) {
	setup(t, `{}`)

	_, err := execute("run", "no-such-case", "/lib", statPath)
	assert.ErrorContains(t, err, "unknown case")

	_, err = execute("run", "run-time", "/lib", "--pattern", "ready.png")
	assert.ErrorIs(t, err, casebase.ErrUsage)

	_, err = execute("run", "run-time", "/lib", statPath)
	assert.ErrorContains(t, err, "ready pattern is required")
}

func TestRoot_MalformedSettings(t *testing.T) {
	fs, _ := setup(t, `{}`)
	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("log_level: [\n"), 0o644))

	_, err := execute("--config", "/bad.yaml", "state", "show", "--path", statPath)
	assert.Error(t, err)
}

func TestStateShow(t *testing.T) {
	setup(t, `{"current_status":{"sikuli":{"args":{"test_target":"http://x"}}},"other":1}`)

	out, err := execute("state", "show", "--path", statPath)
	require.NoError(t, err)
	assert.Contains(t, out, `"test_target": "http://x"`)
	assert.NotContains(t, out, "other")
}

func TestStateVerify(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		setup(t, `{"current_status":{"sikuli":{"args":{"test_target":"http://x"}}}}`)
		out, err := execute("state", "verify", "--path", statPath)
		require.NoError(t, err)
		assert.Contains(t, out, "OK: "+statPath+" valid")
		assert.Contains(t, out, "SUMMARY: files=1 ok=1 warn=0 error=0")
	})

	t.Run("invalid", func(t *testing.T) {
		setup(t, `{"current_status":{"sikuli":{"args":{"test_target":"t"},"timestamp":{"t1":2,"t2":1}}}}`)
		out, err := execute("state", "verify", "--path", statPath)
		assert.Error(t, err)
		assert.Contains(t, out, "ERROR: "+statPath)
	})

	t.Run("json", func(t *testing.T) {
		setup(t, `{}`)
		out, err := execute("state", "verify", "--path", statPath, "--format", "json")
		assert.Error(t, err)
		assert.Contains(t, out, `"summary"`)
	})
}

func TestConfigDefaults(t *testing.T) {
	setup(t, "")
	out, err := execute("config", "defaults")
	require.NoError(t, err)
	assert.Contains(t, out, "region_override_mode: replace")
	assert.NotContains(t, out, "tmp_dir")
}

func TestConfigEffective(t *testing.T) {
	setup(t, "")
	out, err := execute("--log-level", "debug", "config", "effective")
	require.NoError(t, err)
	assert.Contains(t, out, "source:               default")
	assert.Contains(t, out, "log_level:            debug")
}

func TestRun_Journal(t *testing.T) {
	fs, _ := setup(t, `{"current_status":{"sikuli":{"args":{"test_target":"http://x"}}}}`)

	_, err := execute("run", "run-time", "/lib", statPath, "--pattern", "ready.png", "--journal", "/var/journal.ndjson")
	require.NoError(t, err)
	_, err = execute("run", "run-time", "/lib", statPath, "--journal", "/var/journal.ndjson")
	require.Error(t, err)

	data, err := afero.ReadFile(fs, "/var/journal.ndjson")
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 2)

	var ok, failed app.JournalEntry
	require.NoError(t, json.Unmarshal(lines[0], &ok))
	require.NoError(t, json.Unmarshal(lines[1], &failed))

	assert.Equal(t, "run-time", ok.Case)
	assert.Equal(t, "http://x", ok.Target)
	require.NotNil(t, ok.LatencyMS)
	assert.InDelta(t, 250.0, *ok.LatencyMS, 1e-3)

	assert.Contains(t, failed.Error, "ready pattern is required")
	assert.Nil(t, failed.T1)
}

func TestRoot_EnvFileSelectsSettings(t *testing.T) {
	fs, _ := setup(t, "")
	require.NoError(t, afero.WriteFile(fs, "/ailcase.env", []byte("AILCASE_CONFIG=/etc/custom.yaml\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/etc/custom.yaml", []byte("timestamp_key: from_env_file\n"), 0o644))
	require.NoError(t, os.Unsetenv("AILCASE_CONFIG"))

	out, err := execute("--env-file", "/ailcase.env", "config", "effective")
	require.NoError(t, err)
	assert.Contains(t, out, "timestamp_key:        from_env_file")
}
