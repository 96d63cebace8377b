package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/YoshitsuguKoike/ailcase/internal/app/config"
)

// EnvConfigPath overrides the default settings file location
const EnvConfigPath = "AILCASE_CONFIG"

// DefaultConfigPath is used when neither a flag nor the env var is set
const DefaultConfigPath = "ailcase.yaml"

// RawSettings represents the structure of the settings file.
// Nil fields are filled by applyDefaults.
type RawSettings struct {
	LogLevel *string `yaml:"log_level"`

	ReadyTimeoutSec  *int    `yaml:"ready_timeout_sec"`
	PreCaptureSettle *string `yaml:"pre_capture_settle"`
	PostInputSettle  *string `yaml:"post_input_settle"`

	TimestampKey       *string `yaml:"timestamp_key"`
	RegionOverrideMode *string `yaml:"region_override_mode"`

	Engine RawEngine `yaml:"engine"`
}

// RawEngine is the engine section of the settings file
type RawEngine struct {
	Wait      []string `yaml:"wait"`
	Capture   []string `yaml:"capture"`
	Hover     []string `yaml:"hover"`
	MouseDown []string `yaml:"mouse_down"`
	MouseUp   []string `yaml:"mouse_up"`
	Type      []string `yaml:"type"`
	Open      []string `yaml:"open"`

	CaptureExt *string `yaml:"capture_ext"`
	TmpDir     *string `yaml:"tmp_dir,omitempty"`
}

// ResolvePath picks the settings path: explicit flag > env > default
func ResolvePath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultConfigPath
}

// LoadSettings loads configuration from the YAML settings file at path.
// A missing file yields the defaults; a malformed file is an error.
func LoadSettings(fs afero.Fs, path string) (*config.Config, error) {
	settings := &RawSettings{}
	configSource := "default"
	settingPath := ""

	if data, err := afero.ReadFile(fs, path); err == nil {
		if err := yaml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		configSource = "yaml"
		settingPath = path
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	applyDefaults(settings)

	return buildConfig(settings, configSource, settingPath)
}

// applyDefaults fills in default values for any nil fields
func applyDefaults(s *RawSettings) {
	if s.LogLevel == nil {
		v := "info"
		s.LogLevel = &v
	}
	if s.ReadyTimeoutSec == nil {
		v := 15
		s.ReadyTimeoutSec = &v
	}
	if s.PreCaptureSettle == nil {
		v := "2s"
		s.PreCaptureSettle = &v
	}
	if s.PostInputSettle == nil {
		v := "100ms"
		s.PostInputSettle = &v
	}
	if s.TimestampKey == nil {
		v := "timestamp"
		s.TimestampKey = &v
	}
	if s.RegionOverrideMode == nil {
		v := "replace"
		s.RegionOverrideMode = &v
	}

	e := &s.Engine
	if e.Capture == nil {
		e.Capture = []string{"import", "-window", "root", "-crop", "{w}x{h}+{x}+{y}", "{out}"}
	}
	if e.Hover == nil {
		e.Hover = []string{"xdotool", "mousemove", "{x}", "{y}"}
	}
	if e.MouseDown == nil {
		e.MouseDown = []string{"xdotool", "mousedown", "1"}
	}
	if e.MouseUp == nil {
		e.MouseUp = []string{"xdotool", "mouseup", "1"}
	}
	if e.Type == nil {
		e.Type = []string{"xdotool", "type", "--delay", "0", "{text}"}
	}
	if e.Open == nil {
		e.Open = []string{"xdg-open", "{url}"}
	}
	if e.CaptureExt == nil {
		v := ".tiff"
		e.CaptureExt = &v
	}
	if e.TmpDir == nil {
		v := os.TempDir()
		e.TmpDir = &v
	}
}

// buildConfig converts RawSettings to Config
func buildConfig(s *RawSettings, configSource, settingPath string) (*config.Config, error) {
	pre, err := time.ParseDuration(*s.PreCaptureSettle)
	if err != nil {
		return nil, fmt.Errorf("invalid pre_capture_settle %q: %w", *s.PreCaptureSettle, err)
	}
	post, err := time.ParseDuration(*s.PostInputSettle)
	if err != nil {
		return nil, fmt.Errorf("invalid post_input_settle %q: %w", *s.PostInputSettle, err)
	}
	if *s.ReadyTimeoutSec <= 0 {
		return nil, fmt.Errorf("invalid ready_timeout_sec %d: must be positive", *s.ReadyTimeoutSec)
	}

	return &config.Config{
		LogLevel:           *s.LogLevel,
		ReadyTimeout:       time.Duration(*s.ReadyTimeoutSec) * time.Second,
		PreCaptureSettle:   pre,
		PostInputSettle:    post,
		TimestampKey:       *s.TimestampKey,
		RegionOverrideMode: *s.RegionOverrideMode,
		Engine: config.EngineConfig{
			Wait:       s.Engine.Wait,
			Capture:    s.Engine.Capture,
			Hover:      s.Engine.Hover,
			MouseDown:  s.Engine.MouseDown,
			MouseUp:    s.Engine.MouseUp,
			Type:       s.Engine.Type,
			Open:       s.Engine.Open,
			CaptureExt: *s.Engine.CaptureExt,
			TmpDir:     *s.Engine.TmpDir,
		},
		ConfigSource: configSource,
		SettingPath:  settingPath,
	}, nil
}

// CreateDefaultSettings renders the default settings file content
func CreateDefaultSettings() []byte {
	settings := &RawSettings{}
	applyDefaults(settings)
	// tmp_dir is host specific
	settings.Engine.TmpDir = nil

	data, _ := yaml.Marshal(settings)
	return data
}
