package config

import "time"

// Config is the resolved harness configuration. Values come from the
// settings file with defaults filled in by the loader.
type Config struct {
	LogLevel string

	ReadyTimeout     time.Duration
	PreCaptureSettle time.Duration
	PostInputSettle  time.Duration

	// TimestampKey is the state document key receiving {t1, t2}
	TimestampKey string
	// RegionOverrideMode is "replace" or "merge"
	RegionOverrideMode string

	Engine EngineConfig

	// Metadata
	ConfigSource string // "yaml" or "default"
	SettingPath  string
}

// EngineConfig holds the command templates of the automation engine.
// Placeholders are expanded per call, e.g. {x} {y} {w} {h} {out}.
type EngineConfig struct {
	Wait      []string
	Capture   []string
	Hover     []string
	MouseDown []string
	MouseUp   []string
	Type      []string
	Open      []string

	// CaptureExt is the native extension of files produced by Capture
	CaptureExt string
	// TmpDir receives captures before they are moved to the sample dir
	TmpDir string
}
