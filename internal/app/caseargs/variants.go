package caseargs

import (
	"fmt"
	"strconv"
)

// Base declares no additional args
type Base struct{}

func (*Base) Name() string        { return "base" }
func (*Base) Required() int       { return 0 }
func (*Base) bind(values []string) {}

// RunTime declares no additional args beyond Base
type RunTime struct{}

func (*RunTime) Name() string        { return "run-time" }
func (*RunTime) Required() int       { return 0 }
func (*RunTime) bind(values []string) {}

// InputLatency binds five positional args:
//
//	0 sample directory path
//	1 output file name of the first sample
//	2 capture width
//	3 capture height
//	4 timestamp output file path
type InputLatency struct {
	SampleDir     string
	SampleName    string
	RecordWidth   string
	RecordHeight  string
	TimestampFile string
}

func (*InputLatency) Name() string  { return "input-latency" }
func (*InputLatency) Required() int { return 5 }

func (a *InputLatency) bind(values []string) {
	a.SampleDir = values[0]
	a.SampleName = values[1]
	a.RecordWidth = values[2]
	a.RecordHeight = values[3]
	a.TimestampFile = values[4]
}

// Width parses RecordWidth
func (a *InputLatency) Width() (int, error) {
	return parseSize("width", a.RecordWidth)
}

// Height parses RecordHeight
func (a *InputLatency) Height() (int, error) {
	return parseSize("height", a.RecordHeight)
}

func parseSize(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid capture %s %q: %w", name, s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid capture %s %d: must be positive", name, n)
	}
	return n, nil
}
