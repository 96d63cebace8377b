package casebase

import (
	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/ailcase/internal/app/caseargs"
)

// InputLatencyCase is the startup state of cases that capture an input
// latency sample
type InputLatencyCase struct {
	*Case
	Args caseargs.InputLatency
}

// NewInputLatency starts an input latency case
func NewInputLatency(afs afero.Fs, argv []string, opts ...Option) (*InputLatencyCase, error) {
	c := &InputLatencyCase{}
	base, err := New(afs, argv, &c.Args, opts...)
	if err != nil {
		return nil, err
	}
	c.Case = base
	return c, nil
}

// RunTimeCase is the startup state of cases that time a whole step
type RunTimeCase struct {
	*Case
	Args caseargs.RunTime
}

// NewRunTime starts a run time case
func NewRunTime(afs afero.Fs, argv []string, opts ...Option) (*RunTimeCase, error) {
	c := &RunTimeCase{}
	base, err := New(afs, argv, &c.Args, opts...)
	if err != nil {
		return nil, err
	}
	c.Case = base
	return c, nil
}
