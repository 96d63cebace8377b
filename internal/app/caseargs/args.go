// Package caseargs resolves case configuration out of a loaded state
// document: the default args mapping and the positional additional args
// that each case variant declares.
package caseargs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/YoshitsuguKoike/ailcase/internal/app/state"
)

// Keys of the default args mapping
const (
	KeyCaseOutputName = "case_output_name"
	KeyRootFolder     = "hasal_root_folder"
	KeyTestTarget     = "test_target"
)

// ErrMissingArgument is returned when additional_args is shorter than the
// variant requires. It is a fatal startup error.
var ErrMissingArgument = errors.New("additional argument index out of range")

// Defaults holds the orchestrator-supplied default args
type Defaults struct {
	CaseOutputName string
	RootFolder     string
	TestTarget     string
}

// ResolveDefaults reads the default args. Missing keys resolve to "".
func ResolveDefaults(doc *state.Document) Defaults {
	args := doc.Status().Args
	return Defaults{
		CaseOutputName: stringValue(args[KeyCaseOutputName]),
		RootFolder:     stringValue(args[KeyRootFolder]),
		TestTarget:     stringValue(args[KeyTestTarget]),
	}
}

// Variant is a case type's declaration of its positional additional args
type Variant interface {
	Name() string
	// Required is the number of leading additional_args the variant binds
	Required() int
	bind(values []string)
}

// Resolve binds the document's additional_args into v
func Resolve(doc *state.Document, v Variant) error {
	raw := doc.Status().AdditionalArgs
	if len(raw) < v.Required() {
		return fmt.Errorf("%w: %s case needs %d additional args, got %d",
			ErrMissingArgument, v.Name(), v.Required(), len(raw))
	}

	values := make([]string, v.Required())
	for i := range values {
		values[i] = stringValue(raw[i])
	}
	v.bind(values)
	return nil
}

// Additional returns every additional arg as a string
func Additional(doc *state.Document) []string {
	raw := doc.Status().AdditionalArgs
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = stringValue(v)
	}
	return out
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return fmt.Sprint(s)
		}
		return string(b)
	}
}
