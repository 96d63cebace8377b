package common

import (
	"encoding/json"
	"fmt"

	"github.com/YoshitsuguKoike/ailcase/internal/app/state"
)

// AddError appends an error issue
func AddError(issues *[]ValidationIssue, field, format string, args ...interface{}) {
	*issues = append(*issues, ValidationIssue{
		Type:    SeverityError,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// AddWarn appends a warning issue
func AddWarn(issues *[]ValidationIssue, field, format string, args ...interface{}) {
	*issues = append(*issues, ValidationIssue{
		Type:    SeverityWarn,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// ValidateObject checks that value is a JSON object
func ValidateObject(value interface{}, fieldName string, issues *[]ValidationIssue) (map[string]interface{}, bool) {
	m, ok := value.(map[string]interface{})
	if !ok {
		AddError(issues, fieldName, "must be an object")
		return nil, false
	}
	return m, true
}

// ValidateList checks that value is a JSON array
func ValidateList(value interface{}, fieldName string, issues *[]ValidationIssue) ([]interface{}, bool) {
	l, ok := value.([]interface{})
	if !ok {
		AddError(issues, fieldName, "must be an array")
		return nil, false
	}
	return l, true
}

// ValidateStringValue validates that value is a string
func ValidateStringValue(value interface{}, fieldName string, issues *[]ValidationIssue) {
	if _, ok := value.(string); !ok {
		AddError(issues, fieldName, "must be a string")
	}
}

// ValidateRegionMap validates a name -> {x,y,w,h} mapping
func ValidateRegionMap(value interface{}, fieldName string, issues *[]ValidationIssue) {
	m, ok := ValidateObject(value, fieldName, issues)
	if !ok {
		return
	}
	for name, entry := range m {
		field := fieldName + "." + name
		e, ok := ValidateObject(entry, field, issues)
		if !ok {
			continue
		}
		r, err := state.RectFromEntry(e)
		if err != nil {
			AddError(issues, field, "invalid rect: %v", err)
			continue
		}
		if err := r.Validate(); err != nil {
			AddError(issues, field, "%v", err)
		}
	}
}

// NumberValue reads a JSON number decoded with or without UseNumber
func NumberValue(value interface{}) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
