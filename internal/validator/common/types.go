package common

import "time"

// Severity of a validation issue
type Severity string

const (
	SeverityOK    Severity = "ok"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// ValidationIssue is one finding for a file
type ValidationIssue struct {
	Type    Severity `json:"type"`
	Field   string   `json:"field,omitempty"`
	Message string   `json:"message"`
}

// FileResult groups the issues of one file
type FileResult struct {
	File   string            `json:"file"`
	Issues []ValidationIssue `json:"issues"`
}

// Worst returns the most severe issue type; a file without issues is ok
func (fr FileResult) Worst() Severity {
	worst := SeverityOK
	for _, issue := range fr.Issues {
		switch issue.Type {
		case SeverityError:
			return SeverityError
		case SeverityWarn:
			worst = SeverityWarn
		}
	}
	return worst
}

// ValidationResult is the machine readable report of a verify run
type ValidationResult struct {
	Version     int          `json:"version"`
	GeneratedAt string       `json:"generated_at"`
	Files       []FileResult `json:"files"`
	Summary     Summary      `json:"summary"`
}

// Summary counts files by their worst issue
type Summary struct {
	Files int `json:"files"`
	OK    int `json:"ok"`
	Warn  int `json:"warn"`
	Error int `json:"error"`
}

func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Version:     1,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Files:       []FileResult{},
	}
}

// AddFileResult records fr and counts it in the summary
func (vr *ValidationResult) AddFileResult(fr FileResult) {
	vr.Files = append(vr.Files, fr)
	vr.Summary.Files++

	switch fr.Worst() {
	case SeverityError:
		vr.Summary.Error++
	case SeverityWarn:
		vr.Summary.Warn++
	default:
		vr.Summary.OK++
	}
}
