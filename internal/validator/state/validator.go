package state

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"

	appstate "github.com/YoshitsuguKoike/ailcase/internal/app/state"
	"github.com/YoshitsuguKoike/ailcase/internal/validator/common"
)

// ValidateStateFile validates a run-state file. timestampKey names the key
// holding the {t1, t2} record; it may be absent before a case has run.
func ValidateStateFile(fs afero.Fs, filePath, timestampKey string) (*common.ValidationResult, error) {
	result := common.NewValidationResult()
	fileResult := common.FileResult{File: filePath}

	data, err := afero.ReadFile(fs, filePath)
	if err != nil {
		if os.IsNotExist(err) {
			common.AddError(&fileResult.Issues, "", "file not found")
			result.AddFileResult(fileResult)
			return result, nil
		}
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	doc, err := appstate.Parse(data)
	if err != nil {
		if errors.Is(err, appstate.ErrParse) {
			common.AddError(&fileResult.Issues, "", "invalid JSON: %v", err)
			result.AddFileResult(fileResult)
			return result, nil
		}
		return nil, err
	}

	fileResult.Issues = validateStateSchema(doc.Raw(), timestampKey)
	if len(fileResult.Issues) == 0 {
		fileResult.Issues = []common.ValidationIssue{{Type: common.SeverityOK, Message: "valid"}}
	}
	result.AddFileResult(fileResult)
	return result, nil
}

// validateStateSchema validates the current_status/sikuli layout
func validateStateSchema(data map[string]interface{}, timestampKey string) []common.ValidationIssue {
	var issues []common.ValidationIssue

	rawStatus, exists := data[appstate.KeyCurrentStatus]
	if !exists {
		common.AddError(&issues, appstate.KeyCurrentStatus, "missing required key: %s", appstate.KeyCurrentStatus)
		return issues
	}
	status, ok := common.ValidateObject(rawStatus, appstate.KeyCurrentStatus, &issues)
	if !ok {
		return issues
	}

	skField := appstate.KeyCurrentStatus + "." + appstate.KeySikuli
	rawSikuli, exists := status[appstate.KeySikuli]
	if !exists {
		common.AddError(&issues, skField, "missing required key: %s", skField)
		return issues
	}
	sikuli, ok := common.ValidateObject(rawSikuli, skField, &issues)
	if !ok {
		return issues
	}

	field := func(k string) string { return skField + "." + k }

	if v, exists := sikuli[appstate.KeyArgs]; exists {
		if args, ok := common.ValidateObject(v, field(appstate.KeyArgs), &issues); ok {
			if target, exists := args["test_target"]; exists {
				common.ValidateStringValue(target, field("args.test_target"), &issues)
			} else {
				common.AddWarn(&issues, field("args.test_target"), "missing test target")
			}
		}
	} else {
		common.AddWarn(&issues, field(appstate.KeyArgs), "missing default args")
	}

	if v, exists := sikuli[appstate.KeyAdditionalArgs]; exists {
		common.ValidateList(v, field(appstate.KeyAdditionalArgs), &issues)
	}
	if v, exists := sikuli[appstate.KeyRegion]; exists {
		common.ValidateRegionMap(v, field(appstate.KeyRegion), &issues)
	}
	if v, exists := sikuli[appstate.KeyRegionOverride]; exists {
		common.ValidateRegionMap(v, field(appstate.KeyRegionOverride), &issues)
	}

	if timestampKey != "" {
		if v, exists := sikuli[timestampKey]; exists {
			validateTimestamps(v, field(timestampKey), &issues)
		}
	}

	return issues
}

func validateTimestamps(value interface{}, fieldName string, issues *[]common.ValidationIssue) {
	rec, ok := common.ValidateObject(value, fieldName, issues)
	if !ok {
		return
	}
	t1, ok1 := common.NumberValue(rec["t1"])
	t2, ok2 := common.NumberValue(rec["t2"])
	if !ok1 || !ok2 {
		common.AddError(issues, fieldName, "t1 and t2 must be numbers")
		return
	}
	if t2 < t1 {
		common.AddError(issues, fieldName, "t2 (%f) is before t1 (%f)", t2, t1)
	}
}
