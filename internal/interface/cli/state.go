package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/ailcase/internal/app/latency"
	appstate "github.com/YoshitsuguKoike/ailcase/internal/app/state"
	"github.com/YoshitsuguKoike/ailcase/internal/validator/common"
	"github.com/YoshitsuguKoike/ailcase/internal/validator/state"
)

func newStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect the run-state document",
		RunE:  func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.AddCommand(newStateShowCmd())
	cmd.AddCommand(newStateVerifyCmd())
	return cmd
}

func newStateShowCmd() *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the sikuli section of a state file",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := appstate.NewStore(appFS, filePath).Load()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(doc.Sikuli())
		},
	}
	cmd.Flags().StringVar(&filePath, "path", "", "Path to the state file")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func newStateVerifyCmd() *cobra.Command {
	var filePath string
	var format string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the state file layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStateVerify(cmd.OutOrStdout(), filePath, format)
		},
	}

	cmd.Flags().StringVar(&filePath, "path", "", "Path to the state file")
	cmd.Flags().StringVar(&format, "format", "", "Output format (json for CI integration)")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func runStateVerify(w io.Writer, filePath, format string) error {
	key := latency.DefaultTimestampKey
	if globalConfig != nil && globalConfig.TimestampKey != "" {
		key = globalConfig.TimestampKey
	}

	result, err := state.ValidateStateFile(appFS, filePath, key)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printStateTextResult(w, result)
	}

	if result.Summary.Error > 0 {
		return fmt.Errorf("%s: %d file(s) failed verification", filePath, result.Summary.Error)
	}
	return nil
}

func printStateTextResult(w io.Writer, result *common.ValidationResult) {
	for _, fileResult := range result.Files {
		for _, issue := range fileResult.Issues {
			label := strings.ToUpper(string(issue.Type))
			if issue.Field != "" {
				fmt.Fprintf(w, "%s: %s %s: %s\n", label, fileResult.File, issue.Field, issue.Message)
			} else {
				fmt.Fprintf(w, "%s: %s %s\n", label, fileResult.File, issue.Message)
			}
		}
	}

	fmt.Fprintf(w, "SUMMARY: files=%d ok=%d warn=%d error=%d\n",
		result.Summary.Files, result.Summary.OK, result.Summary.Warn, result.Summary.Error)
}
