package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/ailcase/internal/app"
	"github.com/YoshitsuguKoike/ailcase/internal/app/caseargs"
	"github.com/YoshitsuguKoike/ailcase/internal/app/state"
	"github.com/YoshitsuguKoike/ailcase/internal/cases"
	"github.com/YoshitsuguKoike/ailcase/internal/validator/common"
)

func newRunCmd() *cobra.Command {
	var opts cases.Options
	var journal string

	cmd := &cobra.Command{
		Use:   "run <case> <library path> <state file> [additional args...]",
		Short: "Run one latency case",
		Long: "Run one latency case against the browser under test.\n\nAvailable cases: " +
			strings.Join(cases.Names(), ", "),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCase(cmd, args[0], args[1:], opts, journal)
		},
	}

	cmd.Flags().StringVar(&opts.ReadyPattern, "pattern", "", "Image shown once the page is ready, relative to the library path")
	cmd.Flags().StringVar(&opts.Region, "region", "", "Region name calibrated from the ready match")
	cmd.Flags().IntVar(&opts.OffsetX, "offset-x", 0, "Horizontal offset of the click point from the match centre")
	cmd.Flags().IntVar(&opts.OffsetY, "offset-y", 0, "Vertical offset of the click point from the match centre")
	cmd.Flags().StringVar(&opts.Text, "text", "", "Text typed by type-latency")
	cmd.Flags().StringVar(&journal, "journal", "", "Append an NDJSON record of the run to this file")
	return cmd
}

func runCase(cmd *cobra.Command, name string, argv []string, opts cases.Options, journal string) error {
	if globalConfig == nil {
		return fmt.Errorf("configuration not loaded")
	}
	log := app.GetLogger()
	deps := cases.Deps{
		FS:     appFS,
		Engine: newEngine(globalConfig, appFS, log),
		Config: globalConfig,
		Clock:  caseClock,
		Log:    log,
	}

	start := time.Now()
	err := func() error {
		c, err := cases.New(name, argv, deps, opts)
		if err != nil {
			return err
		}
		log.Debug("running case %s", name)
		return c.Run(cmd.Context())
	}()

	if journal != "" && len(argv) >= 2 {
		entry := journalEntry(name, argv[1], err)
		entry.ElapsedMS = time.Since(start).Milliseconds()
		if jerr := app.NewJournalWriter(appFS, journal).Append(entry); jerr != nil {
			log.Warn("failed to append journal %s: %v", journal, jerr)
		}
	}
	return err
}

// journalEntry reads back what the case persisted to the state file
func journalEntry(name, statePath string, runErr error) app.JournalEntry {
	entry := app.JournalEntry{Case: name, StateFile: statePath}
	if runErr != nil {
		entry.Error = runErr.Error()
	}

	doc, err := state.NewStore(appFS, statePath).Load()
	if err != nil {
		return entry
	}
	entry.Target = caseargs.ResolveDefaults(doc).TestTarget
	if runErr != nil {
		return entry
	}
	if v, ok := doc.Field(globalConfig.TimestampKey); ok {
		if rec, ok := v.(map[string]any); ok {
			if t1, ok := common.NumberValue(rec["t1"]); ok {
				entry.T1 = &t1
			}
			if t2, ok := common.NumberValue(rec["t2"]); ok {
				entry.T2 = &t2
			}
		}
	}
	return entry
}
