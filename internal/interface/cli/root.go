package cli

import (
	"context"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/ailcase/internal/app"
	"github.com/YoshitsuguKoike/ailcase/internal/app/config"
	"github.com/YoshitsuguKoike/ailcase/internal/app/latency"
	"github.com/YoshitsuguKoike/ailcase/internal/cases"
	infraConfig "github.com/YoshitsuguKoike/ailcase/internal/infra/config"
	"github.com/YoshitsuguKoike/ailcase/internal/infra/engine"
	"github.com/YoshitsuguKoike/ailcase/internal/interface/cli/version"
)

// globalConfig holds the loaded configuration for all commands
var globalConfig *config.Config

// Collaborators swapped out by tests
var (
	appFS     afero.Fs      = afero.NewOsFs()
	caseClock latency.Clock = latency.RealClock()
	newEngine               = func(cfg *config.Config, fs afero.Fs, log app.Logger) cases.Engine {
		return engine.New(cfg.Engine, fs, log, nil)
	}
)

func NewRoot() *cobra.Command {
	var configPath string
	var logLevel string
	var envFile string

	cmd := &cobra.Command{
		Use:           "ailcase",
		Short:         "Browser input latency cases",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				if err := infraConfig.LoadDotEnv(appFS, envFile); err != nil {
					return err
				}
			}
			// Priority: --config > AILCASE_CONFIG > ./ailcase.yaml > defaults
			cfg, err := infraConfig.LoadSettings(appFS, infraConfig.ResolvePath(configPath))
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			app.SetLogger(app.NewLogger(app.ParseLogLevel(cfg.LogLevel), cmd.OutOrStdout()))
			globalConfig = cfg
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the settings file (env "+infraConfig.EnvConfigPath+")")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from a .env file first")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newStateCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(version.NewCommand())
	return cmd
}

// Execute runs the root command and logs a failure the way cases log
func Execute(ctx context.Context) int {
	if err := NewRoot().ExecuteContext(ctx); err != nil {
		app.GetLogger().Error("%v", err)
		return 1
	}
	return 0
}

