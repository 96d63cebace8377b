package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	infraConfig "github.com/YoshitsuguKoike/ailcase/internal/infra/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Settings file helpers",
		RunE:  func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "defaults",
		Short: "Print a settings file holding every default",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(infraConfig.CreateDefaultSettings())
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "effective",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := globalConfig
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "source:               %s %s\n", c.ConfigSource, c.SettingPath)
			fmt.Fprintf(w, "log_level:            %s\n", c.LogLevel)
			fmt.Fprintf(w, "ready_timeout:        %s\n", c.ReadyTimeout)
			fmt.Fprintf(w, "pre_capture_settle:   %s\n", c.PreCaptureSettle)
			fmt.Fprintf(w, "post_input_settle:    %s\n", c.PostInputSettle)
			fmt.Fprintf(w, "timestamp_key:        %s\n", c.TimestampKey)
			fmt.Fprintf(w, "region_override_mode: %s\n", c.RegionOverrideMode)
			fmt.Fprintf(w, "capture_ext:          %s\n", c.Engine.CaptureExt)
			fmt.Fprintf(w, "tmp_dir:              %s\n", c.Engine.TmpDir)
			return nil
		},
	})
	return cmd
}
