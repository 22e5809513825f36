package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/five82/petdesk/internal/config"
	"github.com/five82/petdesk/internal/logtail"
)

func newLogsCmd(opts *globalOptions) *cobra.Command {
	var (
		lines int
		level string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the tail of the petdesk log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var minLevel slog.Level
			if err := minLevel.UnmarshalText([]byte(level)); err != nil {
				return fmt.Errorf("invalid --level %q", level)
			}
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			tail, err := logtail.Read(cfg.LogFile, lines)
			if err != nil {
				return err
			}
			for _, line := range logtail.Filter(tail, minLevel) {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 200, "number of lines to read from the end, 0 for all")
	cmd.Flags().StringVar(&level, "level", "debug", "minimum level to show")
	return cmd
}
