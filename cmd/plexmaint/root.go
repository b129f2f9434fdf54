package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"plexmaint/internal/app"
	"plexmaint/internal/console"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var credentialsFlag string
	var logLevelFlag string
	var plainFlag bool

	ctx := newCommandContext(&configFlag, &credentialsFlag, &logLevelFlag, &plainFlag)

	rootCmd := &cobra.Command{
		Use:           "plexmaint",
		Short:         "Plex library maintenance: rename episodes and download shared shows",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runSession(cmd, runRenamer)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&credentialsFlag, "credentials", "", "Plex credential record path (default: state_dir/plex_config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&plainFlag, "plain", false, "Use numbered line prompts and uncolored output")

	rootCmd.AddCommand(newRenameCommand(ctx))
	rootCmd.AddCommand(newDownloadCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newPlexCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))

	return rootCmd
}

func newRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename",
		Short: "Open the interactive rename menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runSession(cmd, runRenamer)
		},
	}
}

func runRenamer(ctx context.Context, deps app.Deps) error {
	return app.NewRenamer(deps).Run(ctx)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func isInterrupt(err error) bool {
	return errors.Is(err, console.ErrInterrupted) || errors.Is(err, context.Canceled)
}
