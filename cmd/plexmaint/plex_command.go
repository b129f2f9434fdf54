package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"plexmaint/internal/app"
)

const linkTimeout = 5 * time.Minute

func newPlexCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plex",
		Short: "Manage the Plex connection",
	}

	cmd.AddCommand(newPlexLinkCommand(ctx))

	return cmd
}

func newPlexLinkCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "link",
		Short: "Store a plex.tv token using the device link flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runSession(cmd, func(runCtx context.Context, deps app.Deps) error {
				linkCtx, cancel := context.WithTimeout(runCtx, linkTimeout)
				defer cancel()
				return app.Link(linkCtx, deps)
			})
		},
	}
}
