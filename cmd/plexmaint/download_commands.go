package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"plexmaint/internal/app"
	"plexmaint/internal/console"
	"plexmaint/internal/download"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download episodes from a server shared with your plex.tv account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runSession(cmd, func(runCtx context.Context, deps app.Deps) error {
				return app.NewDownloader(deps).Run(runCtx)
			})
		},
	}
	cmd.AddCommand(newDownloadStatusCommand(ctx))
	cmd.AddCommand(newDownloadClearCommand(ctx))
	return cmd
}

func (c *commandContext) withJobStore(fn func(*download.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := download.Open(cfg.JobDBPath())
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newDownloadStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active download job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobStore(func(store *download.Store) error {
				job, err := store.Active(cmd.Context())
				if err != nil {
					return err
				}
				p := ctx.printer(cmd)
				if job == nil {
					p.Plain("No active download job.")
					return nil
				}
				renderJob(p, job)
				return nil
			})
		},
	}
}

func renderJob(p *console.Printer, job *download.Job) {
	pending, completed, failed := job.Counts()
	p.Plain("Job:     %s", job.ID)
	p.Plain("Server:  %s", job.ServerName)
	p.Plain("Library: %s", job.Library)
	p.Plain("Show:    %s", job.Show)
	p.Plain("Folder:  %s", job.Folder)
	p.Plain("Created: %s", job.CreatedAt.Local().Format("2006-01-02 15:04"))
	p.Plain("")

	rows := make([][]string, 0, len(job.Episodes))
	for i, ep := range job.Episodes {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("S%02dE%02d", ep.Season, ep.Index),
			ep.Title,
			string(ep.Status),
			ep.ErrorMessage,
		})
	}
	p.Table(
		[]string{"#", "Episode", "Title", "Status", "Error"},
		rows,
		[]console.Alignment{console.AlignRight, console.AlignLeft, console.AlignLeft, console.AlignLeft, console.AlignLeft},
	)
	summary := fmt.Sprintf("Pending: %d  Completed: %d  Failed: %d", pending, completed, failed)
	if failed > 0 {
		p.Warn("%s", summary)
		return
	}
	p.Info("%s", summary)
}

func newDownloadClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the active download job (downloaded files are kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobStore(func(store *download.Store) error {
				p := ctx.printer(cmd)
				job, err := store.Active(cmd.Context())
				if err != nil {
					return err
				}
				if job == nil {
					p.Plain("No active download job.")
					return nil
				}
				if err := store.Delete(cmd.Context(), job.ID); err != nil {
					return err
				}
				p.Success("Deleted download job %s (%d episode(s)).", job.ID, len(job.Episodes))
				return nil
			})
		},
	}
}
