package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"plexmaint/internal/config"
	"plexmaint/internal/credentials"
	"plexmaint/internal/download"
	"plexmaint/internal/logging"
	"plexmaint/internal/plex"
)

// Downloader is the shared-library download session.
type Downloader struct {
	deps   Deps
	logger *slog.Logger

	progressOpen bool
}

// NewDownloader builds a download session.
func NewDownloader(deps Deps) *Downloader {
	return &Downloader{
		deps:   deps,
		logger: logging.NewComponentLogger(deps.logger(), "downloader"),
	}
}

// Run loads credentials, picks or resumes a job, and downloads it.
func (d *Downloader) Run(ctx context.Context) error {
	p := d.deps.Printer
	p.Info("=== Plex Shared Downloader ===\n")

	record, token, err := d.ensureToken(ctx)
	if err != nil {
		return interruptErr(err)
	}
	if token == "" {
		p.Failure("Cannot proceed without config. Exiting.")
		return nil
	}

	account := d.deps.account(record, token)
	shared, err := account.SharedServers(ctx)
	if err != nil {
		if interrupted(err) {
			return interruptErr(err)
		}
		d.logger.Error("plex.tv connection failed", logging.Error(err))
		p.Failure("Error connecting to MyPlex: %v", err)
		return nil
	}
	p.Success("Connected to MyPlex successfully!")

	store, err := download.Open(d.deps.Config.JobDBPath())
	if err != nil {
		return err
	}
	defer store.Close()

	job, err := d.resumeOrCreate(ctx, store, account, shared)
	if err != nil {
		return interruptErr(err)
	}
	if job == nil {
		p.Failure("No job available. Exiting.")
		return nil
	}
	return d.runJob(ctx, store, download.AccountResolver{Account: account}, job)
}

// ensureToken returns the credential record and the token to use with
// plex.tv, creating and saving one when the record has none.
func (d *Downloader) ensureToken(ctx context.Context) (credentials.Record, string, error) {
	p, in := d.deps.Printer, d.deps.Prompter
	path := d.deps.Credentials.Path()

	record, err := d.deps.Credentials.Read()
	switch {
	case errors.Is(err, credentials.ErrNotFound):
		p.Warn("No config file found (%s). Let's create it.", path)
		record = credentials.Record{}
	case err != nil:
		p.Failure("Invalid config file: %v", err)
		record = credentials.Record{}
	default:
		p.Success("Loaded config from %s.", path)
	}
	if record.Token != "" {
		return record, record.Token, nil
	}

	create, err := in.Confirm("No valid Plex config. Create one now?", true)
	if err != nil || !create {
		return record, "", err
	}
	if strings.TrimSpace(record.ClientIdentifier) == "" {
		record.ClientIdentifier = credentials.NewClientIdentifier()
	}
	username, err := in.Input("Plex.tv username (or blank if you have a token)", record.Username)
	if err != nil {
		return record, "", err
	}
	var token string
	if username != "" {
		password, err := in.Secret("Plex.tv password")
		if err != nil {
			return record, "", err
		}
		token, err = d.deps.account(record, "").SignIn(ctx, username, password)
		if err != nil {
			if interrupted(err) {
				return record, "", err
			}
			p.Failure("Failed to get token: %v", err)
			return record, "", nil
		}
	} else {
		if token, err = in.Input("Enter your existing Plex token", ""); err != nil {
			return record, "", err
		}
	}
	if token == "" {
		return record, "", nil
	}

	record.Username, record.Token = username, token
	saved, err := d.deps.Credentials.Save(record)
	if err != nil {
		p.Failure("Failed to save config: %v", err)
		return record, token, nil
	}
	return saved, token, nil
}

func (d *Downloader) resumeOrCreate(ctx context.Context, store *download.Store, account *plex.Account, shared []plex.Resource) (*download.Job, error) {
	p := d.deps.Printer
	active, err := store.Active(ctx)
	if err != nil {
		return nil, err
	}
	if active != nil {
		p.Warn("A download job already exists! Resume (R) or create new (N)?")
		answer, err := d.deps.Prompter.Input("Enter R or N", "R")
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "r") {
			p.Success("Resuming existing download job.")
			return active, nil
		}
		p.Info("Starting a brand new job.")
		if err := store.Delete(ctx, active.ID); err != nil {
			return nil, err
		}
	}
	return d.createJob(ctx, store, account, shared)
}

func (d *Downloader) createJob(ctx context.Context, store *download.Store, account *plex.Account, shared []plex.Resource) (*download.Job, error) {
	p, in := d.deps.Printer, d.deps.Prompter
	if len(shared) == 0 {
		p.Failure("No shared servers found in your MyPlex account.")
		return nil, nil
	}
	names := make([]string, len(shared))
	for i, res := range shared {
		names[i] = res.Name
	}
	choice, err := in.Choose("Select a shared server", names)
	if err != nil {
		return nil, err
	}
	res := shared[choice]
	server, err := account.ConnectResource(ctx, res)
	if err != nil {
		if interrupted(err) {
			return nil, err
		}
		d.logger.Warn("shared server connection failed", slog.String(logging.FieldServer, res.Name), logging.Error(err))
		p.Failure("Could not connect to '%s': %v", res.Name, err)
		return nil, nil
	}

	sections, err := server.Sections(ctx)
	if err != nil {
		return nil, err
	}
	var tv []plex.Section
	for _, section := range sections {
		if section.IsTV() {
			tv = append(tv, section)
		}
	}
	if len(tv) == 0 {
		p.Failure("No TV Show libraries found on this server.")
		return nil, nil
	}
	if choice, err = in.Choose("Select a TV library", sectionTitles(tv)); err != nil {
		return nil, err
	}
	section := tv[choice]

	shows, err := server.SectionItems(ctx, section.Key)
	if err != nil {
		return nil, err
	}
	if len(shows) == 0 {
		p.Warn("No shows found in library '%s'.", section.Title)
		return nil, nil
	}
	if choice, err = in.Choose("Select a Show to download episodes from", showTitles(shows)); err != nil {
		return nil, err
	}
	show := shows[choice]

	episodes, err := d.selectEpisodes(ctx, server, show)
	if err != nil || len(episodes) == 0 {
		return nil, err
	}

	folder, err := in.Input("Enter the folder to save downloads", d.deps.Config.Paths.DownloadDir)
	if err != nil {
		return nil, err
	}
	if folder, err = config.ExpandPath(folder); err != nil {
		return nil, err
	}

	job := &download.Job{
		ServerClientID: res.ClientIdentifier,
		ServerName:     res.Name,
		Library:        section.Title,
		Show:           show.Title,
		Folder:         folder,
	}
	for _, ep := range episodes {
		job.Episodes = append(job.Episodes, download.JobEpisode{
			RatingKey: ep.RatingKey,
			Title:     ep.Title,
			Season:    ep.Season,
			Index:     ep.Index,
		})
	}
	created, err := store.Create(ctx, job)
	if err != nil {
		return nil, err
	}
	p.Success("Created new job with %d episode(s).", len(created.Episodes))
	return created, nil
}

const (
	modeAll = iota
	modeSeason
	modeSeasons
	modeEpisode
)

// selectEpisodes returns nil without error when the user's choice matched
// nothing; the reason has already been printed.
func (d *Downloader) selectEpisodes(ctx context.Context, server *plex.Server, show plex.Show) ([]plex.Episode, error) {
	p, in := d.deps.Printer, d.deps.Prompter
	mode, err := in.Choose("Download Options", []string{
		"All episodes",
		"A single season",
		"Multiple seasons (comma/range, e.g. '1,2,4-6')",
		"A single episode",
	})
	if err != nil {
		return nil, err
	}
	if mode == modeAll {
		episodes, err := server.ShowEpisodes(ctx, show.RatingKey)
		if err != nil {
			return nil, err
		}
		return d.nonEmpty(episodes), nil
	}

	seasons, err := server.Seasons(ctx, show.RatingKey)
	if err != nil {
		return nil, err
	}
	if len(seasons) == 0 {
		p.Failure("No seasons found.")
		return nil, nil
	}

	var episodes []plex.Episode
	switch mode {
	case modeSeasons:
		p.Plain("\nSeasons:")
		for i, season := range seasons {
			p.Plain("  %d. %s", i+1, season.Title)
		}
		raw, err := in.Input("Enter season numbers or ranges (e.g. '1,2,4-6')", "")
		if err != nil {
			return nil, err
		}
		picked := download.ParseSeasonRanges(raw, len(seasons))
		if len(picked) == 0 {
			p.Failure("No valid seasons selected.")
			return nil, nil
		}
		for _, n := range picked {
			eps, err := server.Episodes(ctx, seasons[n-1].RatingKey)
			if err != nil {
				return nil, err
			}
			episodes = append(episodes, eps...)
		}
	default:
		choice, err := in.Choose("Select a season", seasonTitles(seasons))
		if err != nil {
			return nil, err
		}
		if episodes, err = server.Episodes(ctx, seasons[choice].RatingKey); err != nil {
			return nil, err
		}
		if mode == modeEpisode {
			if len(episodes) == 0 {
				p.Failure("No episodes found in that season.")
				return nil, nil
			}
			labels := make([]string, len(episodes))
			for i, ep := range episodes {
				labels[i] = episodeLabel(ep)
			}
			if choice, err = in.Choose("Select an episode", labels); err != nil {
				return nil, err
			}
			episodes = episodes[choice : choice+1]
		}
	}
	return d.nonEmpty(episodes), nil
}

func episodeLabel(ep plex.Episode) string {
	return fmt.Sprintf("E%02d - %s", ep.Index, ep.Title)
}

func (d *Downloader) nonEmpty(episodes []plex.Episode) []plex.Episode {
	if len(episodes) == 0 {
		d.deps.Printer.Warn("No episodes selected.")
		return nil
	}
	return episodes
}

func (d *Downloader) runJob(ctx context.Context, store *download.Store, resolver download.Resolver, job *download.Job) error {
	p := d.deps.Printer
	cfg := d.deps.Config
	p.Success("\nStarting or continuing job with %d episodes.", len(job.Episodes))

	runner := download.NewRunner(download.RunnerConfig{
		Store:     store,
		Resolver:  resolver,
		Fetcher:   download.NewFetcher(d.deps.DownloadClient, cfg.Download.ChunkSize, d.deps.logger()),
		LockPath:  cfg.LockPath("download"),
		Extension: cfg.Download.Extension,
		Logger:    d.deps.logger(),
		Observer:  d.render,
	})
	_, err := runner.Run(ctx, job)
	switch {
	case err == nil:
		p.Success("All downloads (attempted).")
		return nil
	case interrupted(err):
		d.closeProgress()
		p.Failure("\n[INTERRUPT] User cancelled. Partial progress saved.")
		return nil
	case errors.Is(err, download.ErrRunnerBusy):
		p.Failure("%v", err)
		return nil
	default:
		d.logger.Error("download run failed", slog.String(logging.FieldJobID, job.ID), logging.Error(err))
		p.Failure("%v", err)
		return nil
	}
}

func (d *Downloader) closeProgress() {
	if d.progressOpen {
		d.progressOpen = false
		fmt.Fprintln(d.deps.Printer.Writer())
	}
}

func (d *Downloader) render(ev download.Event) {
	p := d.deps.Printer
	switch ev.Kind {
	case download.EventAlreadyCompleted:
		p.Warn("Skipping '%s', already completed.", ev.Episode.Title)
	case download.EventStarted:
		if ev.Progress.Downloaded > 0 {
			p.Success("[RESUME] Found partial .tmp with %d bytes. Attempting Range resume.", ev.Progress.Downloaded)
		}
		p.Success("[DOWNLOADING] %s", ev.File)
	case download.EventProgress:
		if pct := ev.Progress.Percent(); pct >= 0 {
			p.Overwrite("  => %.2f%% of %s", pct, ev.File)
			d.progressOpen = true
		}
	case download.EventExists:
		p.Warn("[SKIP] %s already exists.", ev.File)
	case download.EventDone:
		d.closeProgress()
		p.Success("[DONE] %s (%d bytes)", ev.File, ev.Bytes)
	case download.EventFailed:
		d.closeProgress()
		switch {
		case errors.Is(ev.Err, download.ErrNoMedia):
			p.Failure("[SKIP] No media for '%s'", ev.Episode.Title)
		case errors.Is(ev.Err, download.ErrEmptyDownload):
			p.Failure("[FAIL] %s is 0 bytes.", ev.File)
		case ev.File == "":
			p.Failure("[ERROR] '%s' => %v", ev.Episode.Title, ev.Err)
		default:
			p.Failure("[ERROR] %s => %v", ev.File, ev.Err)
		}
	case download.EventInterrupted:
		d.closeProgress()
		p.Failure("\n[INTERRUPT] %s paused at %d bytes.", ev.File, ev.Progress.Downloaded)
	}
}
