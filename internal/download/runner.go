package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"plexmaint/internal/logging"
	"plexmaint/internal/plex"
)

var (
	// ErrRunnerBusy is returned when another process holds the download lock.
	ErrRunnerBusy = errors.New("another download run is already in progress")
	// ErrNoMedia marks an episode without a downloadable part.
	ErrNoMedia = errors.New("no media parts found")
)

// Source is a connected server that can look up and stream episodes.
type Source interface {
	PartSource
	Item(ctx context.Context, ratingKey string) (plex.Episode, error)
}

// Resolver reconnects to the server a job was created against.
type Resolver interface {
	ResolveServer(ctx context.Context, clientID string) (Source, error)
}

// AccountResolver finds servers among a plex.tv account's resources.
type AccountResolver struct {
	Account *plex.Account
}

// ResolveServer connects to the server resource with the given client identifier.
func (r AccountResolver) ResolveServer(ctx context.Context, clientID string) (Source, error) {
	res, err := r.Account.ServerByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	server, err := r.Account.ConnectResource(ctx, res)
	if err != nil {
		return nil, err
	}
	return server, nil
}

// EventKind classifies runner progress events.
type EventKind int

const (
	// EventAlreadyCompleted means the episode finished in an earlier run.
	EventAlreadyCompleted EventKind = iota
	// EventStarted means a transfer began; Progress.Downloaded is nonzero on resume.
	EventStarted
	// EventProgress carries an updated byte count.
	EventProgress
	// EventExists means the destination file was already present.
	EventExists
	// EventDone means the episode was downloaded.
	EventDone
	// EventFailed means the episode could not be downloaded; Err says why.
	EventFailed
	// EventInterrupted means the run was cancelled mid-transfer.
	EventInterrupted
)

// Event reports what the runner is doing with one episode.
type Event struct {
	Kind     EventKind
	Episode  JobEpisode
	File     string
	Progress Progress
	Bytes    int64
	Err      error
}

// Summary tallies a Run.
type Summary struct {
	Completed int
	Failed    int
	Skipped   int
}

// RunnerConfig wires a Runner.
type RunnerConfig struct {
	Store     *Store
	Resolver  Resolver
	Fetcher   *Fetcher
	LockPath  string
	Extension string
	Logger    *slog.Logger
	Observer  func(Event)
}

// Runner downloads the pending episodes of a job, persisting each outcome.
type Runner struct {
	cfg    RunnerConfig
	logger *slog.Logger
}

// NewRunner constructs a Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Fetcher == nil {
		cfg.Fetcher = NewFetcher(nil, 0, cfg.Logger)
	}
	if cfg.Extension == "" {
		cfg.Extension = ".mp4"
	}
	return &Runner{cfg: cfg, logger: logging.NewComponentLogger(cfg.Logger, "download")}
}

func (r *Runner) emit(ev Event) {
	if r.cfg.Observer != nil {
		r.cfg.Observer(ev)
	}
}

// Run processes job. Completed episodes are skipped, everything else is
// attempted again. The job is marked finished once every episode completed.
// Cancellation stops the run and leaves the current episode pending.
func (r *Runner) Run(ctx context.Context, job *Job) (Summary, error) {
	var summary Summary
	if job == nil {
		return summary, errors.New("job is nil")
	}
	if r.cfg.LockPath != "" {
		lock := flock.New(r.cfg.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return summary, fmt.Errorf("acquire download lock: %w", err)
		}
		if !ok {
			return summary, ErrRunnerBusy
		}
		defer func() { _ = lock.Unlock() }()
	}

	logger := r.logger.With(
		slog.String(logging.FieldJobID, job.ID),
		slog.String(logging.FieldServer, job.ServerName),
		slog.String(logging.FieldShow, job.Show),
	)
	src, err := r.cfg.Resolver.ResolveServer(ctx, job.ServerClientID)
	if err != nil {
		return summary, fmt.Errorf("could not find the shared server with clientIdentifier=%s: %w", job.ServerClientID, err)
	}

	for i := range job.Episodes {
		ep := &job.Episodes[i]
		if ep.Status == StatusCompleted {
			summary.Skipped++
			r.emit(Event{Kind: EventAlreadyCompleted, Episode: *ep})
			continue
		}
		status, message, err := r.runEpisode(ctx, logger, src, job, *ep)
		if err != nil {
			return summary, err
		}
		saveCtx := context.WithoutCancel(ctx)
		if err := r.cfg.Store.UpdateEpisodeStatus(saveCtx, job.ID, ep.RatingKey, status, message); err != nil {
			return summary, err
		}
		ep.Status, ep.ErrorMessage = status, message
		if status == StatusCompleted {
			summary.Completed++
		} else {
			summary.Failed++
		}
	}

	if job.Done() {
		if err := r.cfg.Store.Finish(ctx, job.ID); err != nil {
			return summary, err
		}
	}
	logger.Info("download run finished",
		slog.Int("completed", summary.Completed),
		slog.Int("failed", summary.Failed),
		slog.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

// runEpisode returns the status to persist. A non-nil error aborts the run.
func (r *Runner) runEpisode(ctx context.Context, logger *slog.Logger, src Source, job *Job, entry JobEpisode) (Status, string, error) {
	fail := func(err error, file string) (Status, string, error) {
		logger.Error("episode download failed",
			slog.String(logging.FieldRatingKey, entry.RatingKey),
			slog.String("title", entry.Title),
			logging.Error(err),
		)
		r.emit(Event{Kind: EventFailed, Episode: entry, File: file, Err: err})
		return StatusFailed, err.Error(), nil
	}

	item, err := src.Item(ctx, entry.RatingKey)
	if err != nil {
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
		return fail(fmt.Errorf("could not fetch episode: %w", err), "")
	}
	show := strings.TrimSpace(item.ShowTitle)
	if show == "" {
		show = job.Show
	}
	file := EpisodeFilename(show, item.Season, item.Index, item.Title, r.cfg.Extension)
	part, ok := item.FirstPart()
	if !ok {
		return fail(ErrNoMedia, file)
	}

	var (
		started bool
		last    Progress
	)
	dest := filepath.Join(job.Folder, file)
	res, err := r.cfg.Fetcher.Fetch(ctx, src, part, dest, func(p Progress) {
		kind := EventProgress
		if !started {
			started = true
			kind = EventStarted
		}
		last = p
		r.emit(Event{Kind: kind, Episode: entry, File: file, Progress: p})
	})
	if err != nil {
		if ctx.Err() != nil {
			r.emit(Event{Kind: EventInterrupted, Episode: entry, File: file, Progress: last, Err: ctx.Err()})
			return "", "", ctx.Err()
		}
		return fail(err, file)
	}
	if res.Existed {
		r.emit(Event{Kind: EventExists, Episode: entry, File: file})
	} else {
		r.emit(Event{Kind: EventDone, Episode: entry, File: file, Bytes: res.Bytes})
	}
	return StatusCompleted, "", nil
}
