package rename

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"golang.org/x/text/cases"

	"plexmaint/internal/logging"
	"plexmaint/internal/plex"
)

// AllSeasons selects every season of a show.
const AllSeasons = "ALL"

// ErrNotConnected is returned when no Plex server connection is available.
var ErrNotConnected = errors.New("not connected to Plex; connect first")

// Library is the slice of the Plex server API renaming needs.
type Library interface {
	Section(ctx context.Context, title string) (plex.Section, error)
	FindShow(ctx context.Context, sectionKey, title string) (plex.Show, error)
	Seasons(ctx context.Context, showKey string) ([]plex.Season, error)
	Episodes(ctx context.Context, seasonKey string) ([]plex.Episode, error)
	EditTitle(ctx context.Context, ep plex.Episode, title string) error
}

// Change records one applied title edit.
type Change struct {
	RatingKey string
	Season    string
	Old       string
	New       string
}

// Skip reasons.
const (
	SkipNoMedia    = "no media"
	SkipNoFilePath = "no file path"
)

// Skip records an episode that could not be renamed.
type Skip struct {
	RatingKey string
	Title     string
	Reason    string
}

// Result summarises a rename run.
type Result struct {
	Renamed   int
	Skipped   int
	Unchanged int
	Changes   []Change
	Skips     []Skip
}

// Observer receives progress as episodes are processed. Either field may be nil.
type Observer struct {
	OnChange func(Change)
	OnSkip   func(Skip)
}

// Renamer applies filename-derived titles.
type Renamer struct {
	logger   *slog.Logger
	observer Observer
}

// New constructs a Renamer.
func New(logger *slog.Logger, observer Observer) *Renamer {
	return &Renamer{
		logger:   logging.NewComponentLogger(logger, "rename"),
		observer: observer,
	}
}

// RenameByFilename renames every episode of show (in the named season, or all
// seasons when season is empty or "ALL") to its file's base name.
func (r *Renamer) RenameByFilename(ctx context.Context, lib Library, library, show, season string) (Result, error) {
	if lib == nil {
		return Result{}, ErrNotConnected
	}
	section, err := lib.Section(ctx, library)
	if err != nil {
		if errors.Is(err, plex.ErrNotFound) {
			return Result{}, fmt.Errorf("library %q not found on the Plex server", library)
		}
		return Result{}, err
	}
	target, err := lib.FindShow(ctx, section.Key, show)
	if err != nil {
		if errors.Is(err, plex.ErrNotFound) {
			return Result{}, fmt.Errorf("show %q not found in library %q", show, library)
		}
		return Result{}, err
	}
	seasons, err := lib.Seasons(ctx, target.RatingKey)
	if err != nil {
		return Result{}, fmt.Errorf("list seasons of %q: %w", show, err)
	}
	selected, err := selectSeasons(seasons, season)
	if err != nil {
		return Result{}, fmt.Errorf("season %q not found in show %q", season, show)
	}

	logger := r.logger.With(
		slog.String(logging.FieldLibrary, library),
		slog.String(logging.FieldShow, show),
	)
	var result Result
	for _, s := range selected {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		episodes, err := lib.Episodes(ctx, s.RatingKey)
		if err != nil {
			return result, fmt.Errorf("list episodes of %s: %w", s.Title, err)
		}
		for _, ep := range episodes {
			if err := r.renameEpisode(ctx, lib, logger, s, ep, &result); err != nil {
				return result, err
			}
		}
	}
	logger.Info("rename finished",
		slog.Int("renamed", result.Renamed),
		slog.Int("skipped", result.Skipped),
		slog.Int("unchanged", result.Unchanged),
	)
	return result, nil
}

func (r *Renamer) renameEpisode(ctx context.Context, lib Library, logger *slog.Logger, season plex.Season, ep plex.Episode, result *Result) error {
	part, ok := ep.FirstPart()
	if !ok || strings.TrimSpace(part.File) == "" {
		reason := SkipNoFilePath
		if !ok {
			reason = SkipNoMedia
		}
		skip := Skip{RatingKey: ep.RatingKey, Title: ep.Title, Reason: reason}
		result.Skipped++
		result.Skips = append(result.Skips, skip)
		logger.Warn("skipping episode",
			slog.String(logging.FieldRatingKey, ep.RatingKey),
			slog.String("title", ep.Title),
			slog.String("reason", reason),
		)
		if r.observer.OnSkip != nil {
			r.observer.OnSkip(skip)
		}
		return nil
	}

	newTitle := TitleFromFile(part.File)
	if newTitle == ep.Title {
		result.Unchanged++
		return nil
	}
	if err := lib.EditTitle(ctx, ep, newTitle); err != nil {
		return err
	}
	change := Change{RatingKey: ep.RatingKey, Season: season.Title, Old: ep.Title, New: newTitle}
	result.Renamed++
	result.Changes = append(result.Changes, change)
	logger.Info("renamed episode",
		slog.String(logging.FieldSeason, season.Title),
		slog.String(logging.FieldRatingKey, ep.RatingKey),
		slog.String("old", ep.Title),
		slog.String("new", newTitle),
	)
	if r.observer.OnChange != nil {
		r.observer.OnChange(change)
	}
	return nil
}

// TitleFromFile returns the base name of a media file without its extension.
// Both slash and backslash count as separators.
func TitleFromFile(file string) string {
	name := path.Base(strings.ReplaceAll(file, `\`, "/"))
	return strings.TrimSuffix(name, path.Ext(name))
}

func selectSeasons(seasons []plex.Season, season string) ([]plex.Season, error) {
	season = strings.TrimSpace(season)
	fold := cases.Fold()
	if season == "" || fold.String(season) == fold.String(AllSeasons) {
		return seasons, nil
	}
	want := fold.String(season)
	var out []plex.Season
	for _, s := range seasons {
		if fold.String(s.Title) == want {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, plex.ErrNotFound
	}
	return out, nil
}
