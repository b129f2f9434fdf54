package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"plexmaint/internal/config"
	"plexmaint/internal/console"
	"plexmaint/internal/credentials"
	"plexmaint/internal/logging"
	"plexmaint/internal/plex"
)

const defaultPinInterval = 2 * time.Second

// Deps carries what every session needs.
type Deps struct {
	Config      *config.Config
	Credentials *credentials.Store
	Prompter    console.Prompter
	Printer     *console.Printer
	Logger      *slog.Logger

	// HTTPClient overrides the client used for Plex API calls.
	HTTPClient plex.HTTPDoer
	// DownloadClient overrides the client used for media transfers.
	DownloadClient plex.HTTPDoer
	// PinInterval is how often a link code is polled.
	PinInterval time.Duration
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return logging.NewNop()
	}
	return d.Logger
}

func (d Deps) pinInterval() time.Duration {
	if d.PinInterval <= 0 {
		return defaultPinInterval
	}
	return d.PinInterval
}

func (d Deps) plexOptions(record credentials.Record) []plex.Option {
	opts := []plex.Option{
		plex.WithIdentity(plex.Identity{
			ClientIdentifier: record.ClientIdentifier,
			Product:          d.Config.Plex.Product,
		}),
		plex.WithLogger(d.logger()),
	}
	if d.HTTPClient != nil {
		opts = append(opts, plex.WithHTTPClient(d.HTTPClient))
	}
	return opts
}

func (d Deps) account(record credentials.Record, token string) *plex.Account {
	return plex.NewAccount(d.Config.Plex.AccountURL, token, d.plexOptions(record)...)
}

// interrupted reports whether err should unwind to the entry point.
func interrupted(err error) bool {
	return errors.Is(err, console.ErrInterrupted) ||
		errors.Is(err, context.Canceled)
}

// interruptErr normalizes cancellation into console.ErrInterrupted.
func interruptErr(err error) error {
	if errors.Is(err, context.Canceled) {
		return console.ErrInterrupted
	}
	return err
}
