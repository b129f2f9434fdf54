package app

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"plexmaint/internal/credentials"
	"plexmaint/internal/logging"
	"plexmaint/internal/netaddr"
	"plexmaint/internal/plex"
	"plexmaint/internal/rename"
)

// Library is the server surface the rename menu browses and edits.
type Library interface {
	rename.Library
	Sections(ctx context.Context) ([]plex.Section, error)
	SectionItems(ctx context.Context, sectionKey string) ([]plex.Show, error)
}

// ConnectFunc opens a Library for a credential record.
type ConnectFunc func(ctx context.Context, record credentials.Record) (Library, error)

// Renamer is the main-menu session.
type Renamer struct {
	deps    Deps
	logger  *slog.Logger
	connect ConnectFunc

	record credentials.Record
	loaded bool
	server Library
}

// NewRenamer builds a session. Connecting uses a plex.Server built from the
// current record.
func NewRenamer(deps Deps) *Renamer {
	r := &Renamer{
		deps:   deps,
		logger: logging.NewComponentLogger(deps.logger(), "renamer"),
	}
	r.connect = func(ctx context.Context, record credentials.Record) (Library, error) {
		server := plex.NewServer(record.BaseURL, record.Token, deps.plexOptions(record)...)
		if _, err := server.Connect(ctx); err != nil {
			return nil, err
		}
		return server, nil
	}
	return r
}

// Connected reports whether a server connection is open.
func (r *Renamer) Connected() bool { return r.server != nil }

// Run shows the main menu until the user quits.
func (r *Renamer) Run(ctx context.Context) error {
	p := r.deps.Printer
	for {
		p.Plain("\nPlex Status: %s", p.Connection(r.Connected()))
		choice, err := r.deps.Prompter.Choose("Main Menu", []string{
			"Manage Config (Load/Create/Connect)",
			"Rename Episodes",
			"Quit",
		})
		if err != nil {
			return interruptErr(err)
		}
		switch choice {
		case 0:
			err = r.manageConfig(ctx)
		case 1:
			err = r.renameMenu(ctx)
		default:
			p.Success("Goodbye!")
			return nil
		}
		if err != nil {
			return interruptErr(err)
		}
	}
}

func (r *Renamer) manageConfig(ctx context.Context) error {
	for {
		choice, err := r.deps.Prompter.Choose("Manage Config Menu", []string{
			"Load Config from File",
			"Create/Overwrite Config",
			"Connect to Plex",
			"Return to Main Menu",
		})
		if err != nil {
			return err
		}
		switch choice {
		case 0:
			r.loadConfig()
		case 1:
			if err := r.createConfig(ctx); err != nil {
				return err
			}
		case 2:
			if err := r.connectServer(ctx); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (r *Renamer) loadConfig() {
	p := r.deps.Printer
	record, err := r.deps.Credentials.Load()
	switch {
	case errors.Is(err, credentials.ErrNotFound):
		p.Failure("File '%s' not found. Please create/overwrite config first.", r.deps.Credentials.Path())
		return
	case err != nil:
		r.logger.Warn("failed to load configuration", logging.Error(err))
		p.Failure("Failed to load config: %v", err)
		return
	}
	r.record, r.loaded = record, true
	p.Success("Config file loaded successfully.")
	p.Plain("  Base URL: %s", record.BaseURL)
	p.Plain("  Token   : %s", record.MaskedToken())
}

const (
	methodToken = iota
	methodPassword
	methodLink
)

func (r *Renamer) createConfig(ctx context.Context) error {
	p, in := r.deps.Printer, r.deps.Prompter
	cfg := r.deps.Config

	p.Info("\nCreating/Overwriting Plex Configuration...")
	method, err := in.Choose("Configuration Method", []string{
		"Enter IP/Port + Existing Plex Token",
		"Enter IP/Port + Plex.tv Username/Password to Retrieve New Token",
		"Enter IP/Port + Plex.tv Link Code",
		"Cancel & Return",
	})
	if err != nil {
		return err
	}
	if method > methodLink {
		p.Warn("Cancelled creation of new config.")
		return nil
	}

	host, err := in.Input("Server IP Address", cfg.Plex.DefaultHost)
	if err != nil {
		return err
	}
	if !netaddr.ValidIPv4(host) {
		p.Failure("Error: '%s' is not a valid IPv4 address.", host)
		return nil
	}
	port, err := in.Input("Server Port", strconv.Itoa(cfg.Plex.DefaultPort))
	if err != nil {
		return err
	}
	if !netaddr.ValidPort(port) {
		p.Failure("Error: '%s' is not a valid port number.", port)
		return nil
	}

	record := credentials.Record{
		BaseURL:          netaddr.BaseURL(host, port),
		LibrarySections:  r.record.LibrarySections,
		ClientIdentifier: r.record.ClientIdentifier,
	}
	if strings.TrimSpace(record.ClientIdentifier) == "" {
		record.ClientIdentifier = credentials.NewClientIdentifier()
	}
	token, username, err := r.obtainToken(ctx, method, record)
	if err != nil {
		if interrupted(err) {
			return err
		}
		r.logger.Warn("token retrieval failed", logging.Error(err))
		p.Failure("Error retrieving token: %v", err)
		return nil
	}
	record.Token, record.Username = token, username

	save, err := in.Confirm("Would you like to save this configuration?", true)
	if err != nil {
		return err
	}
	if save {
		saved, err := r.deps.Credentials.Save(record)
		if err != nil {
			p.Failure("Failed to save config: %v", err)
			return nil
		}
		record = saved
		p.Success("Configuration saved to '%s'.", r.deps.Credentials.Path())
	} else {
		p.Warn("Configuration NOT saved. (In-memory only.)")
	}
	r.record, r.loaded = record, true
	r.server = nil
	return nil
}

func (r *Renamer) obtainToken(ctx context.Context, method int, record credentials.Record) (token, username string, err error) {
	in := r.deps.Prompter
	switch method {
	case methodPassword:
		username, err = in.Input("Plex.tv Username", "")
		if err != nil {
			return "", "", err
		}
		var password string
		if password, err = in.Secret("Plex.tv Password"); err != nil {
			return "", "", err
		}
		token, err = r.deps.account(record, "").SignIn(ctx, username, password)
		if err != nil {
			return "", "", err
		}
		r.deps.Printer.Success("Successfully retrieved token from Plex.tv.")
		return token, username, nil
	case methodLink:
		token, err = linkToken(ctx, r.deps, r.deps.account(record, ""))
		return token, "", err
	default:
		token, err = in.Input("Enter your existing Plex token", "")
		if err != nil {
			return "", "", err
		}
		if token == "" {
			return "", "", errors.New("no token entered")
		}
		return token, "", nil
	}
}

func (r *Renamer) connectServer(ctx context.Context) error {
	p := r.deps.Printer
	if !r.loaded {
		record, err := r.deps.Credentials.Read()
		if errors.Is(err, credentials.ErrNotFound) {
			p.Failure("Config file not found. Please load or create config first.")
			return nil
		}
		if err != nil {
			p.Failure("Error: %v", err)
			p.Failure("Make sure config is loaded or created first.")
			return nil
		}
		r.record = record
	}
	if err := r.record.Validate(); err != nil {
		p.Failure("Error: %v", err)
		p.Failure("Make sure config is loaded or created first.")
		return nil
	}

	server, err := r.connect(ctx, r.record)
	switch {
	case err == nil:
	case interrupted(err):
		return err
	case errors.Is(err, plex.ErrUnauthorized):
		r.logger.Warn("plex rejected token", slog.String("base_url", r.record.BaseURL))
		p.Failure("Token is invalid or server denied access.")
		return nil
	default:
		r.logger.Warn("plex connection failed", slog.String("base_url", r.record.BaseURL), logging.Error(err))
		p.Failure("Error connecting to Plex: %v", err)
		return nil
	}
	r.server, r.loaded = server, true
	p.Success("Successfully connected to Plex!")
	return nil
}

func (r *Renamer) renameMenu(ctx context.Context) error {
	p := r.deps.Printer
	if !r.Connected() {
		p.Failure("You are not connected to Plex. Please connect before renaming.")
		return nil
	}
	for {
		choice, err := r.deps.Prompter.Choose("Rename Menu", []string{
			"Rename episodes by filename",
			"Placeholder for future rename method(s)",
			"Return to Main Menu",
		})
		if err != nil {
			return err
		}
		switch choice {
		case 0:
			if err := r.renameByFilename(ctx); err != nil {
				return err
			}
		case 1:
			p.Warn("No alternative rename methods implemented yet.\n")
		default:
			return nil
		}
	}
}

func (r *Renamer) tvSections(ctx context.Context) ([]plex.Section, error) {
	sections, err := r.server.Sections(ctx)
	if err != nil {
		return nil, err
	}
	var tv []plex.Section
	for _, section := range sections {
		if section.IsTV() && r.record.AllowsSection(section.Key) {
			tv = append(tv, section)
		}
	}
	return tv, nil
}

func (r *Renamer) renameByFilename(ctx context.Context) error {
	p, in := r.deps.Printer, r.deps.Prompter

	sections, err := r.tvSections(ctx)
	if err != nil {
		if interrupted(err) {
			return err
		}
		p.Failure("Error fetching libraries: %v", err)
		return nil
	}
	if len(sections) == 0 {
		p.Failure("No TV-type libraries found. Cannot rename episodes.")
		return nil
	}
	choice, err := in.Choose("Select a Library", sectionTitles(sections))
	if err != nil {
		return err
	}
	section := sections[choice]

	shows, err := r.server.SectionItems(ctx, section.Key)
	if err != nil {
		if interrupted(err) {
			return err
		}
		p.Failure("Error fetching shows from library '%s': %v", section.Title, err)
		return nil
	}
	if len(shows) == 0 {
		p.Warn("No shows found in library '%s'.", section.Title)
		return nil
	}
	if choice, err = in.Choose("Select a Show", showTitles(shows)); err != nil {
		return err
	}
	show := shows[choice]

	seasons, err := r.server.Seasons(ctx, show.RatingKey)
	if err != nil {
		if interrupted(err) {
			return err
		}
		p.Failure("Error fetching seasons for show '%s': %v", show.Title, err)
		return nil
	}
	if len(seasons) == 0 {
		p.Warn("No seasons found for '%s'.", show.Title)
		return nil
	}
	options := append([]string{rename.AllSeasons}, seasonTitles(seasons)...)
	if choice, err = in.Choose("Select a Season (or ALL)", options); err != nil {
		return err
	}
	season := rename.AllSeasons
	if choice > 0 {
		season = seasons[choice-1].Title
	}

	renamer := rename.New(r.deps.logger(), rename.Observer{
		OnChange: func(c rename.Change) {
			p.Info("Renaming Episode:\n  Old Title: %s\n  New Title: %s", c.Old, c.New)
		},
		OnSkip: r.reportSkip,
	})
	result, err := renamer.RenameByFilename(ctx, r.server, section.Title, show.Title, season)
	if err != nil {
		if interrupted(err) {
			return err
		}
		r.logger.Error("rename failed",
			slog.String(logging.FieldLibrary, section.Title),
			slog.String(logging.FieldShow, show.Title),
			logging.Error(err),
		)
		p.Failure("Error during rename: %v", err)
		return nil
	}
	p.Success("\nDone! Renamed %d episode(s).", result.Renamed)
	return nil
}

func (r *Renamer) reportSkip(s rename.Skip) {
	if s.Reason == rename.SkipNoMedia {
		r.deps.Printer.Warn("No media found for '%s'. Skipping.", s.Title)
		return
	}
	r.deps.Printer.Warn("No file path found for '%s'. Skipping.", s.Title)
}

func sectionTitles(sections []plex.Section) []string {
	out := make([]string, len(sections))
	for i, s := range sections {
		out[i] = s.Title
	}
	return out
}

func showTitles(shows []plex.Show) []string {
	out := make([]string, len(shows))
	for i, s := range shows {
		out[i] = s.Title
	}
	return out
}

func seasonTitles(seasons []plex.Season) []string {
	out := make([]string, len(seasons))
	for i, s := range seasons {
		out[i] = s.Title
	}
	return out
}
