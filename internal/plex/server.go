package plex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// Server is a connection to a single Plex Media Server.
type Server struct {
	t    transport
	info ServerInfo
}

// NewServer builds a Server client. It performs no I/O; call Connect to
// verify the address and token.
func NewServer(baseURL, token string, opts ...Option) *Server {
	return &Server{
		t: transport{
			baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
			token:   strings.TrimSpace(token),
			opts:    buildOptions(opts),
		},
	}
}

// BaseURL returns the server address.
func (s *Server) BaseURL() string { return s.t.baseURL }

// Token returns the token used for requests.
func (s *Server) Token() string { return s.t.token }

// Info returns what Connect learned about the server.
func (s *Server) Info() ServerInfo { return s.info }

// Connect fetches the server root to confirm the address and token.
func (s *Server) Connect(ctx context.Context) (ServerInfo, error) {
	if s.t.baseURL == "" || s.t.token == "" {
		return ServerInfo{}, errors.New("base URL or token is missing. Cannot connect to Plex")
	}
	var root mediaContainer
	if err := s.t.getXML(ctx, "/", nil, &root); err != nil {
		return ServerInfo{}, err
	}
	s.info = ServerInfo{
		FriendlyName:      root.FriendlyName,
		MachineIdentifier: root.MachineIdentifier,
		Version:           root.Version,
	}
	s.t.opts.logger.Info("connected to plex server",
		slog.String("base_url", s.t.baseURL),
		slog.String("server", s.info.FriendlyName),
	)
	return s.info, nil
}

// Sections lists library sections.
func (s *Server) Sections(ctx context.Context) ([]Section, error) {
	var container mediaContainer
	if err := s.t.getXML(ctx, "/library/sections", nil, &container); err != nil {
		return nil, err
	}
	sections := make([]Section, 0, len(container.Directories))
	for _, dir := range container.Directories {
		if dir.Key == "" || dir.Title == "" {
			continue
		}
		sections = append(sections, Section{Key: dir.Key, Title: dir.Title, Type: dir.Type})
	}
	return sections, nil
}

// Section finds a library section by its exact title.
func (s *Server) Section(ctx context.Context, title string) (Section, error) {
	sections, err := s.Sections(ctx)
	if err != nil {
		return Section{}, err
	}
	for _, section := range sections {
		if section.Title == title {
			return section, nil
		}
	}
	return Section{}, fmt.Errorf("library %q: %w", title, ErrNotFound)
}

// SectionItems lists the shows in a TV section.
func (s *Server) SectionItems(ctx context.Context, sectionKey string) ([]Show, error) {
	var container mediaContainer
	path := "/library/sections/" + url.PathEscape(sectionKey) + "/all"
	if err := s.t.getXML(ctx, path, nil, &container); err != nil {
		return nil, err
	}
	shows := make([]Show, 0, len(container.Directories))
	for _, dir := range container.Directories {
		if dir.RatingKey == "" {
			continue
		}
		if dir.Type != "" && dir.Type != "show" {
			continue
		}
		shows = append(shows, Show{RatingKey: dir.RatingKey, Title: dir.Title, SectionKey: sectionKey})
	}
	return shows, nil
}

// FindShow finds a show in a section by its exact title.
func (s *Server) FindShow(ctx context.Context, sectionKey, title string) (Show, error) {
	shows, err := s.SectionItems(ctx, sectionKey)
	if err != nil {
		return Show{}, err
	}
	for _, show := range shows {
		if show.Title == title {
			return show, nil
		}
	}
	return Show{}, fmt.Errorf("show %q: %w", title, ErrNotFound)
}

// Seasons lists the seasons of a show.
func (s *Server) Seasons(ctx context.Context, showKey string) ([]Season, error) {
	var container mediaContainer
	if err := s.t.getXML(ctx, metadataPath(showKey)+"/children", nil, &container); err != nil {
		return nil, err
	}
	seasons := make([]Season, 0, len(container.Directories))
	for _, dir := range container.Directories {
		// Skip the synthetic "All episodes" entry, which has no rating key.
		if dir.RatingKey == "" || (dir.Type != "" && dir.Type != "season") {
			continue
		}
		seasons = append(seasons, Season{
			RatingKey: dir.RatingKey,
			Title:     dir.Title,
			Index:     atoi(dir.Index),
			ShowTitle: dir.ParentTitle,
		})
	}
	return seasons, nil
}

// Episodes lists the episodes of a season.
func (s *Server) Episodes(ctx context.Context, seasonKey string) ([]Episode, error) {
	return s.videos(ctx, metadataPath(seasonKey)+"/children")
}

// ShowEpisodes lists every episode of a show across seasons.
func (s *Server) ShowEpisodes(ctx context.Context, showKey string) ([]Episode, error) {
	return s.videos(ctx, metadataPath(showKey)+"/allLeaves")
}

func (s *Server) videos(ctx context.Context, path string) ([]Episode, error) {
	var container mediaContainer
	if err := s.t.getXML(ctx, path, nil, &container); err != nil {
		return nil, err
	}
	episodes := make([]Episode, 0, len(container.Videos))
	for _, video := range container.Videos {
		if video.Type != "" && video.Type != "episode" {
			continue
		}
		episodes = append(episodes, video.episode(container.LibrarySectionID))
	}
	return episodes, nil
}

// Item fetches a single episode by rating key.
func (s *Server) Item(ctx context.Context, ratingKey string) (Episode, error) {
	var container mediaContainer
	if err := s.t.getXML(ctx, metadataPath(ratingKey), nil, &container); err != nil {
		return Episode{}, err
	}
	if len(container.Videos) == 0 {
		if len(container.Directories) > 0 {
			return Episode{}, fmt.Errorf("rating key %s: %w", ratingKey, ErrNotEpisode)
		}
		return Episode{}, fmt.Errorf("rating key %s: %w", ratingKey, ErrNotFound)
	}
	video := container.Videos[0]
	if video.Type != "episode" {
		return Episode{}, fmt.Errorf("rating key %s has type %q: %w", ratingKey, video.Type, ErrNotEpisode)
	}
	return video.episode(container.LibrarySectionID), nil
}

// EditTitle sets and locks the title of an episode so agent refreshes keep it.
func (s *Server) EditTitle(ctx context.Context, ep Episode, title string) error {
	query := url.Values{}
	query.Set("type", "4")
	query.Set("id", ep.RatingKey)
	query.Set("title.value", title)
	query.Set("title.locked", "1")

	if ep.SectionKey != "" {
		path := "/library/sections/" + url.PathEscape(ep.SectionKey) + "/all"
		err := s.t.send(ctx, http.MethodPut, path, query)
		if err == nil {
			return nil
		}
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			return fmt.Errorf("edit title of %s: %w", ep.RatingKey, err)
		}
		s.t.opts.logger.Debug("section edit rejected, retrying on metadata path",
			slog.String("rating_key", ep.RatingKey),
			slog.Int("status", statusErr.Code),
		)
	}
	if err := s.t.send(ctx, http.MethodPut, metadataPath(ep.RatingKey), query); err != nil {
		return fmt.Errorf("edit title of %s: %w", ep.RatingKey, err)
	}
	return nil
}

// PartURL returns the absolute download URL of a media part.
func (s *Server) PartURL(part Part) string {
	key := part.Key
	if !strings.HasPrefix(key, "/") {
		key = "/" + key
	}
	return s.t.baseURL + key
}

// NewPartRequest builds an authenticated GET for a media part.
func (s *Server) NewPartRequest(ctx context.Context, part Part) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.PartURL(part), nil)
	if err != nil {
		return nil, fmt.Errorf("build part request: %w", err)
	}
	s.t.applyStandardHeaders(req)
	return req, nil
}

func metadataPath(ratingKey string) string {
	return "/library/metadata/" + url.PathEscape(ratingKey)
}
