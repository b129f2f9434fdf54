package plex

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the server or plex.tv rejects the token or credentials.
	ErrUnauthorized = errors.New("plex token is invalid or server denied access")
	// ErrNotFound is returned when a library, show, or item cannot be located.
	ErrNotFound = errors.New("plex item not found")
	// ErrNotEpisode is returned when a rating key resolves to something other than an episode.
	ErrNotEpisode = errors.New("item is not an episode")
)

// StatusError describes a non-success HTTP response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("plex %s %s returned %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("plex %s %s returned %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == 404
}
