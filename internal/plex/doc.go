// Package plex talks to Plex Media Server and plex.tv.
//
// Server wraps a single media server reached by base URL and token: library
// sections, shows, seasons, episodes, metadata edits, and media part URLs.
// Account wraps plex.tv: username/password sign-in, the device link PIN flow,
// and the resource list used to find shared servers and connect to them.
//
// Every request carries the standard X-Plex-* identification headers and
// maps 401 responses to ErrUnauthorized so callers can tell a bad token from
// an unreachable server.
package plex
