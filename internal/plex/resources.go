package plex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"plexmaint/internal/logging"
)

// Resource is a device registered to or shared with a plex.tv account.
type Resource struct {
	Name             string
	ClientIdentifier string
	AccessToken      string
	Provides         string
	Owned            bool
	Connections      []Connection
}

// Connection is one way of reaching a resource.
type Connection struct {
	URI      string
	Protocol string
	Local    bool
	Relay    bool
}

// IsServer reports whether the resource provides a media server.
func (r Resource) IsServer() bool {
	for _, p := range strings.Split(r.Provides, ",") {
		if strings.TrimSpace(p) == "server" {
			return true
		}
	}
	return false
}

func (r Resource) connect(ctx context.Context, opts options) (*Server, error) {
	var errs []error
	for _, conn := range rankConnections(r.Connections) {
		server := &Server{t: transport{baseURL: conn.URI, token: r.AccessToken, opts: opts}}
		if _, err := server.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			opts.logger.Debug("plex connection attempt failed",
				slog.String(logging.FieldServer, r.Name),
				slog.String("uri", conn.URI),
				logging.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", conn.URI, err))
			continue
		}
		return server, nil
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("server %q has no connections", r.Name)
	}
	return nil, fmt.Errorf("connect to %q: %w", r.Name, errors.Join(errs...))
}

// rankConnections orders connections best first: https, plex.direct and
// local addresses score up, relays score down.
func rankConnections(connections []Connection) []Connection {
	type scored struct {
		conn  Connection
		score int
	}
	ranked := make([]scored, 0, len(connections))
	for _, conn := range connections {
		uri := strings.TrimRight(strings.TrimSpace(conn.URI), "/")
		if uri == "" {
			continue
		}
		conn.URI = uri
		score := 0
		protocol := strings.ToLower(strings.TrimSpace(conn.Protocol))
		if protocol == "https" {
			score += 50
		} else if protocol != "" {
			score -= 10
		}
		if strings.Contains(uri, ".plex.direct") {
			score += 30
		}
		if conn.Local {
			score += 5
		}
		if conn.Relay {
			score -= 5
		}
		ranked = append(ranked, scored{conn: conn, score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	out := make([]Connection, len(ranked))
	for i, r := range ranked {
		out[i] = r.conn
	}
	return out
}

type xmlResourceList struct {
	Resources []xmlResource `xml:"resource"`
}

type xmlResource struct {
	Name             string          `xml:"name,attr"`
	AccessToken      string          `xml:"accessToken,attr"`
	ClientIdentifier string          `xml:"clientIdentifier,attr"`
	Provides         string          `xml:"provides,attr"`
	Owned            string          `xml:"owned,attr"`
	Connections      []xmlConnection `xml:"connections>connection"`
}

type xmlConnection struct {
	URI      string `xml:"uri,attr"`
	Protocol string `xml:"protocol,attr"`
	Local    string `xml:"local,attr"`
	Relay    string `xml:"relay,attr"`
}

func (x xmlResource) resource() Resource {
	res := Resource{
		Name:             x.Name,
		ClientIdentifier: x.ClientIdentifier,
		AccessToken:      strings.TrimSpace(x.AccessToken),
		Provides:         x.Provides,
		Owned:            parseBool(x.Owned),
	}
	for _, c := range x.Connections {
		res.Connections = append(res.Connections, Connection{
			URI:      c.URI,
			Protocol: c.Protocol,
			Local:    parseBool(c.Local),
			Relay:    parseBool(c.Relay),
		})
	}
	return res
}

func parseBool(value string) bool {
	if value == "" {
		return false
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return b
}
