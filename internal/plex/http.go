package plex

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"plexmaint/internal/logging"
)

const (
	productVersion = "0.1.0"
	userAgent      = "plexmaint/" + productVersion
	defaultTimeout = 10 * time.Second
	errorBodyLimit = 2048
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Identity is what the client reports about itself in X-Plex-* headers.
type Identity struct {
	ClientIdentifier string
	Product          string
	Version          string
}

type options struct {
	client   HTTPDoer
	identity Identity
	logger   *slog.Logger
}

// Option customises Server and Account construction.
type Option func(*options)

// WithHTTPClient overrides the HTTP client used for Plex API calls.
func WithHTTPClient(client HTTPDoer) Option {
	return func(o *options) {
		if client != nil {
			o.client = client
		}
	}
}

// WithIdentity sets the client identifier and product reported to Plex.
func WithIdentity(identity Identity) Option {
	return func(o *options) {
		o.identity = identity
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		client: &http.Client{Timeout: defaultTimeout},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if strings.TrimSpace(o.identity.Product) == "" {
		o.identity.Product = "plexmaint"
	}
	if strings.TrimSpace(o.identity.Version) == "" {
		o.identity.Version = productVersion
	}
	if strings.TrimSpace(o.identity.ClientIdentifier) == "" {
		o.identity.ClientIdentifier = o.identity.Product
	}
	return o
}

// transport is the request plumbing shared by Server and Account.
type transport struct {
	baseURL string
	token   string
	opts    options
}

func (t *transport) applyStandardHeaders(req *http.Request) {
	req.Header.Set("X-Plex-Client-Identifier", t.opts.identity.ClientIdentifier)
	req.Header.Set("X-Plex-Product", t.opts.identity.Product)
	req.Header.Set("X-Plex-Version", t.opts.identity.Version)
	req.Header.Set("X-Plex-Device-Name", t.opts.identity.Product)
	req.Header.Set("X-Plex-Platform", runtime.GOOS)
	req.Header.Set("User-Agent", userAgent)
	if t.token != "" {
		req.Header.Set("X-Plex-Token", t.token)
	}
}

func (t *transport) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	target := t.baseURL + path
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	t.applyStandardHeaders(req)
	return req, nil
}

// do executes req and returns the response when the status is below 400.
func (t *transport) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.opts.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("plex request failed: %w", err)
	}
	t.opts.logger.Debug("plex request",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)
	if resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrUnauthorized
	}
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	return nil, &StatusError{
		Method: req.Method,
		Path:   req.URL.Path,
		Code:   resp.StatusCode,
		Body:   strings.TrimSpace(string(bodyBytes)),
	}
}

func (t *transport) getXML(ctx context.Context, path string, query url.Values, out any) error {
	req, err := t.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/xml")
	resp, err := t.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (t *transport) doJSON(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := t.newRequest(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := t.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (t *transport) send(ctx context.Context, method, path string, query url.Values) error {
	req, err := t.newRequest(ctx, method, path, query, nil)
	if err != nil {
		return err
	}
	resp, err := t.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
