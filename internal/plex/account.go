package plex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultAccountURL is the plex.tv API root.
const DefaultAccountURL = "https://plex.tv"

// Account is a plex.tv client. A zero token is allowed for SignIn and the
// PIN flow; every other call requires one.
type Account struct {
	t transport
}

// NewAccount builds a plex.tv client rooted at baseURL (DefaultAccountURL when empty).
func NewAccount(baseURL, token string, opts ...Option) *Account {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultAccountURL
	}
	return &Account{t: transport{baseURL: baseURL, token: strings.TrimSpace(token), opts: buildOptions(opts)}}
}

// Token returns the account token.
func (a *Account) Token() string { return a.t.token }

// WithToken returns a copy of the account authenticated with token.
func (a *Account) WithToken(token string) *Account {
	next := *a
	next.t.token = strings.TrimSpace(token)
	return &next
}

// SignIn exchanges plex.tv credentials for an authentication token.
func (a *Account) SignIn(ctx context.Context, username, password string) (string, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return "", errors.New("username and password are required to retrieve a new token")
	}
	form := url.Values{}
	form.Set("login", username)
	form.Set("password", password)
	form.Set("rememberMe", "true")

	var resp struct {
		AuthToken string `json:"authToken"`
	}
	if err := a.t.doJSON(ctx, http.MethodPost, "/api/v2/users/signin", form, &resp); err != nil {
		return "", fmt.Errorf("plex.tv sign-in: %w", err)
	}
	token := strings.TrimSpace(resp.AuthToken)
	if token == "" {
		return "", errors.New("plex.tv sign-in: missing authToken in response")
	}
	a.t.opts.logger.Info("retrieved plex token from plex.tv", slog.String("username", username))
	return token, nil
}

// Pin is a device link code awaiting approval at plex.tv/link.
type Pin struct {
	ID        int64
	Code      string
	ExpiresAt time.Time
}

// PinStatus reports whether a Pin has been approved.
type PinStatus struct {
	Authorized         bool
	AuthorizationToken string
	ExpiresAt          time.Time
}

type pinResponse struct {
	ID        int64   `json:"id"`
	Code      string  `json:"code"`
	AuthToken string  `json:"authToken"`
	ExpiresIn float64 `json:"expiresIn"`
	ExpiresAt string  `json:"expiresAt"`
}

func (p pinResponse) expirationTime() time.Time {
	if p.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, p.ExpiresAt); err == nil {
			return t
		}
	}
	if p.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(p.ExpiresIn) * time.Second)
	}
	return time.Time{}
}

// RequestPin starts the device link flow.
func (a *Account) RequestPin(ctx context.Context) (*Pin, error) {
	var resp pinResponse
	if err := a.t.doJSON(ctx, http.MethodPost, "/api/v2/pins", url.Values{}, &resp); err != nil {
		return nil, err
	}
	if resp.ID == 0 || resp.Code == "" {
		return nil, errors.New("plex.tv pin: missing id or code in response")
	}
	return &Pin{ID: resp.ID, Code: resp.Code, ExpiresAt: resp.expirationTime()}, nil
}

// PollPin checks whether the user approved the PIN.
func (a *Account) PollPin(ctx context.Context, id int64) (*PinStatus, error) {
	var resp pinResponse
	if err := a.t.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/v2/pins/%d", id), nil, &resp); err != nil {
		return nil, err
	}
	status := &PinStatus{ExpiresAt: resp.expirationTime()}
	if token := strings.TrimSpace(resp.AuthToken); token != "" {
		status.Authorized = true
		status.AuthorizationToken = token
	}
	return status, nil
}

// WaitForPin polls until the PIN is approved, expires, or ctx ends.
func (a *Account) WaitForPin(ctx context.Context, pin *Pin, interval time.Duration) (string, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	expires := pin.ExpiresAt
	if expires.IsZero() {
		expires = time.Now().Add(5 * time.Minute)
	}

	poll := time.NewTicker(interval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-poll.C:
			status, err := a.PollPin(ctx, pin.ID)
			if err != nil {
				return "", err
			}
			if status.Authorized {
				return status.AuthorizationToken, nil
			}
			if !status.ExpiresAt.IsZero() {
				expires = status.ExpiresAt
			}
			if time.Now().After(expires) {
				return "", errors.New("link code expired; request a new one")
			}
		}
	}
}

// Resources lists the devices visible to the account, including shared servers.
func (a *Account) Resources(ctx context.Context) ([]Resource, error) {
	if a.t.token == "" {
		return nil, ErrUnauthorized
	}
	query := url.Values{}
	query.Set("includeHttps", "1")
	query.Set("includeRelay", "1")

	var list xmlResourceList
	if err := a.t.getXML(ctx, "/api/v2/resources", query, &list); err != nil {
		return nil, fmt.Errorf("fetch plex resources: %w", err)
	}
	resources := make([]Resource, 0, len(list.Resources))
	for _, res := range list.Resources {
		resources = append(resources, res.resource())
	}
	return resources, nil
}

// SharedServers returns server resources the account does not own.
func (a *Account) SharedServers(ctx context.Context) ([]Resource, error) {
	resources, err := a.Resources(ctx)
	if err != nil {
		return nil, err
	}
	var shared []Resource
	for _, res := range resources {
		if res.IsServer() && !res.Owned {
			shared = append(shared, res)
		}
	}
	return shared, nil
}

// ServerByClientID finds a server resource by its client identifier.
func (a *Account) ServerByClientID(ctx context.Context, clientID string) (Resource, error) {
	resources, err := a.Resources(ctx)
	if err != nil {
		return Resource{}, err
	}
	for _, res := range resources {
		if res.IsServer() && res.ClientIdentifier == clientID {
			return res, nil
		}
	}
	return Resource{}, fmt.Errorf("server with clientIdentifier=%s: %w", clientID, ErrNotFound)
}

// ConnectResource connects to a resource using this account's client options.
func (a *Account) ConnectResource(ctx context.Context, res Resource) (*Server, error) {
	return res.connect(ctx, a.t.opts)
}
