package plex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestSignInPostsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v2/users/signin" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("login") != "alice" || r.PostForm.Get("password") != "s3cret" {
			t.Fatalf("unexpected form %v", r.PostForm)
		}
		if r.Header.Get("X-Plex-Token") != "" {
			t.Fatalf("sign-in must not send a token")
		}
		fmt.Fprint(w, `{"authToken":"tok-xyz"}`)
	}))
	defer srv.Close()

	token, err := NewAccount(srv.URL, "").SignIn(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("SignIn returned error: %v", err)
	}
	if token != "tok-xyz" {
		t.Fatalf("expected tok-xyz, got %q", token)
	}
}

func TestSignInUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewAccount(srv.URL, "").SignIn(context.Background(), "alice", "bad")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSignInRequiresCredentials(t *testing.T) {
	if _, err := NewAccount("", "").SignIn(context.Background(), " ", "x"); err == nil {
		t.Fatalf("expected error for empty username")
	}
}

func TestNewAccountDefaultsURL(t *testing.T) {
	account := NewAccount("", "tok")
	if account.t.baseURL != DefaultAccountURL {
		t.Fatalf("expected default account URL, got %q", account.t.baseURL)
	}
	if next := account.WithToken(" other "); next.Token() != "other" || account.Token() != "tok" {
		t.Fatalf("WithToken should copy: %q %q", next.Token(), account.Token())
	}
}

func TestPinFlow(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v2/pins":
			fmt.Fprint(w, `{"id":42,"code":"ABCD","expiresIn":600}`)
		case r.Method == http.MethodGet && r.URL.Path == "/api/v2/pins/42":
			if polls.Add(1) < 2 {
				fmt.Fprint(w, `{"id":42,"code":"ABCD","authToken":null}`)
				return
			}
			fmt.Fprint(w, `{"id":42,"code":"ABCD","authToken":"linked-token"}`)
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	account := NewAccount(srv.URL, "")
	pin, err := account.RequestPin(context.Background())
	if err != nil {
		t.Fatalf("RequestPin returned error: %v", err)
	}
	if pin.ID != 42 || pin.Code != "ABCD" || pin.ExpiresAt.IsZero() {
		t.Fatalf("unexpected pin %+v", pin)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	token, err := account.WaitForPin(ctx, pin, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitForPin returned error: %v", err)
	}
	if token != "linked-token" {
		t.Fatalf("expected linked-token, got %q", token)
	}
}

func TestWaitForPinExpires(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":7,"code":"WXYZ"}`)
	}))
	defer srv.Close()

	pin := &Pin{ID: 7, Code: "WXYZ", ExpiresAt: time.Now().Add(-time.Second)}
	_, err := NewAccount(srv.URL, "").WaitForPin(context.Background(), pin, 5*time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("expected expiry error, got %v", err)
	}
}

const resourcesXML = `<MediaContainer size="3">
  <resource name="Own Server" clientIdentifier="own-1" accessToken="own-tok" provides="server" owned="1">
    <connections><connection uri="http://10.0.0.2:32400" protocol="http" local="1" relay="0"/></connections>
  </resource>
  <resource name="Friend Server" clientIdentifier="friend-1" accessToken="friend-tok" provides="server,client" owned="0">
    <connections>
      <connection uri="http://relay.example:32400" protocol="http" local="0" relay="1"/>
      <connection uri="https://1-2-3-4.abc.plex.direct:32400" protocol="https" local="0" relay="0"/>
    </connections>
  </resource>
  <resource name="Phone" clientIdentifier="phone-1" provides="player" owned="0"/>
</MediaContainer>`

func TestResourcesAndSharedServers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/resources" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("includeHttps") != "1" || r.URL.Query().Get("includeRelay") != "1" {
			t.Fatalf("unexpected query %q", r.URL.RawQuery)
		}
		if r.Header.Get("X-Plex-Token") != "acct-tok" {
			t.Fatalf("expected account token")
		}
		fmt.Fprint(w, resourcesXML)
	}))
	defer srv.Close()

	account := NewAccount(srv.URL, "acct-tok")
	resources, err := account.Resources(context.Background())
	if err != nil {
		t.Fatalf("Resources returned error: %v", err)
	}
	if len(resources) != 3 {
		t.Fatalf("expected 3 resources, got %d", len(resources))
	}

	shared, err := account.SharedServers(context.Background())
	if err != nil {
		t.Fatalf("SharedServers returned error: %v", err)
	}
	if len(shared) != 1 || shared[0].Name != "Friend Server" || shared[0].AccessToken != "friend-tok" {
		t.Fatalf("unexpected shared servers %+v", shared)
	}
	if len(shared[0].Connections) != 2 || !shared[0].Connections[0].Relay {
		t.Fatalf("unexpected connections %+v", shared[0].Connections)
	}

	res, err := account.ServerByClientID(context.Background(), "own-1")
	if err != nil || res.Name != "Own Server" {
		t.Fatalf("ServerByClientID = %+v, %v", res, err)
	}
	if _, err := account.ServerByClientID(context.Background(), "phone-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-server resource, got %v", err)
	}
}

func TestResourcesRequiresToken(t *testing.T) {
	if _, err := NewAccount("http://127.0.0.1:1", "").Resources(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRankConnections(t *testing.T) {
	ranked := rankConnections([]Connection{
		{URI: "http://relay.example:32400", Protocol: "http", Relay: true},
		{URI: "http://10.0.0.2:32400/", Protocol: "http", Local: true},
		{URI: "  "},
		{URI: "https://1-2-3-4.abc.plex.direct:32400", Protocol: "https"},
	})
	want := []string{
		"https://1-2-3-4.abc.plex.direct:32400",
		"http://10.0.0.2:32400",
		"http://relay.example:32400",
	}
	if len(ranked) != len(want) {
		t.Fatalf("expected %d connections, got %d", len(want), len(ranked))
	}
	for i, uri := range want {
		if ranked[i].URI != uri {
			t.Fatalf("rank %d: expected %q, got %q", i, uri, ranked[i].URI)
		}
	}
}

func TestConnectResourceFallsThroughConnections(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Plex-Token") != "friend-tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `<MediaContainer friendlyName="Friend Server" machineIdentifier="friend-1"/>`)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	res := Resource{
		Name:        "Friend Server",
		AccessToken: "friend-tok",
		Connections: []Connection{
			{URI: good.URL, Protocol: "http"},
			{URI: bad.URL, Protocol: "http", Local: true},
		},
	}
	server, err := NewAccount("", "acct").ConnectResource(context.Background(), res)
	if err != nil {
		t.Fatalf("ConnectResource returned error: %v", err)
	}
	if server.BaseURL() != good.URL || server.Info().MachineIdentifier != "friend-1" {
		t.Fatalf("connected to wrong server %q %+v", server.BaseURL(), server.Info())
	}
}

func TestConnectResourceNoConnections(t *testing.T) {
	_, err := NewAccount("", "acct").ConnectResource(context.Background(), Resource{Name: "Empty"})
	if err == nil || !strings.Contains(err.Error(), "no connections") {
		t.Fatalf("expected no connections error, got %v", err)
	}
}
