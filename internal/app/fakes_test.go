package app

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"plexmaint/internal/config"
	"plexmaint/internal/console"
	"plexmaint/internal/credentials"
	"plexmaint/internal/logging"
)

const (
	serverToken = "server-tok"
	payload     = "episode-bytes"
)

// fakePlex serves a tiny media server and the plex.tv endpoints from one
// httptest server.
type fakePlex struct {
	srv *httptest.Server

	mu    sync.Mutex
	edits map[string]string
	parts int
}

func newFakePlex(t *testing.T) *fakePlex {
	t.Helper()
	f := &fakePlex{edits: map[string]string{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakePlex) URL() string { return f.srv.URL }

func (f *fakePlex) editCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.edits)
}

func (f *fakePlex) serve(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/v2/users/signin":
		_ = r.ParseForm()
		if r.PostForm.Get("password") != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, `{"authToken":%q}`, serverToken)
		return
	case r.Method == http.MethodPost && r.URL.Path == "/api/v2/pins":
		fmt.Fprint(w, `{"id":5,"code":"LINK","expiresIn":60}`)
		return
	case r.URL.Path == "/api/v2/pins/5":
		fmt.Fprintf(w, `{"id":5,"code":"LINK","authToken":%q}`, serverToken)
		return
	}

	if r.Header.Get("X-Plex-Token") != serverToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if r.Method == http.MethodPut && r.URL.Path == "/library/sections/1/all" {
		f.mu.Lock()
		f.edits[r.URL.Query().Get("id")] = r.URL.Query().Get("title.value")
		f.mu.Unlock()
		return
	}
	if strings.HasPrefix(r.URL.Path, "/library/parts/") {
		f.mu.Lock()
		f.parts++
		f.mu.Unlock()
		w.Header().Set("Content-Length", fmt.Sprint(len(payload)))
		fmt.Fprint(w, payload)
		return
	}

	var body string
	switch r.URL.Path {
	case "/":
		body = `<MediaContainer friendlyName="Friend Server" machineIdentifier="friend-1"/>`
	case "/api/v2/resources":
		body = fmt.Sprintf(`<MediaContainer>
  <resource name="Friend Server" clientIdentifier="friend-1" accessToken=%q provides="server" owned="0">
    <connections><connection uri=%q protocol="http" local="0" relay="0"/></connections>
  </resource>
</MediaContainer>`, serverToken, f.srv.URL)
	case "/library/sections":
		body = `<MediaContainer>
  <Directory key="1" title="TV Shows" type="show"/>
  <Directory key="2" title="Movies" type="movie"/>
</MediaContainer>`
	case "/library/sections/1/all":
		body = `<MediaContainer librarySectionID="1"><Directory ratingKey="100" title="Show A" type="show"/></MediaContainer>`
	case "/library/metadata/100/children":
		body = `<MediaContainer>
  <Directory ratingKey="200" title="Season 1" type="season" index="1" parentTitle="Show A"/>
  <Directory ratingKey="201" title="Season 2" type="season" index="2" parentTitle="Show A"/>
</MediaContainer>`
	case "/library/metadata/200/children":
		body = `<MediaContainer librarySectionID="1">` + video300 + video301 + `</MediaContainer>`
	case "/library/metadata/201/children":
		body = `<MediaContainer librarySectionID="1">` + video302 + `</MediaContainer>`
	case "/library/metadata/100/allLeaves":
		body = `<MediaContainer librarySectionID="1">` + video300 + video301 + video302 + `</MediaContainer>`
	case "/library/metadata/300":
		body = `<MediaContainer librarySectionID="1">` + video300 + `</MediaContainer>`
	case "/library/metadata/301":
		body = `<MediaContainer librarySectionID="1">` + video301 + `</MediaContainer>`
	case "/library/metadata/302":
		body = `<MediaContainer librarySectionID="1">` + video302 + `</MediaContainer>`
	default:
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	fmt.Fprint(w, body)
}

const (
	video300 = `<Video ratingKey="300" type="episode" title="Episode 1" grandparentTitle="Show A" parentIndex="1" index="1">
  <Media><Part key="/library/parts/300/file.mkv" file="/media/Show A/Season 1/Pilot.mkv"/></Media>
</Video>`
	video301 = `<Video ratingKey="301" type="episode" title="Second" grandparentTitle="Show A" parentIndex="1" index="2">
  <Media><Part key="/library/parts/301/file.mkv" file="/media/Show A/Season 1/Second.mkv"/></Media>
</Video>`
	video302 = `<Video ratingKey="302" type="episode" title="Lost" grandparentTitle="Show A" parentIndex="2" index="1"/>`
)

type harness struct {
	deps  Deps
	out   *bytes.Buffer
	creds *credentials.Store
}

// newHarness wires Deps with a plain printer and a line prompter fed by input.
func newHarness(t *testing.T, plexURL, input string) *harness {
	t.Helper()
	t.Setenv("PLEX_TOKEN", "")
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = dir
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.DownloadDir = filepath.Join(dir, "downloads")
	cfg.Plex.AccountURL = plexURL

	out := &bytes.Buffer{}
	creds := credentials.NewStore(filepath.Join(dir, "plex_config.json"))
	return &harness{
		out:   out,
		creds: creds,
		deps: Deps{
			Config:      &cfg,
			Credentials: creds,
			Prompter:    console.NewLinePrompter(strings.NewReader(input), out),
			Printer:     console.NewPlainPrinter(out),
			Logger:      logging.NewNop(),
			PinInterval: 1,
		},
	}
}

func (h *harness) expectOutput(t *testing.T, want ...string) {
	t.Helper()
	got := h.out.String()
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Fatalf("expected output to contain %q, got:\n%s", w, got)
		}
	}
}

func lines(answers ...string) string {
	return strings.Join(answers, "\n") + "\n"
}
