// Package credentials persists the Plex connection record: server base URL,
// authentication token, and the optional library restrictions used by the
// rename menu.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"plexmaint/internal/fileutil"
)

var (
	// ErrNotFound is returned when the record file does not exist.
	ErrNotFound = errors.New("configuration file not found")
	// ErrInvalid is returned when the record cannot be decoded or lacks required fields.
	ErrInvalid = errors.New("invalid configuration")
)

// Record is the persisted Plex connection configuration.
type Record struct {
	BaseURL          string   `json:"base_url"`
	Token            string   `json:"token"`
	Username         string   `json:"username,omitempty"`
	LibrarySections  []string `json:"library_sections,omitempty"`
	ClientIdentifier string   `json:"client_identifier,omitempty"`
}

// Validate reports whether the record carries enough to connect to a server.
func (r Record) Validate() error {
	if strings.TrimSpace(r.BaseURL) == "" || strings.TrimSpace(r.Token) == "" {
		return fmt.Errorf("%w: 'base_url' or 'token' missing", ErrInvalid)
	}
	return nil
}

// MaskedToken returns the token with all but its last four characters hidden.
func (r Record) MaskedToken() string {
	token := strings.TrimSpace(r.Token)
	if token == "" {
		return "(none)"
	}
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}

// AllowsSection reports whether a library section key passes the record's
// optional restriction list. An empty list allows everything.
func (r Record) AllowsSection(key string) bool {
	if len(r.LibrarySections) == 0 {
		return true
	}
	for _, allowed := range r.LibrarySections {
		if strings.TrimSpace(allowed) == key {
			return true
		}
	}
	return false
}

// NewClientIdentifier mints a stable X-Plex-Client-Identifier value.
func NewClientIdentifier() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Store reads and writes a Record as indented JSON.
type Store struct {
	path string
	lock *flock.Flock
}

// NewStore builds a Store rooted at the provided path.
func NewStore(path string) *Store {
	return &Store{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Read decodes the record without checking completeness. The PLEX_TOKEN
// environment variable fills in a missing token.
func (s *Store) Read() (Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return Record{}, fmt.Errorf("%w: read %s: %v", ErrInvalid, s.path, err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, fmt.Errorf("%w: decode %s: %v", ErrInvalid, s.path, err)
	}
	record.BaseURL = strings.TrimRight(strings.TrimSpace(record.BaseURL), "/")
	record.Token = strings.TrimSpace(record.Token)
	if record.Token == "" {
		if value, ok := os.LookupEnv("PLEX_TOKEN"); ok {
			record.Token = strings.TrimSpace(value)
		}
	}
	return record, nil
}

// Load reads the record and requires both base_url and token.
func (s *Store) Load() (Record, error) {
	record, err := s.Read()
	if err != nil {
		return Record{}, err
	}
	if err := record.Validate(); err != nil {
		return Record{}, err
	}
	return record, nil
}

// Save overwrites the record file with restricted permissions. A client
// identifier is assigned when the record has none.
func (s *Store) Save(record Record) (Record, error) {
	if strings.TrimSpace(record.ClientIdentifier) == "" {
		record.ClientIdentifier = NewClientIdentifier()
	}

	data, err := json.MarshalIndent(record, "", "    ")
	if err != nil {
		return Record{}, fmt.Errorf("encode configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return Record{}, fmt.Errorf("ensure configuration directory: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return Record{}, fmt.Errorf("lock configuration: %w", err)
	}
	defer func() {
		_ = s.lock.Unlock()
	}()

	if err := fileutil.WriteAtomic(s.path, data, 0o600); err != nil {
		return Record{}, fmt.Errorf("write configuration: %w", err)
	}
	return record, nil
}
