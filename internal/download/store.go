package download

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrJobNotFound is returned when a job ID does not exist.
var ErrJobNotFound = errors.New("download job not found")

// Store persists download jobs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the job database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure job database directory: %w", err)
	}
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// dsn applies the pragmas through the driver so every pooled connection gets
// them; foreign_keys is per connection and Delete relies on its cascade.
func dsn(path string) string {
	return path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Create inserts job and its episodes. A missing ID is assigned; every
// episode starts pending unless it already carries a status.
func (s *Store) Create(ctx context.Context, job *Job) (*Job, error) {
	if job == nil {
		return nil, errors.New("job is nil")
	}
	if strings.TrimSpace(job.ServerClientID) == "" {
		return nil, errors.New("job requires a server client identifier")
	}
	if len(job.Episodes) == 0 {
		return nil, errors.New("job has no episodes")
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	job.CreatedAt, job.UpdatedAt, job.FinishedAt = now, now, time.Time{}
	stamp := now.Format(time.RFC3339Nano)

	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin job tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO jobs (id, server_client_id, server_name, library, show_title, folder, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			job.ID, job.ServerClientID, job.ServerName, job.Library, job.Show, job.Folder, stamp, stamp,
		); err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
		for i := range job.Episodes {
			ep := &job.Episodes[i]
			if ep.Status == "" {
				ep.Status = StatusPending
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO job_episodes (job_id, position, rating_key, title, season, episode, status, error_message, updated_at)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				job.ID, i, ep.RatingKey, ep.Title, ep.Season, ep.Index, string(ep.Status), nullableString(ep.ErrorMessage), stamp,
			); err != nil {
				return fmt.Errorf("insert episode %s: %w", ep.RatingKey, err)
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Get loads a job with its episodes in their original order.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrJobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if err := s.loadEpisodes(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Active returns the most recent unfinished job, or nil when there is none.
func (s *Store) Active(ctx context.Context) (*Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE finished_at IS NULL ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active job: %w", err)
	}
	if err := s.loadEpisodes(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// UpdateEpisodeStatus records the outcome of one episode.
func (s *Store) UpdateEpisodeStatus(ctx context.Context, jobID, ratingKey string, status Status, message string) error {
	stamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE job_episodes SET status = ?, error_message = ?, updated_at = ? WHERE job_id = ? AND rating_key = ?`,
		string(status), nullableString(message), stamp, jobID, ratingKey,
	)
	if err != nil {
		return fmt.Errorf("update episode status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("episode %s of job %s: %w", ratingKey, jobID, ErrJobNotFound)
	}
	if _, err := s.execWithRetry(ctx, `UPDATE jobs SET updated_at = ? WHERE id = ?`, stamp, jobID); err != nil {
		return fmt.Errorf("touch job: %w", err)
	}
	return nil
}

// Finish marks a job finished so Active no longer returns it.
func (s *Store) Finish(ctx context.Context, id string) error {
	stamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx, `UPDATE jobs SET finished_at = ?, updated_at = ? WHERE id = ?`, stamp, stamp, id)
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrJobNotFound)
	}
	return nil
}

// Delete removes a job and its episodes.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrJobNotFound)
	}
	return nil
}

func (s *Store) loadEpisodes(ctx context.Context, job *Job) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rating_key, title, season, episode, status, error_message
         FROM job_episodes WHERE job_id = ? ORDER BY position`, job.ID)
	if err != nil {
		return fmt.Errorf("list job episodes: %w", err)
	}
	defer rows.Close()

	job.Episodes = job.Episodes[:0]
	for rows.Next() {
		var (
			ep      JobEpisode
			status  string
			message sql.NullString
		)
		if err := rows.Scan(&ep.RatingKey, &ep.Title, &ep.Season, &ep.Index, &status, &message); err != nil {
			return fmt.Errorf("scan job episode: %w", err)
		}
		ep.Status = parseStatus(status)
		ep.ErrorMessage = message.String
		job.Episodes = append(job.Episodes, ep)
	}
	return rows.Err()
}
