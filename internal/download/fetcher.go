package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"plexmaint/internal/fileutil"
	"plexmaint/internal/logging"
	"plexmaint/internal/plex"
)

const (
	defaultChunkSize = 256 * 1024
	tmpSuffix        = ".tmp"
)

// ErrEmptyDownload is returned when a transfer finished with zero bytes.
var ErrEmptyDownload = errors.New("download produced an empty file")

var contentRangePattern = regexp.MustCompile(`^bytes (\d+)-(\d+)/(\d+)`)

// PartSource builds authenticated requests for media parts.
type PartSource interface {
	NewPartRequest(ctx context.Context, part plex.Part) (*http.Request, error)
}

// Progress is a snapshot of an in-flight transfer. Total is zero when the
// server did not report a size.
type Progress struct {
	File       string
	Downloaded int64
	Total      int64
}

// Percent returns completion in the range 0 to 100, or -1 when unknown.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return -1
	}
	return 100 * float64(p.Downloaded) / float64(p.Total)
}

// FetchResult describes a finished Fetch.
type FetchResult struct {
	Path    string
	Bytes   int64
	Existed bool
	Resumed bool
}

// Fetcher downloads media parts with resume support.
type Fetcher struct {
	client    plex.HTTPDoer
	chunkSize int
	logger    *slog.Logger
}

// NewFetcher builds a Fetcher. The client should not carry an overall
// timeout; cancellation comes from the request context.
func NewFetcher(client plex.HTTPDoer, chunkSize int, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &Fetcher{
		client:    client,
		chunkSize: chunkSize,
		logger:    logging.NewComponentLogger(logger, "fetcher"),
	}
}

// Fetch downloads part into dest. An existing dest counts as success. A
// non-empty dest+".tmp" is resumed with a Range request; a server that does
// not answer 206 causes a restart from zero. On cancellation the partial file
// is kept. progress, when set, is called once before the first chunk and
// after every chunk.
func (f *Fetcher) Fetch(ctx context.Context, src PartSource, part plex.Part, dest string, progress func(Progress)) (FetchResult, error) {
	result := FetchResult{Path: dest}
	name := filepath.Base(dest)

	exists, err := fileutil.Exists(dest)
	if err != nil {
		return result, err
	}
	if exists {
		result.Existed = true
		return result, nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return result, fmt.Errorf("create download folder: %w", err)
	}

	tmpPath := dest + tmpSuffix
	offset, err := fileutil.Size(tmpPath)
	if err != nil {
		return result, err
	}
	if offset == 0 {
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return result, fmt.Errorf("remove empty partial: %w", err)
		}
	}

	resp, err := f.request(ctx, src, part, offset)
	if err != nil {
		return result, err
	}
	if offset > 0 && resp.StatusCode != http.StatusPartialContent {
		f.logger.Warn("server did not honor range request; restarting from 0",
			slog.String("file", name),
			slog.Int("status", resp.StatusCode),
		)
		_ = resp.Body.Close()
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return result, fmt.Errorf("remove partial: %w", err)
		}
		offset = 0
		if resp, err = f.request(ctx, src, part, 0); err != nil {
			return result, err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return result, plex.ErrUnauthorized
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return result, fmt.Errorf("download %s: server returned %d", name, resp.StatusCode)
	}
	result.Resumed = offset > 0

	total := totalSize(resp)
	if progress != nil {
		progress(Progress{File: name, Downloaded: offset, Total: total})
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if result.Resumed {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(tmpPath, flags, 0o644)
	if err != nil {
		return result, fmt.Errorf("open partial file: %w", err)
	}

	downloaded, copyErr := f.copy(ctx, file, resp.Body, offset, total, name, progress)
	if closeErr := file.Close(); copyErr == nil && closeErr != nil {
		copyErr = fmt.Errorf("close partial file: %w", closeErr)
	}
	if copyErr != nil {
		if ctx.Err() != nil {
			f.logger.Info("download interrupted; keeping partial for resume",
				slog.String("file", name),
				slog.Int64("bytes", downloaded),
			)
			return result, ctx.Err()
		}
		return result, copyErr
	}

	finalSize, err := fileutil.Size(tmpPath)
	if err != nil {
		return result, err
	}
	if finalSize == 0 {
		_ = os.Remove(tmpPath)
		return result, fmt.Errorf("%s: %w", name, ErrEmptyDownload)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return result, fmt.Errorf("finalize download: %w", err)
	}
	result.Bytes = finalSize
	f.logger.Info("download complete", slog.String("file", name), slog.Int64("bytes", finalSize))
	return result, nil
}

func (f *Fetcher) request(ctx context.Context, src PartSource, part plex.Part, offset int64) (*http.Response, error) {
	req, err := src.NewPartRequest(ctx, part)
	if err != nil {
		return nil, err
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}
	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("request media part: %w", err)
	}
	return resp, nil
}

func (f *Fetcher) copy(ctx context.Context, dst io.Writer, body io.Reader, offset, total int64, name string, progress func(Progress)) (int64, error) {
	buf := make([]byte, f.chunkSize)
	downloaded := offset
	for {
		if err := ctx.Err(); err != nil {
			return downloaded, err
		}
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return downloaded, fmt.Errorf("write partial file: %w", err)
			}
			downloaded += int64(n)
			if progress != nil {
				progress(Progress{File: name, Downloaded: downloaded, Total: total})
			}
		}
		if errors.Is(readErr, io.EOF) {
			return downloaded, nil
		}
		if readErr != nil {
			return downloaded, fmt.Errorf("read media body: %w", readErr)
		}
	}
}

// totalSize prefers the full size from Content-Range and falls back to
// Content-Length on a plain 200.
func totalSize(resp *http.Response) int64 {
	if m := contentRangePattern.FindStringSubmatch(resp.Header.Get("Content-Range")); m != nil {
		if total, err := strconv.ParseInt(m[3], 10, 64); err == nil {
			return total
		}
	}
	if resp.StatusCode == http.StatusOK && resp.ContentLength > 0 {
		return resp.ContentLength
	}
	return 0
}
