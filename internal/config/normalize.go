package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePlex()
	c.normalizeDownload()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		c.Paths.DownloadDir = defaultDownloadDir
	}
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePlex() {
	c.Plex.DefaultHost = strings.TrimSpace(c.Plex.DefaultHost)
	if c.Plex.DefaultHost == "" {
		c.Plex.DefaultHost = defaultHost
	}
	if c.Plex.DefaultPort == 0 {
		c.Plex.DefaultPort = defaultPort
	}
	c.Plex.AccountURL = strings.TrimRight(strings.TrimSpace(c.Plex.AccountURL), "/")
	if c.Plex.AccountURL == "" {
		c.Plex.AccountURL = defaultAccountURL
	}
	if c.Plex.RequestTimeout == 0 {
		c.Plex.RequestTimeout = defaultRequestTimeout
	}
	c.Plex.Product = strings.TrimSpace(c.Plex.Product)
	if c.Plex.Product == "" {
		c.Plex.Product = defaultProduct
	}
}

func (c *Config) normalizeDownload() {
	if c.Download.ChunkSize == 0 {
		c.Download.ChunkSize = defaultChunkSize
	}
	ext := strings.TrimSpace(c.Download.Extension)
	if ext == "" {
		ext = defaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Download.Extension = ext
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("PLEXMAINT_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = NormalizeLevel(c.Logging.Level)
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}

// NormalizeLevel lowercases a log level name and maps "warning" to "warn".
func NormalizeLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return "warn"
	}
	return level
}
