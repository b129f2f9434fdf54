package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePlex(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePlex() error {
	if c.Plex.DefaultPort < 1 || c.Plex.DefaultPort > 65535 {
		return fmt.Errorf("plex.default_port: %d is outside 1-65535", c.Plex.DefaultPort)
	}
	if c.Plex.RequestTimeout < 0 {
		return errors.New("plex.request_timeout must be non-negative")
	}
	parsed, err := url.Parse(c.Plex.AccountURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("plex.account_url: %q is not an absolute URL", c.Plex.AccountURL)
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.ChunkSize < 1024 {
		return fmt.Errorf("download.chunk_size: %d is below the 1024 byte minimum", c.Download.ChunkSize)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
