package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"plexmaint/internal/app"
	"plexmaint/internal/config"
	"plexmaint/internal/console"
	"plexmaint/internal/credentials"
	"plexmaint/internal/logging"
)

type commandContext struct {
	configFlag      *string
	credentialsFlag *string
	logLevelFlag    *string
	plainFlag       *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, credentialsFlag, logLevelFlag *string, plainFlag *bool) *commandContext {
	return &commandContext{
		configFlag:      configFlag,
		credentialsFlag: credentialsFlag,
		logLevelFlag:    logLevelFlag,
		plainFlag:       plainFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = config.NormalizeLevel(*c.logLevelFlag)
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) plain() bool {
	return c.plainFlag != nil && *c.plainFlag
}

func (c *commandContext) credentialsStore(cfg *config.Config) (*credentials.Store, error) {
	if c.credentialsFlag != nil && strings.TrimSpace(*c.credentialsFlag) != "" {
		path, err := config.ExpandPath(strings.TrimSpace(*c.credentialsFlag))
		if err != nil {
			return nil, err
		}
		return credentials.NewStore(path), nil
	}
	return credentials.NewStore(cfg.CredentialsPath()), nil
}

func (c *commandContext) loggerFor(cfg *config.Config, stderr io.Writer) *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(cfg, stderr)
		if err != nil {
			fallback, _ := logging.New(logging.Options{Level: cfg.Logging.Level, Format: "console", Console: stderr})
			if fallback == nil {
				fallback = logging.NewNop()
			}
			fallback.Warn("file logging unavailable", logging.Error(err))
			logger = fallback
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) printer(cmd *cobra.Command) *console.Printer {
	if c.plain() {
		return console.NewPlainPrinter(cmd.OutOrStdout())
	}
	return console.NewPrinter(cmd.OutOrStdout())
}

func (c *commandContext) prompter(ctx context.Context, cmd *cobra.Command) console.Prompter {
	in, inFile := cmd.InOrStdin().(*os.File)
	out, outFile := cmd.OutOrStdout().(*os.File)
	if inFile && outFile {
		return console.NewPrompter(ctx, in, out, c.plain())
	}
	return console.NewLinePrompter(cmd.InOrStdin(), cmd.OutOrStdout()).WithContext(ctx)
}

// deps assembles everything an app session needs for cmd.
func (c *commandContext) deps(cmd *cobra.Command) (app.Deps, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return app.Deps{}, err
	}
	store, err := c.credentialsStore(cfg)
	if err != nil {
		return app.Deps{}, err
	}
	return app.Deps{
		Config:      cfg,
		Credentials: store,
		Prompter:    c.prompter(cmd.Context(), cmd),
		Printer:     c.printer(cmd),
		Logger:      c.loggerFor(cfg, cmd.ErrOrStderr()),
		HTTPClient:  &http.Client{Timeout: cfg.RequestTimeout()},
	}, nil
}

// runSession logs unexpected session errors before they reach main.
func (c *commandContext) runSession(cmd *cobra.Command, run func(context.Context, app.Deps) error) error {
	deps, err := c.deps(cmd)
	if err != nil {
		return err
	}
	err = run(cmd.Context(), deps)
	if err != nil && !isInterrupt(err) {
		deps.Logger.Error("session failed", slog.String("command", cmd.CommandPath()), logging.Error(err))
	}
	return err
}
