package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"plexmaint/internal/credentials"
	"plexmaint/internal/logging"
	"plexmaint/internal/plex"
)

const linkURL = "https://plex.tv/link"

// linkToken runs the device link flow and returns the approved token.
func linkToken(ctx context.Context, d Deps, account *plex.Account) (string, error) {
	pin, err := account.RequestPin(ctx)
	if err != nil {
		return "", fmt.Errorf("request link code: %w", err)
	}
	d.Printer.Info("Visit %s and enter the code: %s", linkURL, pin.Code)
	d.Printer.Plain("Waiting for approval...")
	token, err := account.WaitForPin(ctx, pin, d.pinInterval())
	if err != nil {
		return "", err
	}
	return token, nil
}

// Link stores a token obtained through a plex.tv link code in the
// credential record, keeping the record's other fields.
func Link(ctx context.Context, d Deps) error {
	logger := logging.NewComponentLogger(d.logger(), "link")
	record, err := d.Credentials.Read()
	if err != nil {
		record = credentials.Record{}
	}
	if strings.TrimSpace(record.ClientIdentifier) == "" {
		record.ClientIdentifier = credentials.NewClientIdentifier()
	}

	token, err := linkToken(ctx, d, d.account(record, ""))
	if err != nil {
		if interrupted(err) {
			return interruptErr(err)
		}
		d.Printer.Failure("Error retrieving token: %v", err)
		return err
	}
	record.Token = token
	if _, err := d.Credentials.Save(record); err != nil {
		d.Printer.Failure("Failed to save configuration: %v", err)
		return err
	}
	logger.Info("linked plex account", slog.String("path", d.Credentials.Path()))
	d.Printer.Success("Linked! Token saved to '%s'.", d.Credentials.Path())
	return nil
}
