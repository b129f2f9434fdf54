// Package app hosts the interactive flows behind the plexmaint commands.
//
// The Renamer session drives the main menu: load, create or connect the
// credential record, then rename episodes of a library show to their file
// names. The Downloader session walks a plex.tv account through its shared
// servers, builds a persistent download job and runs it with resume support.
//
// Sessions print user-facing status lines through console.Printer and log
// diagnostics through slog. Prompt interruptions surface as
// console.ErrInterrupted so the entry point can print its goodbye.
package app
