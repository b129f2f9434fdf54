// Package main hosts the plexmaint CLI entrypoint and command graph.
//
// Running plexmaint without a subcommand opens the interactive rename menu.
// The download command walks a plex.tv account through its shared servers and
// runs a resumable download job; its status and clear subcommands inspect the
// persisted job. Configuration scaffolding and the Plex device link flow live
// under config and plex.
//
// The package resolves settings, credential paths and logging once per
// invocation so subcommands only assemble app sessions.
package main
