// Package logs reads the plexmaint JSON log file for the `plexmaint logs`
// command.
//
// Last returns the final N lines with bounded memory and the byte offset at
// which follow mode should resume. Follow polls from an offset until the
// context is cancelled, handing each complete line to a callback. A missing
// file is treated as empty so the command works before the first session has
// written anything.
package logs
