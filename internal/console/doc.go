// Package console holds the interactive terminal surface: numbered menus
// and prompts (Prompter), colored status lines (Printer), and tables.
//
// Two prompters are provided. LinePrompter reads plain lines and works with
// any reader, which keeps tests and piped input simple. FormPrompter drives
// charmbracelet/huh forms and is chosen when both stdin and stdout are
// terminals.
package console
