package console

import (
	"context"
	"errors"
	"os"

	"github.com/mattn/go-isatty"
)

// ErrInterrupted is returned when the user aborts a prompt (Ctrl+C or EOF).
var ErrInterrupted = errors.New("interrupted by user")

// Prompter asks the user questions.
type Prompter interface {
	// Choose presents numbered options and returns the zero-based index picked.
	Choose(title string, options []string) (int, error)
	// Input reads a line, returning def when the answer is empty.
	Input(label, def string) (string, error)
	// Secret reads a line without echo when possible.
	Secret(label string) (string, error)
	// Confirm asks a yes/no question.
	Confirm(label string, def bool) (bool, error)
}

// NewPrompter returns a FormPrompter when in and out are both terminals and
// plain is false, and a LinePrompter otherwise. Prompts end with
// ErrInterrupted once ctx is done.
func NewPrompter(ctx context.Context, in, out *os.File, plain bool) Prompter {
	if !plain && isTerminal(in) && isTerminal(out) {
		return NewFormPrompter(in, out).WithContext(ctx)
	}
	return NewLinePrompter(in, out).WithContext(ctx)
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
