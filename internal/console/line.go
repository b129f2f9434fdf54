package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// LinePrompter implements Prompter over line-oriented input.
type LinePrompter struct {
	ctx      context.Context
	in       *bufio.Reader
	out      io.Writer
	secretFD int
	hidden   bool
}

// NewLinePrompter reads answers from in and writes prompts to out. Secrets
// are read without echo when in is a terminal.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	p := &LinePrompter{ctx: context.Background(), in: bufio.NewReader(in), out: out, secretFD: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.secretFD = int(f.Fd())
		p.hidden = true
	}
	return p
}

// WithContext makes pending reads return ErrInterrupted once ctx is done.
func (p *LinePrompter) WithContext(ctx context.Context) *LinePrompter {
	p.ctx = ctx
	return p
}

type lineResult struct {
	line string
	err  error
}

// await runs a blocking read so cancellation can abandon it.
func (p *LinePrompter) await(read func() (string, error)) (string, error) {
	if err := p.ctx.Err(); err != nil {
		return "", ErrInterrupted
	}
	done := make(chan lineResult, 1)
	go func() {
		line, err := read()
		done <- lineResult{line: line, err: err}
	}()
	select {
	case <-p.ctx.Done():
		return "", ErrInterrupted
	case res := <-done:
		return res.line, res.err
	}
}

func (p *LinePrompter) readLine() (string, error) {
	line, err := p.await(func() (string, error) { return p.in.ReadString('\n') })
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrInterrupted
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Choose prints "<title>:" and numbered options, then loops until a valid
// number is entered.
func (p *LinePrompter) Choose(title string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, errors.New("no options to choose from")
	}
	fmt.Fprintf(p.out, "\n%s:\n", title)
	for i, option := range options {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, option)
	}
	for {
		fmt.Fprint(p.out, "Enter the number of your choice: ")
		answer, err := p.readLine()
		if err != nil {
			return 0, err
		}
		n, convErr := strconv.Atoi(strings.TrimSpace(answer))
		if convErr == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintln(p.out, "Invalid selection. Please try again.")
	}
}

// Input prints "label (default def): " and returns the trimmed answer or def.
func (p *LinePrompter) Input(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s (default %s): ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	answer, err := p.readLine()
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Secret prints "label: " and reads without echo on a terminal.
func (p *LinePrompter) Secret(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if !p.hidden {
		answer, err := p.readLine()
		return strings.TrimSpace(answer), err
	}
	state, err := term.GetState(p.secretFD)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	secret, err := p.await(func() (string, error) {
		b, err := term.ReadPassword(p.secretFD)
		return string(b), err
	})
	fmt.Fprintln(p.out)
	if errors.Is(err, ErrInterrupted) {
		_ = term.Restore(p.secretFD, state)
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimSpace(secret), nil
}

// Confirm prints "label (y/n) [y]: ". Empty answers take def; anything
// starting with y is yes.
func (p *LinePrompter) Confirm(label string, def bool) (bool, error) {
	hint := "n"
	if def {
		hint = "y"
	}
	fmt.Fprintf(p.out, "%s (y/n) [%s]: ", label, hint)
	answer, err := p.readLine()
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer == "" {
		return def, nil
	}
	return strings.HasPrefix(answer, "y"), nil
}
