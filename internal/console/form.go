package console

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
)

// FormPrompter implements Prompter with interactive huh forms.
type FormPrompter struct {
	ctx   context.Context
	in    io.Reader
	out   io.Writer
	theme *huh.Theme
}

// NewFormPrompter builds a FormPrompter reading keys from in and drawing to out.
func NewFormPrompter(in io.Reader, out io.Writer) *FormPrompter {
	return &FormPrompter{ctx: context.Background(), in: in, out: out, theme: huh.ThemeCharm()}
}

// WithContext makes forms abort with ErrInterrupted once ctx is done.
func (p *FormPrompter) WithContext(ctx context.Context) *FormPrompter {
	p.ctx = ctx
	return p
}

func (p *FormPrompter) run(field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithTheme(p.theme).
		WithInput(p.in).
		WithOutput(p.out)
	if err := form.RunWithContext(p.ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) || p.ctx.Err() != nil {
			return ErrInterrupted
		}
		return err
	}
	return nil
}

// Choose shows a select list.
func (p *FormPrompter) Choose(title string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, errors.New("no options to choose from")
	}
	opts := make([]huh.Option[int], len(options))
	for i, option := range options {
		opts[i] = huh.NewOption(option, i)
	}
	choice := 0
	err := p.run(huh.NewSelect[int]().
		Title(title).
		Options(opts...).
		Value(&choice))
	return choice, err
}

// Input shows a text input with def as placeholder.
func (p *FormPrompter) Input(label, def string) (string, error) {
	value := ""
	err := p.run(huh.NewInput().
		Title(label).
		Placeholder(def).
		Value(&value))
	if err != nil {
		return "", err
	}
	if value = strings.TrimSpace(value); value == "" {
		return def, nil
	}
	return value, nil
}

// Secret shows a masked text input.
func (p *FormPrompter) Secret(label string) (string, error) {
	value := ""
	err := p.run(huh.NewInput().
		Title(label).
		EchoMode(huh.EchoModePassword).
		Value(&value))
	return strings.TrimSpace(value), err
}

// Confirm shows a yes/no toggle starting at def.
func (p *FormPrompter) Confirm(label string, def bool) (bool, error) {
	value := def
	err := p.run(huh.NewConfirm().
		Title(label).
		Affirmative("Yes").
		Negative("No").
		Value(&value))
	return value, err
}
