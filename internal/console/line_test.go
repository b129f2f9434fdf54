package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestLinePrompterChooseRetriesInvalidInput(t *testing.T) {
	var out bytes.Buffer
	p := NewLinePrompter(strings.NewReader("abc\n0\n3\n2\n"), &out)

	idx, err := p.Choose("Main Menu", []string{"Manage Config", "Rename Episodes"})
	if err != nil {
		t.Fatalf("Choose returned error: %v", err)
	}
	if idx != 1 {
		t.Fatalf("expected index 1, got %d", idx)
	}
	text := out.String()
	if !strings.HasPrefix(text, "\nMain Menu:\n  1. Manage Config\n  2. Rename Episodes\n") {
		t.Fatalf("unexpected menu rendering %q", text)
	}
	if got := strings.Count(text, "Invalid selection. Please try again."); got != 3 {
		t.Fatalf("expected 3 invalid selection messages, got %d", got)
	}
}

func TestLinePrompterEOFInterrupts(t *testing.T) {
	var out bytes.Buffer
	p := NewLinePrompter(strings.NewReader(""), &out)
	if _, err := p.Choose("Menu", []string{"a"}); !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if _, err := p.Input("Name", ""); !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted from Input, got %v", err)
	}
}

func TestLinePrompterInputDefaults(t *testing.T) {
	var out bytes.Buffer
	p := NewLinePrompter(strings.NewReader("\n  10.0.0.9  \nlast"), &out)

	first, err := p.Input("Server IP Address", "192.168.1.20")
	if err != nil || first != "192.168.1.20" {
		t.Fatalf("expected default, got %q, %v", first, err)
	}
	second, err := p.Input("Server IP Address", "192.168.1.20")
	if err != nil || second != "10.0.0.9" {
		t.Fatalf("expected trimmed answer, got %q, %v", second, err)
	}
	third, err := p.Input("Token", "")
	if err != nil || third != "last" {
		t.Fatalf("expected unterminated last line, got %q, %v", third, err)
	}
	if !strings.Contains(out.String(), "Server IP Address (default 192.168.1.20): ") {
		t.Fatalf("unexpected prompt %q", out.String())
	}
	if !strings.Contains(out.String(), "Token: ") {
		t.Fatalf("expected prompt without default, got %q", out.String())
	}
}

func TestLinePrompterConfirm(t *testing.T) {
	tests := []struct {
		input string
		def   bool
		want  bool
	}{
		{input: "\n", def: true, want: true},
		{input: "\n", def: false, want: false},
		{input: "Yes\n", def: false, want: true},
		{input: "n\n", def: true, want: false},
		{input: "maybe\n", def: true, want: false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got, err := NewLinePrompter(strings.NewReader(tt.input), &out).Confirm("Save", tt.def)
		if err != nil {
			t.Fatalf("Confirm(%q) returned error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("Confirm(%q, %v) = %v, want %v", tt.input, tt.def, got, tt.want)
		}
	}
	var out bytes.Buffer
	_, _ = NewLinePrompter(strings.NewReader("\n"), &out).Confirm("Would you like to save this configuration?", true)
	if out.String() != "Would you like to save this configuration? (y/n) [y]: " {
		t.Fatalf("unexpected confirm prompt %q", out.String())
	}
}

func TestLinePrompterSecretFromPipe(t *testing.T) {
	var out bytes.Buffer
	secret, err := NewLinePrompter(strings.NewReader(" hunter2 \n"), &out).Secret("Plex.tv Password")
	if err != nil || secret != "hunter2" {
		t.Fatalf("Secret = %q, %v", secret, err)
	}
	if out.String() != "Plex.tv Password: " {
		t.Fatalf("unexpected secret prompt %q", out.String())
	}
}

func TestChooseRequiresOptions(t *testing.T) {
	var out bytes.Buffer
	if _, err := NewLinePrompter(strings.NewReader("1\n"), &out).Choose("Empty", nil); err == nil {
		t.Fatal("expected error for empty options")
	}
	if _, err := NewFormPrompter(strings.NewReader(""), &out).Choose("Empty", nil); err == nil {
		t.Fatal("expected error for empty options")
	}
}

func TestLinePrompterCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	// The reader never returns, so only cancellation can end the prompt.
	pr, pw := io.Pipe()
	defer pw.Close()
	_, err := NewLinePrompter(pr, &out).WithContext(ctx).Input("Server IP Address", "")
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
}
