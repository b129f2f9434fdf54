package console

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrinterPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Success("Successfully connected to Plex!")
	p.Failure("Error: %s", "boom")
	p.Warn("careful")
	p.Info("note %d", 1)
	p.Plain("  Base URL: %s", "http://10.0.0.1:32400")

	want := "Successfully connected to Plex!\nError: boom\ncareful\nnote 1\n  Base URL: http://10.0.0.1:32400\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%q\nwant\n%q", buf.String(), want)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("non-terminal output must not contain escape codes")
	}
}

func TestPrinterConnection(t *testing.T) {
	p := NewPlainPrinter(&bytes.Buffer{})
	if p.Connection(true) != "Connected" || p.Connection(false) != "Not Connected" {
		t.Fatalf("unexpected connection labels %q %q", p.Connection(true), p.Connection(false))
	}
}

func TestPrinterOverwrite(t *testing.T) {
	var buf bytes.Buffer
	NewPlainPrinter(&buf).Overwrite("  => %.2f%% of %s", 42.0, "ep.mp4")
	if buf.String() != "\r  => 42.00% of ep.mp4" {
		t.Fatalf("unexpected progress line %q", buf.String())
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]string{"Episode", "Status"}, [][]string{{"S01E01", "completed"}, {"S01E02"}}, []Alignment{AlignLeft, AlignRight})
	for _, want := range []string{"EPISODE", "STATUS", "S01E01", "completed", "S01E02", "╭"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected table to contain %q:\n%s", want, out)
		}
	}
	if RenderTable(nil, nil, nil) != "" {
		t.Fatalf("expected empty output without headers")
	}
}
