package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestTeeHandlerNilHandlers(t *testing.T) {
	if _, ok := TeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for all nil handlers")
	}
}

func TestTeeHandlerSingleHandlerUnwrapped(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := TeeHandler(nil, inner); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestTeeHandlerRoutesByLevel(t *testing.T) {
	var warnBuf, debugBuf bytes.Buffer
	warnOnly := slog.NewJSONHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})
	everything := slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})

	h := TeeHandler(warnOnly, everything)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected tee to be enabled when any sink accepts the level")
	}

	logger := slog.New(h).With("component", "test")
	logger.Debug("quiet")
	logger.Warn("loud")

	if bytes.Contains(warnBuf.Bytes(), []byte("quiet")) {
		t.Fatalf("warn sink received debug record: %q", warnBuf.String())
	}
	if !bytes.Contains(warnBuf.Bytes(), []byte("loud")) {
		t.Fatalf("warn sink missing warn record: %q", warnBuf.String())
	}
	if !bytes.Contains(debugBuf.Bytes(), []byte("quiet")) || !bytes.Contains(debugBuf.Bytes(), []byte(`"component":"test"`)) {
		t.Fatalf("debug sink missing records or attrs: %q", debugBuf.String())
	}
}
