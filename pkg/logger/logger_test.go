package logger

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

func TestInitAndGet(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init() returned error: %v", err)
	}
	if Get() == nil {
		t.Fatal("Get() returned nil after Init()")
	}
}

func TestNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	l := Named("pipeline")
	if l == nil {
		t.Fatal("Named() returned nil")
	}
	// Named loggers log without panicking.
	l.Info(context.Background(), "named logger works", String("k", "v"))
}

func TestFieldConstructors(t *testing.T) {
	cases := []struct {
		field Field
		key   string
	}{
		{String("s", "v"), "s"},
		{Int("i", 7), "i"},
		{Float64("f", 1.5), "f"},
		{Any("a", struct{}{}), "a"},
		{Error(errors.New("boom")), "error"},
	}
	for _, tc := range cases {
		if tc.field.Key != tc.key {
			t.Errorf("field key = %q, want %q", tc.field.Key, tc.key)
		}
	}
}

func TestSetLevelString(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	for _, level := range []string{"debug", "info", "warn", "warning", "error", "", "DEBUG", " info "} {
		if err := SetLevelString(level); err != nil {
			t.Errorf("SetLevelString(%q) returned error: %v", level, err)
		}
	}
	if err := SetLevelString("loud"); err == nil {
		t.Error("SetLevelString(\"loud\") should fail")
	}
	SetLevel(slog.LevelInfo)
}

func TestSync(t *testing.T) {
	if err := Sync(); err != nil {
		t.Errorf("Sync() returned error: %v", err)
	}
}
