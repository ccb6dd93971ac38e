package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		DebugLevel: zapcore.DebugLevel,
		"bogus":    zapcore.DebugLevel,
	}
	for in, want := range cases {
		if got := toZapLevel(in); got != want {
			t.Fatalf("toZapLevel(%q) = %v; want %v", in, got, want)
		}
	}
}

func TestNopAndNamed(t *testing.T) {
	t.Parallel()

	l := Nop()
	l.Infow("ignored", "k", "v")

	var nilLogger *Logger
	if nilLogger.Named("poller") == nil {
		t.Fatalf("Named on nil logger should fall back to Nop")
	}
	if l.Named("poller") == nil {
		t.Fatalf("Named returned nil")
	}
}
