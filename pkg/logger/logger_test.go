package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{" Error ", ERROR, false},
		{"verbose", INFO, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLogLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestConfigureWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	if err := Configure(Options{Level: "info", File: path}); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	t.Cleanup(func() {
		if err := Configure(Options{Level: "info"}); err != nil {
			t.Fatalf("failed to reset logger: %v", err)
		}
	})

	Info("test entry", "key", "value")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected log output in file")
	}
}

func TestConfigureBadLevelStillSwapsLogger(t *testing.T) {
	if err := Configure(Options{Level: "bogus"}); err == nil {
		t.Fatal("expected error for bogus level")
	}
	if Logger == nil {
		t.Fatal("expected logger to remain usable")
	}
	if !Enabled(INFO) {
		t.Fatal("expected fallback to INFO level")
	}
}
