package main

import (
	"testing"
	"time"

	"github.com/pjoubert/linkvigil/internal/config"
)

// captureRun swaps runPipeline for a recorder and restores it after the
// test.
func captureRun(t *testing.T) (*config.Config, *string) {
	t.Helper()
	var capturedCfg config.Config
	var capturedInput string

	orig := runPipeline
	runPipeline = func(cfg *config.Config, inputFile string) error {
		capturedCfg = *cfg
		capturedInput = inputFile
		return nil
	}
	t.Cleanup(func() { runPipeline = orig })

	return &capturedCfg, &capturedInput
}

func TestCheckRequiresInputArgument(t *testing.T) {
	captureRun(t)

	err := newCLIApp().Run([]string{"linkvigil", "check"})
	if err == nil {
		t.Error("Run() = nil error, want usage failure without input file")
	}
}

func TestCheckFlagsOverrideConfig(t *testing.T) {
	cfg, input := captureRun(t)

	err := newCLIApp().Run([]string{
		"linkvigil", "check",
		"--output-dir", "snapshots",
		"--timeout", "3s",
		"--delay", "250ms",
		"--user-agent", "custom/2.0",
		"--max-urls", "5",
		"--max-in-flight", "8",
		"--no-download",
		"bookmarks.json",
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if *input != "bookmarks.json" {
		t.Errorf("input = %q, want bookmarks.json", *input)
	}
	if cfg.OutputDir != "snapshots" {
		t.Errorf("OutputDir = %q, want snapshots", cfg.OutputDir)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", cfg.Timeout)
	}
	if cfg.Delay != 250*time.Millisecond {
		t.Errorf("Delay = %v, want 250ms", cfg.Delay)
	}
	if cfg.UserAgent != "custom/2.0" {
		t.Errorf("UserAgent = %q, want custom/2.0", cfg.UserAgent)
	}
	if cfg.MaxURLs != 5 {
		t.Errorf("MaxURLs = %d, want 5", cfg.MaxURLs)
	}
	if cfg.MaxInFlight != 8 {
		t.Errorf("MaxInFlight = %d, want 8", cfg.MaxInFlight)
	}
	if !cfg.NoDownload {
		t.Error("NoDownload = false, want true")
	}
}

func TestCheckKeepsEnvDefaultsWithoutFlags(t *testing.T) {
	cfg, _ := captureRun(t)

	t.Setenv("LINKVIGIL_TIMEOUT", "42s")

	err := newCLIApp().Run([]string{"linkvigil", "check", "bookmarks.json"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if cfg.Timeout != 42*time.Second {
		t.Errorf("Timeout = %v, want env-provided 42s", cfg.Timeout)
	}
}
