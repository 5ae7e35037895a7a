package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:               "8081",
		RateLimitPerMinute: 60,
		DataBackend:        config.BackendMemory,
		SummaryCacheSize:   8,
		SummaryCacheTTL:    time.Minute,
		LogLevel:           "debug",
		LogFormat:          "json",
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("FINTRACK_TEST_KEY=from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FINTRACK_TEST_KEY", "")
	os.Unsetenv("FINTRACK_TEST_KEY")

	if err := LoadEnvFile(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv("FINTRACK_TEST_KEY"); got != "from-file" {
		t.Errorf("FINTRACK_TEST_KEY = %q", got)
	}
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(testConfig(), log.ComponentWorker, &buf)
	logger.Debug("debug visible")

	out := buf.String()
	if !strings.Contains(out, `"msg":"debug visible"`) || !strings.Contains(out, `"component":"worker"`) {
		t.Errorf("unexpected log output: %s", out)
	}
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "nosuch")
	if _, err := LoadAndValidateConfig(); err == nil {
		t.Fatal("expected validation error")
	}

	t.Setenv("DATA_BACKEND", "memory")
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		t.Fatalf("LoadAndValidateConfig: %v", err)
	}
	if cfg.DataBackend != config.BackendMemory {
		t.Errorf("DataBackend = %s", cfg.DataBackend)
	}
}

func TestBuildServices(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig()
	logger := SetupLogger(cfg, log.ComponentApp, &buf)
	ctx := context.Background()

	client, err := ConnectAMQP(cfg, logger)
	if err != nil || client != nil {
		t.Fatalf("ConnectAMQP without URL = %v, %v", client, err)
	}

	be, err := OpenBackend(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("OpenBackend: %v", err)
	}
	defer be.Cleanup()

	svc := BuildServices(cfg, be, client, logger)
	defer svc.Close()

	if _, err := svc.Ledger.SaveSettings(ctx, core.DefaultSettings("u1")); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	if _, err := svc.Summaries.Summary(ctx, "u1", nil); err != nil {
		t.Fatalf("Summary: %v", err)
	}
}

func TestShutdownOn(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(testConfig(), log.ComponentApp, &buf)
	sigs := make(chan os.Signal, 1)

	cleaned := make(chan struct{})
	ctx, done := shutdownOn(sigs, logger, time.Second, func(context.Context) { close(cleaned) })

	select {
	case <-ctx.Done():
		t.Fatal("context cancelled before a signal")
	default:
	}

	sigs <- syscall.SIGTERM
	WaitForShutdown(ctx, done)

	select {
	case <-cleaned:
	default:
		t.Error("cleanup did not run")
	}
	if !strings.Contains(buf.String(), "Shutdown complete") {
		t.Errorf("missing completion log: %s", buf.String())
	}
}

func TestShutdownOn_Timeout(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(testConfig(), log.ComponentApp, &buf)
	sigs := make(chan os.Signal, 1)

	release := make(chan struct{})
	defer close(release)
	ctx, done := shutdownOn(sigs, logger, 20*time.Millisecond, func(context.Context) { <-release })

	sigs <- syscall.SIGINT
	WaitForShutdown(ctx, done)
	if !strings.Contains(buf.String(), "Shutdown timeout reached") {
		t.Errorf("missing timeout log: %s", buf.String())
	}
}
