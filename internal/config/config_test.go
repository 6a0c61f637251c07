package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmorgan-nz/trapmon/internal/protocol"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "trapmon.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	want := Default()
	if cfg.Serial.Device != want.Serial.Device {
		t.Fatalf("unexpected device: %q", cfg.Serial.Device)
	}
	if cfg.Serial.Baud != want.Serial.Baud {
		t.Fatalf("unexpected baud: %d", cfg.Serial.Baud)
	}
	if cfg.Serial.ReadTimeout != time.Second {
		t.Fatalf("unexpected read timeout: %v", cfg.Serial.ReadTimeout)
	}
	if cfg.Reconnect.Enabled {
		t.Fatalf("expected reconnect disabled by default")
	}
	if cfg.Debug.Addr != "" {
		t.Fatalf("expected debug endpoint disabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
log_level = "debug"

[serial]
device = "/dev/serial0"
baud = 9600
read_timeout = "250ms"
lock_retries = 5
lock_wait = "2s"

[listener]
max_line_bytes = 4096
reconnect = true
reconnect_max_attempts = 10
reconnect_initial_delay = "1s"
reconnect_max_delay = "1m"

[trigger]
trap_window = "45s"
protect_window = "2m"

[trigger.trap]
possum = 0.7
rat = 0.6

[trigger.protect]
kiwi = 0.4

[debug]
addr = "127.0.0.1:7070"
cors_origins = ["http://localhost:8080"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel)
	}
	if cfg.Serial.Device != "/dev/serial0" || cfg.Serial.Baud != 9600 {
		t.Fatalf("unexpected serial config: %+v", cfg.Serial)
	}
	if cfg.Serial.ReadTimeout != 250*time.Millisecond {
		t.Fatalf("unexpected read timeout: %v", cfg.Serial.ReadTimeout)
	}
	if cfg.Serial.LockRetries != 5 || cfg.Serial.LockWait != 2*time.Second {
		t.Fatalf("unexpected lock config: %+v", cfg.Serial)
	}
	if cfg.Limits.MaxLineBytes != 4096 {
		t.Fatalf("unexpected max line bytes: %d", cfg.Limits.MaxLineBytes)
	}
	if !cfg.Reconnect.Enabled || cfg.Reconnect.MaxAttempts != 10 {
		t.Fatalf("unexpected reconnect config: %+v", cfg.Reconnect)
	}
	if cfg.Reconnect.Backoff.InitialDelay != time.Second || cfg.Reconnect.Backoff.MaxDelay != time.Minute {
		t.Fatalf("unexpected backoff config: %+v", cfg.Reconnect.Backoff)
	}
	wantTrap := protocol.Species{"possum": 0.7, "rat": 0.6}
	if cfg.Trigger.Trap.String() != wantTrap.String() {
		t.Fatalf("unexpected trap species: %v", cfg.Trigger.Trap)
	}
	if cfg.Trigger.Protect.String() != (protocol.Species{"kiwi": 0.4}).String() {
		t.Fatalf("unexpected protect species: %v", cfg.Trigger.Protect)
	}
	if cfg.Trigger.TrapWindow != 45*time.Second || cfg.Trigger.ProtectWindow != 2*time.Minute {
		t.Fatalf("unexpected trigger windows: %+v", cfg.Trigger)
	}
	if cfg.Debug.Addr != "127.0.0.1:7070" {
		t.Fatalf("unexpected debug addr: %q", cfg.Debug.Addr)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[serial]
read_timeout = "soon"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected duration parse error")
	}
}

func TestLoadRejectsInvalidSerial(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[serial]
baud = -1
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestWatchDetectsSemanticChange(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "log_level = \"info\"\n")

	current, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	var changed bool
	var watchErr error
	go func() {
		changed, watchErr = Watch(ctx, path, current, zerolog.Nop())
		close(done)
	}()

	// Give the watcher time to register before rewriting.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("log_level = \"debug\"\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatalf("watch did not return before timeout")
	}
	if watchErr != nil {
		t.Fatalf("watch: %v", watchErr)
	}
	if !changed {
		t.Fatalf("expected change detection")
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "log_level = \"info\"\n")
	current, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var changed bool
	go func() {
		changed, _ = Watch(ctx, path, current, zerolog.Nop())
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("watch did not stop on cancel")
	}
	if changed {
		t.Fatalf("expected no change on cancel")
	}
}
