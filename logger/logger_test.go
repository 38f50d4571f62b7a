package logger

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNew(t *testing.T) {
	cfg := &Config{
		Level:  "debug",
		Format: "json",
		Output: "stdout",
	}
	l := New(cfg, "my-service")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "my-service" {
		t.Errorf("expected service 'my-service', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	cfg := &Config{
		Level:  "invalid-level",
		Format: "json",
		Output: "stdout",
	}
	l := New(cfg, "test")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestNewFromEnv(t *testing.T) {
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")
	defer os.Unsetenv("LOG_LEVEL")
	defer os.Unsetenv("LOG_FORMAT")

	l := NewFromEnv("env-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestWithComponent(t *testing.T) {
	l := NewDefault("test")
	cl := l.WithComponent("worker")
	if cl == nil {
		t.Fatal("expected non-nil logger")
	}
	if cl.service != "test" {
		t.Errorf("service should be preserved, got %q", cl.service)
	}
}

func TestWithStage(t *testing.T) {
	l := NewDefault("test")
	sl := l.WithStage("resize", "w-1")
	if sl == nil {
		t.Fatal("expected non-nil logger")
	}
	if sl.service != "test" {
		t.Errorf("service should be preserved, got %q", sl.service)
	}
}

func TestWithFields(t *testing.T) {
	l := NewDefault("test")
	fl := l.WithFields(map[string]interface{}{"a": 1})
	if fl == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestWithError(t *testing.T) {
	l := NewDefault("test")
	el := l.WithError(errors.New("boom"))
	if el == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestFields(t *testing.T) {
	m := Fields("queue", "head", "depth", 3)
	if m["queue"] != "head" {
		t.Errorf("expected queue=head, got %v", m["queue"])
	}
	if m["depth"] != 3 {
		t.Errorf("expected depth=3, got %v", m["depth"])
	}
}

func TestFields_OddArgs(t *testing.T) {
	m := Fields("only-key")
	if len(m) != 0 {
		t.Errorf("expected empty map for dangling key, got %v", m)
	}
}

func TestErrorFields(t *testing.T) {
	m := ErrorFields("shutdown", errors.New("deadlock"))
	if m[FieldOperation] != "shutdown" {
		t.Errorf("expected operation=shutdown, got %v", m[FieldOperation])
	}
	if m[FieldError] != "deadlock" {
		t.Errorf("expected error=deadlock, got %v", m[FieldError])
	}
}

func TestDurationFields(t *testing.T) {
	m := DurationFields("drain", 1500*time.Millisecond)
	if m[FieldDuration] != int64(1500) {
		t.Errorf("expected duration_ms=1500, got %v", m[FieldDuration])
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("expected default level info, got %s", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected default format console, got %s", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled by default")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json"}, false},
		{"bad level", Config{Level: "verbose", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_GetUnregistered(t *testing.T) {
	l := Get("never-registered")
	if l == nil {
		t.Fatal("expected fallback logger")
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	custom := NewDefault("custom")
	Register("queue", custom)
	if got := Get("queue"); got != custom {
		t.Error("expected registered logger to be returned")
	}
}

func TestInit_SeedsDefaultComponents(t *testing.T) {
	Init(Config{Level: "info", Format: "json"})

	registry.mu.RLock()
	defer registry.mu.RUnlock()
	for _, name := range defaultComponents {
		if _, ok := registry.loggers[name]; !ok {
			t.Errorf("expected component %q to be registered by Init", name)
		}
	}
}
