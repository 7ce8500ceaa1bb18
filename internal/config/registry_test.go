package config

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	// Should not be empty
	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	// Should contain "kotsconfig"
	if !strings.Contains(configDir, "kotsconfig") {
		t.Errorf("GetConfigDir() = %v, should contain 'kotsconfig'", configDir)
	}

	// Platform-specific checks
	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin", "linux":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}

	t.Logf("Config directory: %s", configDir)
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	// Should end with config.yaml
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}

	t.Logf("Config path: %s", configPath)
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}

	if reg.Consoles == nil {
		t.Error("NewRegistry().Consoles should not be nil")
	}

	if reg.Preferences == nil {
		t.Error("NewRegistry().Preferences should not be nil")
	}

	if reg.Preferences.LiveValidation != true {
		t.Error("NewRegistry().Preferences.LiveValidation should be true by default")
	}

	if reg.Preferences.DebounceMillis != 300 {
		t.Errorf("NewRegistry().Preferences.DebounceMillis = %v, want 300", reg.Preferences.DebounceMillis)
	}
}

func TestRegistryEnsureConsole(t *testing.T) {
	reg := NewRegistry()

	// First call should create console
	console1 := reg.EnsureConsole("prod")
	if console1 == nil {
		t.Fatal("EnsureConsole() returned nil")
	}

	// Second call should return same console
	console2 := reg.EnsureConsole("prod")
	if console1 != console2 {
		t.Error("EnsureConsole() should return same instance for same name")
	}

	// Different name should create new console
	console3 := reg.EnsureConsole("staging")
	if console1 == console3 {
		t.Error("EnsureConsole() should create new instance for different name")
	}
}

func TestRegistryUpdateConsoleLastSeen(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	reg.UpdateConsoleLastSeen("prod", "https://console.internal:3000")
	after := time.Now()

	console := reg.GetConsole("prod")
	if console == nil {
		t.Fatal("Console should exist after UpdateConsoleLastSeen()")
	}

	if console.URL != "https://console.internal:3000" {
		t.Errorf("URL = %v, want https://console.internal:3000", console.URL)
	}

	if console.LastSeen.Before(before) || console.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", console.LastSeen, before, after)
	}
}

func TestRegistrySetConsoleAuth(t *testing.T) {
	reg := NewRegistry()

	reg.SetConsoleAuth("prod", "admin")

	console := reg.GetConsole("prod")
	if console == nil {
		t.Fatal("Console should exist after SetConsoleAuth()")
	}

	if console.Username != "admin" {
		t.Errorf("Username = %v, want 'admin'", console.Username)
	}
}

func TestRegistryRecordSave(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	reg.RecordSave("prod", "my-app", 12)
	after := time.Now()

	console := reg.GetConsole("prod")
	if console == nil {
		t.Fatal("Console should exist after RecordSave()")
	}

	app := console.Apps["my-app"]
	if app == nil {
		t.Fatal("App should exist after RecordSave()")
	}

	if app.LastSequence != 12 {
		t.Errorf("LastSequence = %v, want 12", app.LastSequence)
	}

	if app.LastSaved.Before(before) || app.LastSaved.After(after) {
		t.Errorf("LastSaved = %v, should be between %v and %v", app.LastSaved, before, after)
	}

	// A later save bumps the sequence on the same entry.
	reg.RecordSave("prod", "my-app", 13)
	if console.Apps["my-app"].LastSequence != 13 {
		t.Errorf("LastSequence = %v after second save, want 13", console.Apps["my-app"].LastSequence)
	}
}

func TestRegistrySetAppNickname(t *testing.T) {
	reg := NewRegistry()

	reg.SetAppNickname("prod", "my-app", "Storefront")

	console := reg.GetConsole("prod")
	if console == nil {
		t.Fatal("Console should exist after SetAppNickname()")
	}

	app := console.Apps["my-app"]
	if app == nil {
		t.Fatal("App should exist after SetAppNickname()")
	}

	if app.Nickname != "Storefront" {
		t.Errorf("Nickname = %v, want 'Storefront'", app.Nickname)
	}

	// Nickname updates must not wipe other metadata.
	reg.RecordSave("prod", "my-app", 5)
	reg.SetAppNickname("prod", "my-app", "Storefront v2")
	if console.Apps["my-app"].LastSequence != 5 {
		t.Error("SetAppNickname() wiped LastSequence")
	}
}

func TestRegistryDefaultConsole(t *testing.T) {
	reg := NewRegistry()

	if got := reg.DefaultConsole(); got != "" {
		t.Errorf("DefaultConsole() = %q with no consoles, want empty", got)
	}

	reg.EnsureConsole("prod")
	if got := reg.DefaultConsole(); got != "prod" {
		t.Errorf("DefaultConsole() = %q with a single console, want prod", got)
	}

	reg.EnsureConsole("staging")
	if got := reg.DefaultConsole(); got != "" {
		t.Errorf("DefaultConsole() = %q with two consoles and no preference, want empty", got)
	}

	reg.Preferences.DefaultConsole = "staging"
	if got := reg.DefaultConsole(); got != "staging" {
		t.Errorf("DefaultConsole() = %q, want configured staging", got)
	}
}

func TestParseRegistry(t *testing.T) {
	doc := []byte(`# Test config
version: 1
consoles:
  prod:
    url: "https://console.internal:3000"
    username: "admin"
    apps:
      my-app:
        nickname: "Storefront"
        last_sequence: 12
preferences:
  default_console: "prod"
  live_validation: true
  debounce_millis: 300
`)

	reg, err := parseRegistry(doc)
	if err != nil {
		t.Fatalf("parseRegistry() error = %v", err)
	}

	console := reg.GetConsole("prod")
	if console == nil {
		t.Fatal("Console 'prod' should exist in parsed registry")
	}
	if console.URL != "https://console.internal:3000" {
		t.Errorf("URL = %v", console.URL)
	}
	if console.Username != "admin" {
		t.Errorf("Username = %v, want admin", console.Username)
	}

	app := console.Apps["my-app"]
	if app == nil {
		t.Fatal("App 'my-app' should exist in parsed registry")
	}
	if app.Nickname != "Storefront" || app.LastSequence != 12 {
		t.Errorf("app = %+v", app)
	}

	if reg.Preferences.DefaultConsole != "prod" {
		t.Errorf("DefaultConsole preference = %v, want prod", reg.Preferences.DefaultConsole)
	}
}

func TestParseRegistryVersionMismatch(t *testing.T) {
	if _, err := parseRegistry([]byte("version: 2\n")); err == nil {
		t.Error("parseRegistry() should reject unsupported versions")
	}
}

func TestParseRegistryDefaults(t *testing.T) {
	reg, err := parseRegistry([]byte("version: 1\n"))
	if err != nil {
		t.Fatalf("parseRegistry() error = %v", err)
	}

	if reg.Consoles == nil {
		t.Error("Consoles map should be initialized for a minimal document")
	}
	if reg.Preferences == nil || reg.Preferences.DebounceMillis != 300 {
		t.Error("Preferences should default for a minimal document")
	}
}

// Benchmark tests

func BenchmarkGetConfigDir(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = GetConfigDir()
	}
}

func BenchmarkEnsureConsole(b *testing.B) {
	reg := NewRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.EnsureConsole("prod")
	}
}
