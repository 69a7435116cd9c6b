package config

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// setupTestHome points HOME at a temp dir and returns the taskmaster config dir.
func setupTestHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)

	configDir := filepath.Join(home, ".config", "taskmaster")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	return configDir
}

func writeConfig(t *testing.T, dir, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestLoadWithFile_ValidYAML(t *testing.T) {
	dir := setupTestHome(t)

	path := writeConfig(t, dir, `server:
  http_port: 9090
  http_host: 127.0.0.1
  cors_enabled: true

llm:
  provider: anthropic
  model: claude-3-5-haiku-latest
  temperature: 0.2
  api_key: sk-test-yaml
  timeout: 5s

events:
  enabled: true
  nats_url: nats://127.0.0.1:4222
`, 0600)

	cfg, err := LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want 127.0.0.1", cfg.Server.Host)
	}
	if !cfg.Server.CORSEnabled {
		t.Error("Server.CORSEnabled = false, want true")
	}
	if cfg.LLM.Provider != "anthropic" {
		t.Errorf("LLM.Provider = %q, want anthropic", cfg.LLM.Provider)
	}
	if cfg.LLM.Temperature != 0.2 {
		t.Errorf("LLM.Temperature = %g, want 0.2", cfg.LLM.Temperature)
	}
	if cfg.LLM.APIKey.Value() != "sk-test-yaml" {
		t.Errorf("LLM.APIKey not loaded")
	}
	if cfg.LLM.Timeout != 5*time.Second {
		t.Errorf("LLM.Timeout = %v, want 5s", cfg.LLM.Timeout)
	}
	if !cfg.Events.Enabled {
		t.Error("Events.Enabled = false, want true")
	}

	// Unset keys keep their defaults.
	if cfg.LLM.MaxTokens != 256 {
		t.Errorf("LLM.MaxTokens = %d, want default 256", cfg.LLM.MaxTokens)
	}
	if !cfg.Router.ScrubInput {
		t.Error("Router.ScrubInput = false, want default true")
	}
	if cfg.Events.SubjectPrefix != "taskmaster.tasks" {
		t.Errorf("Events.SubjectPrefix = %q, want default", cfg.Events.SubjectPrefix)
	}
}

func TestLoadWithFile_EnvironmentOverride(t *testing.T) {
	dir := setupTestHome(t)

	path := writeConfig(t, dir, `server:
  http_port: 9090
llm:
  model: yaml-model
`, 0600)

	t.Setenv("SERVER_HTTP_PORT", "7777")
	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("ROUTER_SCRUB_INPUT", "false")

	cfg, err := LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}

	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777 (from env override)", cfg.Server.Port)
	}
	if cfg.LLM.Model != "env-model" {
		t.Errorf("LLM.Model = %q, want env-model", cfg.LLM.Model)
	}
	if cfg.Router.ScrubInput {
		t.Error("Router.ScrubInput = true, want false from env")
	}
}

func TestLoadWithFile_LegacyEnvironment(t *testing.T) {
	dir := setupTestHome(t)
	path := filepath.Join(dir, "config.yaml")

	t.Setenv("OPENAI_API_KEY", "sk-legacy")
	t.Setenv("OPENAI_MODEL", "gpt-legacy")
	t.Setenv("OPENAI_TEMPERATURE", "0.3")
	t.Setenv("USE_CORS", "1")

	cfg, err := LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}

	if cfg.LLM.APIKey.Value() != "sk-legacy" {
		t.Error("OPENAI_API_KEY not mapped to llm.api_key")
	}
	if cfg.LLM.Model != "gpt-legacy" {
		t.Errorf("LLM.Model = %q, want gpt-legacy", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0.3 {
		t.Errorf("LLM.Temperature = %g, want 0.3", cfg.LLM.Temperature)
	}
	if !cfg.Server.CORSEnabled {
		t.Error("USE_CORS=1 not mapped to server.cors_enabled")
	}
}

func TestLoadWithFile_CanonicalBeatsLegacy(t *testing.T) {
	dir := setupTestHome(t)

	t.Setenv("OPENAI_MODEL", "legacy")
	t.Setenv("LLM_MODEL", "canonical")

	cfg, err := LoadWithFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}
	if cfg.LLM.Model != "canonical" {
		t.Errorf("LLM.Model = %q, want canonical", cfg.LLM.Model)
	}
}

func TestLoadWithFile_MissingFile(t *testing.T) {
	dir := setupTestHome(t)

	cfg, err := LoadWithFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFile() should not error on missing file, got: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestLoadWithFile_InvalidYAML(t *testing.T) {
	dir := setupTestHome(t)

	path := writeConfig(t, dir, `server:
  http_port: not-a-number
  invalid syntax here
`, 0600)

	if _, err := LoadWithFile(path); err == nil {
		t.Error("LoadWithFile() should error on invalid YAML, got nil")
	}
}

func TestLoadWithFile_Validation(t *testing.T) {
	dir := setupTestHome(t)

	path := writeConfig(t, dir, `server:
  http_port: 99999
`, 0600)

	_, err := LoadWithFile(path)
	if err == nil {
		t.Fatal("LoadWithFile() should error on invalid port, got nil")
	}
	if !strings.Contains(err.Error(), "invalid server port") {
		t.Errorf("Expected port validation error, got: %v", err)
	}
}

func TestLoadWithFile_PathTraversal(t *testing.T) {
	setupTestHome(t)

	_, err := LoadWithFile("../../../../etc/passwd")
	if err == nil {
		t.Fatal("Expected error for path traversal, got nil")
	}
	if !strings.Contains(err.Error(), "must be in ~/.config/taskmaster/ or /etc/taskmaster/") {
		t.Errorf("Expected path validation error, got: %v", err)
	}
}

func TestLoadWithFile_InsecurePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping permission test on Windows")
	}

	dir := setupTestHome(t)
	path := writeConfig(t, dir, "server:\n  http_port: 9090\n", 0644)

	_, err := LoadWithFile(path)
	if err == nil {
		t.Fatal("Expected error for insecure permissions, got nil")
	}
	if !strings.Contains(err.Error(), "insecure") {
		t.Errorf("Expected 'insecure permissions' error, got: %v", err)
	}
}

func TestLoadWithFile_ReadOnlyPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping permission test on Windows")
	}

	dir := setupTestHome(t)
	path := writeConfig(t, dir, "server:\n  http_port: 9191\n", 0400)

	cfg, err := LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() should succeed with 0400 permissions, got error: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191", cfg.Server.Port)
	}
}

func TestLoadWithFile_FileTooLarge(t *testing.T) {
	dir := setupTestHome(t)

	largeContent := bytes.Repeat([]byte("# comment line\n"), 150000)
	path := writeConfig(t, dir, string(largeContent), 0600)

	_, err := LoadWithFile(path)
	if err == nil {
		t.Fatal("Expected error for large file, got nil")
	}
	if !strings.Contains(err.Error(), "too large") {
		t.Errorf("Expected 'too large' error, got: %v", err)
	}
}
