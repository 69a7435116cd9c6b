package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB
	configDirName     = "taskmaster"
)

// sections are the top-level keys environment variables may target.
var sections = map[string]bool{
	"server": true, "llm": true, "router": true, "events": true,
	"logging": true, "telemetry": true, "secrets": true,
}

// legacyEnv maps the variable names of the original single-file app onto
// config keys. Canonical names (LLM_API_KEY, ...) win when both are set.
var legacyEnv = map[string]string{
	"OPENAI_API_KEY":     "llm.api_key",
	"OPENAI_MODEL":       "llm.model",
	"OPENAI_TEMPERATURE": "llm.temperature",
	"USE_CORS":           "server.cors_enabled",
	"NATS_URL":           "events.nats_url",
}

// LoadWithFile loads configuration from a YAML file, then overrides it with
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (SERVER_HTTP_PORT, LLM_MODEL, ...)
//  2. Legacy variables (OPENAI_API_KEY, OPENAI_MODEL, OPENAI_TEMPERATURE, USE_CORS, NATS_URL)
//  3. YAML config file (~/.config/taskmaster/config.yaml)
//  4. Default()
//
// The file is optional. When present it must live under ~/.config/taskmaster/
// or /etc/taskmaster/, have 0600 or 0400 permissions and be at most 1MB.
//
// Environment variables split on the first underscore:
//
//	SERVER_HTTP_PORT   -> server.http_port
//	LLM_API_KEY        -> llm.api_key
//	EVENTS_NATS_URL    -> events.nats_url
func LoadWithFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", configDirName, "config.yaml")
	}

	if err := validateConfigPath(configPath); err != nil {
		return nil, fmt.Errorf("config path validation failed: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		content, err := readConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", legacyKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load legacy environment variables: %w", err)
	}
	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// readConfigFile opens the file once and validates it through the same
// descriptor to avoid a TOCTOU race.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return nil, fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// legacyKey keeps only the legacy variable names.
func legacyKey(s string) string {
	return legacyEnv[s]
}

// envKey maps SECTION_FIELD_NAME to section.field_name. Variables outside
// the known sections and legacy names are skipped.
func envKey(s string) string {
	if _, ok := legacyEnv[s]; ok {
		return ""
	}

	lower := strings.ToLower(s)
	section, field, ok := strings.Cut(lower, "_")
	if !ok || field == "" || !sections[section] {
		return ""
	}
	return section + "." + field
}

// EnsureConfigDir creates ~/.config/taskmaster with 0700 permissions.
func EnsureConfigDir() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(home, ".config", configDirName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}

	return nil
}

// validateConfigPath checks if path is in allowed directories.
// This validation runs even if the file doesn't exist yet.
func validateConfigPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	// Follow symlinks so a link cannot escape the allowed directories.
	resolvedPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		resolvedPath = absPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	allowedDirs := []string{
		filepath.Join(home, ".config", configDirName),
		filepath.Join(string(filepath.Separator), "etc", configDirName),
	}

	for _, dir := range allowedDirs {
		if strings.HasPrefix(resolvedPath, dir+string(filepath.Separator)) {
			return nil
		}
	}

	return fmt.Errorf("config file must be in ~/.config/taskmaster/ or /etc/taskmaster/")
}

// validateConfigFileProperties checks file permissions and size.
func validateConfigFileProperties(info os.FileInfo) error {
	// Windows has a different permission model.
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}

	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	return nil
}
