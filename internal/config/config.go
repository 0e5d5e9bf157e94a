package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"

	"github.com/vermilion00/libhmk/internal/hmkerr"
	"github.com/vermilion00/libhmk/internal/logging"
	"github.com/vermilion00/libhmk/pkg/types"
)

// File names searched in each config directory.
var configNames = []string{"hmkconf.json", "hmkconf.jsonc"}

// Defaults returns the built-in configuration.
func Defaults() *types.Config {
	return &types.Config{
		Root:      ".",
		Output:    "lines",
		IniPath:   "platformio.ini",
		USBPolicy: "permissive",
		LogLevel:  "WARN",
		SchemaDir: "scripts/schema",
		Watch:     &types.WatchConfig{DebounceMS: 200},
	}
}

// Load loads configuration from multiple sources (priority order):
// 1. Built-in defaults
// 2. Global config (~/.config/hmkconf/)
// 3. Project config (<directory>/hmkconf.json(c))
// 4. HMKCONF_CONFIG file
// 5. <directory>/.env, without overriding variables already set
// 6. HMKCONF_* environment variables
//
// Missing files are skipped. A file that exists but does not parse is an
// error.
func Load(directory string) (*types.Config, error) {
	config := Defaults()

	// Track loaded files to avoid duplicates
	loaded := make(map[string]bool)

	loadOnce := func(path string) error {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil
		}
		if loaded[absPath] {
			return nil
		}
		ok, err := loadConfigFile(path, config)
		if err != nil {
			return err
		}
		if ok {
			loaded[absPath] = true
			logging.Debug().Str("path", path).Msg("loaded config")
		}
		return nil
	}

	// 2. XDG-compatible global config
	globalPath := GetPaths().Config
	for _, name := range configNames {
		if err := loadOnce(filepath.Join(globalPath, name)); err != nil {
			return nil, err
		}
	}

	// 3. Project config
	if directory != "" {
		for _, name := range configNames {
			if err := loadOnce(filepath.Join(directory, name)); err != nil {
				return nil, err
			}
		}
	}

	// 4. HMKCONF_CONFIG file override
	if configPath := os.Getenv("HMKCONF_CONFIG"); configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, &hmkerr.NotFoundError{What: "config", Name: configPath, Path: configPath, Err: err}
		}
		if err := loadOnce(configPath); err != nil {
			return nil, err
		}
	}

	// 5. .env next to the project
	if directory != "" {
		envFile := filepath.Join(directory, ".env")
		if err := godotenv.Load(envFile); err == nil {
			logging.Debug().Str("path", envFile).Msg("loaded env file")
		}
	}

	// 6. Environment variables
	applyEnvOverrides(config)

	return config, nil
}

// LoadFile merges the file at path into config. Unlike the files Load
// searches, it must exist.
func LoadFile(path string, config *types.Config) error {
	ok, err := loadConfigFile(path, config)
	if err != nil {
		return err
	}
	if !ok {
		return &hmkerr.NotFoundError{What: "config", Name: path, Path: path}
	}
	return nil
}

// loadConfigFile merges a single config file into config. It reports false
// without error when the file does not exist.
func loadConfigFile(path string, config *types.Config) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &hmkerr.IOError{Op: "read", Path: path, Err: err}
	}

	// Strip JSONC comments using tidwall/jsonc
	data = jsonc.ToJSON(data)

	data = interpolate(data)

	var fileConfig types.Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return false, &hmkerr.MalformedConfigError{Path: path, Err: err}
	}

	// A relative root is relative to the file that names it.
	if fileConfig.Root != "" && !filepath.IsAbs(fileConfig.Root) {
		fileConfig.Root = filepath.Join(filepath.Dir(path), fileConfig.Root)
	}

	mergeConfig(config, &fileConfig)
	return true, nil
}

var envPattern = regexp.MustCompile(`\{env:([^}]+)\}`)

// interpolate expands {env:VAR} placeholders.
func interpolate(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// mergeConfig merges source config into target.
func mergeConfig(target, source *types.Config) {
	if source.Schema != "" {
		target.Schema = source.Schema
	}
	if source.Root != "" {
		target.Root = source.Root
	}
	if source.Output != "" {
		target.Output = source.Output
	}
	if source.IniPath != "" {
		target.IniPath = source.IniPath
	}
	if source.USBPolicy != "" {
		target.USBPolicy = source.USBPolicy
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
	}
	if source.SchemaDir != "" {
		target.SchemaDir = source.SchemaDir
	}
	if source.Validate != nil {
		v := *source.Validate
		target.Validate = &v
	}
	if source.Watch != nil {
		if target.Watch == nil {
			target.Watch = &types.WatchConfig{}
		}
		if source.Watch.DebounceMS > 0 {
			target.Watch.DebounceMS = source.Watch.DebounceMS
		}
	}
}

// applyEnvOverrides applies HMKCONF_* environment variable overrides.
func applyEnvOverrides(config *types.Config) {
	strOverrides := map[string]*string{
		"HMKCONF_ROOT":       &config.Root,
		"HMKCONF_OUTPUT":     &config.Output,
		"HMKCONF_INI_PATH":   &config.IniPath,
		"HMKCONF_USB_POLICY": &config.USBPolicy,
		"HMKCONF_LOG_LEVEL":  &config.LogLevel,
		"HMKCONF_SCHEMA_DIR": &config.SchemaDir,
	}
	for envVar, field := range strOverrides {
		if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
			*field = v
		}
	}

	if v := os.Getenv("HMKCONF_VALIDATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Validate = &b
		} else {
			logging.Warn().Str("value", v).Msg("ignoring invalid HMKCONF_VALIDATE")
		}
	}

	if v := os.Getenv("HMKCONF_DEBOUNCE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			if config.Watch == nil {
				config.Watch = &types.WatchConfig{}
			}
			config.Watch.DebounceMS = ms
		}
	}
}

// Save saves the configuration to a file.
func Save(config *types.Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &hmkerr.IOError{Op: "mkdir", Path: dir, Err: err}
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return &hmkerr.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
