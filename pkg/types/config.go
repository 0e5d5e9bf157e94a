package types

// Config represents the hmkconf tool configuration.
// Loaded from hmkconf.json/hmkconf.jsonc files, the environment and flags.
type Config struct {
	// Schema reference (for editor support)
	Schema string `json:"$schema,omitempty"`

	// Firmware project root containing keyboards/, hardware/ and linker/
	Root string `json:"root,omitempty"`

	// Output format for `flags`: "lines"|"json"|"ini"
	Output string `json:"output,omitempty"`

	// Target file for the ini output and for `setup`
	IniPath string `json:"ini_path,omitempty"`

	// USB port policy: "permissive"|"strict"
	USBPolicy string `json:"usb_policy,omitempty"`

	// Log level (DEBUG|INFO|WARN|ERROR)
	LogLevel string `json:"log_level,omitempty"`

	// Directory holding keyboard.schema.json and driver.schema.json overrides,
	// relative to Root.
	SchemaDir string `json:"schema_dir,omitempty"`

	// Validate descriptors against the JSON schemas before synthesis.
	Validate *bool `json:"validate,omitempty"`

	// Watch mode settings
	Watch *WatchConfig `json:"watch,omitempty"`
}

// WatchConfig holds settings for `hmkconf watch`.
type WatchConfig struct {
	// Debounce window in milliseconds between a change and the rebuild
	DebounceMS int `json:"debounce_ms,omitempty"`
}

// ValidateEnabled reports whether schema validation is on. Defaults to true.
func (c *Config) ValidateEnabled() bool {
	return c.Validate == nil || *c.Validate
}
