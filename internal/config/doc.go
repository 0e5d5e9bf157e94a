// Package config loads the hmkconf tool settings.
//
// # Configuration Loading
//
// Load merges settings from several sources. Later sources override earlier
// ones, field by field:
//
//  1. Built-in defaults (see Defaults)
//  2. Global config: $XDG_CONFIG_HOME/hmkconf/hmkconf.json(c)
//  3. Project config: <root>/hmkconf.json(c)
//  4. The file named by HMKCONF_CONFIG
//  5. <root>/.env, loaded with joho/godotenv (never overrides the process
//     environment)
//  6. HMKCONF_* environment variables
//
// Command-line flags are applied on top by the CLI.
//
// # Supported Formats
//
//   - hmkconf.json - Standard JSON configuration
//   - hmkconf.jsonc - JSON with comments, processed using tidwall/jsonc
//
// String values may reference the environment with {env:VAR_NAME}.
//
// # Environment Variables
//
//   - HMKCONF_ROOT - firmware project root
//   - HMKCONF_OUTPUT - lines, json or ini
//   - HMKCONF_INI_PATH - target of the ini output
//   - HMKCONF_USB_POLICY - permissive or strict
//   - HMKCONF_LOG_LEVEL - DEBUG, INFO, WARN, ERROR or OFF
//   - HMKCONF_SCHEMA_DIR - schema override directory, relative to the root
//   - HMKCONF_VALIDATE - boolean, schema validation on or off
//   - HMKCONF_DEBOUNCE_MS - watch debounce window
//
// # Paths
//
// GetPaths follows the XDG base directory layout on Unix and APPDATA on
// Windows.
package config
