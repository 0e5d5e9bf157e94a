// Package logging provides structured logging using zerolog.
//
// Logs always go to stderr by default: stdout carries build flags and must
// stay machine-readable. Every entry carries the subcommand that produced
// it, and entries about one keyboard carry its id, so output from a CI
// fan-out over many keyboards can be told apart.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Level represents log levels.
type Level = zerolog.Level

// Log levels exposed for convenience.
const (
	DebugLevel    = zerolog.DebugLevel
	InfoLevel     = zerolog.InfoLevel
	WarnLevel     = zerolog.WarnLevel
	ErrorLevel    = zerolog.ErrorLevel
	DisabledLevel = zerolog.Disabled
)

// ConsoleTimeFormat is the timestamp layout of console output.
const ConsoleTimeFormat = "15:04:05.000"

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level Level
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
	// Pretty enables human-readable console output.
	Pretty bool
	// NoColor disables ANSI colors in console output.
	NoColor bool
	// Command names the subcommand; it is attached to every entry as "cmd".
	Command string
}

// DefaultConfig returns the configuration used before flags are parsed:
// warnings and errors only, in console form.
func DefaultConfig() Config {
	return Config{
		Level:  WarnLevel,
		Output: os.Stderr,
		Pretty: true,
	}
}

// Init initializes the global logger with the given configuration.
func Init(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	output := cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        cfg.Output,
			NoColor:    cfg.NoColor,
			TimeFormat: ConsoleTimeFormat,
		}
	}

	ctx := zerolog.New(output).Level(cfg.Level).With().Timestamp()
	if cfg.Command != "" {
		ctx = ctx.Str("cmd", cfg.Command)
	}
	Logger = ctx.Logger()
}

// ParseLevel parses a log level string (case-insensitive).
// Supported values: DEBUG, INFO, WARN, ERROR, OFF.
// Returns WarnLevel if the string is not recognized.
func ParseLevel(level string) Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN", "WARNING":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	case "OFF", "NONE":
		return DisabledLevel
	default:
		return WarnLevel
	}
}

// Threshold returns the level the CLI logs at for a configured level name.
// Unless printLogs is set, info and debug entries are held back whatever
// the configuration says, so a build log shows only what needs attention.
func Threshold(configured string, printLogs bool) Level {
	level := ParseLevel(configured)
	if !printLogs && level < WarnLevel {
		return WarnLevel
	}
	return level
}

// Keyboard returns a logger that tags every entry with keyboard id.
func Keyboard(id string) *zerolog.Logger {
	l := Logger.With().Str("keyboard", id).Logger()
	return &l
}

// Debug starts a new debug level log message.
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Info starts a new info level log message.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Warn starts a new warn level log message.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Error starts a new error level log message.
func Error() *zerolog.Event {
	return Logger.Error()
}

// init sets up a default logger so the package is usable without explicit initialization.
func init() {
	Init(DefaultConfig())
}
