// Package commands provides the CLI commands for hmkconf.
package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/vermilion00/libhmk/internal/config"
	"github.com/vermilion00/libhmk/internal/flags"
	"github.com/vermilion00/libhmk/internal/hmkerr"
	"github.com/vermilion00/libhmk/internal/loader"
	"github.com/vermilion00/libhmk/internal/logging"
	"github.com/vermilion00/libhmk/internal/schema"
	"github.com/vermilion00/libhmk/pkg/types"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	rootDir    string
	configFile string
	printLogs  bool
	logLevel   string
	noColor    bool
)

// appConfig is the merged configuration, set before any subcommand runs.
var appConfig *types.Config

var rootCmd = &cobra.Command{
	Use:   "hmkconf",
	Short: "hmkconf - build configuration compiler for libhmk keyboards",
	Long: `hmkconf turns the JSON descriptors of a libhmk firmware project into the
compiler flags and PlatformIO configuration used to build one keyboard.

Run 'hmkconf flags <keyboard>' to print the build flags of a keyboard, or
'hmkconf setup -k <keyboard>' to generate platformio.ini.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initApp,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand, show help
		cmd.Help()
	},
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Firmware project root (default: config root or current directory)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Extra config file, applied after all others")
	rootCmd.PersistentFlags().BoolVar(&printLogs, "print-logs", false, "Print info and debug logs to stderr")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG|INFO|WARN|ERROR|OFF)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	// Version template
	rootCmd.SetVersionTemplate(fmt.Sprintf("hmkconf %s (%s)\n", Version, BuildTime))

	// Add subcommands
	rootCmd.AddCommand(flagsCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(matrixCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(lutCmd)
	rootCmd.AddCommand(debugCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// usageError marks a command-line mistake, as opposed to a failure while
// processing a project.
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

// ExitCode maps an error returned by Execute to the process exit status.
func ExitCode(err error) int {
	var ue usageError
	if errors.As(err, &ue) {
		return 2
	}
	return hmkerr.ExitCode(err)
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// noArgs is cobra.NoArgs reporting a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError{err}
	}
	return nil
}

// initApp loads the configuration and initializes logging.
func initApp(cmd *cobra.Command, args []string) error {
	workDir, err := GetWorkDir(rootDir)
	if err != nil {
		return err
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		return err
	}
	if configFile != "" {
		if err := config.LoadFile(configFile, cfg); err != nil {
			return err
		}
	}
	if rootDir != "" {
		cfg.Root = rootDir
	} else if !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(workDir, cfg.Root)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	color.NoColor = color.NoColor || noColor

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.Threshold(cfg.LogLevel, printLogs)
	logCfg.Output = cmd.ErrOrStderr()
	logCfg.NoColor = color.NoColor
	logCfg.Command = cmd.Name()
	logging.Init(logCfg)

	appConfig = cfg
	logging.Debug().Str("root", cfg.Root).Str("output", cfg.Output).Msg("configuration loaded")
	return nil
}

// GetWorkDir returns the working directory from flag or current directory.
func GetWorkDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	return os.Getwd()
}

// projectFs returns the project root as a filesystem.
func projectFs(cfg *types.Config) afero.Fs {
	return afero.NewBasePathFs(afero.NewOsFs(), cfg.Root)
}

// newLoader returns a loader over the project root, validating documents
// against the project's schemas unless validation is off.
func newLoader(cfg *types.Config) (*loader.Loader, error) {
	var opts []loader.Option
	if cfg.ValidateEnabled() {
		v, err := schema.New(projectFs(cfg), cfg.SchemaDir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, loader.WithValidator(v))
	}
	return loader.NewOS(cfg.Root, opts...), nil
}

// synthOptions derives synthesis options from the configuration, with an
// optional flag override of the USB policy.
func synthOptions(cfg *types.Config, usbPolicy string) (flags.Options, error) {
	if usbPolicy != "" {
		policy, err := flags.ParseUSBPolicy(usbPolicy)
		if err != nil {
			return flags.Options{}, usageError{err}
		}
		return flags.Options{USBPolicy: policy}, nil
	}
	policy, err := flags.ParseUSBPolicy(cfg.USBPolicy)
	if err != nil {
		return flags.Options{}, &hmkerr.MalformedConfigError{Field: "usb_policy", Err: err}
	}
	return flags.Options{USBPolicy: policy}, nil
}
