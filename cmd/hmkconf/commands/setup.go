package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vermilion00/libhmk/internal/setup"
)

var (
	setupKeyboard  string
	setupLog       bool
	setupOutput    string
	setupDynamic   bool
	setupNoScripts bool
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Generate platformio.ini for a keyboard",
	Long: `Generate the PlatformIO project file for one keyboard from
keyboards/<keyboard>/config.json.

Setup checks that the driver under hardware/ and the linker script under
linker/ exist, and writes an [env:<keyboard>] section with the board, the
include paths, the warning flags and the library dependencies.`,
	Args: noArgs,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().StringVarP(&setupKeyboard, "keyboard", "k", "", "Keyboard to configure (required)")
	setupCmd.Flags().BoolVar(&setupLog, "log", false, "Enable the firmware logging module")
	setupCmd.Flags().StringVarP(&setupOutput, "output", "o", "", "Output file, relative to the project root (default: platformio.ini)")
	setupCmd.Flags().BoolVar(&setupDynamic, "dynamic-flags", false, "Let PlatformIO run 'hmkconf flags' at build time")
	setupCmd.Flags().BoolVar(&setupNoScripts, "no-extra-scripts", false, "Omit the default extra_scripts entry")
}

func runSetup(cmd *cobra.Command, args []string) error {
	if setupKeyboard == "" {
		return usageError{errors.New("required flag --keyboard not set")}
	}

	path := setupOutput
	if path == "" {
		path = setup.DefaultPath
	}

	opts := setup.Options{Log: setupLog}
	if setupDynamic {
		opts.FlagsCommand = "hmkconf flags %s"
	}
	if setupNoScripts {
		opts.ExtraScripts = []string{}
	}

	l, err := newLoader(appConfig)
	if err != nil {
		return err
	}
	if err := setup.Run(l, setupKeyboard, path, opts); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s for %s\n", successMark(), path, setupKeyboard)
	return nil
}
