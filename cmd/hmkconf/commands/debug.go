package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vermilion00/libhmk/internal/config"
	"github.com/vermilion00/libhmk/internal/loader"
	"github.com/vermilion00/libhmk/internal/pinmap"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Debug utilities",
	Long:  `Debug utilities for troubleshooting hmkconf configuration and projects.`,
}

var debugConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runDebugConfig,
}

var debugPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show system paths",
	RunE:  runDebugPaths,
}

var debugDriversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "Show supported drivers and their pin dialects",
	RunE:  runDebugDrivers,
}

func init() {
	debugCmd.AddCommand(debugConfigCmd)
	debugCmd.AddCommand(debugPathsCmd)
	debugCmd.AddCommand(debugDriversCmd)
}

func runDebugConfig(cmd *cobra.Command, args []string) error {
	// Output as JSON
	data, err := json.MarshalIndent(appConfig, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runDebugPaths(cmd *cobra.Command, args []string) error {
	paths := config.GetPaths()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "hmkconf System Paths:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Config:          %s\n", paths.Config)
	fmt.Fprintf(out, "  Global config:   %s\n", config.GlobalConfigPath())
	fmt.Fprintf(out, "  Cache:           %s\n", paths.Cache)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Project Paths:")
	fmt.Fprintf(out, "  Root:            %s\n", appConfig.Root)
	fmt.Fprintf(out, "  Project config:  %s\n", config.ProjectConfigPath(appConfig.Root))
	fmt.Fprintf(out, "  Schemas:         %s\n", appConfig.SchemaDir)
	fmt.Fprintf(out, "  Keyboards:       %s\n", loader.KeyboardsDir)
	fmt.Fprintf(out, "  Drivers:         %s\n", loader.HardwareDir)
	fmt.Fprintf(out, "  Linker scripts:  %s\n", loader.LinkerDir)

	return nil
}

func runDebugDrivers(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, name := range pinmap.Drivers() {
		d, err := pinmap.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-14s ports %sX  pins %sN\n", name, d.PortPrefix, d.PinPrefix)
	}
	return nil
}
