// Package main provides the entry point for the hmkconf CLI.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/vermilion00/libhmk/cmd/hmkconf/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed, color.Bold).Sprint("error:"), err)
		os.Exit(commands.ExitCode(err))
	}
}
