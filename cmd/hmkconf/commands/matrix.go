package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vermilion00/libhmk/internal/matrix"
)

var matrixFormat string

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Print the CI build matrix",
	Long: `List every keyboard that has a keyboards/<keyboard>/pio.ini, with the
extra PlatformIO platform packages its build needs, for a CI job matrix.`,
	Args: noArgs,
	RunE: runMatrix,
}

func init() {
	matrixCmd.Flags().StringVarP(&matrixFormat, "format", "f", matrix.FormatJSON, "Output format: json or yaml")
}

func runMatrix(cmd *cobra.Command, args []string) error {
	if matrixFormat != matrix.FormatJSON && matrixFormat != matrix.FormatYAML {
		return usageError{fmt.Errorf("unknown matrix format %q", matrixFormat)}
	}

	l, err := newLoader(appConfig)
	if err != nil {
		return err
	}
	entries, err := matrix.Build(l)
	if err != nil {
		return err
	}
	return matrix.Write(cmd.OutOrStdout(), matrixFormat, entries)
}
