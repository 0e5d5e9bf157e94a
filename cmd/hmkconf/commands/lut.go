package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vermilion00/libhmk/internal/literal"
	"github.com/vermilion00/libhmk/internal/lut"
)

var (
	lutCurve   float64
	lutEntries int
)

var lutCmd = &cobra.Command{
	Use:   "lut -a <constant>",
	Short: "Print a switch distance lookup table",
	Long: `Print the lookup table that maps an ADC reading to switch travel, as a
C array initializer for a keyboard config.h.

The table follows 255 * log10(1 + a*x) / log10(1 + a*n), where a is the
constant fitted to the measured sensor curve and n the number of entries.`,
	Args: noArgs,
	RunE: runLUT,
}

func init() {
	lutCmd.Flags().Float64VarP(&lutCurve, "curve", "a", 0, "Constant obtained from fitting the curve (required)")
	lutCmd.Flags().IntVarP(&lutEntries, "entries", "i", lut.DefaultEntries, "Number of entries in the table")
}

func runLUT(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("curve") {
		return usageError{errors.New("required flag -a/--curve not set")}
	}

	table, err := lut.Distance(lutCurve, lutEntries)
	if err != nil {
		return usageError{err}
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), literal.EncodeArray(literal.Ints(table)))
	return err
}
