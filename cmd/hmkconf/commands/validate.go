package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vermilion00/libhmk/internal/pipeline"
)

var validateUSBPolicy string

var validateCmd = &cobra.Command{
	Use:   "validate [keyboard...]",
	Short: "Check keyboard descriptors",
	Long: `Validate the descriptors of the given keyboards, or of every keyboard in
the project when none are named. Each keyboard is loaded, checked against the
JSON schemas and run through flag synthesis; nothing is written.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateUSBPolicy, "usb-policy", "", "USB port policy: permissive or strict")
}

func successMark() string { return color.New(color.FgGreen, color.Bold).Sprint("✓") }

func failureMark() string { return color.New(color.FgRed, color.Bold).Sprint("✗") }

func runValidate(cmd *cobra.Command, args []string) error {
	opts, err := synthOptions(appConfig, validateUSBPolicy)
	if err != nil {
		return err
	}
	l, err := newLoader(appConfig)
	if err != nil {
		return err
	}

	ids := args
	if len(ids) == 0 {
		if ids, err = l.Keyboards(); err != nil {
			return err
		}
		if len(ids) == 0 {
			return fmt.Errorf("no keyboards found under %s", appConfig.Root)
		}
	}

	p := &pipeline.Pipeline{Loader: l, Options: opts}
	out := cmd.OutOrStdout()

	var (
		failed   int
		firstErr error
	)
	for _, id := range ids {
		set, err := p.Synthesize(id)
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			fmt.Fprintf(out, "%s %s: %v\n", failureMark(), id, err)
			continue
		}
		fmt.Fprintf(out, "%s %s %s\n", successMark(), id, color.New(color.FgHiBlack).Sprintf("(%d flags)", set.Len()))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d keyboards invalid: %w", failed, len(ids), firstErr)
	}
	return nil
}
