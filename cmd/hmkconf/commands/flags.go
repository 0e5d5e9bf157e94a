package commands

import (
	"github.com/spf13/cobra"

	"github.com/vermilion00/libhmk/internal/pipeline"
	"github.com/vermilion00/libhmk/internal/sink"
)

var (
	flagsFormat    string
	flagsIniPath   string
	flagsSrcFilter bool
	flagsUSBPolicy string
)

var flagsCmd = &cobra.Command{
	Use:   "flags <keyboard>",
	Short: "Print the build flags of a keyboard",
	Long: `Load keyboards/<keyboard>/keyboard.json and the descriptor of its driver,
and emit the compiler flags for the build.

The default output has one flag per line, the form PlatformIO reads from a
dynamic 'build_flags = !hmkconf flags <keyboard>' entry. With --src-filter
the source filter rules are printed instead. --format json prints both as
one document; --format ini merges them into the [env:<keyboard>] section of
an ini file.`,
	Args: exactArgs(1),
	RunE: runFlags,
}

func init() {
	flagsCmd.Flags().StringVarP(&flagsFormat, "format", "f", "", "Output format: lines, json or ini (default from config)")
	flagsCmd.Flags().StringVar(&flagsIniPath, "ini-path", "", "Target file of the ini output, relative to the project root")
	flagsCmd.Flags().BoolVar(&flagsSrcFilter, "src-filter", false, "Print build_src_filter rules instead of build flags")
	flagsCmd.Flags().StringVar(&flagsUSBPolicy, "usb-policy", "", "USB port policy: permissive or strict")
}

func runFlags(cmd *cobra.Command, args []string) error {
	id := args[0]

	format := appConfig.Output
	if flagsFormat != "" {
		format = flagsFormat
	}
	iniPath := appConfig.IniPath
	if flagsIniPath != "" {
		iniPath = flagsIniPath
	}

	opts, err := synthOptions(appConfig, flagsUSBPolicy)
	if err != nil {
		return err
	}
	l, err := newLoader(appConfig)
	if err != nil {
		return err
	}

	out, err := sink.New(format, cmd.OutOrStdout(), l.Fs(), iniPath)
	if err != nil {
		return usageError{err}
	}
	if lines, ok := out.(*sink.Lines); ok {
		lines.SrcFilter = flagsSrcFilter
	}

	p := &pipeline.Pipeline{Loader: l, Options: opts, Sink: out}
	return p.Run(id)
}
