package commands

import (
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vermilion00/libhmk/internal/event"
	"github.com/vermilion00/libhmk/internal/logging"
	"github.com/vermilion00/libhmk/internal/pipeline"
	"github.com/vermilion00/libhmk/internal/sink"
	"github.com/vermilion00/libhmk/internal/watch"
)

var (
	watchFormat   string
	watchIniPath  string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <keyboard>",
	Short: "Re-emit build flags whenever descriptors change",
	Long: `Emit the build flags of a keyboard, then watch its keyboard directory and
the directory of its driver. Every settled change to a .json file re-runs
the whole pipeline. Failed runs are reported and watching continues.

With --format ini the flags are merged into a PlatformIO ini file on every
run, which keeps an IDE project in sync while descriptors are edited.`,
	Args: exactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", "", "Output format: lines, json or ini (default from config)")
	watchCmd.Flags().StringVar(&watchIniPath, "ini-path", "", "Target file of the ini output, relative to the project root")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "Quiet period before a rebuild (default from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	id := args[0]

	format := appConfig.Output
	if watchFormat != "" {
		format = watchFormat
	}
	iniPath := appConfig.IniPath
	if watchIniPath != "" {
		iniPath = watchIniPath
	}
	debounce := watchDebounce
	if debounce == 0 && appConfig.Watch != nil {
		debounce = time.Duration(appConfig.Watch.DebounceMS) * time.Millisecond
	}

	opts, err := synthOptions(appConfig, "")
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

	p := &pipeline.Pipeline{Loader: l, Options: opts, Sink: out}

	sources, err := p.Sources(id)
	if err != nil {
		return err
	}
	dirs := make([]string, 0, len(sources))
	for _, src := range sources {
		dirs = append(dirs, filepath.Join(appConfig.Root, src))
	}

	if err := p.Run(id); err != nil {
		logging.Keyboard(id).Error().Err(err).Msg("initial run failed")
	}

	// Wait for interrupt signal
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := event.NewBus()
	defer bus.Close()
	events, err := bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	go reportEvents(cmd.ErrOrStderr(), id, events)

	w, err := watch.New(dirs, debounce, func() error { return p.Run(id) }, watch.WithBus(bus))
	if err != nil {
		return err
	}
	w.Start()

	<-ctx.Done()

	logging.Info().Msg("stopping watcher")
	return w.Stop()
}

// reportEvents prints one status line per finished build.
func reportEvents(out io.Writer, id string, events <-chan event.Event) {
	for e := range events {
		switch e.Type {
		case event.BuildSucceeded:
			fmt.Fprintf(out, "%s %s rebuilt in %s\n", successMark(), id, e.Duration.Round(time.Millisecond))
		case event.BuildFailed:
			fmt.Fprintf(out, "%s %s: %s\n", failureMark(), id, e.Error)
		}
	}
}
