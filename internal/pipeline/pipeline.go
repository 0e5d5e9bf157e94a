// Package pipeline runs one keyboard build configuration end to end:
// load descriptors, synthesize flags, hand them to a sink.
package pipeline

import (
	"path/filepath"

	"github.com/vermilion00/libhmk/internal/flags"
	"github.com/vermilion00/libhmk/internal/loader"
	"github.com/vermilion00/libhmk/internal/logging"
	"github.com/vermilion00/libhmk/internal/sink"
	"github.com/vermilion00/libhmk/pkg/types"
)

// Pipeline binds a project tree, synthesis options and an output sink.
type Pipeline struct {
	Loader  *loader.Loader
	Options flags.Options
	Sink    sink.Sink
}

// Synthesize loads keyboard id and its driver and returns the flag set.
// Nothing is written.
func (p *Pipeline) Synthesize(id string) (*flags.Set, error) {
	kb, drv, err := p.Load(id)
	if err != nil {
		return nil, err
	}
	return flags.Synthesize(flags.Input{
		ID:       id,
		Keyboard: kb,
		Driver:   drv,
		Options:  p.Options,
	})
}

// Load reads the keyboard and driver descriptors of id.
func (p *Pipeline) Load(id string) (*types.Keyboard, *types.Driver, error) {
	kb, err := p.Loader.LoadKeyboard(id)
	if err != nil {
		return nil, nil, err
	}
	drv, err := p.Loader.LoadDriver(kb)
	if err != nil {
		return nil, nil, err
	}
	return kb, drv, nil
}

// Run synthesizes the flags of id and writes them to the sink. The sink is
// not touched when synthesis fails.
func (p *Pipeline) Run(id string) error {
	set, err := p.Synthesize(id)
	if err != nil {
		return err
	}
	if err := p.Sink.Write(id, set); err != nil {
		return err
	}
	logging.Keyboard(id).Info().Int("flags", set.Len()).Msg("flags emitted")
	return nil
}

// Sources returns the directories whose descriptors feed the build of id,
// relative to the project root.
func (p *Pipeline) Sources(id string) ([]string, error) {
	kb, err := p.Loader.LoadKeyboard(id)
	if err != nil {
		return nil, err
	}
	dirs := []string{filepath.Join(loader.KeyboardsDir, id)}
	if kb.Hardware.Driver != "" {
		dirs = append(dirs, filepath.Join(loader.HardwareDir, kb.Hardware.Driver))
	}
	return dirs, nil
}
