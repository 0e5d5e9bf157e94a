// Package setup generates the platformio.ini of a firmware project for one
// keyboard from its keyboards/<id>/config.json.
package setup

import (
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"

	"github.com/vermilion00/libhmk/internal/hmkerr"
	"github.com/vermilion00/libhmk/internal/loader"
	"github.com/vermilion00/libhmk/internal/logging"
	"github.com/vermilion00/libhmk/internal/pio"
	"github.com/vermilion00/libhmk/pkg/types"
)

// DefaultPath is the generated file, relative to the project root.
const DefaultPath = "platformio.ini"

var srcFlags = []string{
	"-Werror",
	"-Wall",
	"-Wextra",
	"-Wsign-conversion",
	"-Wswitch-default",
	"-Wswitch",
	"-Wdouble-promotion",
	"-Wstrict-prototypes",
	"-Wno-unused-parameter",
}

const (
	tinyUSB = "https://github.com/hathach/tinyusb.git"
	printf  = "https://github.com/eyalroz/printf.git#develop"
)

// Options tune the generated environment.
type Options struct {
	// Log enables the firmware logging module.
	Log bool
	// FlagsCommand, when set, is appended to build_flags as a dynamic
	// `!command` entry so PlatformIO asks hmkconf for the synthesized flags
	// at build time. "%s" is replaced with the keyboard id.
	FlagsCommand string
	// ExtraScripts are PlatformIO extra_scripts entries.
	ExtraScripts []string
}

// DefaultExtraScripts is used when Options.ExtraScripts is nil.
var DefaultExtraScripts = []string{"pre:tools/metadata.py"}

// Generate builds the platformio.ini document for keyboard id.
func Generate(l *loader.Loader, id string, opts Options) (*ini.File, error) {
	p, err := l.LoadProject(id)
	if err != nil {
		return nil, err
	}
	if err := check(l, p); err != nil {
		return nil, err
	}

	buildFlags := []string{
		"${env.build_flags}",
		// Driver and keyboard headers win over shared ones.
		"-I" + filepath.ToSlash(filepath.Join(loader.HardwareDir, p.Driver)) + "/",
		"-I" + filepath.ToSlash(filepath.Join(loader.KeyboardsDir, id)) + "/",
		"-Iinclude/",
	}
	if opts.FlagsCommand != "" {
		buildFlags = append(buildFlags, "!"+strings.ReplaceAll(opts.FlagsCommand, "%s", id))
	}

	srcFilter := []string{
		"${env.build_src_filter}",
		"-<hardware/>",
		"+<hardware/" + p.Driver + "/>",
	}

	buildSrcFlags := append([]string{"${env.build_src_flags}"}, srcFlags...)
	libDeps := []string{tinyUSB}
	if opts.Log {
		libDeps = append(libDeps, printf)
		buildSrcFlags = append(buildSrcFlags, "-DLOG_ENABLED")
	}

	extraScripts := opts.ExtraScripts
	if extraScripts == nil {
		extraScripts = DefaultExtraScripts
	}

	f := pio.New()
	sec := f.Section(pio.EnvSection(id))
	sec.Key("board").SetValue(p.Board)
	sec.Key("board_build.ldscript").SetValue(filepath.ToSlash(filepath.Join(loader.LinkerDir, p.LDScript)))
	pio.SetList(sec, "build_flags", buildFlags)
	pio.SetList(sec, "build_src_filter", srcFilter)
	pio.SetList(sec, "build_src_flags", buildSrcFlags)
	pio.SetList(sec, "extra_scripts", extraScripts)
	sec.Key("framework").SetValue(p.Framework)
	pio.SetList(sec, "lib_deps", libDeps)
	sec.Key("platform").SetValue(p.Platform)
	sec.Key("upload_protocol").SetValue("dfu")
	return f, nil
}

// Run generates the document for id and writes it to path inside the
// project tree.
func Run(l *loader.Loader, id, path string, opts Options) error {
	f, err := Generate(l, id, opts)
	if err != nil {
		return err
	}
	if err := pio.Save(l.Fs(), path, f); err != nil {
		return err
	}
	logging.Keyboard(id).Info().Str("path", path).Bool("log", opts.Log).Msg("project configured")
	return nil
}

func check(l *loader.Loader, p *types.Project) error {
	if missing := p.Missing(); len(missing) > 0 {
		return &hmkerr.MalformedConfigError{
			Field: strings.Join(missing, ", "),
			Msg:   "missing required key",
		}
	}
	if !l.Exists(filepath.Join(loader.HardwareDir, p.Driver)) {
		return &hmkerr.NotFoundError{What: "driver", Name: p.Driver, Path: filepath.Join(loader.HardwareDir, p.Driver)}
	}
	if !l.Exists(filepath.Join(loader.LinkerDir, p.LDScript)) {
		return &hmkerr.NotFoundError{What: "ldscript", Name: p.LDScript, Path: filepath.Join(loader.LinkerDir, p.LDScript)}
	}
	return nil
}
