// Package sink hands a synthesized flag set to the build tool.
//
// Sinks do not transform flag content. Each sink writes the whole set or
// fails with hmkerr.IOError.
package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	"github.com/vermilion00/libhmk/internal/flags"
	"github.com/vermilion00/libhmk/internal/hmkerr"
	"github.com/vermilion00/libhmk/internal/logging"
	"github.com/vermilion00/libhmk/internal/pio"
)

// Output format names.
const (
	FormatLines = "lines"
	FormatJSON  = "json"
	FormatINI   = "ini"
)

// Formats lists the supported output formats.
var Formats = []string{FormatLines, FormatJSON, FormatINI}

// Sink consumes the flag set of one keyboard.
type Sink interface {
	Write(id string, set *flags.Set) error
}

// Lines writes one build flag per line, the form PlatformIO expects from a
// dynamic `build_flags = !command` entry. With SrcFilter set it writes the
// source-filter rules instead.
type Lines struct {
	W         io.Writer
	SrcFilter bool
}

func (s *Lines) Write(id string, set *flags.Set) error {
	entries := set.Flags()
	if s.SrcFilter {
		entries = set.SrcFilter()
	}

	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e)
		b.WriteByte('\n')
	}
	if _, err := io.WriteString(s.W, b.String()); err != nil {
		return &hmkerr.IOError{Op: "write flags", Err: err}
	}
	return nil
}

// Document is the JSON form of a flag set.
type Document struct {
	Keyboard       string   `json:"keyboard"`
	BuildFlags     []string `json:"build_flags"`
	BuildSrcFilter []string `json:"build_src_filter"`
}

// JSON writes the flag set as an indented JSON document.
type JSON struct {
	W io.Writer
}

func (s *JSON) Write(id string, set *flags.Set) error {
	enc := json.NewEncoder(s.W)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	doc := Document{Keyboard: id, BuildFlags: set.Flags(), BuildSrcFilter: set.SrcFilter()}
	if err := enc.Encode(doc); err != nil {
		return &hmkerr.IOError{Op: "write json", Err: err}
	}
	return nil
}

// INI merges the flag set into the [env:<id>] section of a PlatformIO
// ini file, keeping every other section and key. The file is replaced
// atomically.
//
// build_flags and build_src_filter are appended to, not replaced: entries
// already in the section, such as the ${env.build_flags} reference written
// by setup, stay in front of the synthesized ones. Definitions from an
// earlier run are dropped so writing again does not stack them.
type INI struct {
	Fs   afero.Fs
	Path string
}

func (s *INI) Write(id string, set *flags.Set) error {
	f, err := pio.Load(s.Fs, s.Path, true)
	if err != nil {
		return err
	}

	sec := f.Section(pio.EnvSection(id))
	pio.SetList(sec, "build_flags", appendEntries(pio.List(sec, "build_flags"), set.Flags()))
	pio.SetList(sec, "build_src_filter", appendEntries(pio.List(sec, "build_src_filter"), set.SrcFilter()))

	if err := pio.Save(s.Fs, s.Path, f); err != nil {
		return err
	}
	logging.Keyboard(id).Info().Str("path", s.Path).Str("section", sec.Name()).Int("flags", set.Len()).Msg("wrote ini")
	return nil
}

// appendEntries keeps the existing entries that are neither definitions
// nor already synthesized, then adds the synthesized ones.
func appendEntries(existing, synthesized []string) []string {
	seen := make(map[string]bool, len(synthesized))
	for _, e := range synthesized {
		seen[e] = true
	}

	out := make([]string, 0, len(existing)+len(synthesized))
	for _, e := range existing {
		if seen[e] || strings.HasPrefix(e, "-D") {
			continue
		}
		out = append(out, e)
	}
	return append(out, synthesized...)
}

// New returns the sink for format. w receives stream output; fsys and path
// are used by the ini sink.
func New(format string, w io.Writer, fsys afero.Fs, path string) (Sink, error) {
	switch format {
	case FormatLines, "":
		return &Lines{W: w}, nil
	case FormatJSON:
		return &JSON{W: w}, nil
	case FormatINI:
		if path == "" {
			return nil, fmt.Errorf("ini output needs a target path")
		}
		return &INI{Fs: fsys, Path: path}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want %s)", format, strings.Join(Formats, ", "))
	}
}
