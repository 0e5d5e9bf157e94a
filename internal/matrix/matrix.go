// Package matrix builds the CI build matrix: one entry per keyboard that
// ships a keyboards/<id>/pio.ini, with the extra PlatformIO packages its
// platforms need.
package matrix

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vermilion00/libhmk/internal/hmkerr"
	"github.com/vermilion00/libhmk/internal/loader"
	"github.com/vermilion00/libhmk/internal/logging"
	"github.com/vermilion00/libhmk/internal/pio"
)

// PioFile is the per-keyboard PlatformIO fragment that marks a keyboard as
// buildable in CI.
const PioFile = "pio.ini"

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Platforms maps custom PlatformIO platforms to the package that installs
// them. Platforms not listed are assumed to come from the registry.
var Platforms = map[string]string{
	"arterytekat32": "https://github.com/ArteryTek/platform-arterytekat32",
}

// Entry is one row of the matrix.
type Entry struct {
	Keyboard string `json:"keyboard" yaml:"keyboard"`
	Packages string `json:"packages" yaml:"packages"`
}

// Build scans the project tree and returns the matrix sorted by keyboard id.
func Build(l *loader.Loader) ([]Entry, error) {
	ids, err := l.Glob(PioFile)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		path := filepath.Join(loader.KeyboardsDir, id, PioFile)
		f, err := pio.Load(l.Fs(), path, false)
		if err != nil {
			return nil, err
		}

		var packages []string
		for _, sec := range f.Sections() {
			if !sec.HasKey("platform") {
				continue
			}
			if pkg, ok := Platforms[sec.Key("platform").Value()]; ok {
				packages = append(packages, pkg)
			}
		}

		logging.Keyboard(id).Debug().Strs("packages", packages).Msg("matrix entry")
		entries = append(entries, Entry{Keyboard: id, Packages: strings.Join(packages, " ")})
	}
	return entries, nil
}

// Write encodes entries to w in format.
func Write(w io.Writer, format string, entries []Entry) error {
	var err error
	switch format {
	case FormatJSON, "":
		err = json.NewEncoder(w).Encode(entries)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(entries); err == nil {
			err = enc.Close()
		}
	default:
		return fmt.Errorf("unknown matrix format %q (want %s or %s)", format, FormatJSON, FormatYAML)
	}
	if err != nil {
		return &hmkerr.IOError{Op: "write matrix", Err: err}
	}
	return nil
}
