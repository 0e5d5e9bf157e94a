// Package pio reads and writes PlatformIO project files (platformio.ini and
// per-keyboard pio.ini fragments).
//
// go-ini holds the document model. Encoding follows Python configparser,
// which is what PlatformIO reads: multi-line values continue on lines
// indented with a tab.
package pio

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
	"github.com/spf13/afero"

	"github.com/vermilion00/libhmk/internal/hmkerr"
)

// EnvSection returns the section name of a PlatformIO build environment.
func EnvSection(env string) string {
	return "env:" + env
}

func loadOptions() ini.LoadOptions {
	return ini.LoadOptions{
		AllowPythonMultilineValues: true,
		IgnoreInlineComment:        true,
	}
}

// New returns an empty document.
func New() *ini.File {
	return ini.Empty(loadOptions())
}

// Parse reads a document from data.
func Parse(data []byte) (*ini.File, error) {
	return ini.LoadSources(loadOptions(), data)
}

// Load reads path from fsys. A missing file yields an empty document when
// allowMissing is set, and hmkerr.NotFoundError otherwise.
func Load(fsys afero.Fs, path string, allowMissing bool) (*ini.File, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			if allowMissing {
				return New(), nil
			}
			return nil, &hmkerr.NotFoundError{What: "ini file", Name: filepath.Base(path), Path: path, Err: err}
		}
		return nil, &hmkerr.IOError{Op: "read", Path: path, Err: err}
	}

	f, err := Parse(data)
	if err != nil {
		return nil, &hmkerr.MalformedConfigError{Path: path, Err: err}
	}
	return f, nil
}

// Encode writes f in configparser layout.
func Encode(w io.Writer, f *ini.File) error {
	var buf bytes.Buffer
	first := true
	for _, sec := range f.Sections() {
		keys := sec.Keys()
		if sec.Name() == ini.DefaultSection && len(keys) == 0 {
			continue
		}
		if !first {
			buf.WriteByte('\n')
		}
		first = false

		fmt.Fprintf(&buf, "[%s]\n", sec.Name())
		for _, k := range keys {
			value := strings.ReplaceAll(k.Value(), "\n", "\n\t")
			if value == "" {
				fmt.Fprintf(&buf, "%s =\n", k.Name())
				continue
			}
			fmt.Fprintf(&buf, "%s = %s\n", k.Name(), value)
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Save writes f to path atomically: the document goes to a temp file that
// is renamed over path, so readers never see a partial file.
func Save(fsys afero.Fs, path string, f *ini.File) error {
	var buf bytes.Buffer
	if err := Encode(&buf, f); err != nil {
		return &hmkerr.IOError{Op: "encode", Path: path, Err: err}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return &hmkerr.IOError{Op: "mkdir", Path: dir, Err: err}
		}
	}

	tmpPath := path + ".tmp"
	if err := afero.WriteFile(fsys, tmpPath, buf.Bytes(), 0644); err != nil {
		fsys.Remove(tmpPath)
		return &hmkerr.IOError{Op: "write", Path: tmpPath, Err: err}
	}
	if err := fsys.Rename(tmpPath, path); err != nil {
		fsys.Remove(tmpPath)
		return &hmkerr.IOError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// SetList stores values as a multi-line key.
func SetList(sec *ini.Section, key string, values []string) {
	sec.Key(key).SetValue(strings.Join(values, "\n"))
}

// List splits a multi-line or whitespace-separated key into its entries.
func List(sec *ini.Section, key string) []string {
	if !sec.HasKey(key) {
		return nil
	}
	var out []string
	for _, line := range strings.Split(sec.Key(key).Value(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
