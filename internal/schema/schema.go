// Package schema validates keyboard and driver descriptors against JSON
// Schema documents before they are decoded.
//
// Default schemas are embedded in the binary. A firmware project can ship
// its own copies under scripts/schema/, which take precedence.
package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/spf13/afero"

	"github.com/vermilion00/libhmk/internal/hmkerr"
	"github.com/vermilion00/libhmk/internal/logging"
)

//go:embed schemas/*.json
var embedded embed.FS

// Document names.
const (
	Keyboard = "keyboard"
	Driver   = "driver"
)

// DefaultDir is the override directory relative to the project root.
const DefaultDir = "scripts/schema"

// Validator holds resolved schemas by document name.
type Validator struct {
	resolved map[string]*jsonschema.Resolved
}

// New loads the keyboard and driver schemas. For each, a file
// <dir>/<name>.schema.json on fsys wins over the embedded default.
// An empty dir disables overrides.
func New(fsys afero.Fs, dir string) (*Validator, error) {
	v := &Validator{resolved: make(map[string]*jsonschema.Resolved)}
	for _, name := range []string{Keyboard, Driver} {
		data, source, err := read(fsys, dir, name)
		if err != nil {
			return nil, err
		}

		var s jsonschema.Schema
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, &hmkerr.MalformedConfigError{Path: source, Msg: "invalid schema", Err: err}
		}
		rs, err := s.Resolve(nil)
		if err != nil {
			return nil, &hmkerr.MalformedConfigError{Path: source, Msg: "unresolvable schema", Err: err}
		}
		v.resolved[name] = rs
		logging.Debug().Str("schema", name).Str("source", source).Msg("schema loaded")
	}
	return v, nil
}

func read(fsys afero.Fs, dir, name string) ([]byte, string, error) {
	file := name + ".schema.json"
	if dir != "" && fsys != nil {
		path := filepath.Join(dir, file)
		if ok, _ := afero.Exists(fsys, path); ok {
			data, err := afero.ReadFile(fsys, path)
			if err != nil {
				return nil, path, fmt.Errorf("read schema: %w", err)
			}
			return data, path, nil
		}
	}

	data, err := embedded.ReadFile("schemas/" + file)
	if err != nil {
		return nil, "", fmt.Errorf("embedded schema %s: %w", file, err)
	}
	return data, "embedded:" + file, nil
}

// Validate checks a comment-free JSON document against the named schema.
// path only labels the error.
func (v *Validator) Validate(name string, data []byte, path string) error {
	rs, ok := v.resolved[name]
	if !ok {
		return fmt.Errorf("no schema named %q", name)
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return &hmkerr.MalformedConfigError{Path: path, Err: err}
	}
	if err := rs.Validate(instance); err != nil {
		return &hmkerr.MalformedConfigError{Path: path, Msg: "schema violation", Err: err}
	}
	return nil
}
