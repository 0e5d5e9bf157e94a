// Package loader reads keyboard, driver and project descriptors from a
// firmware project tree.
//
// Layout relative to the project root:
//
//	keyboards/<id>/keyboard.json   keyboard descriptor
//	keyboards/<id>/config.json     PlatformIO project descriptor
//	hardware/<driver>/info.json    driver descriptor
//
// Documents may carry JSONC comments. Missing documents yield
// hmkerr.NotFoundError and unparsable ones hmkerr.MalformedConfigError.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"

	"github.com/vermilion00/libhmk/internal/hmkerr"
	"github.com/vermilion00/libhmk/internal/logging"
	"github.com/vermilion00/libhmk/internal/schema"
	"github.com/vermilion00/libhmk/pkg/types"
)

// Directory and file names of the project layout.
const (
	KeyboardsDir = "keyboards"
	HardwareDir  = "hardware"
	LinkerDir    = "linker"
	KeyboardFile = "keyboard.json"
	ProjectFile  = "config.json"
	DriverFile   = "info.json"
)

// Loader reads descriptors from a filesystem rooted at the project root.
type Loader struct {
	fs        afero.Fs
	validator *schema.Validator
}

// Option configures a Loader.
type Option func(*Loader)

// WithValidator validates keyboard and driver documents before decoding.
func WithValidator(v *schema.Validator) Option {
	return func(l *Loader) { l.validator = v }
}

// New returns a Loader over fsys. Paths are relative to fsys's root.
func New(fsys afero.Fs, opts ...Option) *Loader {
	l := &Loader{fs: fsys}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewOS returns a Loader over the project directory root on disk.
func NewOS(root string, opts ...Option) *Loader {
	return New(afero.NewBasePathFs(afero.NewOsFs(), root), opts...)
}

// Fs returns the filesystem the loader reads from.
func (l *Loader) Fs() afero.Fs { return l.fs }

// KeyboardPath returns the descriptor path of keyboard id.
func KeyboardPath(id string) string {
	return filepath.Join(KeyboardsDir, id, KeyboardFile)
}

// DriverPath returns the descriptor path of driver.
func DriverPath(driver string) string {
	return filepath.Join(HardwareDir, driver, DriverFile)
}

// ProjectPath returns the project descriptor path of keyboard id.
func ProjectPath(id string) string {
	return filepath.Join(KeyboardsDir, id, ProjectFile)
}

// LoadKeyboard reads keyboards/<id>/keyboard.json.
func (l *Loader) LoadKeyboard(id string) (*types.Keyboard, error) {
	var kb types.Keyboard
	if err := l.load("keyboard", id, KeyboardPath(id), schema.Keyboard, &kb); err != nil {
		return nil, err
	}
	return &kb, nil
}

// LoadDriver reads the driver descriptor referenced by kb.hardware.driver.
func (l *Loader) LoadDriver(kb *types.Keyboard) (*types.Driver, error) {
	id := kb.Hardware.Driver
	if id == "" {
		return nil, hmkerr.Malformed("hardware.driver", "required")
	}

	var drv types.Driver
	if err := l.load("driver", id, DriverPath(id), schema.Driver, &drv); err != nil {
		return nil, err
	}
	drv.ID = id
	return &drv, nil
}

// LoadProject reads keyboards/<id>/config.json.
func (l *Loader) LoadProject(id string) (*types.Project, error) {
	var p types.Project
	if err := l.load("project", id, ProjectPath(id), "", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (l *Loader) load(what, name, path, schemaName string, v any) error {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return &hmkerr.NotFoundError{What: what, Name: name, Path: path, Err: err}
		}
		return &hmkerr.IOError{Op: "read", Path: path, Err: err}
	}

	data = jsonc.ToJSON(data)

	if l.validator != nil && schemaName != "" {
		if err := l.validator.Validate(schemaName, data, path); err != nil {
			return err
		}
	}

	if err := json.Unmarshal(data, v); err != nil {
		return &hmkerr.MalformedConfigError{Path: path, Err: err}
	}

	logging.Debug().Str("path", path).Msg("loaded " + what)
	return nil
}

// Exists reports whether path exists in the project tree.
func (l *Loader) Exists(path string) bool {
	ok, _ := afero.Exists(l.fs, path)
	return ok
}

// Keyboards lists the ids of all keyboards that have a keyboard.json,
// sorted.
func (l *Loader) Keyboards() ([]string, error) {
	return l.Glob(KeyboardFile)
}

// Glob returns the ids of keyboards whose directory holds a file matching
// the doublestar pattern, sorted.
func (l *Loader) Glob(pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	dirs, err := afero.ReadDir(l.fs, KeyboardsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, &hmkerr.IOError{Op: "list", Path: KeyboardsDir, Err: err}
	}

	ids := []string{}
	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}
		files, err := afero.ReadDir(l.fs, filepath.Join(KeyboardsDir, dir.Name()))
		if err != nil {
			return nil, &hmkerr.IOError{Op: "list", Path: filepath.Join(KeyboardsDir, dir.Name()), Err: err}
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			if ok, _ := doublestar.Match(pattern, f.Name()); ok {
				ids = append(ids, dir.Name())
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}
