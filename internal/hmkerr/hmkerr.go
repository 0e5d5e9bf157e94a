// Package hmkerr defines the error taxonomy shared by every hmkconf stage.
//
// Each stage returns one of four typed errors. None of them are retried:
// the CLI maps the kind to an exit code and aborts the run.
package hmkerr

import (
	"errors"
	"fmt"
)

// Kind is a stable error identifier.
type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindMalformed   Kind = "malformed_config"
	KindUnsupported Kind = "unsupported_driver"
	KindIO          Kind = "io"
	KindUnknown     Kind = "error"
)

// NotFoundError reports a referenced document, driver, linker script or
// section that does not exist.
type NotFoundError struct {
	What string // "keyboard", "driver", "ldscript", ...
	Name string
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s %q not found", e.What, e.Name)
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	return msg
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// MalformedConfigError reports a JSON parse failure, a schema violation or
// an inconsistent descriptor.
type MalformedConfigError struct {
	Path  string // document path, empty when not tied to a file
	Field string // dotted field path, optional
	Msg   string
	Err   error
}

func (e *MalformedConfigError) Error() string {
	msg := "malformed config"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedConfigError) Unwrap() error { return e.Err }

// UnsupportedDriverError reports a driver with no pin dialect or build target.
type UnsupportedDriverError struct {
	Driver string
}

func (e *UnsupportedDriverError) Error() string {
	return fmt.Sprintf("unsupported driver: %s", e.Driver)
}

// IOError reports a failure to write an output.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Malformed is shorthand for a MalformedConfigError tied to a field.
func Malformed(field, format string, args ...any) error {
	return &MalformedConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Of returns the Kind of err, walking the wrap chain.
func Of(err error) Kind {
	var (
		nf *NotFoundError
		mc *MalformedConfigError
		ud *UnsupportedDriverError
		io *IOError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &nf):
		return KindNotFound
	case errors.As(err, &mc):
		return KindMalformed
	case errors.As(err, &ud):
		return KindUnsupported
	case errors.As(err, &io):
		return KindIO
	default:
		return KindUnknown
	}
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch Of(err) {
	case "":
		return 0
	case KindNotFound:
		return 3
	case KindMalformed:
		return 4
	case KindUnsupported:
		return 5
	case KindIO:
		return 6
	default:
		return 1
	}
}
