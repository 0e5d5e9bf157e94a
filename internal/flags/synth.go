package flags

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vermilion00/libhmk/internal/hmkerr"
	"github.com/vermilion00/libhmk/internal/literal"
	"github.com/vermilion00/libhmk/internal/pinmap"
	"github.com/vermilion00/libhmk/pkg/types"
)

// USBPolicy decides how usb.port is interpreted.
type USBPolicy string

const (
	// USBPermissive treats every port other than "fs" as high speed.
	USBPermissive USBPolicy = "permissive"
	// USBStrict accepts only "fs" and "hs".
	USBStrict USBPolicy = "strict"
)

// ParseUSBPolicy parses a policy name. The empty string selects USBPermissive.
func ParseUSBPolicy(s string) (USBPolicy, error) {
	switch USBPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", USBPermissive:
		return USBPermissive, nil
	case USBStrict:
		return USBStrict, nil
	default:
		return "", fmt.Errorf("unknown usb policy %q (want permissive or strict)", s)
	}
}

// Options tune synthesis.
type Options struct {
	USBPolicy USBPolicy
}

// Input is everything synthesis reads. It carries no I/O handles.
type Input struct {
	ID       string // keyboard directory name
	Keyboard *types.Keyboard
	Driver   *types.Driver
	Options  Options
}

// Synthesize derives the flag set of one keyboard build. It is a pure
// function of its input. On error no flags are returned.
func Synthesize(in Input) (*Set, error) {
	kb, drv := in.Keyboard, in.Driver
	if kb == nil || drv == nil {
		return nil, fmt.Errorf("synthesize: keyboard and driver descriptors are required")
	}
	if err := checkRequired(in); err != nil {
		return nil, err
	}

	driver := kb.Hardware.Driver
	s := NewSet()

	// Source filter: only the selected driver's sources are compiled.
	s.Exclude("hardware/")
	s.Add("hardware/" + driver + "/")

	// Driver and keyboard headers come first so they can shadow shared
	// headers of the same name.
	s.Include("hardware/" + driver)
	s.Include("keyboards/" + in.ID)
	s.Include("include")

	// TinyUSB
	s.DefineValue("CFG_TUSB_MCU", "OPT_MCU_"+strings.ToUpper(drv.TinyUSB.MCU))

	// Clock
	s.DefineValue("BOARD_HSE_VALUE", literal.Scalar(kb.Hardware.HSEValue))

	// USB
	speed, err := usbSpeedMacro(kb.USB.Port, in.Options.USBPolicy)
	if err != nil {
		return nil, err
	}
	s.Define(speed)
	s.DefineValue("USB_MANUFACTURER_NAME", literal.Quote(kb.Manufacturer))
	s.DefineValue("USB_PRODUCT_NAME", literal.Quote(kb.Name))
	s.DefineValue("USB_VENDOR_ID", literal.Scalar(kb.USB.VID))
	s.DefineValue("USB_PRODUCT_ID", literal.Scalar(kb.USB.PID))

	// Analog
	if inv := kb.Analog.InvertADC; inv != nil && *inv {
		s.Define("MATRIX_INVERT_ADC_VALUES")
	}
	s.defineIfPresent("ADC_SAMPLE_DELAY", kb.Analog.Delay, literal.Scalar)

	if raw := kb.Analog.Raw; raw != nil {
		if err := emitRaw(s, raw); err != nil {
			return nil, err
		}
	}
	if mux := kb.Analog.Mux; mux != nil {
		if err := emitMux(s, mux, driver); err != nil {
			return nil, err
		}
	}

	// Calibration
	s.DefineValue("DEFAULT_CALIBRATION", literal.EncodeStruct(kb.Calibration))

	// Keyboard
	g := kb.Keyboard
	s.DefineValue("NUM_PROFILES", strconv.Itoa(g.NumProfiles))
	s.DefineValue("NUM_LAYERS", strconv.Itoa(g.NumLayers))
	s.DefineValue("NUM_KEYS", strconv.Itoa(g.NumKeys))
	s.DefineValue("NUM_ADVANCED_KEYS", strconv.Itoa(g.NumAdvancedKeys))
	s.DefineValue("DEFAULT_KEYMAP", literal.EncodeArray(kb.Keymap))

	// Actuation
	if act := kb.Actuation; act != nil {
		s.defineIfPresent("ACTUATION_POINT", act.ActuationPoint, literal.Scalar)
	}

	return s, nil
}

// defineIfPresent emits name only when v appeared in the document. An absent
// field leaves the firmware default in place.
func (s *Set) defineIfPresent(name string, v types.Value, encode func(types.Value) string) {
	if !v.IsPresent() {
		return
	}
	s.DefineValue(name, encode(v))
}

func usbSpeedMacro(port string, policy USBPolicy) (string, error) {
	switch {
	case port == "fs":
		return "BOARD_USB_FS", nil
	case policy == USBStrict && port != "hs":
		return "", hmkerr.Malformed("usb.port", "unknown port %q (want fs or hs)", port)
	default:
		return "BOARD_USB_HS", nil
	}
}

func emitRaw(s *Set, raw *types.RawInput) error {
	if len(raw.Vector) != len(raw.Input) {
		return hmkerr.Malformed("analog.raw.vector", "%d entries, want %d (one per input)", len(raw.Vector), len(raw.Input))
	}
	s.DefineValue("ADC_NUM_RAW_INPUTS", strconv.Itoa(len(raw.Input)))
	s.DefineValue("ADC_RAW_INPUT_CHANNELS", literal.EncodeArray(literal.Ints(raw.Input)))
	s.DefineValue("ADC_RAW_INPUT_VECTOR", literal.EncodeArray(literal.Ints(raw.Vector)))
	return nil
}

func emitMux(s *Set, mux *types.MuxInput, driver string) error {
	if err := checkMux(mux); err != nil {
		return err
	}

	s.DefineValue("ADC_NUM_MUX_INPUTS", strconv.Itoa(len(mux.Input)))
	s.DefineValue("ADC_MUX_INPUT_CHANNELS", literal.EncodeArray(literal.Ints(mux.Input)))
	s.DefineValue("ADC_NUM_MUX_SELECT_PINS", strconv.Itoa(len(mux.Select)))

	ports, pins, err := pinmap.Resolve(mux.Select, driver)
	if err != nil {
		return err
	}
	s.DefineValue("ADC_MUX_SELECT_PORTS", literal.EncodeArray(literal.Strings(ports)))
	s.DefineValue("ADC_MUX_SELECT_PINS", literal.EncodeArray(literal.Strings(pins)))

	// The document stores one row per input; the firmware indexes by select
	// combination first.
	matrix, err := literal.Transpose(mux.Matrix)
	if err != nil {
		return hmkerr.Malformed("analog.mux.matrix", "%v", err)
	}
	s.DefineValue("ADC_MUX_INPUT_MATRIX", literal.EncodeArray(literal.IntMatrix(matrix)))
	return nil
}

func checkMux(mux *types.MuxInput) error {
	if len(mux.Matrix) != len(mux.Input) {
		return hmkerr.Malformed("analog.mux.matrix", "%d rows, want %d (one per input)", len(mux.Matrix), len(mux.Input))
	}
	if len(mux.Select) >= strconv.IntSize-1 {
		return hmkerr.Malformed("analog.mux.select", "too many select pins (%d)", len(mux.Select))
	}
	// The firmware indexes the transposed matrix by select combination, so
	// every row must cover all of them.
	want := 1 << len(mux.Select)
	for i, row := range mux.Matrix {
		if len(row) != want {
			return hmkerr.Malformed(fmt.Sprintf("analog.mux.matrix[%d]", i), "%d columns, want %d for %d select pins", len(row), want, len(mux.Select))
		}
	}
	return nil
}

func checkRequired(in Input) error {
	kb := in.Keyboard
	switch {
	case kb.Hardware.Driver == "":
		return hmkerr.Malformed("hardware.driver", "required")
	case !kb.Hardware.HSEValue.IsPresent():
		return hmkerr.Malformed("hardware.hse_value", "required")
	case !kb.USB.VID.IsPresent():
		return hmkerr.Malformed("usb.vid", "required")
	case !kb.USB.PID.IsPresent():
		return hmkerr.Malformed("usb.pid", "required")
	case kb.Calibration.Kind() != types.Object:
		return hmkerr.Malformed("calibration", "must be an object, got %s", kb.Calibration.Kind())
	case kb.Keymap.Kind() != types.Array:
		return hmkerr.Malformed("keymap", "must be an array, got %s", kb.Keymap.Kind())
	case in.Driver.TinyUSB.MCU == "":
		return hmkerr.Malformed("tinyusb.mcu", "required")
	}
	return nil
}
