package flags

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vermilion00/libhmk/internal/hmkerr"
	"github.com/vermilion00/libhmk/pkg/types"
)

const minimalKeyboard = `{
	"name": "HE16",
	"manufacturer": "ABS0",
	"hardware": {"driver": "at32f405xx", "hse_value": 16000000},
	"usb": {"port": "hs", "vid": "0xAB50", "pid": "0xAB16"},
	"analog": {},
	"calibration": {"initial_rest_value": 2400, "initial_bottom_out_threshold": 700},
	"keyboard": {"num_profiles": 4, "num_layers": 2, "num_keys": 4, "num_advanced_keys": 8},
	"keymap": [["KC_A", "KC_B", "KC_C", "KC_D"], ["KC_TRNS", "KC_TRNS", "KC_TRNS", "KC_TRNS"]]
}`

const fullKeyboard = `{
	"name": "HE60",
	"manufacturer": "ABS0",
	"hardware": {"driver": "stm32f446xx", "hse_value": 16000000},
	"usb": {"port": "fs", "vid": "0xAB50", "pid": "0xAB60"},
	"analog": {
		"invert_adc": true,
		"delay": 5,
		"raw": {"input": [1, 2], "vector": [10, 11]},
		"mux": {
			"input": [0, 1],
			"select": ["C13", "C14", "C15"],
			"matrix": [[4, 3, 2, 0, 5, 8, 6, 7], [15, 14, 13, 16, 9, 12, 10, 11]]
		}
	},
	"calibration": {"initial_rest_value": 2400, "initial_bottom_out_threshold": 700},
	"keyboard": {"num_profiles": 4, "num_layers": 4, "num_keys": 2, "num_advanced_keys": 32},
	"keymap": [["KC_ESC", "KC_1"], ["KC_GRV", "KC_F1"], ["_______", "_______"], ["_______", "_______"]],
	"actuation": {"actuation_point": 128}
}`

func decodeKeyboard(t *testing.T, doc string) *types.Keyboard {
	t.Helper()
	var kb types.Keyboard
	require.NoError(t, json.Unmarshal([]byte(doc), &kb))
	return &kb
}

func input(t *testing.T, doc, mcu string) Input {
	kb := decodeKeyboard(t, doc)
	return Input{
		ID:       "test",
		Keyboard: kb,
		Driver:   &types.Driver{ID: kb.Hardware.Driver, TinyUSB: types.TinyUSB{MCU: mcu}},
	}
}

func TestSynthesize_Full(t *testing.T) {
	set, err := Synthesize(input(t, fullKeyboard, "stm32f4"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"-Ihardware/stm32f446xx",
		"-Ikeyboards/test",
		"-Iinclude",
		"-DCFG_TUSB_MCU='OPT_MCU_STM32F4'",
		"-DBOARD_HSE_VALUE='16000000'",
		"-DBOARD_USB_FS",
		`-DUSB_MANUFACTURER_NAME='"ABS0"'`,
		`-DUSB_PRODUCT_NAME='"HE60"'`,
		"-DUSB_VENDOR_ID='0xAB50'",
		"-DUSB_PRODUCT_ID='0xAB60'",
		"-DMATRIX_INVERT_ADC_VALUES",
		"-DADC_SAMPLE_DELAY='5'",
		"-DADC_NUM_RAW_INPUTS='2'",
		"-DADC_RAW_INPUT_CHANNELS='{1, 2}'",
		"-DADC_RAW_INPUT_VECTOR='{10, 11}'",
		"-DADC_NUM_MUX_INPUTS='2'",
		"-DADC_MUX_INPUT_CHANNELS='{0, 1}'",
		"-DADC_NUM_MUX_SELECT_PINS='3'",
		"-DADC_MUX_SELECT_PORTS='{GPIOC, GPIOC, GPIOC}'",
		"-DADC_MUX_SELECT_PINS='{GPIO_PIN_13, GPIO_PIN_14, GPIO_PIN_15}'",
		"-DADC_MUX_INPUT_MATRIX='{{4, 15}, {3, 14}, {2, 13}, {0, 16}, {5, 9}, {8, 12}, {6, 10}, {7, 11}}'",
		"-DDEFAULT_CALIBRATION='{.initial_rest_value = 2400, .initial_bottom_out_threshold = 700}'",
		"-DNUM_PROFILES='4'",
		"-DNUM_LAYERS='4'",
		"-DNUM_KEYS='2'",
		"-DNUM_ADVANCED_KEYS='32'",
		"-DDEFAULT_KEYMAP='{{KC_ESC, KC_1}, {KC_GRV, KC_F1}, {_______, _______}, {_______, _______}}'",
		"-DACTUATION_POINT='128'",
	}, set.Flags())
	assert.Equal(t, []string{"-<hardware/>", "+<hardware/stm32f446xx/>"}, set.SrcFilter())
}

func TestSynthesize_MinimalEmitsOnlyAlwaysOnMacros(t *testing.T) {
	set, err := Synthesize(input(t, minimalKeyboard, "at32f402_405"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"CFG_TUSB_MCU",
		"BOARD_HSE_VALUE",
		"BOARD_USB_HS",
		"USB_MANUFACTURER_NAME",
		"USB_PRODUCT_NAME",
		"USB_VENDOR_ID",
		"USB_PRODUCT_ID",
		"DEFAULT_CALIBRATION",
		"NUM_PROFILES",
		"NUM_LAYERS",
		"NUM_KEYS",
		"NUM_ADVANCED_KEYS",
		"DEFAULT_KEYMAP",
	}, set.names())
	assert.Equal(t, []string{"hardware/at32f405xx", "keyboards/test", "include"}, set.includes())

	mcu, _ := set.lookup("CFG_TUSB_MCU")
	assert.Equal(t, "OPT_MCU_AT32F402_405", mcu)
}

func TestSynthesize_Deterministic(t *testing.T) {
	a, err := Synthesize(input(t, fullKeyboard, "stm32f4"))
	require.NoError(t, err)
	b, err := Synthesize(input(t, fullKeyboard, "stm32f4"))
	require.NoError(t, err)

	assert.Equal(t, a.Flags(), b.Flags())
	assert.Equal(t, a.SrcFilter(), b.SrcFilter())
}

func TestSynthesize_RawInputCount(t *testing.T) {
	set, err := Synthesize(input(t, minimalKeyboard, "stm32f4"))
	require.NoError(t, err)
	_, ok := set.lookup("ADC_NUM_RAW_INPUTS")
	assert.False(t, ok)

	in := input(t, minimalKeyboard, "stm32f4")
	in.Keyboard.Analog.Raw = &types.RawInput{Input: []int{1, 2}, Vector: []int{3, 4}}
	set, err = Synthesize(in)
	require.NoError(t, err)
	n, ok := set.lookup("ADC_NUM_RAW_INPUTS")
	require.True(t, ok)
	assert.Equal(t, "2", n)
}

func TestSynthesize_USBPort(t *testing.T) {
	tests := []struct {
		port   string
		policy USBPolicy
		want   string
		absent string
	}{
		{"fs", USBPermissive, "BOARD_USB_FS", "BOARD_USB_HS"},
		{"hs", USBPermissive, "BOARD_USB_HS", "BOARD_USB_FS"},
		{"anything", USBPermissive, "BOARD_USB_HS", "BOARD_USB_FS"},
		{"", USBPermissive, "BOARD_USB_HS", "BOARD_USB_FS"},
		{"fs", USBStrict, "BOARD_USB_FS", "BOARD_USB_HS"},
		{"hs", USBStrict, "BOARD_USB_HS", "BOARD_USB_FS"},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy)+"/"+tt.port, func(t *testing.T) {
			in := input(t, minimalKeyboard, "stm32f4")
			in.Keyboard.USB.Port = tt.port
			in.Options.USBPolicy = tt.policy

			set, err := Synthesize(in)
			require.NoError(t, err)
			_, ok := set.lookup(tt.want)
			assert.True(t, ok)
			_, ok = set.lookup(tt.absent)
			assert.False(t, ok)
		})
	}
}

func TestSynthesize_StrictUSBRejectsUnknownPort(t *testing.T) {
	in := input(t, minimalKeyboard, "stm32f4")
	in.Keyboard.USB.Port = "full-speed"
	in.Options.USBPolicy = USBStrict

	set, err := Synthesize(in)
	assert.Nil(t, set)
	assert.Equal(t, hmkerr.KindMalformed, hmkerr.Of(err))
}

func TestSynthesize_ApostropheInNames(t *testing.T) {
	in := input(t, minimalKeyboard, "at32f405")
	in.Keyboard.Manufacturer = "Bob's Boards"

	set, err := Synthesize(in)
	require.NoError(t, err)
	v, ok := set.lookup("USB_MANUFACTURER_NAME")
	require.True(t, ok)
	assert.Equal(t, `"Bob\047s Boards"`, v)
	assert.Contains(t, set.Flags(), `-DUSB_MANUFACTURER_NAME='"Bob\047s Boards"'`)
}

func TestSynthesize_OptionalAnalog(t *testing.T) {
	in := input(t, minimalKeyboard, "stm32f4")
	off := false
	in.Keyboard.Analog.InvertADC = &off

	set, err := Synthesize(in)
	require.NoError(t, err)
	_, ok := set.lookup("MATRIX_INVERT_ADC_VALUES")
	assert.False(t, ok, "invert_adc=false keeps the firmware default")
	_, ok = set.lookup("ADC_SAMPLE_DELAY")
	assert.False(t, ok)
}

func TestSynthesize_ActuationNeedsBothLevels(t *testing.T) {
	in := input(t, minimalKeyboard, "stm32f4")
	in.Keyboard.Actuation = &types.Actuation{}

	set, err := Synthesize(in)
	require.NoError(t, err)
	_, ok := set.lookup("ACTUATION_POINT")
	assert.False(t, ok)

	in.Keyboard.Actuation.ActuationPoint = types.NewScalar("96")
	set, err = Synthesize(in)
	require.NoError(t, err)
	v, ok := set.lookup("ACTUATION_POINT")
	assert.True(t, ok)
	assert.Equal(t, "96", v)
}

func TestSynthesize_MuxUnsupportedDriver(t *testing.T) {
	in := input(t, fullKeyboard, "rp2040")
	in.Keyboard.Hardware.Driver = "rp2040"

	set, err := Synthesize(in)
	assert.Nil(t, set)
	assert.Equal(t, hmkerr.KindUnsupported, hmkerr.Of(err))
}

func TestSynthesize_InconsistentAnalog(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(kb *types.Keyboard)
	}{
		{"raw vector length", func(kb *types.Keyboard) { kb.Analog.Raw.Vector = []int{1} }},
		{"mux row count", func(kb *types.Keyboard) { kb.Analog.Mux.Input = []int{0} }},
		{"mux ragged", func(kb *types.Keyboard) { kb.Analog.Mux.Matrix[1] = []int{1, 2} }},
		{"mux too wide", func(kb *types.Keyboard) { kb.Analog.Mux.Select = []string{"C13", "C14"} }},
		{"mux too narrow", func(kb *types.Keyboard) { kb.Analog.Mux.Select = append(kb.Analog.Mux.Select, "A0") }},
		{"bad pin", func(kb *types.Keyboard) { kb.Analog.Mux.Select[0] = "13" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input(t, fullKeyboard, "stm32f4")
			tt.mutate(in.Keyboard)

			set, err := Synthesize(in)
			assert.Nil(t, set)
			assert.Equal(t, hmkerr.KindMalformed, hmkerr.Of(err))
		})
	}
}

func TestSynthesize_MissingRequired(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *Input)
	}{
		{"driver", func(in *Input) { in.Keyboard.Hardware.Driver = "" }},
		{"hse", func(in *Input) { in.Keyboard.Hardware.HSEValue = types.Value{} }},
		{"vid", func(in *Input) { in.Keyboard.USB.VID = types.Value{} }},
		{"calibration", func(in *Input) { in.Keyboard.Calibration = types.NewArray() }},
		{"keymap", func(in *Input) { in.Keyboard.Keymap = types.Value{} }},
		{"mcu", func(in *Input) { in.Driver.TinyUSB.MCU = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input(t, minimalKeyboard, "stm32f4")
			tt.mutate(&in)
			_, err := Synthesize(in)
			assert.Equal(t, hmkerr.KindMalformed, hmkerr.Of(err))
		})
	}
}

func TestParseUSBPolicy(t *testing.T) {
	p, err := ParseUSBPolicy("")
	require.NoError(t, err)
	assert.Equal(t, USBPermissive, p)

	p, err = ParseUSBPolicy(" STRICT ")
	require.NoError(t, err)
	assert.Equal(t, USBStrict, p)

	_, err = ParseUSBPolicy("lenient")
	assert.Error(t, err)
}
