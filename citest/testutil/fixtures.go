package testutil

import (
	"os"
	"path/filepath"
)

// TempDir creates a temporary directory
type TempDir struct {
	Path string
}

// NewTempDir creates a temp directory
func NewTempDir() (*TempDir, error) {
	path, err := os.MkdirTemp("", "hmkconf-test-*")
	if err != nil {
		return nil, err
	}
	return &TempDir{Path: path}, nil
}

// CreateFile creates a file in the temp directory
func (d *TempDir) CreateFile(name, content string) (string, error) {
	path := filepath.Join(d.Path, name)

	// Create parent directories if needed
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", err
	}

	return path, nil
}

// ReadFile reads a file of the temp directory
func (d *TempDir) ReadFile(name string) (string, error) {
	content, err := os.ReadFile(filepath.Join(d.Path, name))
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// Exists checks if a file of the temp directory exists
func (d *TempDir) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(d.Path, name))
	return err == nil
}

// Cleanup removes the temp directory and all contents
func (d *TempDir) Cleanup() {
	os.RemoveAll(d.Path)
}

// ---- Firmware Project Fixtures ----

// HE60Keyboard is a 60% board on an STM32F446 with a multiplexed matrix.
const HE60Keyboard = `{
	// 60% hall-effect keyboard
	"name": "HE60",
	"manufacturer": "ABS0",
	"hardware": {"driver": "stm32f446xx", "hse_value": 16000000},
	"usb": {"port": "fs", "vid": "0xAB50", "pid": "0xAB60"},
	"analog": {
		"invert_adc": true,
		"delay": 5,
		"mux": {
			"input": [0, 1],
			"select": ["C13", "C14"],
			"matrix": [[4, 3, 2, 0], [15, 14, 13, 16]]
		}
	},
	"calibration": {"initial_rest_value": 2400, "initial_bottom_out_threshold": 700},
	"keyboard": {"num_profiles": 4, "num_layers": 2, "num_keys": 8, "num_advanced_keys": 32},
	"keymap": [
		["KC_ESC", "KC_1", "KC_2", "KC_3", "KC_TAB", "KC_Q", "KC_W", "KC_E"],
		["KC_GRV", "KC_F1", "KC_F2", "KC_F3", "_______", "_______", "_______", "_______"],
	],
	"actuation": {"actuation_point": 128}
}`

// HE16Keyboard is a macropad on an AT32F405 with direct analog inputs.
const HE16Keyboard = `{
	"name": "HE16",
	"manufacturer": "ABS0",
	"hardware": {"driver": "at32f405xx", "hse_value": 12000000},
	"usb": {"port": "hs", "vid": "0xAB50", "pid": "0xAB16"},
	"analog": {"raw": {"input": [1, 2, 3, 4], "vector": [0, 1, 2, 3]}},
	"calibration": {"initial_rest_value": 2400},
	"keyboard": {"num_profiles": 1, "num_layers": 1, "num_keys": 4, "num_advanced_keys": 0},
	"keymap": [["KC_A", "KC_B", "KC_C", "KC_D"]]
}`

// ProjectFiles is a complete firmware project tree with two keyboards.
var ProjectFiles = map[string]string{
	"keyboards/he60/keyboard.json": HE60Keyboard,
	"keyboards/he60/config.json": `{
		"driver": "stm32f446xx",
		"board": "genericSTM32F446RE",
		"ldscript": "stm32f446re.ld",
		"framework": "cmsis",
		"platform": "ststm32"
	}`,
	"keyboards/he60/pio.ini":         "[env]\nplatform = ststm32\n",
	"keyboards/he16/keyboard.json":   HE16Keyboard,
	"keyboards/he16/pio.ini":         "[env]\nplatform = arterytekat32\n",
	"hardware/stm32f446xx/info.json": `{"tinyusb": {"mcu": "stm32f4"}}`,
	"hardware/at32f405xx/info.json":  `{"tinyusb": {"mcu": "at32f405"}}`,
	"linker/stm32f446re.ld":          "/* linker script */\n",
}

// NewProject creates a temp directory holding ProjectFiles.
func NewProject() (*TempDir, error) {
	d, err := NewTempDir()
	if err != nil {
		return nil, err
	}
	for name, content := range ProjectFiles {
		if _, err := d.CreateFile(name, content); err != nil {
			d.Cleanup()
			return nil, err
		}
	}
	return d, nil
}
