package types

// Keyboard is the device descriptor read from keyboards/<id>/keyboard.json.
type Keyboard struct {
	Name         string     `json:"name"`
	Manufacturer string     `json:"manufacturer"`
	Hardware     Hardware   `json:"hardware"`
	USB          USB        `json:"usb"`
	Analog       Analog     `json:"analog"`
	Calibration  Value      `json:"calibration"`
	Keyboard     Geometry   `json:"keyboard"`
	Keymap       Value      `json:"keymap"`
	Actuation    *Actuation `json:"actuation,omitempty"`
}

// Hardware selects the driver and clock source.
type Hardware struct {
	Driver   string `json:"driver"`
	HSEValue Value  `json:"hse_value"`
}

// USB holds the USB identity of the device.
type USB struct {
	Port string `json:"port"` // "fs"|"hs"
	VID  Value  `json:"vid"`
	PID  Value  `json:"pid"`
}

// Analog describes the ADC input topology. Every field is optional.
type Analog struct {
	InvertADC *bool     `json:"invert_adc,omitempty"`
	Delay     Value     `json:"delay"`
	Raw       *RawInput `json:"raw,omitempty"`
	Mux       *MuxInput `json:"mux,omitempty"`
}

// RawInput is a set of keys wired directly to ADC channels.
type RawInput struct {
	Input  []int `json:"input"`
	Vector []int `json:"vector"`
}

// MuxInput is a set of keys read through analog multiplexers.
// Matrix is stored input-major: one row per entry of Input, one column per
// select-line combination.
type MuxInput struct {
	Input  []int    `json:"input"`
	Select []string `json:"select"`
	Matrix [][]int  `json:"matrix"`
}

// Geometry holds the keyboard dimensions.
type Geometry struct {
	NumProfiles     int `json:"num_profiles"`
	NumLayers       int `json:"num_layers"`
	NumKeys         int `json:"num_keys"`
	NumAdvancedKeys int `json:"num_advanced_keys"`
}

// Actuation holds default actuation settings.
type Actuation struct {
	ActuationPoint Value `json:"actuation_point"`
}
