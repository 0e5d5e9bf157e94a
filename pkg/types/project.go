package types

// Driver is the driver descriptor read from hardware/<driver>/info.json.
// Fields other than TinyUSB are ignored.
type Driver struct {
	// ID is the driver directory name. It is not part of the document.
	ID string `json:"-"`

	TinyUSB TinyUSB `json:"tinyusb"`
}

// TinyUSB holds the TinyUSB port settings of a driver.
type TinyUSB struct {
	MCU string `json:"mcu"` // e.g. "stm32f4", emitted as OPT_MCU_STM32F4
}

// Project is the PlatformIO project descriptor read from
// keyboards/<id>/config.json.
type Project struct {
	Driver    string `json:"driver"`
	Board     string `json:"board"`
	LDScript  string `json:"ldscript"`
	Framework string `json:"framework"`
	Platform  string `json:"platform"`
}

// Missing returns the names of required project keys that are empty.
func (p *Project) Missing() []string {
	var missing []string
	for _, kv := range []struct {
		key, value string
	}{
		{"driver", p.Driver},
		{"board", p.Board},
		{"ldscript", p.LDScript},
		{"framework", p.Framework},
		{"platform", p.Platform},
	} {
		if kv.value == "" {
			missing = append(missing, kv.key)
		}
	}
	return missing
}
