// Package pinmap maps symbolic pin names such as "C13" onto the GPIO macro
// tokens of each vendor HAL.
//
// Vendors disagree on spelling: ST headers define GPIO_PIN_13 while Artery
// headers define GPIO_PINS_13. The dialect table reproduces those names as
// they are. Supporting a new driver means adding one entry to dialects.
package pinmap

import (
	"fmt"
	"sort"
	"strconv"
	"unicode"

	"github.com/vermilion00/libhmk/internal/hmkerr"
)

// Dialect is the GPIO macro naming template of one driver family.
type Dialect struct {
	PortPrefix string // prepended to the port letter
	PinPrefix  string // prepended to the pin index
}

// Port returns the port macro token for a port letter.
func (d Dialect) Port(letter string) string { return d.PortPrefix + letter }

// Pin returns the pin-number macro token for a pin index.
func (d Dialect) Pin(index string) string { return d.PinPrefix + index }

var dialects = map[string]Dialect{
	"stm32f446xx": {PortPrefix: "GPIO", PinPrefix: "GPIO_PIN_"},
	"at32f405xx":  {PortPrefix: "GPIO", PinPrefix: "GPIO_PINS_"},
}

// Lookup returns the dialect registered for driver.
func Lookup(driver string) (Dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return Dialect{}, &hmkerr.UnsupportedDriverError{Driver: driver}
	}
	return d, nil
}

// Drivers returns the registered driver ids, sorted.
func Drivers() []string {
	ids := make([]string, 0, len(dialects))
	for id := range dialects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolve converts pin names into parallel slices of port and pin-number
// macro tokens using the dialect of driver.
func Resolve(pins []string, driver string) (ports, pinNumbers []string, err error) {
	d, err := Lookup(driver)
	if err != nil {
		return nil, nil, err
	}

	ports = make([]string, len(pins))
	pinNumbers = make([]string, len(pins))
	for i, pin := range pins {
		letter, index, err := split(pin)
		if err != nil {
			return nil, nil, hmkerr.Malformed(fmt.Sprintf("pin[%d]", i), "%v", err)
		}
		ports[i] = d.Port(letter)
		pinNumbers[i] = d.Pin(index)
	}
	return ports, pinNumbers, nil
}

// split breaks "B12" into "B" and "12".
func split(pin string) (string, string, error) {
	if len(pin) < 2 {
		return "", "", fmt.Errorf("invalid pin name %q", pin)
	}
	letter := rune(pin[0])
	if letter > unicode.MaxASCII || !unicode.IsUpper(letter) {
		return "", "", fmt.Errorf("invalid port letter in pin name %q", pin)
	}
	index := pin[1:]
	if _, err := strconv.ParseUint(index, 10, 8); err != nil {
		return "", "", fmt.Errorf("invalid pin index in pin name %q", pin)
	}
	return string(letter), index, nil
}
