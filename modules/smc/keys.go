package smc

import (
	"errors"
	"fmt"
	"sort"
)

// Key identifies a controller attribute by four ASCII characters.
type Key uint32

const (
	KeyTotalPower Key = 'P'<<24 | 'S'<<16 | 'T'<<8 | 'R' // Power: System Total Rail (watts)
	KeyCPUPower   Key = 'P'<<24 | 'C'<<16 | 'P'<<8 | 'C' // Power: CPU Package CPU (watts)
	KeyIGPUPower  Key = 'P'<<24 | 'C'<<16 | 'P'<<8 | 'G' // Power: CPU Package GPU (watts)
	KeyGPU0Power  Key = 'P'<<24 | 'G'<<16 | '0'<<8 | 'R' // Power: GPU 0 Rail (watts)
	KeyGPU1Power  Key = 'P'<<24 | 'G'<<16 | '1'<<8 | 'R' // Power: GPU 1 Rail (watts)

	KeyCPUProximityTemp Key = 'T'<<24 | 'C'<<16 | '0'<<8 | 'P' // Temperature: CPU proximity (°C)
	KeyGPUProximityTemp Key = 'T'<<24 | 'G'<<16 | '0'<<8 | 'P' // Temperature: GPU proximity (°C)
	KeyBatteryTemp      Key = 'T'<<24 | 'B'<<16 | '0'<<8 | 'T' // Temperature: battery (°C)
	KeyDCInVoltage      Key = 'V'<<24 | 'D'<<16 | '0'<<8 | 'R' // Voltage: DC in (volts)
	KeyDCInCurrent      Key = 'I'<<24 | 'D'<<16 | '0'<<8 | 'R' // Current: DC in (amps)
)

// Catalog maps the known keys to a human readable description.
var Catalog = map[Key]string{
	KeyTotalPower:       "system total rail power (W)",
	KeyCPUPower:         "CPU package CPU power (W)",
	KeyIGPUPower:        "CPU package GPU power (W)",
	KeyGPU0Power:        "GPU 0 rail power (W)",
	KeyGPU1Power:        "GPU 1 rail power (W)",
	KeyCPUProximityTemp: "CPU proximity temperature (°C)",
	KeyGPUProximityTemp: "GPU proximity temperature (°C)",
	KeyBatteryTemp:      "battery temperature (°C)",
	KeyDCInVoltage:      "DC in voltage (V)",
	KeyDCInCurrent:      "DC in current (A)",
}

// CatalogKeys returns the catalog keys sorted by name.
func CatalogKeys() []Key {
	keys := make([]Key, 0, len(Catalog))
	for k := range Catalog {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// ParseKey packs a four character key name, eg. "PSTR".
// Keys outside Catalog are accepted.
func ParseKey(s string) (Key, error) {
	v, err := fourCC(s)
	if err != nil {
		return 0, fmt.Errorf("invalid key %q: %v", s, err)
	}
	return Key(v), nil
}

func (k Key) String() string {
	return fourCCString(uint32(k))
}

// Description returns the catalog description, or an empty string.
func (k Key) Description() string {
	return Catalog[k]
}

func fourCC(s string) (uint32, error) {
	if len(s) != 4 {
		return 0, errors.New("must be exactly 4 characters")
	}
	var v uint32
	for i := 0; i < 4; i++ {
		c := s[i]
		if c < 0x20 || c > 0x7e {
			return 0, fmt.Errorf("non printable character at %d", i)
		}
		v = v<<8 | uint32(c)
	}
	return v, nil
}

func fourCCString(v uint32) string {
	return string([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}
