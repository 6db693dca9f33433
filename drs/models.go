package drs

import (
	"sort"
	"strings"
)

// Model describes the ranges of one DRS servo family.
type Model struct {
	Name        string
	Number      byte   // EEP model number (EEPModelNo1)
	MaxPosition uint16 // Largest accepted position jog
	MaxSpeed    uint16 // Largest accepted speed magnitude
	BaudRates   []int
}

// DefaultBaudRates lists the rates selectable through EEPBaudRate.
var DefaultBaudRates = []int{
	57600,   // 0x22
	115200,  // 0x10
	200000,  // 0x09
	250000,  // 0x07
	400000,  // 0x04
	500000,  // 0x03
	666666,  // 0x02
	1000000, // 0x01
}

// Predefined servo models.
var (
	DRS0101 = Model{
		Name:        "drs-0101",
		Number:      0x01,
		MaxPosition: 1023,
		MaxSpeed:    1023,
		BaudRates:   DefaultBaudRates,
	}

	DRS0201 = Model{
		Name:        "drs-0201",
		Number:      0x02,
		MaxPosition: 32767,
		MaxSpeed:    1023,
		BaudRates:   DefaultBaudRates,
	}
)

var modelsByName = map[string]*Model{
	DRS0101.Name: &DRS0101,
	DRS0201.Name: &DRS0201,
}

// GetModel returns a model by name. Names are matched case-insensitively
// and the dash is optional ("DRS0101" and "drs-0101" are the same model).
func GetModel(name string) (*Model, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if m, ok := modelsByName[key]; ok {
		return m, true
	}
	key = strings.Replace(key, "drs", "drs-", 1)
	m, ok := modelsByName[key]
	return m, ok
}

// ListModels returns the names of all known models, sorted.
func ListModels() []string {
	names := make([]string, 0, len(modelsByName))
	for name := range modelsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SupportsBaudRate reports whether rate can be selected on this model.
func (m *Model) SupportsBaudRate(rate int) bool {
	for _, r := range m.BaudRates {
		if r == rate {
			return true
		}
	}
	return false
}
