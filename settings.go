package pcd8544

import (
	"errors"
	"fmt"
)

// Command prefixes of the extended instruction set. The low bits of each
// command carry the value.
const (
	cmdSetVop  = 0x80 // Vop6..Vop0
	cmdSetTemp = 0x04 // TC1..TC0
	cmdSetBias = 0x10 // BS2..BS0
)

// Pin is a GPIO number on the target board.
type Pin int8

// NoPin marks a signal that is not wired (tied off on the board).
const NoPin Pin = -1

// Valid reports whether p refers to a real GPIO.
func (p Pin) Valid() bool {
	return p >= 0
}

func (p Pin) String() string {
	if !p.Valid() {
		return "unused"
	}
	return fmt.Sprintf("GPIO%d", int8(p))
}

// Settings is the electrical and wiring configuration of the display.
//
// The voltage, temperature and bias fields hold complete extended
// instruction bytes, as sent to the controller during initialization.
type Settings struct {
	Vop       uint8 // Operating voltage: 0x80 | Vop (0-127)
	TempCoeff uint8 // Temperature coefficient: 0x04 | TC (0-3)
	BiasMode  uint8 // Bias system: 0x10 | BS (0-7)
	Inverse   bool  // Start in inverse video

	RST  Pin // Reset (optional)
	SCE  Pin // Chip enable (optional)
	DC   Pin // Data/command select
	SDIN Pin // Serial data in
	SCLK Pin // Serial clock
}

// DefaultSettings returns the configuration of the reference wiring:
//
//	PCD8544     Board
//	RST  Pin 1  tied high
//	CE   Pin 2  tied low
//	DC   Pin 3  GPIO12
//	Din  Pin 4  GPIO13
//	Clk  Pin 5  GPIO14
func DefaultSettings() Settings {
	return Settings{
		Vop:       0xB1,
		TempCoeff: 0x04,
		BiasMode:  0x14,
		Inverse:   false,
		RST:       NoPin,
		SCE:       NoPin,
		DC:        12,
		SDIN:      13,
		SCLK:      14,
	}
}

// Validate checks the wiring and command bytes.
func (s *Settings) Validate() error {
	if s.Vop&cmdSetVop == 0 {
		return fmt.Errorf("pcd8544: invalid Vop command 0x%02X", s.Vop)
	}
	if s.TempCoeff&^0x03 != cmdSetTemp {
		return fmt.Errorf("pcd8544: invalid temperature coefficient command 0x%02X", s.TempCoeff)
	}
	if s.BiasMode&^0x07 != cmdSetBias {
		return fmt.Errorf("pcd8544: invalid bias command 0x%02X", s.BiasMode)
	}

	required := []struct {
		name string
		pin  Pin
	}{
		{"DC", s.DC},
		{"SDIN", s.SDIN},
		{"SCLK", s.SCLK},
	}
	for _, r := range required {
		if !r.pin.Valid() {
			return fmt.Errorf("pcd8544: %s pin is required", r.name)
		}
	}

	seen := map[Pin]bool{}
	for _, p := range []Pin{s.RST, s.SCE, s.DC, s.SDIN, s.SCLK} {
		if !p.Valid() {
			continue
		}
		if seen[p] {
			return errors.New("pcd8544: " + p.String() + " assigned twice")
		}
		seen[p] = true
	}
	return nil
}

// Contrast returns the contrast encoded in Vop, limited to MaxContrast.
func (s *Settings) Contrast() uint8 {
	v := s.Vop &^ cmdSetVop
	if v > MaxContrast {
		v = MaxContrast
	}
	return v
}
