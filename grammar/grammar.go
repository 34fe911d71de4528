// Package grammar renders concrete instruction variants as ragel
// state-machine fragments for the decoder and validator.
package grammar

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicatePrefix = errors.New("duplicate legacy prefix")
	ErrSourceMismatch  = errors.New("operand sources do not match operand signature")
)

// Mode selects which consumer the grammar is generated for.
type Mode uint8

const (
	Decoder Mode = iota
	Validator
)

func (m Mode) String() string {
	switch m {
	case Decoder:
		return "decoder"
	case Validator:
		return "validator"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Set implements pflag.Value.
func (m *Mode) Set(s string) error {
	switch s {
	case "decoder":
		*m = Decoder
	case "validator":
		*m = Validator
	default:
		return fmt.Errorf("invalid mode %q: must be decoder or validator", s)
	}
	return nil
}

// Type implements pflag.Value.
func (m *Mode) Type() string {
	return "decoder|validator"
}

// UnmarshalText lets modes appear in configuration files.
func (m *Mode) UnmarshalText(text []byte) error {
	return m.Set(string(text))
}

// Bitness is the processor mode the grammar recognizes: 32 or 64.
type Bitness int

func (b Bitness) String() string {
	return fmt.Sprintf("%d", int(b))
}

// Set implements pflag.Value.
func (b *Bitness) Set(s string) error {
	switch s {
	case "32":
		*b = 32
	case "64":
		*b = 64
	default:
		return fmt.Errorf("invalid bitness %q: must be 32 or 64", s)
	}
	return nil
}

// Type implements pflag.Value.
func (b *Bitness) Type() string {
	return "32|64"
}

// UnmarshalText lets bitnesses appear in configuration files.
func (b *Bitness) UnmarshalText(text []byte) error {
	return b.Set(string(text))
}
