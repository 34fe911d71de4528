package x86def

import "errors"

var (
	ErrFieldCount           = errors.New("wrong number of fields")
	ErrInvalidOperand       = errors.New("invalid operand")
	ErrInvalidOpcode        = errors.New("invalid opcode")
	ErrUnknownAttribute     = errors.New("unknown attribute")
	ErrFormatNotImplemented = errors.New("operand format not implemented")
)
