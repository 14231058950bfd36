package i2c

import (
	"errors"
)

// MaxTransfer bounds a single write, register byte included.
const MaxTransfer = 32

// errors
var (
	ERR_DATA_TOO_LONG = errors.New("data length exceeds 31 bytes")
	ERR_BUS_CLOSED    = errors.New("i2c bus is closed")
)

// Bus is the minimal transport a register-mapped peripheral needs.
type Bus interface {
	// Write sends buf to the device at addr in a single transaction.
	Write(addr uint16, buf []byte) error
	Close() error
}

// RegWrite produces the raw frame for writing data starting at register reg.
func RegWrite(reg byte, data ...byte) (raw []byte, err error) {
	if len(data) > MaxTransfer-1 {
		return nil, ERR_DATA_TOO_LONG
	}

	raw = make([]byte, len(data)+1)
	raw[0] = reg
	copy(raw[1:], data)
	return
}
