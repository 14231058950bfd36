//go:build !linux

package i2c

import (
	"fmt"
	"runtime"
)

// DevBus is only backed by hardware on linux.
type DevBus struct{}

func NewBus(dev string) (bus *DevBus, err error) {
	return nil, fmt.Errorf("i2c-dev is not available on %s (wanted %s)", runtime.GOOS, dev)
}

func (b *DevBus) Write(addr uint16, buf []byte) error {
	return ERR_BUS_CLOSED
}

func (b *DevBus) Close() error {
	return nil
}
