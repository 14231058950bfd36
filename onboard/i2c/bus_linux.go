//go:build linux

package i2c

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// I2C_SLAVE selects the peripheral address for subsequent read/write calls.
const I2C_SLAVE = 0x0703

// DevBus talks to an i2c-dev character device such as /dev/i2c-1.
type DevBus struct {
	fd   int
	lock sync.Mutex
	addr uint16
	open bool
}

func NewBus(dev string) (bus *DevBus, err error) {
	fd, err := unix.Open(dev, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dev, err)
	}

	bus = &DevBus{
		fd:   fd,
		addr: 0xFFFF, // nothing selected yet
		open: true,
	}
	return
}

func (b *DevBus) Write(addr uint16, buf []byte) error {
	if len(buf) > MaxTransfer {
		return ERR_DATA_TOO_LONG
	}

	// Address selection and the write must not interleave with another caller
	b.lock.Lock()
	defer b.lock.Unlock()

	if !b.open {
		return ERR_BUS_CLOSED
	}

	if b.addr != addr {
		if err := unix.IoctlSetInt(b.fd, I2C_SLAVE, int(addr)); err != nil {
			return fmt.Errorf("select 0x%02x: %w", addr, err)
		}
		b.addr = addr
	}

	n, err := unix.Write(b.fd, buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return fmt.Errorf("short write to 0x%02x: %d of %d bytes", addr, n, len(buf))
	}
	return nil
}

func (b *DevBus) Close() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if !b.open {
		return nil
	}
	b.open = false
	return unix.Close(b.fd)
}
