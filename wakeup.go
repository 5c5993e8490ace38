//go:build linux || darwin

package reactor

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// writeWakeFd writes a counter increment of one, which suits both eventfd
// and a pipe. EAGAIN means the descriptor is already readable.
func writeWakeFd(fd int) error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	if _, err := unix.Write(fd, buf[:]); err != nil && err != unix.EAGAIN {
		return err
	}
	return nil
}

func drainWakeFd(fd int, buf []byte) {
	for {
		if n, err := unix.Read(fd, buf); err != nil || n <= 0 {
			break
		}
	}
}

func closeWakeFd(fd, writeFd int) {
	_ = unix.Close(fd)
	if writeFd != fd {
		_ = unix.Close(writeFd)
	}
}
