//go:build linux

package reactor

import (
	"golang.org/x/sys/unix"
)

// createWakeFd returns an eventfd, used as both the read and write end.
func createWakeFd() (int, int, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return -1, -1, err
	}
	return fd, fd, nil
}
