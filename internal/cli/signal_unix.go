//go:build linux || darwin

package cli

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func signalNum(name string) syscall.Signal {
	return unix.SignalNum(name)
}

func signalName(sig syscall.Signal) string {
	if name := unix.SignalName(sig); name != "" {
		return name
	}
	return sig.String()
}
