//go:build !linux && !darwin

package cli

import (
	"syscall"
)

func signalNum(string) syscall.Signal { return 0 }

func signalName(sig syscall.Signal) string { return sig.String() }
