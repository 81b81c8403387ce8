//go:build !windows

package process

import "golang.org/x/sys/unix"

func isElevated() bool {
	return unix.Geteuid() == 0
}
