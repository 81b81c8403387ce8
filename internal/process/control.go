package process

import "errors"

var (
	// ErrNotFound means the pid no longer exists.
	ErrNotFound = errors.New("process not found")
	// ErrPermission means the OS refused access to the process.
	ErrPermission = errors.New("permission denied")
)

// Handle is an open reference to one live process.
type Handle interface {
	Name() string
	// Terminate asks the process to exit.
	Terminate() error
	// IsRunning reports whether the same process is still alive.
	IsRunning() (bool, error)
}

// Controller opens processes and reports the privilege level of the caller.
type Controller interface {
	Elevated() bool
	Open(pid int) (Handle, error)
}

// Killer is one forced-termination mechanism.
type Killer interface {
	Name() string
	Kill(pid int) error
}

// SparingKiller is a Killer that also reaches pids other than the target and
// can be told which of them to leave alone.
type SparingKiller interface {
	Killer
	// KillSparing kills pid like Kill, but never a pid for which spare
	// returns true. It returns the pids it left running.
	KillSparing(pid int, spare func(pid int) bool) (spared []int, err error)
}
