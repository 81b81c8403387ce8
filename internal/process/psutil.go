package process

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
)

// PsutilController talks to the OS through gopsutil.
type PsutilController struct{}

// NewPsutilController returns the OS controller.
func NewPsutilController() *PsutilController {
	return &PsutilController{}
}

// Elevated implements Controller.
func (PsutilController) Elevated() bool {
	return isElevated()
}

// Open implements Controller.
func (PsutilController) Open(pid int) (Handle, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, mapError(pid, err)
	}
	name, err := p.Name()
	if err != nil {
		return nil, mapError(pid, err)
	}
	return &psutilHandle{proc: p, name: name}, nil
}

type psutilHandle struct {
	proc *process.Process
	name string
}

func (h *psutilHandle) Name() string { return h.name }

func (h *psutilHandle) Terminate() error {
	if err := h.proc.Terminate(); err != nil {
		return mapError(int(h.proc.Pid), err)
	}
	return nil
}

func (h *psutilHandle) IsRunning() (bool, error) {
	running, err := h.proc.IsRunning()
	if err != nil {
		if errors.Is(mapError(int(h.proc.Pid), err), ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return running, nil
}

// mapError folds OS errors onto ErrNotFound and ErrPermission.
func mapError(pid int, err error) error {
	switch {
	case errors.Is(err, process.ErrorProcessNotRunning),
		errors.Is(err, os.ErrProcessDone),
		errors.Is(err, syscall.ESRCH):
		return fmt.Errorf("pid %d: %w", pid, ErrNotFound)
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("pid %d: %w: %v", pid, ErrPermission, err)
	default:
		return fmt.Errorf("pid %d: %w", pid, err)
	}
}
