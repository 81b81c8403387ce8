package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

const commandTimeout = 10 * time.Second

// TreeKiller force-kills the descendants of a pid, deepest first, and then the
// pid itself.
type TreeKiller struct {
	// Parents lists every live pid with its parent. Defaults to gopsutil.
	Parents func() (map[int]int, error)
	// KillPID force-kills one pid. Defaults to gopsutil.
	KillPID func(pid int) error
}

// NewTreeKiller returns a gopsutil-backed tree killer.
func NewTreeKiller() *TreeKiller {
	return &TreeKiller{Parents: LiveParents, KillPID: killPID}
}

func (k *TreeKiller) Name() string { return "process-tree" }

// Kill implements Killer.
func (k *TreeKiller) Kill(pid int) error {
	_, err := k.KillSparing(pid, nil)
	return err
}

// KillSparing implements SparingKiller. Only the failure to kill pid itself is
// an error; descendants that vanish or resist are skipped.
func (k *TreeKiller) KillSparing(pid int, spare func(int) bool) ([]int, error) {
	order := []int{pid}
	var spared []int
	if parents, err := k.Parents(); err == nil {
		order, spared = BuildDependencyTree(parents).TerminationOrderSparing(pid, spare)
	}
	for _, p := range order[:len(order)-1] {
		_ = k.KillPID(p)
	}
	return spared, k.KillPID(pid)
}

// LiveParents maps every live pid to its parent pid.
func LiveParents() (map[int]int, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	out := make(map[int]int, len(procs))
	for _, p := range procs {
		ppid, err := p.Ppid()
		if err != nil {
			continue
		}
		out[int(p.Pid)] = int(ppid)
	}
	return out, nil
}

func killPID(pid int) error {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return mapError(pid, err)
	}
	if err := p.Kill(); err != nil {
		return mapError(pid, err)
	}
	return nil
}

// CommandKiller force-kills with an OS tool.
type CommandKiller struct {
	name string
	argv func(pid int) []string
	run  func(ctx context.Context, argv []string) ([]byte, error)
}

// NewCommandKiller returns the platform's kill tool: `taskkill /F /T /PID` on
// Windows, `kill -9` elsewhere.
func NewCommandKiller() *CommandKiller {
	if runtime.GOOS == "windows" {
		return &CommandKiller{
			name: "taskkill",
			argv: func(pid int) []string { return []string{"taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)} },
			run:  runCommand,
		}
	}
	return &CommandKiller{
		name: "kill",
		argv: func(pid int) []string { return []string{"kill", "-9", strconv.Itoa(pid)} },
		run:  runCommand,
	}
}

// NewPowerShellKiller returns a Stop-Process killer, the last resort on
// Windows.
func NewPowerShellKiller() *CommandKiller {
	return &CommandKiller{
		name: "powershell",
		argv: func(pid int) []string {
			return []string{"powershell", "-NoProfile", "-Command", "Stop-Process -Id " + strconv.Itoa(pid) + " -Force"}
		},
		run: runCommand,
	}
}

// DefaultKillers returns the forced-termination chain for this platform.
func DefaultKillers() []Killer {
	killers := []Killer{NewTreeKiller(), NewCommandKiller()}
	if runtime.GOOS == "windows" {
		killers = append(killers, NewPowerShellKiller())
	}
	return killers
}

func (k *CommandKiller) Name() string { return k.name }

// Kill implements Killer.
func (k *CommandKiller) Kill(pid int) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	argv := k.argv(pid)
	out, err := k.run(ctx, argv)
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("%s: %w", argv[0], err)
		}
		return classifyCommandOutput(pid, msg, err)
	}
	return nil
}

func classifyCommandOutput(pid int, msg string, err error) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "no such process"), strings.Contains(lower, "not found"):
		return fmt.Errorf("pid %d: %w: %s", pid, ErrNotFound, msg)
	case strings.Contains(lower, "access is denied"), strings.Contains(lower, "operation not permitted"):
		return fmt.Errorf("pid %d: %w: %s", pid, ErrPermission, msg)
	default:
		return fmt.Errorf("%w: %s", err, msg)
	}
}

func runCommand(ctx context.Context, argv []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return buf.Bytes(), fmt.Errorf("timed out after %s", commandTimeout)
	}
	return buf.Bytes(), err
}
