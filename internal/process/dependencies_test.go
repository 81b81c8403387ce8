package process

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeTerminationOrder(t *testing.T) {
	dt := BuildDependencyTree(map[int]int{
		1:  0,
		10: 1,
		11: 10,
		12: 10,
		13: 11,
		20: 1,
	})

	assert.Equal(t, []int{11, 12, 13}, dt.AllDescendants(10))
	order := dt.SafeTerminationOrder(10)
	assert.Equal(t, 10, order[len(order)-1])
	assert.Equal(t, []int{13, 11, 12, 10}, order)
	assert.Equal(t, 10, dt.ParentOf(11))
	assert.Equal(t, []int{10, 20}, dt.ChildrenOf(1))
}

func TestTreeKillerKillsChildrenFirst(t *testing.T) {
	var killed []int
	k := &TreeKiller{
		Parents: func() (map[int]int, error) { return map[int]int{10: 1, 11: 10, 12: 11}, nil },
		KillPID: func(pid int) error {
			killed = append(killed, pid)
			if pid == 12 {
				return errors.New("already exiting")
			}
			return nil
		},
	}

	assert.NoError(t, k.Kill(10))
	assert.Equal(t, []int{12, 11, 10}, killed)
}

func TestTreeKillerSparesProtectedDescendants(t *testing.T) {
	var killed []int
	k := &TreeKiller{
		Parents: func() (map[int]int, error) {
			return map[int]int{10: 1, 11: 10, 12: 10, 13: 11}, nil
		},
		KillPID: func(pid int) error { killed = append(killed, pid); return nil },
	}

	spared, err := k.KillSparing(10, func(pid int) bool { return pid == 11 })
	assert.NoError(t, err)
	assert.Equal(t, []int{11}, spared)
	assert.Equal(t, []int{12, 10}, killed, "the spared pid and its subtree stay up")
}

func TestTreeKillerWithoutProcessList(t *testing.T) {
	var killed []int
	k := &TreeKiller{
		Parents: func() (map[int]int, error) { return nil, errors.New("denied") },
		KillPID: func(pid int) error { killed = append(killed, pid); return nil },
	}
	assert.NoError(t, k.Kill(10))
	assert.Equal(t, []int{10}, killed)
}

func TestCommandKillerClassifiesOutput(t *testing.T) {
	k := &CommandKiller{
		name: "kill",
		argv: func(pid int) []string { return []string{"kill", "-9", "5"} },
		run: func(_ context.Context, _ []string) ([]byte, error) {
			return []byte("kill: (5) - No such process"), errors.New("exit status 1")
		},
	}
	assert.ErrorIs(t, k.Kill(5), ErrNotFound)

	k.run = func(_ context.Context, _ []string) ([]byte, error) {
		return []byte("ERROR: Access is denied."), errors.New("exit status 1")
	}
	assert.ErrorIs(t, k.Kill(5), ErrPermission)

	k.run = func(_ context.Context, argv []string) ([]byte, error) { return nil, nil }
	assert.NoError(t, k.Kill(5))
}
