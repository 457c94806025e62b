package unit

import (
	"io"

	"go.uber.org/multierr"

	"github.com/wippyai/artifact-runtime/arena"
	"github.com/wippyai/artifact-runtime/errors"
)

type nativeHandle struct {
	closer io.Closer
	family string
	owner  string
}

// Natives is a process-wide registry of native handles (driver connections,
// broker clients) that outlive the symbols that opened them. Handles are
// released per family and owner when a unit that touched the family is
// disposed.
//
// Natives is safe for concurrent use.
type Natives struct {
	table *arena.Table[nativeHandle]
}

// NewNatives creates an empty registry.
func NewNatives() *Natives {
	return &Natives{table: arena.NewTable[nativeHandle]()}
}

// Register records c as held by owner in family.
func (n *Natives) Register(family, owner string, c io.Closer) arena.Handle {
	return n.table.Insert(0, nativeHandle{closer: c, family: family, owner: owner})
}

// Release closes and forgets every handle owner holds in family.
func (n *Natives) Release(family, owner string) error {
	var handles []arena.Handle
	n.table.Each(func(h arena.Handle, _ uint32, nh nativeHandle) bool {
		if nh.family == family && nh.owner == owner {
			handles = append(handles, h)
		}
		return true
	})

	var err error
	for _, h := range handles {
		nh, ok := n.table.Remove(h)
		if !ok {
			continue
		}
		if cerr := nh.closer.Close(); cerr != nil {
			err = multierr.Append(err, errors.Wrap(errors.PhaseDispose, errors.KindResourceLeak, cerr,
				"close "+family+" handle of "+owner))
		}
	}
	return err
}

// Len returns the number of live handles.
func (n *Natives) Len() int {
	return n.table.Len()
}

// Owned returns how many handles owner holds in family.
func (n *Natives) Owned(family, owner string) int {
	count := 0
	n.table.Each(func(_ arena.Handle, _ uint32, nh nativeHandle) bool {
		if nh.family == family && nh.owner == owner {
			count++
		}
		return true
	})
	return count
}

// RegisterNative records c as a native handle of family held by u's owner and
// marks the family touched.
func (u *Unit) RegisterNative(family string, c io.Closer) arena.Handle {
	if u.natives == nil {
		return 0
	}
	u.touch(family)
	return u.natives.Register(family, u.owner, c)
}
