package arena

import (
	"sync"
)

type slot[T any] struct {
	value T
	tag   uint32
	valid bool
}

// Table is an owning handle table with free-list reuse.
type Table[T any] struct {
	slots     []slot[T]
	freeList  []Handle
	observers []Observer
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

// NewTable creates an empty table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{
		slots:    make([]slot[T], 0, 8),
		freeList: make([]Handle, 0, 4),
	}
}

// Insert adds a value and returns its handle. It returns 0 once the table is closed.
func (t *Table[T]) Insert(tag uint32, value T) Handle {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0
	}

	s := slot[T]{value: value, tag: tag, valid: true}

	var handle Handle
	if len(t.freeList) > 0 {
		handle = t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		t.slots[handle-1] = s
	} else {
		t.slots = append(t.slots, s)
		handle = Handle(len(t.slots))
	}
	t.mu.Unlock()

	t.notify(Event{Type: EventInserted, Handle: handle, Tag: tag, Value: value})
	return handle
}

// Get retrieves a value by handle.
func (t *Table[T]) Get(handle Handle) (T, bool) {
	var zero T
	if handle == 0 {
		return zero, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := int(handle - 1)
	if idx >= len(t.slots) || !t.slots[idx].valid {
		return zero, false
	}
	return t.slots[idx].value, true
}

// Remove takes a value out of the table and returns (value, true) if found.
func (t *Table[T]) Remove(handle Handle) (T, bool) {
	var zero T
	if handle == 0 {
		return zero, false
	}

	t.mu.Lock()
	idx := int(handle - 1)
	if idx >= len(t.slots) || !t.slots[idx].valid {
		t.mu.Unlock()
		return zero, false
	}
	s := t.slots[idx]
	t.slots[idx] = slot[T]{}
	t.freeList = append(t.freeList, handle)
	t.mu.Unlock()

	t.notify(Event{Type: EventRemoved, Handle: handle, Tag: s.tag, Value: s.value})
	return s.value, true
}

// Each iterates over live entries in handle order. Returning false stops iteration.
func (t *Table[T]) Each(fn func(Handle, uint32, T) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i, s := range t.slots {
		if s.valid {
			if !fn(Handle(i+1), s.tag, s.value) {
				break
			}
		}
	}
}

// Len returns the number of live entries.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, s := range t.slots {
		if s.valid {
			count++
		}
	}
	return count
}

// Clear removes every entry.
func (t *Table[T]) Clear() {
	// Collect handles first to avoid holding lock during Remove
	var handles []Handle
	t.Each(func(h Handle, _ uint32, _ T) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		t.Remove(h)
	}
}

// Close removes every entry and stops accepting inserts. Close is idempotent.
func (t *Table[T]) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	t.Clear()

	t.mu.Lock()
	t.closed = true
	t.slots = nil
	t.freeList = nil
	t.mu.Unlock()
	return nil
}

// Subscribe adds an observer for lifecycle events. Observers added later
// are not told about entries already in the table.
func (t *Table[T]) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

func (t *Table[T]) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnArenaEvent(e)
	}
}
