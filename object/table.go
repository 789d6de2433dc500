package object

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("object table closed")

// Table is a reference-counted registry of exported objects. Each entry
// carries a type identifier and a reference count; the boundary exposes
// matching acquire/release entries so both sides of the boundary can keep
// an object alive independently. The destructor runs exactly once, when
// the last reference is released.
type Table struct {
	entries   []entry
	freeList  []Handle
	observers []Observer
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

type entry struct {
	value  any
	typeID uint32
	refs   uint32
	valid  bool
}

// NewTable creates an empty object table.
func NewTable() *Table {
	return &Table{
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Insert stores a value with one reference and returns its handle.
func (t *Table) Insert(typeID uint32, value any) Handle {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0
	}

	e := entry{
		typeID: typeID,
		value:  value,
		refs:   1,
		valid:  true,
	}

	var handle Handle
	if len(t.freeList) > 0 {
		handle = t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		t.entries[handle-1] = e
	} else {
		t.entries = append(t.entries, e)
		handle = Handle(len(t.entries))
	}
	t.mu.Unlock()

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		TypeID: typeID,
		Refs:   1,
		Value:  value,
	})

	return handle
}

// Get retrieves a value by handle without touching its reference count.
func (t *Table) Get(handle Handle) (any, bool) {
	if handle == 0 {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := handle - 1
	if int(idx) >= len(t.entries) {
		return nil, false
	}

	e := t.entries[idx]
	if !e.valid {
		return nil, false
	}
	return e.value, true
}

// GetTyped retrieves a value only if it matches the expected type.
func (t *Table) GetTyped(handle Handle, typeID uint32) (any, bool) {
	if handle == 0 {
		return nil, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := handle - 1
	if int(idx) >= len(t.entries) {
		return nil, false
	}

	e := t.entries[idx]
	if !e.valid || e.typeID != typeID {
		return nil, false
	}
	return e.value, true
}

// Acquire increments the reference count for a handle.
func (t *Table) Acquire(handle Handle) bool {
	if handle == 0 {
		return false
	}

	t.mu.Lock()

	idx := handle - 1
	if int(idx) >= len(t.entries) {
		t.mu.Unlock()
		return false
	}

	e := &t.entries[idx]
	if !e.valid {
		t.mu.Unlock()
		return false
	}
	e.refs++
	ev := Event{
		Type:   EventAcquired,
		Handle: handle,
		TypeID: e.typeID,
		Refs:   e.refs,
		Value:  e.value,
	}
	t.mu.Unlock()

	t.notify(ev)
	return true
}

// Release decrements the reference count for a handle. When the count
// reaches zero the entry is destroyed and, if the value implements
// Dropper, its Drop method runs exactly once.
func (t *Table) Release(handle Handle) bool {
	if handle == 0 {
		return false
	}

	t.mu.Lock()

	idx := handle - 1
	if int(idx) >= len(t.entries) {
		t.mu.Unlock()
		return false
	}

	e := &t.entries[idx]
	if !e.valid {
		t.mu.Unlock()
		return false
	}

	e.refs--
	if e.refs > 0 {
		ev := Event{
			Type:   EventReleased,
			Handle: handle,
			TypeID: e.typeID,
			Refs:   e.refs,
			Value:  e.value,
		}
		t.mu.Unlock()
		t.notify(ev)
		return true
	}

	value := e.value
	typeID := e.typeID
	e.valid = false
	e.value = nil
	e.refs = 0
	t.freeList = append(t.freeList, handle)
	t.mu.Unlock()

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}

	t.notify(Event{
		Type:   EventDestroyed,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})
	return true
}

// Refs returns the current reference count for a handle.
func (t *Table) Refs(handle Handle) (uint32, bool) {
	if handle == 0 {
		return 0, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := handle - 1
	if int(idx) >= len(t.entries) {
		return 0, false
	}

	e := t.entries[idx]
	if !e.valid {
		return 0, false
	}
	return e.refs, true
}

// Len returns the number of live objects.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for i := range t.entries {
		if t.entries[i].valid {
			n++
		}
	}
	return n
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Close destroys all live objects and stops accepting operations.
func (t *Table) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true

	var dropped []any
	for i := range t.entries {
		if t.entries[i].valid {
			dropped = append(dropped, t.entries[i].value)
			t.entries[i].valid = false
			t.entries[i].value = nil
		}
	}
	t.entries = nil
	t.freeList = nil
	t.mu.Unlock()

	for _, v := range dropped {
		if d, ok := v.(Dropper); ok {
			d.Drop()
		}
	}
	return nil
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnObjectEvent(e)
	}
}
