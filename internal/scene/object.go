package scene

import (
	"slicerlogic/internal/atomics"
	"sync"
	"sync/atomic"
)

// Reference counted, observable base shared by scene nodes and other modifiable payloads
type Object struct {
	refs     atomic.Uint64
	modified atomic.Uint64

	obsMu     sync.Mutex
	observers []func()
}

// Takes one ownership share
func (object *Object) Register() {
	object.refs.Add(1)
}

// Gives back one ownership share. Never drops below zero.
func (object *Object) Release() {
	atomics.Subtract(&object.refs, 1, 32)
}

func (object *Object) RefCount() uint64 {
	return object.refs.Load()
}

// Fires modification observers
func (object *Object) Modified() {
	object.modified.Add(1)

	object.obsMu.Lock()
	observers := append([]func(){}, object.observers...)
	object.obsMu.Unlock()

	for _, observer := range observers {
		observer()
	}
}

// Number of times Modified has been invoked
func (object *Object) ModifiedCount() uint64 {
	return object.modified.Load()
}

func (object *Object) AddObserver(fn func()) {
	object.obsMu.Lock()
	object.observers = append(object.observers, fn)
	object.obsMu.Unlock()
}
