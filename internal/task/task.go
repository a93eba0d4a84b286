// Units of background work executed by the scheduler's worker goroutines
package task

import (
	"context"

	"github.com/google/uuid"
)

// Worker category a task must be executed by
type Type int

const (
	Processing Type = iota
	Networking
)

func (t Type) String() (name string) {
	switch t {
	case Processing:
		name = "Processing"
	case Networking:
		name = "Networking"
	default:
		name = "Unknown"
	}
	return
}

// Executed exactly once by a worker of the matching category.
// The context is cancelled when the scheduler shuts down; tasks may ignore it.
type Task interface {
	Type() Type
	Execute(ctx context.Context)
}

// Function backed task
type Func struct {
	ID   uuid.UUID
	Name string
	kind Type
	fn   func(ctx context.Context)
}

func New(kind Type, name string, fn func(ctx context.Context)) (new *Func) {
	new = &Func{
		ID:   uuid.New(),
		Name: name,
		kind: kind,
		fn:   fn,
	}
	return
}

func (f *Func) Type() Type { return f.kind }

func (f *Func) Execute(ctx context.Context) {
	if f.fn != nil {
		f.fn(ctx)
	}
}

func (f *Func) String() string {
	return f.kind.String() + "/" + f.Name + "/" + f.ID.String()
}
