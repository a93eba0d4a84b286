package scene

import (
	"sync"
	"testing"
)

func TestObject_RefCount(t *testing.T) {
	var object Object

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			object.Register()
		}()
	}
	wg.Wait()

	if object.RefCount() != 20 {
		t.Fatalf("expected 20 shares, got %d", object.RefCount())
	}
	for i := 0; i < 25; i++ {
		object.Release()
	}
	if object.RefCount() != 0 {
		t.Fatalf("release must saturate at zero, got %d", object.RefCount())
	}
}

func TestObject_Modified(t *testing.T) {
	var object Object
	calls := 0
	object.AddObserver(func() { calls++ })

	object.Modified()
	object.Modified()

	if calls != 2 || object.ModifiedCount() != 2 {
		t.Fatalf("expected 2 notifications, got calls=%d count=%d", calls, object.ModifiedCount())
	}
}
