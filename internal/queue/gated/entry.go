// Gated FIFO queues shared between producers on any goroutine and a single class of consumer
package gated

import "slicerlogic/internal/atomics"

func New[T any](namespace []string) (new *Queue[T]) {
	new = &Queue[T]{
		Namespace: append([]string(nil), namespace...),
		items:     make([]T, 0),
		Metrics:   &MetricStorage{},
	}
	return
}

func (queue *Queue[T]) SetActive(active bool) {
	queue.activeMu.Lock()
	queue.active = active
	queue.activeMu.Unlock()
}

func (queue *Queue[T]) Active() (active bool) {
	queue.activeMu.Lock()
	active = queue.active
	queue.activeMu.Unlock()
	return
}

// Appends item only while the queue is active.
// The flag is read and released before the content lock is taken, so an item may
// land just after a concurrent deactivation. Consumers tolerate that.
func (queue *Queue[T]) Push(item T) (accepted bool) {
	_, accepted = queue.PushWith(func() T { return item })
	return
}

// Same gating as Push, but the item is built while the content lock is held.
// Values drawn from a shared counter inside build therefore follow queue order.
func (queue *Queue[T]) PushWith(build func() T) (item T, accepted bool) {
	if !queue.Active() {
		queue.Metrics.PushRejected.Add(1)
		return
	}

	queue.mu.Lock()
	item = build()
	queue.items = append(queue.items, item)
	depth := uint64(len(queue.items))
	queue.mu.Unlock()

	queue.Metrics.Depth.Store(depth)
	atomics.StoreMax(&queue.Metrics.MaxDepth, depth)
	queue.Metrics.PushAccepted.Add(1)
	accepted = true
	return
}

// Removes and returns the front item
func (queue *Queue[T]) Pop() (item T, ok bool) {
	queue.mu.Lock()
	defer queue.mu.Unlock()

	item, ok = queue.popLocked()
	return
}

// Pops the front item only when match accepts it. Items behind a rejected front are never examined.
func (queue *Queue[T]) PopFrontIf(match func(T) bool) (item T, ok bool) {
	queue.mu.Lock()
	defer queue.mu.Unlock()

	if len(queue.items) == 0 {
		return
	}
	if !match(queue.items[0]) {
		queue.Metrics.FrontMisses.Add(1)
		return
	}
	item, ok = queue.popLocked()
	return
}

// Pops the front item, then keeps popping while the new front matches it.
// Each collapsed duplicate is handed to discard.
func (queue *Queue[T]) PopCoalesce(same func(a, b T) bool, discard func(T)) (item T, ok bool) {
	queue.mu.Lock()
	item, ok = queue.popLocked()
	var dropped []T
	for ok && len(queue.items) > 0 && same(item, queue.items[0]) {
		dup, _ := queue.popLocked()
		dropped = append(dropped, dup)
	}
	queue.mu.Unlock()

	queue.Metrics.Coalesced.Add(uint64(len(dropped)))
	if discard != nil {
		for _, dup := range dropped {
			discard(dup)
		}
	}
	return
}

func (queue *Queue[T]) Len() (length int) {
	queue.mu.Lock()
	length = len(queue.items)
	queue.mu.Unlock()
	return
}

// Empties the queue, returning everything that was left in FIFO order
func (queue *Queue[T]) Drain() (remaining []T) {
	queue.mu.Lock()
	remaining = queue.items
	queue.items = make([]T, 0)
	queue.mu.Unlock()

	queue.Metrics.Depth.Store(0)
	return
}

// Caller holds mu
func (queue *Queue[T]) popLocked() (item T, ok bool) {
	if len(queue.items) == 0 {
		return
	}

	var zero T
	item = queue.items[0]
	queue.items[0] = zero // release reference held by backing array
	queue.items = queue.items[1:]
	ok = true

	queue.Metrics.Depth.Store(uint64(len(queue.items)))
	queue.Metrics.Pops.Add(1)
	return
}
