// Package observable provides a value holder that publishes every change to
// its subscribers. Subscribers only ever see the newest value: a slow reader
// never blocks a writer and never queues more than one pending update.
package observable

import "sync"

type Value[T any] struct {
	mu      sync.Mutex
	current T
	subs    map[*subscriber[T]]struct{}
}

type subscriber[T any] struct {
	ch   chan T
	once sync.Once
}

func New[T any](initial T) *Value[T] {
	return &Value[T]{
		current: initial,
		subs:    make(map[*subscriber[T]]struct{}),
	}
}

func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = value
	v.publish()
}

// Update replaces the value with fn(current) atomically and returns the new value.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = fn(v.current)
	v.publish()
	return v.current
}

// Subscribe returns a channel that immediately holds the current value and
// then receives later values. cancel closes the channel; it is safe to call
// more than once.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	s := &subscriber[T]{ch: make(chan T, 1)}

	v.mu.Lock()
	s.ch <- v.current
	v.subs[s] = struct{}{}
	v.mu.Unlock()

	cancel := func() {
		s.once.Do(func() {
			v.mu.Lock()
			delete(v.subs, s)
			v.mu.Unlock()
			close(s.ch)
		})
	}
	return s.ch, cancel
}

// publish must be called with v.mu held.
func (v *Value[T]) publish() {
	for s := range v.subs {
		// drop a stale pending value so the newest one fits
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- v.current:
		default:
		}
	}
}

// Readable is the subscriber side of a Value.
type Readable[T any] interface {
	Get() T
	Subscribe() (<-chan T, func())
}
