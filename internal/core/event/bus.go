package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Events emitted during tick N are
// delivered when the loop calls SwapBuffers and DispatchAll at the start of
// tick N+1. Emit is not synchronized; callers hold the world lock.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    map[reflect.Type][]any
	back     map[reflect.Type][]any
	handlers map[reflect.Type][]func(any)
	order    []reflect.Type // dispatch order = first subscription order
}

func NewBus() *Bus {
	return &Bus{
		front:    make(map[reflect.Type][]any),
		back:     make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]func(any)),
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Emit queues an event into the back buffer.
func Emit[T any](b *Bus, event T) {
	t := typeOf[T]()
	b.back[t] = append(b.back[t], event)
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := typeOf[T]()
	if _, ok := b.handlers[t]; !ok {
		b.order = append(b.order, t)
	}
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// SwapBuffers rotates back→front and clears the new back buffer.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front
	for k := range b.back {
		b.back[k] = b.back[k][:0]
	}
}

// DispatchAll delivers front-buffer events. Event types go out in the order
// they were first subscribed; events of one type keep emission order.
func (b *Bus) DispatchAll() {
	b.mu.Lock()
	order := append([]reflect.Type(nil), b.order...)
	b.mu.Unlock()

	for _, t := range order {
		events := b.front[t]
		if len(events) == 0 {
			continue
		}
		for _, ev := range events {
			for _, h := range b.handlers[t] {
				h(ev)
			}
		}
	}
}

// Pending counts events waiting in the back buffer.
func (b *Bus) Pending() int {
	n := 0
	for _, evs := range b.back {
		n += len(evs)
	}
	return n
}
