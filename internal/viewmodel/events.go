package viewmodel

import "slices"

// Event is a typed observer list. Subscribe returns the matching unsubscribe
// function; handlers run synchronously in subscription order.
type Event[T any] struct {
	nextID   int
	handlers []handler[T]
}

type handler[T any] struct {
	id int
	fn func(T)
}

func (e *Event[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	e.nextID++
	id := e.nextID
	e.handlers = append(e.handlers, handler[T]{id: id, fn: fn})
	return func() {
		e.handlers = slices.DeleteFunc(e.handlers, func(h handler[T]) bool { return h.id == id })
	}
}

func (e *Event[T]) Emit(v T) {
	// handlers may unsubscribe while running
	for _, h := range slices.Clone(e.handlers) {
		h.fn(v)
	}
}

// Len reports the number of live subscriptions.
func (e *Event[T]) Len() int { return len(e.handlers) }
