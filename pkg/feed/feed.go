// Package feed is an ordered fan-out list of subscribers.
//
// Subscribers are invoked in registration order on the publishing goroutine.
// A feed is not safe for concurrent use; it belongs to the simulation thread
// of whatever component owns it.
package feed

// Feed delivers values of type T to its subscribers.
type Feed[T any] struct {
	subs   []sub[T]
	nextID int
}

type sub[T any] struct {
	id int
	fn func(T)
}

// Subscribe appends fn and returns an id for Unsubscribe. Ids start at 1.
func (f *Feed[T]) Subscribe(fn func(T)) int {
	f.nextID++
	f.subs = append(f.subs, sub[T]{id: f.nextID, fn: fn})
	return f.nextID
}

// Unsubscribe removes the subscriber with id. Unknown ids are ignored.
func (f *Feed[T]) Unsubscribe(id int) {
	for i, s := range f.subs {
		if s.id == id {
			// copy so a Publish iterating the old slice is unaffected
			next := make([]sub[T], 0, len(f.subs)-1)
			next = append(next, f.subs[:i]...)
			f.subs = append(next, f.subs[i+1:]...)
			return
		}
	}
}

// Publish calls every subscriber with v.
func (f *Feed[T]) Publish(v T) {
	for _, s := range f.subs {
		s.fn(v)
	}
}

// Len returns the number of subscribers.
func (f *Feed[T]) Len() int {
	return len(f.subs)
}
