// Package mailbox provides a single-slot, last-writer-wins cell used to hand
// refresh results from background workers to the render loop.
package mailbox

import "sync"

// Slot holds at most one pending value. A new offer overwrites an unread one;
// nothing queues. Offers carry a sequence number and any offer older than the
// newest accepted one is rejected, so a slow refresh cannot clobber a newer
// result that finished first.
type Slot[T any] struct {
	mu      sync.Mutex
	value   T
	full    bool
	lastSeq uint64
}

// Offer stores v unless a value with a higher sequence number was already
// accepted. It reports whether v was stored.
func (s *Slot[T]) Offer(seq uint64, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.lastSeq {
		return false
	}
	s.lastSeq = seq
	s.value = v
	s.full = true
	return true
}

// Take removes and returns the pending value, if any.
func (s *Slot[T]) Take() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if !s.full {
		return zero, false
	}
	v := s.value
	s.value = zero
	s.full = false
	return v, true
}

// Pending reports whether a value is waiting.
func (s *Slot[T]) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.full
}
