package tracker

import (
	"log"
	"sync"

	"trackme/internal/activity"
)

// Buffer holds closed sessions awaiting durable storage. The tracker
// appends at the tail; the sync dispatcher drains with SnapshotMark
// followed by DiscardTo, so entries appended during an in-flight flush
// survive a failed attempt. Removal is tracked against an absolute
// offset: when the cap policy drops head items mid-flush, the discard
// never charges sessions that were not in the snapshot.
type Buffer struct {
	mu    sync.Mutex
	items []activity.Session
	cap   int
	head  uint64 // absolute offset of items[0]
}

func NewBuffer(capacity int) *Buffer {
	return &Buffer{cap: capacity}
}

func (b *Buffer) Append(s activity.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cap > 0 && len(b.items) >= b.cap {
		// Drop-oldest once the retry backlog exceeds the cap; the store
		// has been unreachable for a long time at this point.
		drop := len(b.items) - b.cap + 1
		log.Printf("Warning: session buffer full (%d), dropping %d oldest", b.cap, drop)
		b.items = b.items[drop:]
		b.head += uint64(drop)
	}
	b.items = append(b.items, s)
}

// Snapshot returns a copy of the current contents without removing them.
func (b *Buffer) Snapshot() []activity.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.copyLocked()
}

// SnapshotMark returns the contents together with the absolute offset of
// the first item, to pair with DiscardTo once the batch is durable.
func (b *Buffer) SnapshotMark() ([]activity.Session, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.copyLocked(), b.head
}

func (b *Buffer) copyLocked() []activity.Session {
	out := make([]activity.Session, len(b.items))
	copy(out, b.items)
	return out
}

// DiscardTo removes every item whose absolute offset is below end: at
// most the prefix a prior SnapshotMark returned. Head items the cap
// policy dropped in the meantime already advanced the offset and are not
// removed twice, so items appended since the snapshot stay.
func (b *Buffer) DiscardTo(end uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if end <= b.head {
		return
	}
	n := int(end - b.head)
	if n > len(b.items) {
		n = len(b.items)
	}
	b.items = b.items[n:]
	b.head += uint64(n)
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
