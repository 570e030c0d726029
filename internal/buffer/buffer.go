// Package buffer implements the write buffer: a capacity-bounded
// holding area for recently inserted vectors that have not yet been
// folded into the proximity graph. It amortizes the cost of graph
// insertion by batching many small inserts into one flush.
//
// Grounded on the cache-then-flush shape of the proximity graph's
// original LSM-style collection (mutex-guarded slice/map, WAL-backed
// insert, synchronous recovery), trimmed to what spec.md's write
// buffer actually needs: an ordered, brute-force-searchable holding
// area with no persistence concerns of its own (those belong to
// internal/persist).
package buffer

import "github.com/vectune/vectune/internal/distance"

// Entry is one buffered (NodeId, vector, metadata) triple.
type Entry struct {
	ID       uint64
	Vector   []float32
	Metadata map[string]string
}

// Buffer holds entries until a flush drains it, or a delete on a
// still-buffered id removes it early. Callers coordinate mutation
// under their own lock; Buffer itself does no locking, matching
// spec.md §5's note that the coordinator-level lock protects it.
// Remove mutates existing slots in place (swap-removal), so it is not
// append-only; Snapshot copies for that reason rather than handing out
// entries by reference.
type Buffer struct {
	capacity int
	entries  []Entry
	index    map[uint64]int // NodeId -> position in entries
}

// New creates an empty buffer with the given capacity.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{capacity: capacity, index: make(map[uint64]int)}
}

// Len reports the number of live entries currently buffered.
func (b *Buffer) Len() int { return len(b.entries) }

// Capacity reports the configured bound B.
func (b *Buffer) Capacity() int { return b.capacity }

// Full reports whether the buffer has reached capacity; the
// coordinator checks it before each Push and flushes first when it
// returns true.
func (b *Buffer) Full() bool { return len(b.entries) >= b.capacity }

// Push appends a new entry. It reports whether the buffer is now at
// or past capacity; callers that want to keep the buffer from ever
// exceeding capacity should check Full before calling Push instead.
func (b *Buffer) Push(id uint64, vector []float32, metadata map[string]string) bool {
	b.index[id] = len(b.entries)
	b.entries = append(b.entries, Entry{ID: id, Vector: vector, Metadata: metadata})
	return b.Full()
}

// Contains reports whether id is currently buffered.
func (b *Buffer) Contains(id uint64) bool {
	_, ok := b.index[id]
	return ok
}

// Get returns the buffered entry for id, if present.
func (b *Buffer) Get(id uint64) (Entry, bool) {
	i, ok := b.index[id]
	if !ok {
		return Entry{}, false
	}
	return b.entries[i], true
}

// Remove drops id from the buffer before it has been flushed (used
// when delete() targets a still-buffered NodeId). Reports whether id
// was present.
func (b *Buffer) Remove(id uint64) bool {
	i, ok := b.index[id]
	if !ok {
		return false
	}
	last := len(b.entries) - 1
	b.entries[i] = b.entries[last]
	b.index[b.entries[i].ID] = i
	b.entries = b.entries[:last]
	delete(b.index, id)
	return true
}

// Snapshot returns a copy of the current entries, safe to scan after
// the caller's lock is released. A by-reference slice would not be:
// Remove does an in-place swap-removal, which mutates existing
// backing-array slots rather than only appending, so a slice handed
// out before a Remove could be silently altered underneath a reader
// mid-scan. Copying trades one allocation per search for that
// guarantee holding regardless of how long a caller keeps the result
// around or how Buffer's own mutation methods evolve.
func (b *Buffer) Snapshot() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Drain returns all entries and empties the buffer, for a flush.
func (b *Buffer) Drain() []Entry {
	out := b.entries
	b.entries = nil
	b.index = make(map[uint64]int)
	return out
}

// Search performs brute-force nearest-neighbor search over the
// buffer's current contents using the given kernel.
func Search(entries []Entry, query []float32, k int, kernel distance.F32Func) []distance.Candidate {
	if k <= 0 || len(entries) == 0 {
		return nil
	}
	results := distance.NewMaxHeap(k)
	for _, e := range entries {
		d := kernel(query, e.Vector)
		c := distance.Candidate{ID: e.ID, Distance: d}
		if results.Len() < k {
			results.PushCandidate(c)
			continue
		}
		if worst, ok := results.Top(); ok && d < worst.Distance {
			results.PopCandidate()
			results.PushCandidate(c)
		}
	}
	return results.Sorted()
}

// ByteSize reports an approximate byte footprint of the buffer's
// current entries, for the memory accountant.
func (b *Buffer) ByteSize() uint64 {
	var total uint64
	for _, e := range b.entries {
		total += uint64(len(e.Vector) * 4)
		for k, v := range e.Metadata {
			total += uint64(len(k) + len(v))
		}
		total += 16 // per-entry bookkeeping overhead (id, slice headers)
	}
	return total
}
