package output

import (
	"sort"
	"sync"
)

// packetQueue is a mutex-guarded, frame-time-ordered map from frame
// time to a PCM payload. A lock-free ordered structure isn't needed
// here: playback pulls one entry at a time and ingress enqueues one
// packet at a time, so a guarded sorted slice of keys is enough.
type packetQueue struct {
	mu      sync.Mutex
	entries map[uint64][]byte
	keys    []uint64 // kept sorted ascending
}

func newPacketQueue() *packetQueue {
	return &packetQueue{entries: make(map[uint64][]byte)}
}

// Put inserts or overwrites the entry at frameTime.
func (q *packetQueue) Put(frameTime uint64, payload []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.entries[frameTime]; !exists {
		i := sort.Search(len(q.keys), func(i int) bool { return q.keys[i] >= frameTime })
		q.keys = append(q.keys, 0)
		copy(q.keys[i+1:], q.keys[i:])
		q.keys[i] = frameTime
	}
	q.entries[frameTime] = payload
}

// Min returns the lowest frame time currently queued and its payload.
func (q *packetQueue) Min() (frameTime uint64, payload []byte, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.keys) == 0 {
		return 0, nil, false
	}
	frameTime = q.keys[0]
	return frameTime, q.entries[frameTime], true
}

// Remove deletes the entry at frameTime, if present.
func (q *packetQueue) Remove(frameTime uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.entries[frameTime]; !exists {
		return
	}
	delete(q.entries, frameTime)

	i := sort.Search(len(q.keys), func(i int) bool { return q.keys[i] >= frameTime })
	if i < len(q.keys) && q.keys[i] == frameTime {
		q.keys = append(q.keys[:i], q.keys[i+1:]...)
	}
}

// Empty reports whether the queue has no entries.
func (q *packetQueue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.keys) == 0
}

// Clear removes all entries.
func (q *packetQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = make(map[uint64][]byte)
	q.keys = nil
}

// Len reports the number of queued entries, for diagnostics.
func (q *packetQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.keys)
}
