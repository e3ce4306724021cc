package pool

import "sync"

// Queue is the shared work queue of pending station keys.
//
// Claims are non-blocking: Take either removes one key or reports empty,
// so workers never wait on each other outside the final barrier. Keys come
// off the tail (LIFO); consumption order only affects scheduling, never
// output values. Queue is safe for concurrent use.
type Queue struct {
	mu   sync.Mutex
	keys []string
}

// NewQueue creates a queue preloaded with the given keys.
func NewQueue(keys []string) *Queue {
	q := &Queue{keys: make([]string, len(keys))}
	copy(q.keys, keys)
	return q
}

// Take removes and returns one key. ok is false when the queue is empty,
// which is the worker exit signal. Each key is claimed exactly once.
func (q *Queue) Take() (key string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.keys)
	if n == 0 {
		return "", false
	}

	key = q.keys[n-1]
	q.keys[n-1] = ""
	q.keys = q.keys[:n-1]
	return key, true
}

// Size returns the number of pending keys, for observability.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.keys)
}
