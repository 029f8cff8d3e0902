package service

import (
	"context"
	"sync"
	"sync/atomic"
)

// sequencer provides monotonically increasing generation numbers.
type sequencer struct{ n atomic.Uint64 }

func (s *sequencer) next() uint64 { return s.n.Add(1) }

// intents remembers the newest generation issued per entity id.
//
// Not safe for concurrent use, the owning synchronizer guards it.
type intents struct {
	seq    sequencer
	latest map[int64]uint64
}

func newIntents() intents {
	return intents{latest: make(map[int64]uint64)}
}

func (i *intents) begin(id int64) uint64 {
	g := i.seq.next()
	i.latest[id] = g
	return g
}

func (i *intents) current(id int64, gen uint64) bool {
	return i.latest[id] == gen
}

func (i *intents) forget(id int64) {
	delete(i.latest, id)
}

func (i *intents) reset() {
	clear(i.latest)
}

// keyedSerializer runs at most one function per key at a time. Callers for
// the same key are admitted in arrival order.
type keyedSerializer struct {
	mu    sync.Mutex
	slots map[int64]*slot
}

type slot struct {
	token chan struct{}
	refs  int
}

func newKeyedSerializer() *keyedSerializer {
	return &keyedSerializer{slots: make(map[int64]*slot)}
}

// Do waits for the key to be free and runs fn. It gives up with the context
// error if ctx is done before fn could start.
func (s *keyedSerializer) Do(
	ctx context.Context, key int64, fn func() error,
) error {
	sl := s.acquire(key)
	defer s.release(key)

	select {
	case sl.token <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-sl.token }()

	return fn()
}

// Pending returns the number of callers holding or waiting for key.
func (s *keyedSerializer) Pending(key int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl, ok := s.slots[key]; ok {
		return sl.refs
	}
	return 0
}

func (s *keyedSerializer) acquire(key int64) *slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[key]
	if !ok {
		sl = &slot{token: make(chan struct{}, 1)}
		s.slots[key] = sl
	}
	sl.refs++
	return sl
}

func (s *keyedSerializer) release(key int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl := s.slots[key]
	sl.refs--
	if sl.refs == 0 {
		delete(s.slots, key)
	}
}
