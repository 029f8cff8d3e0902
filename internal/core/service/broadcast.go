package service

import (
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.ChangeNotifier = (*Broadcaster)(nil)

// A Broadcaster delivers change events to its subscribers synchronously, in
// subscription order.
type Broadcaster struct {
	mu        sync.RWMutex
	nextID    int
	listeners []subscription
}

type subscription struct {
	id int
	l  port.ChangeListener
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers l and returns the function that removes it.
func (b *Broadcaster) Subscribe(l port.ChangeListener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, subscription{id, l})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Broadcaster) Notify(evt domain.ChangeEvent) {
	b.mu.RLock()
	ls := make([]port.ChangeListener, len(b.listeners))
	for i, s := range b.listeners {
		ls[i] = s.l
	}
	b.mu.RUnlock()

	for _, l := range ls {
		l.OnChange(evt)
	}
}

func (b *Broadcaster) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.listeners {
		if s.id == id {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			return
		}
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(domain.ChangeEvent) {}

type nopMessages struct{}

func (nopMessages) Info(string)         {}
func (nopMessages) Warn(string)         {}
func (nopMessages) Error(string, error) {}
