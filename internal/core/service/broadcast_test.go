package service

import (
	"testing"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/stretchr/testify/assert"
)

func TestBroadcaster(t *testing.T) {
	b := NewBroadcaster()

	var order []string
	listener := func(name string) port.ChangeListener {
		return port.ChangeListenerFunc(func(domain.ChangeEvent) {
			order = append(order, name)
		})
	}

	unsubFirst := b.Subscribe(listener("first"))
	b.Subscribe(listener("second"))
	b.Subscribe(listener("third"))

	b.Notify(domain.ChangeEvent{Kind: domain.CartLoaded})
	assert.Equal(t, []string{"first", "second", "third"}, order)

	order = nil
	unsubFirst()
	unsubFirst()
	b.Notify(domain.ChangeEvent{Kind: domain.CartLoaded})
	assert.Equal(t, []string{"second", "third"}, order)
}

func TestBroadcasterReentrantNotify(t *testing.T) {
	b := NewBroadcaster()
	rec := new(eventRecorder)

	b.Subscribe(port.ChangeListenerFunc(func(evt domain.ChangeEvent) {
		if evt.Kind == domain.SessionEnded {
			b.Notify(domain.ChangeEvent{Kind: domain.CartCleared})
		}
	}))
	b.Subscribe(rec)

	b.Notify(domain.ChangeEvent{Kind: domain.SessionEnded})

	assert.Equal(t, []domain.ChangeKind{domain.CartCleared, domain.SessionEnded}, rec.kinds())
}
