package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"golang.org/x/sync/singleflight"
)

var _ port.ChangeListener = (*WishlistSynchronizer)(nil)

// A WishlistSynchronizer owns wishlist membership. Toggles are optimistic and
// revert to the server-confirmed membership when the request fails.
type WishlistSynchronizer struct {
	api      port.WishlistAPI
	session  port.SessionReader
	notifier port.ChangeNotifier
	messages port.Notifier

	serial *keyedSerializer
	loads  singleflight.Group

	mu        sync.Mutex
	local     domain.WishlistSet
	confirmed domain.WishlistSet
	products  map[int64]domain.Product
	order     []int64
	intents   intents
}

func NewWishlistSynchronizer(
	api port.WishlistAPI,
	session port.SessionReader,
	notifier port.ChangeNotifier,
	messages port.Notifier,
) *WishlistSynchronizer {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if messages == nil {
		messages = nopMessages{}
	}
	return &WishlistSynchronizer{
		api:       api,
		session:   session,
		notifier:  notifier,
		messages:  messages,
		serial:    newKeyedSerializer(),
		local:     domain.NewWishlistSet(),
		confirmed: domain.NewWishlistSet(),
		products:  make(map[int64]domain.Product),
		intents:   newIntents(),
	}
}

// Load replaces local membership with the server's and returns it.
func (w *WishlistSynchronizer) Load(ctx context.Context) (domain.WishlistSet, error) {
	const op = "WishlistSynchronizer.Load"

	cred, ok := w.session.Credential()
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrNotAuthenticated)
	}

	v, err, _ := w.loads.Do(cred.Token, func() (any, error) {
		items, err := w.api.GetWishlist(ctx, cred.Token)
		if err != nil {
			w.clear()
			if credentialRejected(err) {
				return nil, settleFailure(w.session, w.messages, op, "", err)
			}
			w.messages.Error("Failed to fetch wishlist.", err)
			slog.Error("failed to fetch wishlist", "op", op, "err", err)
			return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrFetchFailed, err)
		}
		set := w.replace(items)
		w.notify(domain.ChangeEvent{Kind: domain.WishlistLoaded})
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(domain.WishlistSet).Clone(), nil
}

// Toggle flips the membership of product and returns the local membership
// once the request settled, which is the reverted value on failure.
//
// The request sent is whatever brings the server from its last confirmed
// membership to the newest local one, so a burst of toggles settles with at
// most one request per queued turn. An add answered with 409 and a remove
// answered with 404 already match the server and count as success.
func (w *WishlistSynchronizer) Toggle(
	ctx context.Context, product domain.Product,
) (bool, error) {
	const op = "WishlistSynchronizer.Toggle"

	cred, ok := w.session.Credential()
	if !ok {
		w.messages.Info("Please log in to manage your wishlist.")
		return false, fmt.Errorf("%s: %w", op, domain.ErrNotAuthenticated)
	}

	w.mu.Lock()
	member := !w.local.Contains(product.ID)
	w.local.Set(product.ID, member)
	gen := w.intents.begin(product.ID)
	w.mu.Unlock()

	w.notify(domain.ChangeEvent{
		Kind:       domain.WishlistToggled,
		ProductID:  product.ID,
		Wishlisted: member,
	})

	err := w.serial.Do(ctx, product.ID, func() error {
		w.mu.Lock()
		if !w.intents.current(product.ID, gen) {
			w.mu.Unlock()
			return nil
		}
		want := w.local.Contains(product.ID)
		have := w.confirmed.Contains(product.ID)
		w.mu.Unlock()

		if want == have {
			return nil
		}
		if err := w.send(ctx, cred.Token, product.ID, want); err != nil {
			return err
		}
		w.settle(product, want)
		return nil
	})
	if err == nil {
		return member, nil
	}

	w.rollback(product.ID, gen)
	return w.Contains(product.ID), settleFailure(
		w.session, w.messages, op, "Error updating wishlist.", err,
	)
}

func (w *WishlistSynchronizer) Contains(productID int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.local.Contains(productID)
}

// IDs returns the wishlisted product ids in ascending order.
func (w *WishlistSynchronizer) IDs() []int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.local.IDs()
}

// Products returns the known product snapshots of current members in the
// order the server listed them, followed by members added since.
func (w *WishlistSynchronizer) Products() []domain.Product {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]domain.Product, 0, len(w.order))
	for _, id := range w.order {
		if !w.local.Contains(id) {
			continue
		}
		if p, ok := w.products[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (w *WishlistSynchronizer) OnChange(evt domain.ChangeEvent) {
	if evt.Kind == domain.SessionEnded {
		w.clear()
	}
}

func (w *WishlistSynchronizer) send(
	ctx context.Context, token string, productID int64, member bool,
) error {
	if member {
		err := w.api.AddWishlistItem(ctx, token, productID)
		if domain.HasStatus(err, http.StatusConflict) {
			return nil
		}
		return err
	}
	err := w.api.RemoveWishlistItem(ctx, token, productID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

func (w *WishlistSynchronizer) settle(product domain.Product, member bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.confirmed.Set(product.ID, member)
	if member {
		w.remember(product)
	}
}

func (w *WishlistSynchronizer) rollback(productID int64, gen uint64) {
	w.mu.Lock()
	if !w.intents.current(productID, gen) {
		w.mu.Unlock()
		return
	}
	w.intents.forget(productID)
	member := w.confirmed.Contains(productID)
	w.local.Set(productID, member)
	w.mu.Unlock()

	w.notify(domain.ChangeEvent{
		Kind:       domain.WishlistToggled,
		ProductID:  productID,
		Wishlisted: member,
		Rollback:   true,
	})
}

// remember must be called with mu held.
func (w *WishlistSynchronizer) remember(p domain.Product) {
	if _, ok := w.products[p.ID]; !ok {
		w.order = append(w.order, p.ID)
	}
	w.products[p.ID] = p
}

func (w *WishlistSynchronizer) replace(items []port.WishlistItem) domain.WishlistSet {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.local = domain.NewWishlistSet()
	w.products = make(map[int64]domain.Product, len(items))
	w.order = w.order[:0]
	for _, it := range items {
		id := it.Entry.ProductID
		w.local.Set(id, true)
		p := it.Product
		p.ID = id
		w.remember(p)
	}
	w.confirmed = w.local.Clone()
	return w.local.Clone()
}

func (w *WishlistSynchronizer) clear() {
	w.mu.Lock()
	had := len(w.local) > 0 || len(w.confirmed) > 0
	w.local = domain.NewWishlistSet()
	w.confirmed = domain.NewWishlistSet()
	w.products = make(map[int64]domain.Product)
	w.order = nil
	w.intents.reset()
	w.mu.Unlock()

	if had {
		w.notify(domain.ChangeEvent{Kind: domain.WishlistCleared})
	}
}

func (w *WishlistSynchronizer) notify(evt domain.ChangeEvent) {
	if cred, ok := w.session.Credential(); ok {
		evt.Role = cred.Role
	}
	evt.At = time.Now()
	w.notifier.Notify(evt)
}
