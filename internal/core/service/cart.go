package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"golang.org/x/sync/singleflight"
)

var _ port.ChangeListener = (*CartSynchronizer)(nil)

// A CartSynchronizer owns the shopper's cart line items and keeps them in
// step with the commerce API.
//
// Quantity changes are optimistic: they are visible before the request is
// sent and rolled back when it fails. Adds and removes are applied only after
// the server confirmed them. Requests for one line item never overlap.
type CartSynchronizer struct {
	api      port.CartAPI
	session  port.SessionReader
	notifier port.ChangeNotifier
	messages port.Notifier

	serial *keyedSerializer
	loads  singleflight.Group

	mu        sync.Mutex
	items     []domain.CartLineItem
	confirmed map[int64]int
	intents   intents
	version   uint64
}

func NewCartSynchronizer(
	api port.CartAPI,
	session port.SessionReader,
	notifier port.ChangeNotifier,
	messages port.Notifier,
) *CartSynchronizer {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if messages == nil {
		messages = nopMessages{}
	}
	return &CartSynchronizer{
		api:       api,
		session:   session,
		notifier:  notifier,
		messages:  messages,
		serial:    newKeyedSerializer(),
		confirmed: make(map[int64]int),
		intents:   newIntents(),
	}
}

// Load replaces the local cart with the server's. Any failure leaves the
// cart empty.
func (c *CartSynchronizer) Load(ctx context.Context) error {
	const op = "CartSynchronizer.Load"

	cred, ok := c.session.Credential()
	if !ok {
		return fmt.Errorf("%s: %w", op, domain.ErrNotAuthenticated)
	}

	_, err, _ := c.loads.Do(cred.Token, func() (any, error) {
		items, err := c.api.GetCart(ctx, cred.Token)
		if err != nil {
			c.clear()
			if credentialRejected(err) {
				return nil, settleFailure(c.session, c.messages, op, "", err)
			}
			c.messages.Error("Failed to fetch cart data.", err)
			slog.Error("failed to fetch cart", "op", op, "err", err)
			return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrFetchFailed, err)
		}
		c.replace(items)
		c.notify(domain.ChangeEvent{Kind: domain.CartLoaded})
		return nil, nil
	})
	return err
}

// AddItem asks the server to add quantity units of product and applies the
// returned line item.
func (c *CartSynchronizer) AddItem(
	ctx context.Context, product domain.Product, quantity int,
) (domain.CartLineItem, error) {
	const op = "CartSynchronizer.AddItem"

	if quantity < 1 {
		quantity = 1
	}

	cred, ok := c.session.Credential()
	if !ok {
		c.messages.Info("Please log in to add items to your cart.")
		return domain.CartLineItem{}, fmt.Errorf("%s: %w", op, domain.ErrNotAuthenticated)
	}

	c.mu.Lock()
	inCart := 0
	for _, li := range c.items {
		if li.Product.ID == product.ID {
			inCart = li.Quantity
			break
		}
	}
	c.mu.Unlock()

	if inCart+quantity > product.Stock {
		err := &domain.StockError{
			ProductID: product.ID, Requested: inCart + quantity, Stock: product.Stock,
		}
		c.messages.Warn(err.Error())
		return domain.CartLineItem{}, fmt.Errorf("%s: %w", op, err)
	}

	li, err := c.api.AddCartItem(ctx, cred.Token, product.ID, quantity)
	if err != nil {
		return domain.CartLineItem{}, settleFailure(
			c.session, c.messages, op, "Error adding item to cart.", err,
		)
	}

	c.mu.Lock()
	if i := c.index(li.ID); i >= 0 {
		c.items[i] = li
	} else {
		c.items = append(c.items, li)
	}
	c.confirmed[li.ID] = li.Quantity
	c.version++
	c.mu.Unlock()

	c.notify(domain.ChangeEvent{
		Kind:       domain.CartItemAdded,
		LineItemID: li.ID,
		ProductID:  li.Product.ID,
		Quantity:   li.Quantity,
	})
	c.messages.Info(fmt.Sprintf("%s added to cart!", product.Name))
	return li, nil
}

// SetQuantity changes the quantity of a line item optimistically.
//
// Quantities below 1 are ignored. A quantity above the product stock is
// rejected without a request. When a newer SetQuantity for the same line
// item arrives before this one was sent, this one is dropped and the newer
// one decides the outcome.
func (c *CartSynchronizer) SetQuantity(
	ctx context.Context, lineItemID int64, quantity int,
) error {
	const op = "CartSynchronizer.SetQuantity"

	if quantity < 1 {
		return nil
	}

	cred, ok := c.session.Credential()
	if !ok {
		return fmt.Errorf("%s: %w", op, domain.ErrNotAuthenticated)
	}

	c.mu.Lock()
	i := c.index(lineItemID)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%s: line item %d: %w", op, lineItemID, domain.ErrNotFound)
	}
	li := c.items[i]
	if !li.WithinStock(quantity) {
		c.mu.Unlock()
		err := &domain.StockError{
			ProductID: li.Product.ID, Requested: quantity, Stock: li.Product.Stock,
		}
		c.messages.Warn(err.Error())
		return fmt.Errorf("%s: %w", op, err)
	}
	snapshot := domain.NewCartSnapshot(c.items)
	c.items[i].Quantity = quantity
	c.version++
	applied := c.version
	gen := c.intents.begin(lineItemID)
	c.mu.Unlock()

	c.notify(domain.ChangeEvent{
		Kind:       domain.CartQuantityChanged,
		LineItemID: lineItemID,
		ProductID:  li.Product.ID,
		Quantity:   quantity,
	})

	var (
		echoed domain.CartLineItem
		sent   bool
	)
	err := c.serial.Do(ctx, lineItemID, func() error {
		if !c.isCurrent(lineItemID, gen) {
			return nil
		}
		sent = true
		var err error
		echoed, err = c.api.UpdateCartItem(ctx, cred.Token, lineItemID, quantity)
		return err
	})
	if err == nil {
		if sent {
			c.reconcile(lineItemID, gen, quantity, echoed)
		}
		return nil
	}

	msg := fmt.Sprintf("Error updating quantity: %s.", userMessage(err))
	if c.rollback(lineItemID, gen, snapshot, applied) {
		msg += " Reverting changes."
	}
	return settleFailure(c.session, c.messages, op, msg, err)
}

// RemoveItem deletes a line item after confirm approved it. Nothing is
// removed locally unless the server confirmed the delete. A nil confirm
// counts as a refusal.
func (c *CartSynchronizer) RemoveItem(
	ctx context.Context, lineItemID int64, confirm port.ConfirmFunc,
) error {
	const op = "CartSynchronizer.RemoveItem"

	cred, ok := c.session.Credential()
	if !ok {
		return fmt.Errorf("%s: %w", op, domain.ErrNotAuthenticated)
	}

	li, ok := c.find(lineItemID)
	if !ok {
		return fmt.Errorf("%s: line item %d: %w", op, lineItemID, domain.ErrNotFound)
	}

	prompt := fmt.Sprintf("Remove %s from cart?", li.Product.Name)
	if confirm == nil || !confirm(prompt) {
		return nil
	}

	err := c.serial.Do(ctx, lineItemID, func() error {
		return c.api.RemoveCartItem(ctx, cred.Token, lineItemID)
	})
	if err != nil {
		return settleFailure(
			c.session, c.messages, op, "Error removing item from cart.", err,
		)
	}

	c.mu.Lock()
	if i := c.index(lineItemID); i >= 0 {
		c.items = slices.Delete(c.items, i, i+1)
	}
	delete(c.confirmed, lineItemID)
	c.intents.forget(lineItemID)
	c.version++
	c.mu.Unlock()

	c.notify(domain.ChangeEvent{
		Kind:       domain.CartItemRemoved,
		LineItemID: lineItemID,
		ProductID:  li.Product.ID,
	})
	return nil
}

// Items returns a copy of the current line items.
func (c *CartSynchronizer) Items() []domain.CartLineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Count is the number of units in the cart.
func (c *CartSynchronizer) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, li := range c.items {
		n += li.Quantity
	}
	return n
}

func (c *CartSynchronizer) Totals() domain.Totals {
	return ComputeTotals(c.Items())
}

func (c *CartSynchronizer) OnChange(evt domain.ChangeEvent) {
	if evt.Kind == domain.SessionEnded {
		c.clear()
	}
}

func (c *CartSynchronizer) find(id int64) (domain.CartLineItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	return domain.CartLineItem{}, false
}

// index must be called with mu held.
func (c *CartSynchronizer) index(id int64) int {
	return slices.IndexFunc(c.items, func(li domain.CartLineItem) bool {
		return li.ID == id
	})
}

func (c *CartSynchronizer) isCurrent(id int64, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intents.current(id, gen)
}

// reconcile records the server-confirmed quantity and adopts the echoed
// value when it differs and no newer intent exists.
func (c *CartSynchronizer) reconcile(
	id int64, gen uint64, sent int, echoed domain.CartLineItem,
) {
	confirmed := sent
	if echoed.ID == id && echoed.Quantity > 0 {
		confirmed = echoed.Quantity
	}

	c.mu.Lock()
	i := c.index(id)
	if i < 0 {
		c.mu.Unlock()
		return
	}
	c.confirmed[id] = confirmed
	adopt := c.intents.current(id, gen) && c.items[i].Quantity != confirmed
	if adopt {
		c.items[i].Quantity = confirmed
		c.version++
	}
	productID := c.items[i].Product.ID
	c.mu.Unlock()

	if adopt {
		c.notify(domain.ChangeEvent{
			Kind:       domain.CartQuantityChanged,
			LineItemID: id,
			ProductID:  productID,
			Quantity:   confirmed,
		})
	}
}

// rollback undoes a failed quantity change unless a newer intent for the
// same line item has taken over. The snapshot is restored verbatim when the
// cart was not touched after the change was applied.
// rollback reports whether the failed intent was still the newest one and
// local state was restored.
func (c *CartSynchronizer) rollback(
	id int64, gen uint64, snapshot domain.CartSnapshot, applied uint64,
) bool {
	c.mu.Lock()
	if !c.intents.current(id, gen) {
		c.mu.Unlock()
		return false
	}
	c.intents.forget(id)

	if c.version == applied {
		c.items = snapshot.Items()
	}
	i := c.index(id)
	if i < 0 {
		c.version++
		c.mu.Unlock()
		return true
	}
	if q, ok := c.confirmed[id]; ok {
		c.items[i].Quantity = q
	} else if prev, ok := snapshot.Find(id); ok {
		c.items[i].Quantity = prev.Quantity
	}
	c.version++
	li := c.items[i]
	c.mu.Unlock()

	c.notify(domain.ChangeEvent{
		Kind:       domain.CartQuantityChanged,
		LineItemID: id,
		ProductID:  li.Product.ID,
		Quantity:   li.Quantity,
		Rollback:   true,
	})
	return true
}

func (c *CartSynchronizer) replace(items []domain.CartLineItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = slices.Clone(items)
	clear(c.confirmed)
	for _, li := range items {
		c.confirmed[li.ID] = li.Quantity
	}
	c.version++
}

func (c *CartSynchronizer) clear() {
	c.mu.Lock()
	had := len(c.items) > 0
	c.items = nil
	clear(c.confirmed)
	c.intents.reset()
	c.version++
	c.mu.Unlock()

	if had {
		c.notify(domain.ChangeEvent{Kind: domain.CartCleared})
	}
}

func (c *CartSynchronizer) notify(evt domain.ChangeEvent) {
	if cred, ok := c.session.Credential(); ok {
		evt.Role = cred.Role
	}
	evt.At = time.Now()
	c.notifier.Notify(evt)
}
