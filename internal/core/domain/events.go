package domain

import "time"

type ChangeKind string

const (
	CartLoaded          ChangeKind = "cart.loaded"
	CartItemAdded       ChangeKind = "cart.item_added"
	CartQuantityChanged ChangeKind = "cart.quantity_changed"
	CartItemRemoved     ChangeKind = "cart.item_removed"
	CartCleared         ChangeKind = "cart.cleared"
	WishlistLoaded      ChangeKind = "wishlist.loaded"
	WishlistToggled     ChangeKind = "wishlist.toggled"
	WishlistCleared     ChangeKind = "wishlist.cleared"
	CatalogRefreshed    ChangeKind = "catalog.refreshed"
	SessionStarted      ChangeKind = "session.started"
	SessionEnded        ChangeKind = "session.ended"
)

// A ChangeEvent tells observers that a component changed the state it owns.
//
// Rollback is set when the change restores state after a failed request.
type ChangeEvent struct {
	Kind       ChangeKind
	Role       Role
	LineItemID int64
	ProductID  int64
	Quantity   int
	Wishlisted bool
	Rollback   bool
	At         time.Time
}
