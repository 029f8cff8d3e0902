package port

import (
	"context"

	"github.com/niksmo/storefront/internal/core/domain"
)

type (
	ProductsLister interface {
		ListProducts(context.Context, domain.Category) ([]domain.Product, error)
		GetProduct(ctx context.Context, id int64) (domain.Product, error)
	}

	CartAPI interface {
		GetCart(ctx context.Context, token string) ([]domain.CartLineItem, error)
		AddCartItem(
			ctx context.Context, token string, productID int64, quantity int,
		) (domain.CartLineItem, error)
		UpdateCartItem(
			ctx context.Context, token string, lineItemID int64, quantity int,
		) (domain.CartLineItem, error)
		RemoveCartItem(ctx context.Context, token string, lineItemID int64) error
	}

	WishlistAPI interface {
		GetWishlist(ctx context.Context, token string) ([]WishlistItem, error)
		AddWishlistItem(ctx context.Context, token string, productID int64) error
		RemoveWishlistItem(ctx context.Context, token string, productID int64) error
	}

	AuthAPI interface {
		Login(
			ctx context.Context, role domain.Role, email, password string,
		) (domain.Credential, error)
		Register(ctx context.Context, email, password string) error
		Logout(context.Context) error
	}
)

// CommerceAPI is the whole remote surface the synchronizers consume.
type CommerceAPI interface {
	ProductsLister
	CartAPI
	WishlistAPI
	AuthAPI
}

// A WishlistItem is a membership entry with the product snapshot the server
// embeds into it.
type WishlistItem struct {
	Entry   domain.WishlistEntry
	Product domain.Product
}

// CredentialStore persists the session credential across restarts.
type CredentialStore interface {
	LoadCredential() (domain.Credential, bool, error)
	SaveCredential(domain.Credential) error
	ClearCredential() error
}

type SessionReader interface {
	Credential() (domain.Credential, bool)
	// Expire ends the session after the server rejected its credential.
	Expire()
}

type ChangeListener interface {
	OnChange(domain.ChangeEvent)
}

type ChangeListenerFunc func(domain.ChangeEvent)

func (f ChangeListenerFunc) OnChange(evt domain.ChangeEvent) { f(evt) }

type ChangeNotifier interface {
	Notify(domain.ChangeEvent)
}

// Notifier surfaces user-facing messages (prompts, warnings, failures).
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string, err error)
}

// ConfirmFunc is the yes/no gate asked before a destructive action.
type ConfirmFunc func(prompt string) bool

type ClientEventsProducer interface {
	ProduceEvent(context.Context, domain.ChangeEvent) error
	Close()
}
