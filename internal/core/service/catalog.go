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
	"golang.org/x/sync/errgroup"
)

var _ port.ChangeListener = (*CatalogStore)(nil)

// A CatalogStore holds the product list of the active category filter and
// the wishlist membership seen by the last refresh.
type CatalogStore struct {
	products port.ProductsLister
	wishlist port.WishlistAPI
	session  port.SessionReader
	notifier port.ChangeNotifier
	messages port.Notifier

	mu         sync.RWMutex
	items      []domain.Product
	category   domain.Category
	loaded     bool
	wishlisted domain.WishlistSet
}

func NewCatalogStore(
	products port.ProductsLister,
	wishlist port.WishlistAPI,
	session port.SessionReader,
	notifier port.ChangeNotifier,
	messages port.Notifier,
) *CatalogStore {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if messages == nil {
		messages = nopMessages{}
	}
	return &CatalogStore{
		products:   products,
		wishlist:   wishlist,
		session:    session,
		notifier:   notifier,
		messages:   messages,
		category:   domain.CategoryAll,
		wishlisted: domain.NewWishlistSet(),
	}
}

// Load fetches the products of category and, for a logged in shopper, the
// wishlist membership in parallel. A failed wishlist fetch leaves nothing
// wishlisted without failing the load. A failed product fetch keeps the
// previous products.
func (s *CatalogStore) Load(ctx context.Context, category domain.Category) error {
	const op = "CatalogStore.Load"
	log := slog.With("op", op)

	if !category.Valid() {
		return fmt.Errorf(
			"%s: unknown category %q: %w", op, category, domain.ErrValidationRejected,
		)
	}

	var (
		products   []domain.Product
		wishlisted = domain.NewWishlistSet()
		wishErr    error
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		products, err = s.products.ListProducts(ctx, category)
		return err
	})
	if cred, ok := s.session.Credential(); ok && s.wishlist != nil {
		g.Go(func() error {
			items, err := s.wishlist.GetWishlist(ctx, cred.Token)
			if err != nil {
				wishErr = err
				return nil
			}
			for _, it := range items {
				wishlisted.Set(it.Entry.ProductID, true)
			}
			return nil
		})
	}
	err := g.Wait()

	if wishErr != nil {
		log.Warn("wishlist unavailable, showing nothing wishlisted", "err", wishErr)
		if credentialRejected(wishErr) {
			s.session.Expire()
		}
	}

	if err != nil {
		log.Error("failed to fetch products", "category", category, "err", err)
		if credentialRejected(err) {
			s.session.Expire()
		}
		s.messages.Error("Failed to fetch products.", err)
		return fmt.Errorf("%s: %w: %w", op, domain.ErrFetchFailed, err)
	}

	s.mu.Lock()
	s.items = products
	s.category = category
	s.loaded = true
	s.wishlisted = wishlisted
	s.mu.Unlock()

	log.Debug("catalog refreshed", "category", category, "count", len(products))
	s.notifier.Notify(domain.ChangeEvent{
		Kind: domain.CatalogRefreshed, Quantity: len(products), At: time.Now(),
	})
	return nil
}

// SetCategory switches the filter and refetches when it changed or nothing
// was loaded yet.
func (s *CatalogStore) SetCategory(ctx context.Context, category domain.Category) error {
	const op = "CatalogStore.SetCategory"

	if !category.Valid() {
		return fmt.Errorf(
			"%s: unknown category %q: %w", op, category, domain.ErrValidationRejected,
		)
	}

	s.mu.RLock()
	same := s.loaded && s.category == category
	s.mu.RUnlock()
	if same {
		return nil
	}

	if err := s.Load(ctx, category); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Product fetches a single product by id.
func (s *CatalogStore) Product(ctx context.Context, id int64) (domain.Product, error) {
	const op = "CatalogStore.Product"

	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *CatalogStore) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

func (s *CatalogStore) Category() domain.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.category
}

func (s *CatalogStore) IsWishlisted(productID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wishlisted.Contains(productID)
}

func (s *CatalogStore) OnChange(evt domain.ChangeEvent) {
	switch evt.Kind {
	case domain.WishlistToggled:
		s.mu.Lock()
		s.wishlisted.Set(evt.ProductID, evt.Wishlisted)
		s.mu.Unlock()
	case domain.WishlistCleared, domain.SessionEnded:
		s.mu.Lock()
		s.wishlisted = domain.NewWishlistSet()
		s.mu.Unlock()
	}
}
