package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wishlistFixture struct {
	wishlist *WishlistSynchronizer
	session  *fakeSession
	events   *eventRecorder
	messages *messageRecorder
}

func newWishlistFixture(api *fakeAPI) wishlistFixture {
	f := wishlistFixture{
		session:  newFakeSession("token"),
		events:   new(eventRecorder),
		messages: new(messageRecorder),
	}
	f.wishlist = NewWishlistSynchronizer(api, f.session, f.events, f.messages)
	return f
}

func wishlistItems(ps ...domain.Product) []port.WishlistItem {
	items := make([]port.WishlistItem, len(ps))
	for i, p := range ps {
		items[i] = port.WishlistItem{
			Entry: domain.WishlistEntry{ProductID: p.ID}, Product: p,
		}
	}
	return items
}

// wishlistCalls records add and remove requests in order.
type wishlistCalls struct {
	mu    sync.Mutex
	calls []string
}

func (c *wishlistCalls) record(call string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

func (c *wishlistCalls) get() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func TestWishlistLoad(t *testing.T) {
	p1, p2 := testProduct(1, "10", 1), testProduct(2, "20", 1)

	t.Run("Success", func(t *testing.T) {
		api := &fakeAPI{getWishlist: func(context.Context, string) ([]port.WishlistItem, error) {
			return wishlistItems(p2, p1), nil
		}}
		f := newWishlistFixture(api)

		set, err := f.wishlist.Load(t.Context())
		require.NoError(t, err)

		assert.Equal(t, domain.NewWishlistSet(1, 2), set)
		assert.Equal(t, []int64{1, 2}, f.wishlist.IDs())
		assert.Equal(t, []domain.Product{p2, p1}, f.wishlist.Products())
		assert.Equal(t, domain.WishlistLoaded, f.events.last().Kind)
	})

	t.Run("UnauthorizedExpires", func(t *testing.T) {
		api := &fakeAPI{getWishlist: func(context.Context, string) ([]port.WishlistItem, error) {
			return nil, remoteErr(http.StatusUnauthorized, "Token has expired")
		}}
		f := newWishlistFixture(api)

		_, err := f.wishlist.Load(t.Context())
		require.ErrorIs(t, err, domain.ErrSessionExpired)
		assert.Equal(t, int32(1), f.session.expired.Load())
	})

	t.Run("FailureClearsState", func(t *testing.T) {
		api := &fakeAPI{getWishlist: func(context.Context, string) ([]port.WishlistItem, error) {
			return wishlistItems(p1), nil
		}}
		f := newWishlistFixture(api)
		_, err := f.wishlist.Load(t.Context())
		require.NoError(t, err)

		api.getWishlist = func(context.Context, string) ([]port.WishlistItem, error) {
			return nil, remoteErr(http.StatusInternalServerError, "boom")
		}
		_, err = f.wishlist.Load(t.Context())

		require.ErrorIs(t, err, domain.ErrFetchFailed)
		assert.Empty(t, f.wishlist.IDs())
	})

	t.Run("NotAuthenticated", func(t *testing.T) {
		f := newWishlistFixture(&fakeAPI{})
		f.session.cred = domain.Credential{}

		_, err := f.wishlist.Load(t.Context())
		require.ErrorIs(t, err, domain.ErrNotAuthenticated)
	})
}

func TestWishlistToggle(t *testing.T) {
	p := testProduct(3, "10", 1)

	newAPI := func(calls *wishlistCalls) *fakeAPI {
		return &fakeAPI{
			addWishlistItem: func(context.Context, string, int64) error {
				calls.record("add")
				return nil
			},
			removeWishlistItem: func(context.Context, string, int64) error {
				calls.record("remove")
				return nil
			},
		}
	}

	t.Run("TwiceRestoresMembership", func(t *testing.T) {
		calls := new(wishlistCalls)
		f := newWishlistFixture(newAPI(calls))

		member, err := f.wishlist.Toggle(t.Context(), p)
		require.NoError(t, err)
		assert.True(t, member)
		assert.True(t, f.wishlist.Contains(p.ID))
		assert.Equal(t, []domain.Product{p}, f.wishlist.Products())

		member, err = f.wishlist.Toggle(t.Context(), p)
		require.NoError(t, err)
		assert.False(t, member)
		assert.False(t, f.wishlist.Contains(p.ID))
		assert.Empty(t, f.wishlist.Products())

		assert.Equal(t, []string{"add", "remove"}, calls.get())
	})

	t.Run("FailureReverts", func(t *testing.T) {
		api := &fakeAPI{addWishlistItem: func(context.Context, string, int64) error {
			return remoteErr(http.StatusNotFound, "Product not found")
		}}
		f := newWishlistFixture(api)

		member, err := f.wishlist.Toggle(t.Context(), p)

		require.ErrorIs(t, err, domain.ErrNotFound)
		assert.False(t, member)
		assert.False(t, f.wishlist.Contains(p.ID))
		evt := f.events.last()
		assert.Equal(t, domain.WishlistToggled, evt.Kind)
		assert.True(t, evt.Rollback)
		assert.False(t, evt.Wishlisted)
		assert.Equal(t, []string{"Error updating wishlist."}, f.messages.texts("error"))
	})

	t.Run("ConflictOnAddIsSuccess", func(t *testing.T) {
		api := &fakeAPI{addWishlistItem: func(context.Context, string, int64) error {
			return remoteErr(http.StatusConflict, "Item already in wishlist")
		}}
		f := newWishlistFixture(api)

		member, err := f.wishlist.Toggle(t.Context(), p)
		require.NoError(t, err)
		assert.True(t, member)
		assert.True(t, f.wishlist.Contains(p.ID))
	})

	t.Run("NotFoundOnRemoveIsSuccess", func(t *testing.T) {
		api := &fakeAPI{
			getWishlist: func(context.Context, string) ([]port.WishlistItem, error) {
				return wishlistItems(p), nil
			},
			removeWishlistItem: func(context.Context, string, int64) error {
				return remoteErr(http.StatusNotFound, "Item not found in wishlist")
			},
		}
		f := newWishlistFixture(api)
		_, err := f.wishlist.Load(t.Context())
		require.NoError(t, err)

		member, err := f.wishlist.Toggle(t.Context(), p)
		require.NoError(t, err)
		assert.False(t, member)
		assert.False(t, f.wishlist.Contains(p.ID))
	})

	t.Run("UnauthorizedExpires", func(t *testing.T) {
		api := &fakeAPI{addWishlistItem: func(context.Context, string, int64) error {
			return remoteErr(http.StatusUnauthorized, "Token has expired")
		}}
		f := newWishlistFixture(api)

		_, err := f.wishlist.Toggle(t.Context(), p)

		require.ErrorIs(t, err, domain.ErrSessionExpired)
		assert.Equal(t, int32(1), f.session.expired.Load())
		assert.False(t, f.wishlist.Contains(p.ID))
	})

	t.Run("NotAuthenticated", func(t *testing.T) {
		f := newWishlistFixture(&fakeAPI{})
		f.session.cred = domain.Credential{}

		_, err := f.wishlist.Toggle(t.Context(), p)

		require.ErrorIs(t, err, domain.ErrNotAuthenticated)
		assert.False(t, f.wishlist.Contains(p.ID))
		assert.Equal(t, []string{"Please log in to manage your wishlist."}, f.messages.texts("info"))
	})

	t.Run("BurstSendsOnlyTheDifference", func(t *testing.T) {
		calls := new(wishlistCalls)
		entered := make(chan struct{})
		release := make(chan struct{})
		api := newAPI(calls)
		api.addWishlistItem = func(context.Context, string, int64) error {
			calls.record("add")
			close(entered)
			<-release
			return nil
		}
		f := newWishlistFixture(api)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.wishlist.Toggle(t.Context(), p)
			assert.NoError(t, err)
		}()
		<-entered

		for _, want := range []bool{false, true} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.wishlist.Toggle(t.Context(), p)
				assert.NoError(t, err)
			}()
			require.Eventually(t, func() bool {
				return f.wishlist.Contains(p.ID) == want
			}, time.Second, time.Millisecond)
		}

		close(release)
		wg.Wait()

		assert.Equal(t, []string{"add"}, calls.get())
		assert.True(t, f.wishlist.Contains(p.ID))
	})
}

func TestWishlistClearsOnSessionEnded(t *testing.T) {
	api := &fakeAPI{getWishlist: func(context.Context, string) ([]port.WishlistItem, error) {
		return wishlistItems(testProduct(1, "10", 1)), nil
	}}
	f := newWishlistFixture(api)
	_, err := f.wishlist.Load(t.Context())
	require.NoError(t, err)

	f.wishlist.OnChange(domain.ChangeEvent{Kind: domain.SessionEnded})

	assert.Empty(t, f.wishlist.IDs())
	assert.Empty(t, f.wishlist.Products())
	assert.Equal(t, domain.WishlistCleared, f.events.last().Kind)
}
