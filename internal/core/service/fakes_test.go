package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/shopspring/decimal"
)

// fakeAPI is a port.CommerceAPI whose behavior is set per test. Calling a
// method without a handler panics.
type fakeAPI struct {
	listProducts       func(context.Context, domain.Category) ([]domain.Product, error)
	getProduct         func(context.Context, int64) (domain.Product, error)
	getCart            func(context.Context, string) ([]domain.CartLineItem, error)
	addCartItem        func(context.Context, string, int64, int) (domain.CartLineItem, error)
	updateCartItem     func(context.Context, string, int64, int) (domain.CartLineItem, error)
	removeCartItem     func(context.Context, string, int64) error
	getWishlist        func(context.Context, string) ([]port.WishlistItem, error)
	addWishlistItem    func(context.Context, string, int64) error
	removeWishlistItem func(context.Context, string, int64) error
	login              func(context.Context, domain.Role, string, string) (domain.Credential, error)
	register           func(context.Context, string, string) error
	logout             func(context.Context) error
}

var _ port.CommerceAPI = (*fakeAPI)(nil)

func (f *fakeAPI) ListProducts(ctx context.Context, c domain.Category) ([]domain.Product, error) {
	return f.listProducts(ctx, c)
}

func (f *fakeAPI) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	return f.getProduct(ctx, id)
}

func (f *fakeAPI) GetCart(ctx context.Context, token string) ([]domain.CartLineItem, error) {
	return f.getCart(ctx, token)
}

func (f *fakeAPI) AddCartItem(
	ctx context.Context, token string, productID int64, quantity int,
) (domain.CartLineItem, error) {
	return f.addCartItem(ctx, token, productID, quantity)
}

func (f *fakeAPI) UpdateCartItem(
	ctx context.Context, token string, lineItemID int64, quantity int,
) (domain.CartLineItem, error) {
	return f.updateCartItem(ctx, token, lineItemID, quantity)
}

func (f *fakeAPI) RemoveCartItem(ctx context.Context, token string, id int64) error {
	return f.removeCartItem(ctx, token, id)
}

func (f *fakeAPI) GetWishlist(ctx context.Context, token string) ([]port.WishlistItem, error) {
	return f.getWishlist(ctx, token)
}

func (f *fakeAPI) AddWishlistItem(ctx context.Context, token string, id int64) error {
	return f.addWishlistItem(ctx, token, id)
}

func (f *fakeAPI) RemoveWishlistItem(ctx context.Context, token string, id int64) error {
	return f.removeWishlistItem(ctx, token, id)
}

func (f *fakeAPI) Login(
	ctx context.Context, role domain.Role, email, password string,
) (domain.Credential, error) {
	return f.login(ctx, role, email, password)
}

func (f *fakeAPI) Register(ctx context.Context, email, password string) error {
	return f.register(ctx, email, password)
}

func (f *fakeAPI) Logout(ctx context.Context) error {
	return f.logout(ctx)
}

type fakeSession struct {
	mu      sync.Mutex
	cred    domain.Credential
	expired atomic.Int32
}

func newFakeSession(token string) *fakeSession {
	return &fakeSession{cred: domain.Credential{Token: token, Role: domain.RoleUser}}
}

func (s *fakeSession) Credential() (domain.Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred, !s.cred.Empty()
}

func (s *fakeSession) Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred.Empty() {
		return
	}
	s.cred = domain.Credential{}
	s.expired.Add(1)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
}

func (r *eventRecorder) Notify(evt domain.ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *eventRecorder) OnChange(evt domain.ChangeEvent) { r.Notify(evt) }

func (r *eventRecorder) kinds() []domain.ChangeKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	ks := make([]domain.ChangeKind, len(r.events))
	for i, e := range r.events {
		ks[i] = e.Kind
	}
	return ks
}

func (r *eventRecorder) all() []domain.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ChangeEvent(nil), r.events...)
}

func (r *eventRecorder) last() domain.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return domain.ChangeEvent{}
	}
	return r.events[len(r.events)-1]
}

type message struct {
	level string
	text  string
}

type messageRecorder struct {
	mu   sync.Mutex
	msgs []message
}

func (r *messageRecorder) Info(msg string)           { r.add("info", msg) }
func (r *messageRecorder) Warn(msg string)           { r.add("warn", msg) }
func (r *messageRecorder) Error(msg string, _ error) { r.add("error", msg) }

func (r *messageRecorder) add(level, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, message{level, text})
}

func (r *messageRecorder) texts(level string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.msgs {
		if m.level == level {
			out = append(out, m.text)
		}
	}
	return out
}

func testProduct(id int64, price string, stock int) domain.Product {
	return domain.Product{
		ID:       id,
		Name:     fmt.Sprintf("product-%d", id),
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Category: domain.CategoryFurniture,
	}
}

func remoteErr(status int, msg string) error {
	kind := domain.FailureServerError
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = domain.FailureUnauthorized
	case http.StatusNotFound:
		kind = domain.FailureNotFound
	}
	return &domain.RemoteError{Kind: kind, Status: status, Message: msg}
}
