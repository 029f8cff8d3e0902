package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.CommerceAPI = (*CommerceClient)(nil)

// CommerceClient exposes the typed commerce endpoints.
type CommerceClient struct {
	cl *Client
}

func NewCommerceClient(cl *Client) *CommerceClient {
	return &CommerceClient{cl: cl}
}

func (c *CommerceClient) ListProducts(
	ctx context.Context, category domain.Category,
) ([]domain.Product, error) {
	const op = "CommerceClient.ListProducts"

	path := "/products"
	if category != "" && category != domain.CategoryAll {
		path += "?" + url.Values{"category": {string(category)}}.Encode()
	}

	var res []product
	if err := c.cl.Do(ctx, http.MethodGet, path, nil, "", &res); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ps := make([]domain.Product, len(res))
	for i := range res {
		ps[i] = res[i].toDomain()
	}
	return ps, nil
}

func (c *CommerceClient) GetProduct(
	ctx context.Context, id int64,
) (domain.Product, error) {
	const op = "CommerceClient.GetProduct"

	var res product
	path := fmt.Sprintf("/products/%d", id)
	if err := c.cl.Do(ctx, http.MethodGet, path, nil, "", &res); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return res.toDomain(), nil
}

func (c *CommerceClient) GetCart(
	ctx context.Context, token string,
) ([]domain.CartLineItem, error) {
	const op = "CommerceClient.GetCart"

	var res []cartItem
	if err := c.cl.Do(ctx, http.MethodGet, "/cart", nil, token, &res); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := make([]domain.CartLineItem, len(res))
	for i := range res {
		items[i] = res[i].toDomain()
	}
	return items, nil
}

func (c *CommerceClient) AddCartItem(
	ctx context.Context, token string, productID int64, quantity int,
) (domain.CartLineItem, error) {
	const op = "CommerceClient.AddCartItem"

	req := addCartItemRequest{ProductID: productID, Quantity: quantity}
	var res cartItem
	if err := c.cl.Do(ctx, http.MethodPost, "/cart", req, token, &res); err != nil {
		return domain.CartLineItem{}, fmt.Errorf("%s: %w", op, err)
	}
	return res.toDomain(), nil
}

func (c *CommerceClient) UpdateCartItem(
	ctx context.Context, token string, lineItemID int64, quantity int,
) (domain.CartLineItem, error) {
	const op = "CommerceClient.UpdateCartItem"

	req := updateCartItemRequest{Quantity: quantity}
	path := fmt.Sprintf("/cart/%d", lineItemID)
	var res cartItem
	if err := c.cl.Do(ctx, http.MethodPut, path, req, token, &res); err != nil {
		return domain.CartLineItem{}, fmt.Errorf("%s: %w", op, err)
	}
	return res.toDomain(), nil
}

func (c *CommerceClient) RemoveCartItem(
	ctx context.Context, token string, lineItemID int64,
) error {
	const op = "CommerceClient.RemoveCartItem"

	path := fmt.Sprintf("/cart/%d", lineItemID)
	var res messageBody
	if err := c.cl.Do(ctx, http.MethodDelete, path, nil, token, &res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *CommerceClient) GetWishlist(
	ctx context.Context, token string,
) ([]port.WishlistItem, error) {
	const op = "CommerceClient.GetWishlist"

	var res []wishlistItem
	if err := c.cl.Do(ctx, http.MethodGet, "/wishlist", nil, token, &res); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := make([]port.WishlistItem, len(res))
	for i := range res {
		items[i] = res[i].toPort()
	}
	return items, nil
}

func (c *CommerceClient) AddWishlistItem(
	ctx context.Context, token string, productID int64,
) error {
	const op = "CommerceClient.AddWishlistItem"

	req := addWishlistItemRequest{ProductID: productID}
	var res wishlistItem
	if err := c.cl.Do(ctx, http.MethodPost, "/wishlist", req, token, &res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *CommerceClient) RemoveWishlistItem(
	ctx context.Context, token string, productID int64,
) error {
	const op = "CommerceClient.RemoveWishlistItem"

	path := fmt.Sprintf("/wishlist/%d", productID)
	var res messageBody
	if err := c.cl.Do(ctx, http.MethodDelete, path, nil, token, &res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *CommerceClient) Login(
	ctx context.Context, role domain.Role, email, password string,
) (domain.Credential, error) {
	const op = "CommerceClient.Login"

	path := "/login/user"
	if role == domain.RoleAdmin {
		path = "/login/admin"
	}

	req := authRequest{Email: email, Password: password}
	var res loginResponse
	if err := c.cl.Do(ctx, http.MethodPost, path, req, "", &res); err != nil {
		return domain.Credential{}, fmt.Errorf("%s: %w", op, err)
	}
	if res.AccessToken == "" {
		return domain.Credential{}, fmt.Errorf(
			"%s: %w", op, &domain.RemoteError{
				Kind: domain.FailureNetwork,
				Err:  errors.New("login response without access token"),
			},
		)
	}
	return res.toDomain(), nil
}

func (c *CommerceClient) Register(
	ctx context.Context, email, password string,
) error {
	const op = "CommerceClient.Register"

	req := authRequest{Email: email, Password: password}
	var res messageBody
	if err := c.cl.Do(ctx, http.MethodPost, "/register", req, "", &res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *CommerceClient) Logout(ctx context.Context) error {
	const op = "CommerceClient.Logout"

	var res messageBody
	if err := c.cl.Do(ctx, http.MethodPost, "/logout", nil, "", &res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
