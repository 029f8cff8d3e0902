package httpclient

import (
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/shopspring/decimal"
)

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

type messageBody struct {
	Message string `json:"message"`
}

type product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	DateAdded   string          `json:"date_added"`
}

func (p product) toDomain() domain.Product {
	return domain.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    domain.Category(p.Category),
		ImageURL:    p.ImageURL,
		DateAdded:   parseDateAdded(p.DateAdded),
	}
}

// date_added is an ISO timestamp that may lack a zone.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseDateAdded(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

type cartItem struct {
	ID        int64   `json:"id"`
	Quantity  int     `json:"quantity"`
	UserID    int64   `json:"user_id"`
	ProductID int64   `json:"product_id"`
	Product   product `json:"product"`
}

func (ci cartItem) toDomain() domain.CartLineItem {
	p := ci.Product.toDomain()
	if p.ID == 0 {
		p.ID = ci.ProductID
	}
	return domain.CartLineItem{ID: ci.ID, Product: p, Quantity: ci.Quantity}
}

type addCartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type wishlistItem struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"user_id"`
	ProductID int64   `json:"product_id"`
	Product   product `json:"product"`
}

func (wi wishlistItem) toPort() port.WishlistItem {
	p := wi.Product.toDomain()
	if p.ID == 0 {
		p.ID = wi.ProductID
	}
	return port.WishlistItem{
		Entry:   domain.WishlistEntry{ProductID: wi.ProductID},
		Product: p,
	}
}

type addWishlistItemRequest struct {
	ProductID int64 `json:"product_id"`
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
	User        struct {
		ID      int64  `json:"id"`
		Email   string `json:"email"`
		IsAdmin bool   `json:"is_admin"`
	} `json:"user"`
}

func (r loginResponse) toDomain() domain.Credential {
	role := domain.RoleUser
	if r.User.IsAdmin {
		role = domain.RoleAdmin
	}
	return domain.Credential{
		Token:  r.AccessToken,
		Role:   role,
		UserID: r.User.ID,
		Email:  r.User.Email,
	}
}
