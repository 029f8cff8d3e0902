package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryAll        Category = "All"
	CategoryFurniture  Category = "Furniture"
	CategoryClothes    Category = "Clothes"
	CategoryStationary Category = "Stationary"
)

// Categories lists the filter values in display order, "All" first.
var Categories = []Category{
	CategoryAll, CategoryFurniture, CategoryClothes, CategoryStationary,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    Category
	ImageURL    string
	DateAdded   time.Time
}
