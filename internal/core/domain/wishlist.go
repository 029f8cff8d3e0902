package domain

import "slices"

type WishlistEntry struct {
	ProductID int64
}

// WishlistSet holds wishlist membership keyed by product id.
type WishlistSet map[int64]struct{}

func NewWishlistSet(ids ...int64) WishlistSet {
	s := make(WishlistSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s WishlistSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// Set adds or removes id depending on member.
func (s WishlistSet) Set(id int64, member bool) {
	if member {
		s[id] = struct{}{}
		return
	}
	delete(s, id)
}

func (s WishlistSet) Clone() WishlistSet {
	c := make(WishlistSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// IDs returns the members in ascending order.
func (s WishlistSet) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
