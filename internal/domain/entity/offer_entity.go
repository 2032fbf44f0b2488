package entity

import "time"

// Offer is a service listing posted by a user. The author of at least one
// offer is considered a provider.
type Offer struct {
	ID          string
	AuthorID    string
	Title       string
	Description string
	Price       float64
	Category    string
	Image       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OfferPatch mirrors ProfilePatch for offers.
type OfferPatch struct {
	Title       *string
	Description *string
	Price       *float64
	Category    *string
	Image       *string
}

func (p OfferPatch) Apply(o *Offer) {
	if p.Title != nil {
		o.Title = *p.Title
	}
	if p.Description != nil {
		o.Description = *p.Description
	}
	if p.Price != nil {
		o.Price = *p.Price
	}
	if p.Category != nil {
		o.Category = *p.Category
	}
	if p.Image != nil {
		o.Image = *p.Image
	}
}

// OfferFilter narrows offer listings. Zero values mean "any".
type OfferFilter struct {
	AuthorID string
	Category string
	Limit    int
	Offset   int
}

const (
	DefaultOfferLimit = 20
	MaxOfferLimit     = 100
)

// Normalized clamps Limit to [1, MaxOfferLimit] (0 means DefaultOfferLimit) and Offset to >= 0.
func (f OfferFilter) Normalized() OfferFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultOfferLimit
	}
	if f.Limit > MaxOfferLimit {
		f.Limit = MaxOfferLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
