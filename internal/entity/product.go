package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrLabelRequired       = errors.New("label is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrNegativeStock       = errors.New("stock cannot be negative")
	ErrNegativePrice       = errors.New("price cannot be negative")
)

// Image is stored with the product but never returned by queries.
type Image struct {
	Data        []byte
	ContentType string
}

type Review struct {
	ID       string
	Text     string
	Rating   int
	PostedBy string // user id
	Created  time.Time
}

type Product struct {
	ID          string
	Label       string
	Description string
	Category    string
	Price       int // minor units
	Stock       int
	Rating      *int
	Image       *Image
	Reviews     []Review
	Created     time.Time
	Updated     *time.Time
}

// Normalize trims the free-text fields the same way the store does on save.
func (p *Product) Normalize() {
	p.Label = strings.TrimSpace(p.Label)
	p.Description = strings.TrimSpace(p.Description)
}

func (p *Product) Validate() error {
	p.Normalize()
	if p.Label == "" {
		return ErrLabelRequired
	}
	if p.Description == "" {
		return ErrDescriptionRequired
	}
	if p.Price < 0 {
		return ErrNegativePrice
	}
	if p.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}

// Clone returns a deep copy, without the image payload.
func (p Product) Clone() Product {
	out := p
	out.Image = nil
	if p.Rating != nil {
		r := *p.Rating
		out.Rating = &r
	}
	if p.Updated != nil {
		u := *p.Updated
		out.Updated = &u
	}
	out.Reviews = append([]Review(nil), p.Reviews...)
	return out
}
