package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidQuantity = errors.New("order quantity must be a positive integer")
	ErrAddressRequired = errors.New("address is required")
	ErrNotShipped      = errors.New("product not shipped yet")
)

type Order struct {
	ID        string
	UserID    string
	ProductID string
	Quantity  int
	Address   string
	Created   time.Time
	Shipped   bool
	Finished  bool
}

func (o *Order) Validate() error {
	if o.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if strings.TrimSpace(o.Address) == "" {
		return ErrAddressRequired
	}
	return nil
}

// CanBeReceived reports whether the order may be marked as received.
func (o *Order) CanBeReceived() error {
	if !o.Shipped {
		return ErrNotShipped
	}
	return nil
}

func (o *Order) OwnedBy(userID string) bool {
	return o.UserID == userID
}
