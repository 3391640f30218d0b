// Package model defines the core domain types shared across the application.
package model

import (
	"errors"
	"fmt"
	"time"
)

// Validation errors surfaced to the UI layer.
var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidDirection  = errors.New("invalid direction")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrDirectionMismatch = errors.New("category direction does not match transaction direction")
)

// Location is an optional place attached to a transaction: coordinates plus
// two human-readable address strings.
type Location struct {
	Full      string
	Short     string
	Latitude  float64
	Longitude float64
}

// Transaction is a committed financial event.
type Transaction struct {
	Date      time.Time
	RemoteID  string // empty until first sync
	Note      string
	PhotoRef  string
	Category  Category
	Direction Direction
	Location  *Location
	Amount    float64
	ID        int64
	Synced    bool
}

// Validate checks the transaction's own invariants. It does not touch the
// store; callers surface failures directly to the user.
func (t *Transaction) Validate() error {
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !t.Direction.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, t.Direction)
	}
	if !t.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, t.Category)
	}
	if t.Category.Direction() != t.Direction {
		return fmt.Errorf("%w: %s is %s", ErrDirectionMismatch, t.Category, t.Category.Direction())
	}
	if t.Date.IsZero() {
		return errors.New("date must be set")
	}
	return nil
}
