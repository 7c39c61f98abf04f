package inventory

import (
	"github.com/clinicrx/backend/internal/domain/catalog"
	"github.com/google/uuid"
)

// Direction is the stock polarity of a document
type Direction string

const (
	// DirectionPurchase adds stock when applied
	DirectionPurchase Direction = "PURCHASE"
	// DirectionSale removes stock when applied
	DirectionSale Direction = "SALE"
)

// String returns the string representation of Direction
func (d Direction) String() string {
	return string(d)
}

// IsValid returns true if the direction is known
func (d Direction) IsValid() bool {
	switch d {
	case DirectionPurchase, DirectionSale:
		return true
	}
	return false
}

// Sign returns +1 for purchases and -1 for sales
func (d Direction) Sign() int64 {
	switch d {
	case DirectionPurchase:
		return 1
	case DirectionSale:
		return -1
	}
	return 0
}

// Movement is one unsigned line quantity. The sign comes from the batch direction.
type Movement struct {
	ItemID   uuid.UUID
	Quantity int64
	// NewItem creates the item under ItemID when applying a purchase and the
	// id is not yet in the catalog.
	NewItem *catalog.ItemAttributes
}

// Batch is a set of movements applied or reversed together
type Batch struct {
	Direction Direction
	Movements []Movement
	Reverse   bool
}

// ApplyBatch builds a batch that posts movements
func ApplyBatch(direction Direction, movements []Movement) Batch {
	return Batch{Direction: direction, Movements: movements}
}

// ReverseBatch builds a batch that undoes previously posted movements
func ReverseBatch(direction Direction, movements []Movement) Batch {
	return Batch{Direction: direction, Movements: movements, Reverse: true}
}

// sign returns the per-unit stock effect of the batch
func (b Batch) sign() int64 {
	if b.Reverse {
		return -b.Direction.Sign()
	}
	return b.Direction.Sign()
}
