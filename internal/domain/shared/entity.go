package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity provides identity and timestamps for records
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// GetCreatedAt returns the creation timestamp
func (e *BaseEntity) GetCreatedAt() time.Time {
	return e.CreatedAt
}

// GetUpdatedAt returns the last update timestamp
func (e *BaseEntity) GetUpdatedAt() time.Time {
	return e.UpdatedAt
}

// Touch moves UpdatedAt forward
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

// NewBaseEntity creates a new base entity with generated ID
func NewBaseEntity() BaseEntity {
	return NewBaseEntityWithID(uuid.New())
}

// NewBaseEntityWithID creates a base entity for a caller-chosen ID.
// A nil ID is replaced with a generated one.
func NewBaseEntityWithID(id uuid.UUID) BaseEntity {
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := time.Now()
	return BaseEntity{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
