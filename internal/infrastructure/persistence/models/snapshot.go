package models

import (
	"time"

	"gorm.io/datatypes"
)

// AppSnapshot is one saved revision of the whole application state
type AppSnapshot struct {
	ID           uint64         `gorm:"primaryKey;autoIncrement"`
	Revision     int64          `gorm:"not null;uniqueIndex"`
	Document     datatypes.JSON `gorm:"not null"`
	ItemCount    int            `gorm:"not null;default:0"`
	InvoiceCount int            `gorm:"not null;default:0"`
	CreatedAt    time.Time      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AppSnapshot) TableName() string {
	return "app_snapshots"
}
