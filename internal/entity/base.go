package entity

import "time"

// Base carries the columns every soft-deletable table shares.
type Base struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	IsDeleted bool   `gorm:"not null;default:false;index"`
	CreatedBy string `gorm:"type:varchar(100);not null;default:'System'"`
}
