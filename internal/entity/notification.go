package entity

type Notification struct {
	Base
	Message string `gorm:"type:varchar(500);not null"`
	IsRead  bool   `gorm:"not null;default:false"`

	UserID uint `gorm:"not null;index"`
	User   User `gorm:"constraint:OnDelete:CASCADE"`

	TodoID uint `gorm:"not null;index"`
	Todo   Todo `gorm:"constraint:OnDelete:CASCADE"`
}
