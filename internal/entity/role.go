package entity

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

type Role struct {
	Base
	Name string `gorm:"type:varchar(50);uniqueIndex;not null"`

	UserRoles []UserRole
}

// UserRole is the join row between users and roles, keyed by both ids.
type UserRole struct {
	UserID uint `gorm:"primaryKey;autoIncrement:false"`
	RoleID uint `gorm:"primaryKey;autoIncrement:false"`

	User User `gorm:"constraint:OnDelete:CASCADE"`
	Role Role `gorm:"constraint:OnDelete:CASCADE"`
}
