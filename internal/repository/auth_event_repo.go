package repository

import (
	"context"

	"todoapi/internal/entity"

	"gorm.io/gorm"
)

type AuthEventRepository interface {
	Log(ctx context.Context, event *entity.AuthEvent) error
	ListByEmail(ctx context.Context, email string, limit int) ([]entity.AuthEvent, error)
}

type authEventRepository struct {
	db *gorm.DB
}

func NewAuthEventRepository(db *gorm.DB) AuthEventRepository {
	return &authEventRepository{db: db}
}

func (r *authEventRepository) Log(ctx context.Context, event *entity.AuthEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// ListByEmail returns the newest events first.
func (r *authEventRepository) ListByEmail(ctx context.Context, email string, limit int) ([]entity.AuthEvent, error) {
	var events []entity.AuthEvent
	q := r.db.WithContext(ctx).Where("email = ?", email).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
