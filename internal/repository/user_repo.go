package repository

import (
	"context"
	"errors"
	"fmt"

	"todoapi/internal/entity"

	"gorm.io/gorm"
)

var (
	// ErrStaleUser means another writer committed a change to the user after it was read.
	ErrStaleUser  = errors.New("user was modified concurrently")
	ErrEmailTaken = errors.New("email already in use")
)

type UserRepository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id uint) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	HardDelete(ctx context.Context, id uint) error
}

type userRepository struct {
	db    *gorm.DB
	users *GenericRepository[entity.User]
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, users: NewGenericRepository[entity.User](db)}
}

// EmailExists expects an already normalised email.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.users.Any(ctx, Where("email = ?", email))
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.users.GetOneByFilter(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("email = ?", email).Order("id")
	}, "UserRoles.Role")
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	return r.users.GetByID(ctx, id, "UserRoles.Role")
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	if err := user.CheckVerificationInvariants(); err != nil {
		return err
	}
	if err := r.users.Add(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// Update writes the mutable identity columns only if the stored version still matches
// the one the caller read, then advances the version on the passed user.
func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	if err := user.CheckVerificationInvariants(); err != nil {
		return err
	}

	next := user.Version + 1
	res := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ? AND version = ? AND is_deleted = ?", user.ID, user.Version, false).
		Updates(map[string]any{
			"username":                     user.Username,
			"password":                     user.PasswordHash,
			"is_email_confirmed":           user.IsEmailConfirmed,
			"verification_code_hash":       user.VerificationCodeHash,
			"verification_code_expires_at": user.VerificationCodeExpiresAt,
			"last_verification_sent_at":    user.LastVerificationSentAt,
			"version":                      next,
		})
	if res.Error != nil {
		return fmt.Errorf("update user %d: %w", user.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleUser
	}

	user.Version = next
	return nil
}

// HardDelete removes the user and its role links permanently.
func (r *userRepository) HardDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&entity.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.User{}, id).Error
	})
}
