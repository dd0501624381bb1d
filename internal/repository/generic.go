package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Filter narrows a query. Filters compose as gorm scopes.
type Filter func(db *gorm.DB) *gorm.DB

func Where(query any, args ...any) Filter {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

func Joins(query string, args ...any) Filter {
	return func(db *gorm.DB) *gorm.DB {
		return db.Joins(query, args...)
	}
}

// All applies every filter in order.
func All(filters ...Filter) Filter {
	return func(db *gorm.DB) *gorm.DB {
		for _, f := range filters {
			if f != nil {
				db = f(db)
			}
		}
		return db
	}
}

func OrderBy(value any) Filter {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(value)
	}
}

// GenericRepository is the soft-delete aware data access wrapper shared by every Base entity.
// Reads never return rows flagged is_deleted, and preloaded associations are filtered the same way.
type GenericRepository[T any] struct {
	db *gorm.DB
}

func NewGenericRepository[T any](db *gorm.DB) *GenericRepository[T] {
	return &GenericRepository[T]{db: db}
}

func notDeleted(db *gorm.DB) *gorm.DB {
	return db.Where(clause.Eq{
		Column: clause.Column{Table: clause.CurrentTable, Name: "is_deleted"},
		Value:  false,
	})
}

func (r *GenericRepository[T]) query(ctx context.Context, filters []Filter, preloads []string) *gorm.DB {
	q := r.db.WithContext(ctx).Model(new(T)).Scopes(notDeleted)
	for _, f := range filters {
		if f != nil {
			q = q.Scopes(f)
		}
	}
	for _, p := range preloads {
		q = q.Preload(p, "is_deleted = ?", false)
	}
	return q
}

func (r *GenericRepository[T]) GetAll(ctx context.Context, preloads ...string) ([]T, error) {
	var out []T
	if err := r.query(ctx, nil, preloads).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GenericRepository[T]) GetManyByFilter(ctx context.Context, filter Filter, preloads ...string) ([]T, error) {
	var out []T
	if err := r.query(ctx, []Filter{filter}, preloads).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetOneByFilter returns nil, nil when nothing matches.
func (r *GenericRepository[T]) GetOneByFilter(ctx context.Context, filter Filter, preloads ...string) (*T, error) {
	var out T
	err := r.query(ctx, []Filter{filter}, preloads).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByID returns nil, nil when the row is missing or soft-deleted.
func (r *GenericRepository[T]) GetByID(ctx context.Context, id uint, preloads ...string) (*T, error) {
	return r.GetOneByFilter(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Eq{
			Column: clause.Column{Table: clause.CurrentTable, Name: "id"},
			Value:  id,
		})
	}, preloads...)
}

func (r *GenericRepository[T]) Add(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

func (r *GenericRepository[T]) Update(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(entity).Error
}

// Delete flags the row when soft is true and removes it permanently otherwise.
func (r *GenericRepository[T]) Delete(ctx context.Context, entity *T, soft bool) error {
	if entity == nil {
		return errors.New("delete: nil entity")
	}
	db := r.db.WithContext(ctx)
	if soft {
		return db.Model(entity).Update("is_deleted", true).Error
	}
	return db.Select(clause.Associations).Delete(entity).Error
}

func (r *GenericRepository[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	var count int64
	if err := r.query(ctx, []Filter{filter}, nil).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Any reports whether a non-deleted row matches the filter.
func (r *GenericRepository[T]) Any(ctx context.Context, filter Filter) (bool, error) {
	var count int64
	if err := r.query(ctx, []Filter{filter}, nil).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
