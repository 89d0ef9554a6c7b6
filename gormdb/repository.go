package gormdb

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/raywall/xrest/easyrepo"
)

var primaryKey = clause.Column{Table: clause.CurrentTable, Name: clause.PrimaryKey}

// Repository implements easyrepo.Repository for a gorm model T.
type Repository[T any] struct {
	db *DB
}

func NewRepository[T any](db *DB) *Repository[T] {
	return &Repository[T]{db: db}
}

func (r *Repository[T]) Count(ctx context.Context) (int, error) {
	var n int64
	if err := r.db.Conn(ctx).Model(new(T)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("gormdb: count: %w", err)
	}
	return int(n), nil
}

// List returns items ordered by primary key.
func (r *Repository[T]) List(ctx context.Context, offset, limit int) ([]*T, error) {
	items := []*T{}
	err := r.db.Conn(ctx).
		Order(clause.OrderByColumn{Column: primaryKey}).
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("gormdb: list: %w", err)
	}
	return items, nil
}

func (r *Repository[T]) Get(ctx context.Context, pk any) (*T, error) {
	item := new(T)
	err := r.db.Conn(ctx).Where(clause.Eq{Column: primaryKey, Value: pk}).Take(item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, easyrepo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gormdb: get: %w", err)
	}
	return item, nil
}

func (r *Repository[T]) Create(ctx context.Context, item *T) error {
	if err := r.db.Conn(ctx).Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return easyrepo.ErrAlreadyExists
		}
		return fmt.Errorf("gormdb: create: %w", err)
	}
	return nil
}

func (r *Repository[T]) Update(ctx context.Context, item *T) error {
	if err := r.db.Conn(ctx).Save(item).Error; err != nil {
		return fmt.Errorf("gormdb: update: %w", err)
	}
	return nil
}

func (r *Repository[T]) Delete(ctx context.Context, item *T) error {
	res := r.db.Conn(ctx).Delete(item)
	if res.Error != nil {
		return fmt.Errorf("gormdb: delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return easyrepo.ErrNotFound
	}
	return nil
}
