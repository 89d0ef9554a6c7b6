package easyrepo

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("item not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrAlreadyExists = errors.New("item already exists")
)

// Repository persists instances of T. Implementations must honour the
// transaction carried by ctx when one is active.
type Repository[T any] interface {
	// Count returns the number of stored items.
	Count(ctx context.Context) (int, error)
	// List returns up to limit items starting at offset, in a stable order.
	List(ctx context.Context, offset, limit int) ([]*T, error)
	// Get loads an item by primary key. Returns ErrNotFound when absent.
	Get(ctx context.Context, pk any) (*T, error)
	Create(ctx context.Context, item *T) error
	Update(ctx context.Context, item *T) error
	Delete(ctx context.Context, item *T) error
}

// Transactor runs fn atomically: writes made through ctx commit when fn
// returns nil and are discarded when it returns an error or panics.
type Transactor interface {
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransactorFunc adapts a function to the Transactor interface.
type TransactorFunc func(ctx context.Context, fn func(ctx context.Context) error) error

func (f TransactorFunc) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// NoTransaction runs fn without any atomicity guarantee.
var NoTransaction Transactor = TransactorFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
})
