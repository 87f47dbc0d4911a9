package attentiontype

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("attention type not found")

type Repository interface {
	FindByRole(ctx context.Context, role string) (*AttentionType, error)
	First(ctx context.Context) (*AttentionType, error)
	Create(ctx context.Context, at *AttentionType) error
	List(ctx context.Context) ([]*AttentionType, error)
}
