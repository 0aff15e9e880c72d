package users

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByName(ctx context.Context, name string) (*User, error)
}
