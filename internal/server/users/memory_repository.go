package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/common"
)

// MemoryRepository keeps users in a process-local map. Users are never
// deleted, and a stored *User is treated as immutable after Create.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]*User)}
}

func (r *MemoryRepository) Create(ctx context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Name]; ok {
		return nil, common.ErrAlreadyExists
	}

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	r.users[user.Name] = user

	return user, nil
}

func (r *MemoryRepository) GetByName(ctx context.Context, name string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[name]
	if !ok {
		return nil, common.ErrNotFound
	}

	return user, nil
}
