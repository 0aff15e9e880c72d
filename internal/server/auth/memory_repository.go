package auth

import (
	"context"
	"sync"

	"github.com/taskhive/taskhive/internal/common"
)

// MemorySessionRepository keeps sessions in a process-local map keyed by
// token. Expired sessions are not swept; they stay until an explicit
// logout removes them.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]*Session)}
}

func (r *MemorySessionRepository) Create(ctx context.Context, session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.Token]; ok {
		return common.ErrAlreadyExists
	}

	r.sessions[session.Token] = session
	return nil
}

func (r *MemorySessionRepository) Get(ctx context.Context, token string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[token]
	if !ok {
		return nil, common.ErrNotFound
	}

	return session, nil
}

func (r *MemorySessionRepository) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[token]; !ok {
		return common.ErrNotFound
	}

	delete(r.sessions, token)
	return nil
}
