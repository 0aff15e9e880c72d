package auth

import (
	"context"
	"time"

	"github.com/taskhive/taskhive/internal/server/users"
)

// Session is a token-bound authenticated context. A user may hold several
// concurrent sessions, one per login.
type Session struct {
	Token       string
	Username    string
	AccessLevel users.AccessLevel
	StartedAt   time.Time
}

type SessionRepository interface {
	// Create stores the session, failing with common.ErrAlreadyExists if a
	// live session already uses the same token.
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}
