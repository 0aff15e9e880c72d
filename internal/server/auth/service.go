// Package auth owns registration, login and the session store. Tokens are
// opaque 256-bit random strings checked for collision against live sessions
// only; expiry is evaluated lazily when a session is used.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/taskhive/taskhive/internal/common"
	"github.com/taskhive/taskhive/internal/server/config"
	"github.com/taskhive/taskhive/internal/server/users"
)

// argon2id parameters for the password verifier.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32

	saltLen      = 32
	tokenByteLen = 32
)

// Presence is notified when a worker's sessions start or end, so that
// per-project activity gauges can follow logins and logouts.
type Presence interface {
	WorkerLoggedIn(ctx context.Context, username string)
	WorkerLoggedOut(ctx context.Context, username string)
}

type Service struct {
	repo     users.Repository
	sessions SessionRepository
	presence Presence
	validity time.Duration
}

func NewService(repo users.Repository, sessions SessionRepository, presence Presence, cfg *config.Config) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		presence: presence,
		validity: cfg.SessionValidityDuration,
	}
}

func hashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

func (s *Service) checkVerifier(verifier, candidate []byte) bool {
	return subtle.ConstantTimeCompare(verifier, candidate) == 1
}

// Register creates a user with a fresh salt and argon2id verifier.
func (s *Service) Register(ctx context.Context, username, password string, level users.AccessLevel) (*users.User, error) {

	if !level.Valid() {
		return nil, fmt.Errorf("%w: accesslevel must be 'customer' or 'worker'", common.ErrValidation)
	}

	salt := common.GenerateRandByteArray(saltLen)

	user := &users.User{
		Name:        username,
		Salt:        salt,
		Verifier:    hashPassword(password, salt),
		AccessLevel: level,
	}

	user, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// generateToken draws random tokens until one does not collide with a live
// session. Collisions are vanishingly rare at 256 bits, so the loop almost
// always runs once.
func (s *Service) generateToken(ctx context.Context, session *Session) error {
	for {
		token, err := common.MakeRandHexString(tokenByteLen)
		if err != nil {
			return err
		}
		session.Token = token

		err = s.sessions.Create(ctx, session)
		if errors.Is(err, common.ErrAlreadyExists) {
			continue
		}
		return err
	}
}

// Login verifies the credentials and role and opens a new session.
// All credential failures collapse into common.ErrAuth.
func (s *Service) Login(ctx context.Context, username, password string, level users.AccessLevel) (string, error) {

	user, err := s.repo.GetByName(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrAuth
		}
		return "", common.ErrInternal
	}

	if !s.checkVerifier(user.Verifier, hashPassword(password, user.Salt)) {
		return "", common.ErrAuth
	}

	if user.AccessLevel != level {
		return "", common.ErrAuth
	}

	session := &Session{
		Username:    username,
		AccessLevel: level,
		StartedAt:   time.Now(),
	}

	if err := s.generateToken(ctx, session); err != nil {
		return "", common.ErrInternal
	}

	if level == users.AccessWorker && s.presence != nil {
		s.presence.WorkerLoggedIn(ctx, username)
	}

	return session.Token, nil
}

// ValidateSession resolves a token into its session. Unknown tokens and
// timed-out sessions are indistinguishable to the caller.
func (s *Service) ValidateSession(ctx context.Context, token string) (*Session, error) {

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, common.ErrSessionExpired
	}

	if time.Since(session.StartedAt) > s.validity {
		return nil, common.ErrSessionExpired
	}

	return session, nil
}

// Logout removes the session. It fails with common.ErrNotFound if the
// token is already gone.
func (s *Service) Logout(ctx context.Context, token string) error {

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return common.ErrNotFound
	}

	if session.AccessLevel == users.AccessWorker && s.presence != nil {
		s.presence.WorkerLoggedOut(ctx, session.Username)
	}

	return s.sessions.Delete(ctx, token)
}
