package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/common"
	"github.com/taskhive/taskhive/internal/server/config"
	"github.com/taskhive/taskhive/internal/server/users"
)

type fakePresence struct {
	loggedIn  []string
	loggedOut []string
}

func (f *fakePresence) WorkerLoggedIn(ctx context.Context, username string) {
	f.loggedIn = append(f.loggedIn, username)
}

func (f *fakePresence) WorkerLoggedOut(ctx context.Context, username string) {
	f.loggedOut = append(f.loggedOut, username)
}

func newTestService(t *testing.T) (*Service, *MemorySessionRepository, *fakePresence) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	sessions := NewMemorySessionRepository()
	presence := &fakePresence{}
	return NewService(users.NewMemoryRepository(), sessions, presence, cfg), sessions, presence
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	u, err := svc.Register(ctx, "edd", "pw", users.AccessCustomer)
	require.NoError(t, err)
	assert.Equal(t, "edd", u.Name)
	assert.Len(t, u.Salt, saltLen)
	assert.Len(t, u.Verifier, argonKeyLen)

	_, err = svc.Register(ctx, "edd", "other", users.AccessWorker)
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestService_Register_BadAccessLevel(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), "edd", "pw", users.AccessLevel("admin"))
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	svc, _, presence := newTestService(t)

	_, err := svc.Register(ctx, "edd", "pw", users.AccessCustomer)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "bob", "hunter2", users.AccessWorker)
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		level    users.AccessLevel
		wantErr  error
	}{
		{name: "unknown user", username: "nobody", password: "pw", level: users.AccessCustomer, wantErr: common.ErrAuth},
		{name: "wrong password", username: "edd", password: "wrong", level: users.AccessCustomer, wantErr: common.ErrAuth},
		{name: "wrong access level", username: "edd", password: "pw", level: users.AccessWorker, wantErr: common.ErrAuth},
		{name: "customer ok", username: "edd", password: "pw", level: users.AccessCustomer},
		{name: "worker ok", username: "bob", password: "hunter2", level: users.AccessWorker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := svc.Login(ctx, tt.username, tt.password, tt.level)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, token, tokenByteLen*2)
		})
	}

	// only the worker login should have touched presence
	assert.Equal(t, []string{"bob"}, presence.loggedIn)
}

func TestService_Login_ConcurrentSessions(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.Register(ctx, "edd", "pw", users.AccessCustomer)
	require.NoError(t, err)

	t1, err := svc.Login(ctx, "edd", "pw", users.AccessCustomer)
	require.NoError(t, err)
	t2, err := svc.Login(ctx, "edd", "pw", users.AccessCustomer)
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2)

	_, err = svc.ValidateSession(ctx, t1)
	assert.NoError(t, err)
	_, err = svc.ValidateSession(ctx, t2)
	assert.NoError(t, err)
}

func TestService_ValidateSession(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.Register(ctx, "edd", "pw", users.AccessCustomer)
	require.NoError(t, err)

	token, err := svc.Login(ctx, "edd", "pw", users.AccessCustomer)
	require.NoError(t, err)

	session, err := svc.ValidateSession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "edd", session.Username)
	assert.Equal(t, users.AccessCustomer, session.AccessLevel)

	_, err = svc.ValidateSession(ctx, "deadbeef")
	assert.ErrorIs(t, err, common.ErrSessionExpired)
}

func TestService_ValidateSession_Expired(t *testing.T) {
	ctx := context.Background()
	svc, sessions, _ := newTestService(t)

	// plant a session that started well beyond the validity window
	stale := &Session{
		Token:       "stale-token",
		Username:    "edd",
		AccessLevel: users.AccessCustomer,
		StartedAt:   time.Now().Add(-time.Hour),
	}
	require.NoError(t, sessions.Create(ctx, stale))

	_, err := svc.ValidateSession(ctx, "stale-token")
	assert.ErrorIs(t, err, common.ErrSessionExpired)

	// lazy checking: the session is still in the store until logout
	_, err = sessions.Get(ctx, "stale-token")
	assert.NoError(t, err)
}

func TestService_Logout(t *testing.T) {
	ctx := context.Background()
	svc, _, presence := newTestService(t)

	_, err := svc.Register(ctx, "bob", "hunter2", users.AccessWorker)
	require.NoError(t, err)

	token, err := svc.Login(ctx, "bob", "hunter2", users.AccessWorker)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))
	assert.Equal(t, []string{"bob"}, presence.loggedOut)

	// second logout fails: the token is already gone
	assert.ErrorIs(t, svc.Logout(ctx, token), common.ErrNotFound)

	_, err = svc.ValidateSession(ctx, token)
	assert.ErrorIs(t, err, common.ErrSessionExpired)
}
