package auth

import (
	"context"
	"testing"

	"github.com/AntonTsoy/auth-service/internal/logging"
	"github.com/AntonTsoy/auth-service/internal/secret"
	"github.com/AntonTsoy/auth-service/internal/token"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newRedisBackedService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})

	svc := NewService(
		newMemAccounts(),
		token.NewRedisRepository(rdb, "test_rt"),
		secret.NewBcrypt(bcrypt.MinCost),
		token.NewSigner(testSecret),
		logging.Discard(),
	)
	return svc, mr
}

func TestService_RedisStoreSessionLifecycle(t *testing.T) {
	svc, mr := newRedisBackedService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "a@b.com", "password1"))

	first, err := svc.Login(ctx, "a@b.com", "password1")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "a@b.com", "password1")
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	access, err := svc.RefreshAccessToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, access)

	require.NoError(t, svc.Logout(ctx, first.RefreshToken))
	assert.ErrorIs(t, svc.Logout(ctx, first.RefreshToken), ErrTokenNotFound)

	_, err = svc.RefreshAccessToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	access, err = svc.RefreshAccessToken(ctx, second.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, access)

	// one account hash plus one owner key for the surviving session
	assert.Len(t, mr.Keys(), 2)
}

func TestService_RedisStoreUnavailable(t *testing.T) {
	svc, mr := newRedisBackedService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "a@b.com", "password1"))
	pair, err := svc.Login(ctx, "a@b.com", "password1")
	require.NoError(t, err)

	mr.SetError("ERR store down")
	defer mr.SetError("")

	_, err = svc.RefreshAccessToken(ctx, pair.RefreshToken)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenNotFound)
}
