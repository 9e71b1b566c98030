package credentials

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prathap331/SB-Next/internal/database"
	"github.com/Prathap331/SB-Next/internal/testutil"
)

func newStore(t *testing.T) *Store {
	t.Helper()

	manager, err := database.NewManager(context.Background(), database.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	return NewStore(manager.DB(), "proj")
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestKeyUsesProjectRef(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "sb-proj-auth-token", newStore(t).Key())
}

func TestSaveAndReadOpaqueToken(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	store := newStore(t)

	require.NoError(t, store.Save(ctx, []byte(`{"access_token":"opaque-123","user":{"email":"a@b.c"}}`)))

	token, err := store.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "opaque-123", token)

	status, err := store.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.SignedIn)
	assert.Equal(t, "a@b.c", status.Email)
	assert.Nil(t, status.ExpiresAt)
}

func TestAccessTokenAbsent(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)

	token, err := newStore(t).AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSaveRejectsBlobWithoutToken(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	store := newStore(t)

	assert.ErrorIs(t, store.Save(ctx, []byte(`{"user":{}}`)), ErrInvalidBlob)
	assert.ErrorIs(t, store.Save(ctx, []byte(`not json`)), ErrInvalidBlob)
}

func TestMalformedBlobIsDeleted(t *testing.T) {
	t.Parallel()
	ctx, logs := testutil.NewTestContext(t)
	store := newStore(t)

	_, err := store.db.ExecContext(ctx,
		"INSERT INTO state (key, value, updated_at) VALUES (?, ?, 0)", store.Key(), []byte("{broken"))
	require.NoError(t, err)

	token, err := store.AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Contains(t, logs(), "discarding malformed auth token blob")

	var count int
	require.NoError(t, store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM state WHERE key = ?", store.Key()).Scan(&count))
	assert.Zero(t, count)
}

func TestExpiredJWTIsTreatedAsAbsent(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	store := newStore(t)

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	expired := signedToken(t, now.Add(-time.Minute))
	require.NoError(t, store.Save(ctx, []byte(fmt.Sprintf(`{"access_token":%q}`, expired))))

	token, err := store.AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	status, err := store.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.SignedIn)
	assert.True(t, status.Expired)
}

func TestValidJWTIsReturned(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	store := newStore(t)

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	valid := signedToken(t, now.Add(time.Hour))
	require.NoError(t, store.Save(ctx, []byte(fmt.Sprintf(`{"access_token":%q}`, valid))))

	token, err := store.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, valid, token)
}

func TestClear(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)
	store := newStore(t)

	require.NoError(t, store.Save(ctx, []byte(`{"access_token":"x"}`)))
	require.NoError(t, store.Clear(ctx))

	status, err := store.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.SignedIn)
}
