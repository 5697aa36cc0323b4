package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/reunite/internal/db"
)

func TestRevokeAndCheckToken(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	revoked, err := IsTokenRevoked(ctx, database, "test-jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "token should not be revoked initially")

	require.NoError(t, RevokeToken(ctx, database, "test-jti-1", time.Now().Add(time.Hour)))

	revoked, err = IsTokenRevoked(ctx, database, "test-jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = IsTokenRevoked(ctx, database, "test-jti-2")
	require.NoError(t, err)
	assert.False(t, revoked, "different token should not be revoked")
}

func TestRevokeTokenIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// INSERT OR IGNORE.
	require.NoError(t, RevokeToken(ctx, database, "test-jti-1", time.Now().Add(time.Hour)))
	require.NoError(t, RevokeToken(ctx, database, "test-jti-1", time.Now().Add(time.Hour)))
}

func TestPurgeRevokedTokens(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, RevokeToken(ctx, database, "live", now.Add(time.Hour)))
	_, err := database.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`, "stale", now.Add(-time.Hour).UTC(),
	)
	require.NoError(t, err, "inserting stale revocation")

	n, err := PurgeRevokedTokens(ctx, database, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	revoked, _ := IsTokenRevoked(ctx, database, "live")
	assert.True(t, revoked, "live revocation was purged")
}
