package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/reunite/internal/db"
	"github.com/erazemk/reunite/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "testuser", "", "hash123", model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "testuser", user.Username)
	assert.Equal(t, model.RoleUser, user.Role)

	got, err := GetUser(ctx, database, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "testuser", got.Username)
}

func TestGetUserByUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "alice", "", "hash", model.RoleAdmin)

	user, err := GetUserByUsername(ctx, database, "alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)

	missing, err := GetUserByUsername(ctx, database, "bob")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListUsers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "a", "", "hash", model.RoleUser)
	CreateUser(ctx, database, "b", "", "hash", model.RoleAdmin)

	users, err := ListUsers(ctx, database)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestDeleteUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "deleteme", "", "hash", model.RoleUser)
	require.NoError(t, DeleteUser(ctx, database, user.ID))

	users, _ := ListUsers(ctx, database)
	assert.Empty(t, users)
}

func TestUpdateUserPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "pwuser", "", "oldhash", model.RoleUser)
	require.NoError(t, UpdateUserPassword(ctx, database, user.ID, "newhash"))

	got, _ := GetUser(ctx, database, user.ID)
	assert.Equal(t, "newhash", got.PasswordHash)
}

func TestUsernameReusableAfterDelete(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	old, _ := CreateUser(ctx, database, "carol", "", "hash", model.RoleUser)
	require.NoError(t, DeleteUser(ctx, database, old.ID))

	fresh, err := CreateUser(ctx, database, "carol", "carol@example.com", "hash2", model.RoleAdmin)
	require.NoError(t, err, "CreateUser after delete")

	got, err := GetUserByUsername(ctx, database, "carol")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, fresh.ID, got.ID, "expected the active user")
	assert.Equal(t, "carol@example.com", got.Email)
}

func TestUserUpdatesOnMissingUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "gone", "", "hash", model.RoleUser)
	require.NoError(t, DeleteUser(ctx, database, user.ID))

	assert.ErrorIs(t, DeleteUser(ctx, database, user.ID), ErrNotFound, "second delete")
	assert.ErrorIs(t, UpdateUser(ctx, database, user.ID, "", model.RoleAdmin), ErrNotFound, "update deleted user")
	assert.ErrorIs(t, UpdateUserPassword(ctx, database, 999, "hash"), ErrNotFound, "password for missing user")
}
