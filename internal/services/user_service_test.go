package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUser(t *testing.T) {
	ctx := context.Background()
	userRepo := newFakeUserRepo()
	svc := NewUserService(userRepo, []int64{42}, testLogger())

	t.Run("creates a new user", func(t *testing.T) {
		user, created, err := svc.EnsureUser(ctx, &TelegramProfile{
			TelegramID: 1,
			Username:   "alice",
			FirstName:  "Alice",
		})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "alice", user.TelegramUsername)
		assert.False(t, user.IsAdmin)
		assert.Equal(t, "India", user.Preferences.Region)
	})

	t.Run("second call returns the existing user", func(t *testing.T) {
		user, created, err := svc.EnsureUser(ctx, &TelegramProfile{TelegramID: 1, Username: "alice"})
		require.NoError(t, err)
		assert.False(t, created)
		assert.EqualValues(t, 1, user.TelegramID)
	})

	t.Run("configured admin ids get the admin flag", func(t *testing.T) {
		user, created, err := svc.EnsureUser(ctx, &TelegramProfile{TelegramID: 42, Username: "boss"})
		require.NoError(t, err)
		assert.True(t, created)
		assert.True(t, user.IsAdmin)
	})

	t.Run("renamed telegram accounts get refreshed", func(t *testing.T) {
		_, _, err := svc.EnsureUser(ctx, &TelegramProfile{TelegramID: 1, Username: "alice2"})
		require.NoError(t, err)

		user, err := userRepo.GetByTelegramID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "alice2", user.TelegramUsername)
	})
}
