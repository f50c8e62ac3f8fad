package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spots/internal/domain/entities"
	"spots/internal/services"
	"spots/internal/store/memory"
)

func TestFavoriteLifecycle(t *testing.T) {
	ctx := context.Background()
	s := services.NewFavoriteService(memory.New(), 100)

	_, err := s.Save(ctx, &entities.Favorite{Username: "finn", SpotID: "spot-1"})
	require.NoError(t, err)
	_, err = s.Save(ctx, &entities.Favorite{Username: "finn", SpotID: "spot-2"})
	require.NoError(t, err)
	_, err = s.Save(ctx, &entities.Favorite{Username: "kai", SpotID: "spot-1"})
	require.NoError(t, err)

	mine, err := s.FindByUser(ctx, "finn")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "spot-1", mine[0].SpotID)
	assert.Equal(t, "spot-2", mine[1].SpotID)

	require.NoError(t, s.Delete(ctx, &entities.Favorite{Username: "finn", SpotID: "spot-1"}))

	mine, err = s.FindByUser(ctx, "finn")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "spot-2", mine[0].SpotID)

	// The other user's favorite is untouched.
	other, err := s.Get(ctx, "kai", "spot-1")
	require.NoError(t, err)
	assert.NotNil(t, other)
}

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	s := services.NewUserService(memory.New())

	saved, err := s.Save(ctx, &entities.User{Email: "finn@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, saved.Username)

	got, err := s.GetByUsername(ctx, saved.Username)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "finn@example.com", got.Email)

	require.NoError(t, s.Delete(ctx, got))

	gone, err := s.GetByUsername(ctx, saved.Username)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
