package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spots/internal/domain/entities"
	"spots/internal/store"
	"spots/internal/store/memory"
)

func newUserStore(t *testing.T) *store.Store[entities.User] {
	t.Helper()
	return store.New(memory.New(), entities.UserSchema())
}

func newFavoriteStore(t *testing.T) *store.Store[entities.Favorite] {
	t.Helper()
	return store.New(memory.New(), entities.FavoriteSchema())
}

func TestSimpleKeySaveAndGet(t *testing.T) {
	ctx := context.Background()
	users := newUserStore(t)

	saved, err := users.Save(ctx, &entities.User{Username: "finn", Email: "finn@example.com"})
	require.NoError(t, err)
	require.Equal(t, "finn", saved.Username)

	got, err := users.Get(ctx, store.Key{Partition: "finn"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "finn", got.Username)
	assert.Equal(t, "finn@example.com", got.Email)
}

func TestSimpleKeyGeneratesID(t *testing.T) {
	ctx := context.Background()
	users := newUserStore(t)

	user := &entities.User{Email: "anon@example.com"}
	saved, err := users.Save(ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, saved.Username, "save must assign a generated id")

	// Saving the same entity again must keep the generated id stable.
	id := saved.Username
	saved, err = users.Save(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, id, saved.Username)

	all, err := users.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetAbsentKeyIsNotAnError(t *testing.T) {
	ctx := context.Background()
	users := newUserStore(t)

	got, err := users.Get(ctx, store.Key{Partition: "nobody"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	users := newUserStore(t)

	user := &entities.User{Username: "finn"}
	_, err := users.Save(ctx, user)
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, user))
	// Deleting the absent key again is a no-op, both times.
	require.NoError(t, users.Delete(ctx, user))
	require.NoError(t, users.Delete(ctx, user))

	got, err := users.Get(ctx, store.Key{Partition: "finn"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCompositeKeySaveAndGet(t *testing.T) {
	ctx := context.Background()
	favorites := newFavoriteStore(t)

	_, err := favorites.Save(ctx, &entities.Favorite{Username: "finn", SpotID: "spot-1"})
	require.NoError(t, err)

	got, err := favorites.Get(ctx, store.Key{Partition: "finn", Sort: "spot-1"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "finn", got.Username)
	assert.Equal(t, "spot-1", got.SpotID)

	absent, err := favorites.Get(ctx, store.Key{Partition: "finn", Sort: "spot-2"})
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestCompositeKeyIsolation(t *testing.T) {
	ctx := context.Background()
	favorites := newFavoriteStore(t)

	first := &entities.Favorite{Username: "finn", SpotID: "spot-x"}
	second := &entities.Favorite{Username: "finn", SpotID: "spot-y"}
	_, err := favorites.Save(ctx, first)
	require.NoError(t, err)
	_, err = favorites.Save(ctx, second)
	require.NoError(t, err)

	require.NoError(t, favorites.Delete(ctx, first))

	got, err := favorites.Get(ctx, store.Key{Partition: "finn", Sort: "spot-y"})
	require.NoError(t, err)
	require.NotNil(t, got, "deleting one favorite must not touch the other")

	gone, err := favorites.Get(ctx, store.Key{Partition: "finn", Sort: "spot-x"})
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestInconsistentKeyFailsFast(t *testing.T) {
	ctx := context.Background()
	users := newUserStore(t)
	favorites := newFavoriteStore(t)

	// A sort value presented to a simple-key table.
	_, err := users.Get(ctx, store.Key{Partition: "finn", Sort: "extra"})
	assert.ErrorIs(t, err, store.ErrInconsistentKey)

	// A composite-key entity with a missing key part.
	_, err = favorites.Save(ctx, &entities.Favorite{Username: "finn"})
	assert.ErrorIs(t, err, store.ErrInconsistentKey)

	_, err = favorites.Get(ctx, store.Key{Partition: "finn"})
	assert.ErrorIs(t, err, store.ErrInconsistentKey)
}

func TestFindAllAndDeleteAll(t *testing.T) {
	ctx := context.Background()
	users := newUserStore(t)

	for _, name := range []string{"finn", "kai", "mara"} {
		_, err := users.Save(ctx, &entities.User{Username: name})
		require.NoError(t, err)
	}

	all, err := users.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, users.DeleteAll(ctx))

	all, err = users.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestQuerySecondaryIndex(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	favorites := store.New(backend, entities.FavoriteSchema())

	for _, spotID := range []string{"c", "a", "b"} {
		_, err := favorites.Save(ctx, &entities.Favorite{Username: "finn", SpotID: spotID})
		require.NoError(t, err)
	}
	_, err := favorites.Save(ctx, &entities.Favorite{Username: "kai", SpotID: "a"})
	require.NoError(t, err)

	got, err := favorites.Query(ctx, store.Query{
		Index:     entities.UsernameSpotIndex,
		Partition: "finn",
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, got, 3, "partitions must not leak into each other")
	assert.Equal(t, "a", got[0].SpotID, "index pages are sort-key ordered")
	assert.Equal(t, "b", got[1].SpotID)
	assert.Equal(t, "c", got[2].SpotID)

	limited, err := favorites.Query(ctx, store.Query{
		Index:     entities.UsernameSpotIndex,
		Partition: "finn",
		Limit:     2,
	})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	unknown, err := favorites.Query(ctx, store.Query{Index: "no-such-index", Partition: "finn"})
	assert.Error(t, err)
	assert.Nil(t, unknown)
}

func TestQueryResidualFilter(t *testing.T) {
	ctx := context.Background()
	spots := store.New(memory.New(), entities.SpotSchema())

	for _, s := range []*entities.Spot{
		{ID: "1", Name: "berlin", Continent: "EU", Country: "DE"},
		{ID: "2", Name: "munich", Continent: "EU", Country: "DE"},
		{ID: "3", Name: "paris", Continent: "EU", Country: "FR"},
	} {
		_, err := spots.Save(ctx, s)
		require.NoError(t, err)
	}

	// The filter is evaluated after the key-range match, on non-key
	// attributes.
	got, err := spots.Query(ctx, store.Query{
		Index:     entities.ContinentCountryIndex,
		Partition: "EU",
		Filter:    map[string]any{"name": "munich"},
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}
