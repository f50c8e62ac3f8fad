package services

import (
	"context"

	"spots/internal/domain/entities"
	"spots/internal/store"
)

// FavoriteService is CRUD over favorite markers, the composite-key use of
// the persistence layer: each favorite is identified by the (username,
// spot id) pair.
type FavoriteService struct {
	favorites *store.Store[entities.Favorite]
	pageSize  int
}

func NewFavoriteService(backend store.Backend, pageSize int) *FavoriteService {
	return &FavoriteService{
		favorites: store.New(backend, entities.FavoriteSchema()),
		pageSize:  pageSize,
	}
}

func (s *FavoriteService) Get(ctx context.Context, username, spotID string) (*entities.Favorite, error) {
	return s.favorites.Get(ctx, store.Key{Partition: username, Sort: spotID})
}

func (s *FavoriteService) Save(ctx context.Context, favorite *entities.Favorite) (*entities.Favorite, error) {
	return s.favorites.Save(ctx, favorite)
}

func (s *FavoriteService) Delete(ctx context.Context, favorite *entities.Favorite) error {
	return s.favorites.Delete(ctx, favorite)
}

// FindByUser returns one page of a user's favorites, ordered by spot id.
func (s *FavoriteService) FindByUser(ctx context.Context, username string) ([]*entities.Favorite, error) {
	return s.favorites.Query(ctx, store.Query{
		Index:     entities.UsernameSpotIndex,
		Partition: username,
		Limit:     s.pageSize,
	})
}

// FindAll scans all favorites; administrative and test use only.
func (s *FavoriteService) FindAll(ctx context.Context) ([]*entities.Favorite, error) {
	return s.favorites.FindAll(ctx)
}
