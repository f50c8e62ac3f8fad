package services

import (
	"context"

	"spots/internal/domain/entities"
	"spots/internal/store"
)

// UserService is CRUD over user profiles, the simple-key use of the
// persistence layer.
type UserService struct {
	users *store.Store[entities.User]
}

func NewUserService(backend store.Backend) *UserService {
	return &UserService{
		users: store.New(backend, entities.UserSchema()),
	}
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	return s.users.Get(ctx, store.Key{Partition: username})
}

// Save inserts or replaces a user; a missing username gets a generated id.
func (s *UserService) Save(ctx context.Context, user *entities.User) (*entities.User, error) {
	return s.users.Save(ctx, user)
}

func (s *UserService) Delete(ctx context.Context, user *entities.User) error {
	return s.users.Delete(ctx, user)
}

// FindAll scans all users; administrative and test use only.
func (s *UserService) FindAll(ctx context.Context) ([]*entities.User, error) {
	return s.users.FindAll(ctx)
}
