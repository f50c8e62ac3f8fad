package entities

import (
	"spots/internal/store"
)

// Favorite marks a spot a user likes. It is keyed by the (username, spot
// id) pair, the composite-key shape of the persistence layer: both parts
// are required and together unique.
type Favorite struct {
	Username string `json:"username"`
	SpotID   string `json:"spot_id"`
}

const (
	FavoriteTable     = "favorite"
	UsernameSpotIndex = "username-spot-index"
)

func FavoriteSchema() store.Schema[Favorite] {
	return store.Schema[Favorite]{
		Table: store.TableSpec{
			Name: FavoriteTable,
			Key:  store.KeySpec{PartitionAttr: "username", SortAttr: "spot_id"},
			Indexes: []store.IndexSpec{
				{Name: UsernameSpotIndex, Key: store.KeySpec{PartitionAttr: "username", SortAttr: "spot_id"}},
			},
		},
		Key: func(f *Favorite) store.Key {
			return store.Key{Partition: f.Username, Sort: f.SpotID}
		},
		ToItem: func(f *Favorite) store.Item {
			return store.Item{
				"username": f.Username,
				"spot_id":  f.SpotID,
			}
		},
		FromItem: func(item store.Item) (*Favorite, error) {
			return &Favorite{
				Username: stringAttr(item, "username"),
				SpotID:   stringAttr(item, "spot_id"),
			}, nil
		},
	}
}
