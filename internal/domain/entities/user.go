package entities

import (
	"spots/internal/store"
)

// User is a profile keyed by a single attribute, the simple-key shape of
// the persistence layer. A user saved without a username gets a generated
// one.
type User struct {
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

const UserTable = "user"

func UserSchema() store.Schema[User] {
	return store.Schema[User]{
		Table: store.TableSpec{
			Name: UserTable,
			Key:  store.KeySpec{PartitionAttr: "username"},
		},
		Key: func(u *User) store.Key {
			return store.Key{Partition: u.Username}
		},
		SetGeneratedID: func(u *User, id string) {
			u.Username = id
		},
		ToItem: func(u *User) store.Item {
			return store.Item{
				"username":     u.Username,
				"email":        u.Email,
				"display_name": u.DisplayName,
			}
		},
		FromItem: func(item store.Item) (*User, error) {
			return &User{
				Username:    stringAttr(item, "username"),
				Email:       stringAttr(item, "email"),
				DisplayName: stringAttr(item, "display_name"),
			}, nil
		},
	}
}
