// Package entities holds the persisted domain types and their table
// declarations. Each entity declares its key attributes and secondary
// indexes once, next to the type; the store layer consumes the declaration
// generically.
package entities

import (
	"spots/internal/store"
)

// Position is a geographic coordinate pair. It is a small immutable value
// type; validity (lat in [-90, 90], lon in [-180, 180]) is enforced by the
// geo package before anything touches the store.
type Position struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

func NewPosition(lat, lon float64) Position {
	return Position{Latitude: lat, Longitude: lon}
}

// Spot is a geographically located place a client registered. Geohash is
// the binary geohash of Position at the fixed indexing precision; it is
// recomputed from Position on every save and never diverges from it.
type Spot struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Continent   string   `json:"continent"`
	Country     string   `json:"country"`
	Position    Position `json:"position"`
	Geohash     string   `json:"geohash,omitempty"`
}

// Index names match the provisioned secondary indexes of the spot table.
const (
	SpotTable             = "spot"
	ContinentCountryIndex = "continent-country-index"
	ContinentGeohashIndex = "continent-geohash-index"
)

// SpotSchema declares the spot table: simple key on id, plus the two
// continent-partitioned indexes the query engine scans.
func SpotSchema() store.Schema[Spot] {
	return store.Schema[Spot]{
		Table: store.TableSpec{
			Name: SpotTable,
			Key:  store.KeySpec{PartitionAttr: "id"},
			Indexes: []store.IndexSpec{
				{Name: ContinentCountryIndex, Key: store.KeySpec{PartitionAttr: "continent", SortAttr: "country"}},
				{Name: ContinentGeohashIndex, Key: store.KeySpec{PartitionAttr: "continent", SortAttr: "geohash"}},
			},
		},
		Key: func(s *Spot) store.Key {
			return store.Key{Partition: s.ID}
		},
		SetGeneratedID: func(s *Spot, id string) {
			s.ID = id
		},
		ToItem: func(s *Spot) store.Item {
			return store.Item{
				"id":          s.ID,
				"name":        s.Name,
				"description": s.Description,
				"continent":   s.Continent,
				"country":     s.Country,
				"lat":         s.Position.Latitude,
				"lon":         s.Position.Longitude,
				"geohash":     s.Geohash,
			}
		},
		FromItem: func(item store.Item) (*Spot, error) {
			return &Spot{
				ID:          stringAttr(item, "id"),
				Name:        stringAttr(item, "name"),
				Description: stringAttr(item, "description"),
				Continent:   stringAttr(item, "continent"),
				Country:     stringAttr(item, "country"),
				Position:    NewPosition(floatAttr(item, "lat"), floatAttr(item, "lon")),
				Geohash:     stringAttr(item, "geohash"),
			}, nil
		},
	}
}

func stringAttr(item store.Item, attr string) string {
	s, _ := item[attr].(string)
	return s
}

func floatAttr(item store.Item, attr string) float64 {
	f, _ := item[attr].(float64)
	return f
}
