package services

import (
	"context"
	"sort"
	"sync"

	"spots/internal/config"
	"spots/internal/domain/entities"
	"spots/internal/geo"
	"spots/internal/store"
)

// SpotDistance pairs a spot with its computed distance from a search
// center. It is the result shape of radius searches only; the distance is
// informational for that response and never persisted.
type SpotDistance struct {
	Spot   *entities.Spot `json:"spot"`
	Meters float64        `json:"distance_m"`
}

// SpotService is the geospatial query engine over the spot table. It is
// stateless apart from the store handle and safe for concurrent use.
type SpotService struct {
	spots         *store.Store[entities.Spot]
	precisionBits int
	pageSize      int
}

func NewSpotService(backend store.Backend, cfg *config.Config) *SpotService {
	return &SpotService{
		spots:         store.New(backend, entities.SpotSchema()),
		precisionBits: cfg.Geo.PrecisionBits,
		pageSize:      cfg.Store.PageSize,
	}
}

// GetByID retrieves a spot by id; (nil, nil) when absent.
func (s *SpotService) GetByID(ctx context.Context, id string) (*entities.Spot, error) {
	return s.spots.Get(ctx, store.Key{Partition: id})
}

// Save validates the spot's position, recomputes its geohash at the fixed
// indexing precision, and inserts or replaces it. The id is generated when
// absent and returned either way.
func (s *SpotService) Save(ctx context.Context, spot *entities.Spot) (string, error) {
	geohash, err := geo.EncodeBinary(spot.Position.Latitude, spot.Position.Longitude, s.precisionBits)
	if err != nil {
		return "", err
	}
	spot.Geohash = geohash

	saved, err := s.spots.Save(ctx, spot)
	if err != nil {
		return "", err
	}
	return saved.ID, nil
}

// Delete removes a spot; deleting an absent spot is a no-op.
func (s *SpotService) Delete(ctx context.Context, spot *entities.Spot) error {
	return s.spots.Delete(ctx, spot)
}

// DeleteAll clears the spot table. Test helper only.
func (s *SpotService) DeleteAll(ctx context.Context) error {
	return s.spots.DeleteAll(ctx)
}

// FindAll scans the whole spot table; potentially slow, administrative and
// test use only.
func (s *SpotService) FindAll(ctx context.Context) ([]*entities.Spot, error) {
	return s.spots.FindAll(ctx)
}

// FindByContinent returns one page of spots in the given continent.
func (s *SpotService) FindByContinent(ctx context.Context, continent string) ([]*entities.Spot, error) {
	return s.spots.Query(ctx, store.Query{
		Index:     entities.ContinentCountryIndex,
		Partition: continent,
		Limit:     s.pageSize,
	})
}

// FindByCountry returns one page of spots in the given country. Country is
// the sort key of the continent-country index, so this is a direct range
// match.
func (s *SpotService) FindByCountry(ctx context.Context, continent, country string) ([]*entities.Spot, error) {
	return s.spots.Query(ctx, store.Query{
		Index:     entities.ContinentCountryIndex,
		Partition: continent,
		Sort:      store.SortCondition{Equals: country},
		Limit:     s.pageSize,
	})
}

// FindInRadius returns the spots of a continent within radiusMeters of the
// center, sorted by ascending distance.
//
// The circle is decomposed into geohash cell prefixes, each scanned as an
// independent range of the continent-geohash index. The scans run
// concurrently and touch disjoint sort-key ranges; a failure of any one of
// them fails the whole request, since dropping a cell would silently
// truncate the result. Candidates from the cell scans are a superset of
// the true matches, so each one is distance-checked exactly before it is
// returned.
func (s *SpotService) FindInRadius(ctx context.Context, continent string, center entities.Position, radiusMeters float64) ([]SpotDistance, error) {
	cells, err := geo.SearchCells(center.Latitude, center.Longitude, radiusMeters, s.precisionBits)
	if err != nil {
		return nil, err
	}

	pages := make([][]*entities.Spot, len(cells))
	errs := make([]error, len(cells))

	var wg sync.WaitGroup
	for i, cell := range cells {
		wg.Add(1)
		go func(i int, cell string) {
			defer wg.Done()
			pages[i], errs[i] = s.spots.Query(ctx, store.Query{
				Index:     entities.ContinentGeohashIndex,
				Partition: continent,
				Sort:      store.SortCondition{Prefix: cell},
				Limit:     s.pageSize,
			})
		}(i, cell)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	// Overlapping cell bounds can return the same spot twice; dedup by id
	// before the fine filter.
	seen := make(map[string]struct{})
	var results []SpotDistance
	for _, page := range pages {
		for _, spot := range page {
			if _, ok := seen[spot.ID]; ok {
				continue
			}
			seen[spot.ID] = struct{}{}

			d := geo.Distance(center.Latitude, center.Longitude, spot.Position.Latitude, spot.Position.Longitude)
			if d > radiusMeters {
				continue
			}
			results = append(results, SpotDistance{Spot: spot, Meters: d})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Meters != results[j].Meters {
			return results[i].Meters < results[j].Meters
		}
		return results[i].Spot.ID < results[j].Spot.ID
	})

	return results, nil
}
