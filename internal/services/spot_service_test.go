package services_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spots/internal/config"
	"spots/internal/domain/entities"
	"spots/internal/geo"
	"spots/internal/services"
	"spots/internal/store"
	"spots/internal/store/memory"
)

const (
	berlinLat = 52.5200
	berlinLon = 13.4050
)

func newSpotService() *services.SpotService {
	cfg := &config.Config{
		Store: config.StoreConfig{PageSize: 100},
		Geo:   config.GeoConfig{PrecisionBits: geo.DefaultPrecisionBits},
	}
	return services.NewSpotService(memory.New(), cfg)
}

func saveSpot(t *testing.T, s *services.SpotService, name, continent, country string, lat, lon float64) string {
	t.Helper()
	id, err := s.Save(context.Background(), &entities.Spot{
		Name:      name,
		Continent: continent,
		Country:   country,
		Position:  entities.NewPosition(lat, lon),
	})
	require.NoError(t, err)
	return id
}

func TestSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newSpotService()

	spot := &entities.Spot{
		Name:        "Eisbach wave",
		Description: "river wave",
		Continent:   "EU",
		Country:     "DE",
		Position:    entities.NewPosition(48.1430, 11.5878),
	}
	id, err := s.Save(ctx, spot)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, spot.Name, got.Name)
	assert.Equal(t, spot.Description, got.Description)
	assert.Equal(t, spot.Continent, got.Continent)
	assert.Equal(t, spot.Country, got.Country)
	assert.Equal(t, spot.Position, got.Position)

	wantHash, err := geo.EncodeBinary(48.1430, 11.5878, geo.DefaultPrecisionBits)
	require.NoError(t, err)
	assert.Equal(t, wantHash, got.Geohash, "geohash must be recomputed from the position on save")
}

func TestSaveOverwriteRecomputesGeohash(t *testing.T) {
	ctx := context.Background()
	s := newSpotService()

	id := saveSpot(t, s, "movable", "EU", "DE", berlinLat, berlinLon)

	moved := &entities.Spot{
		ID:        id,
		Name:      "movable",
		Continent: "EU",
		Country:   "PT",
		Position:  entities.NewPosition(38.6979, -9.4215),
	}
	sameID, err := s.Save(ctx, moved)
	require.NoError(t, err)
	assert.Equal(t, id, sameID)

	got, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)

	wantHash, err := geo.EncodeBinary(38.6979, -9.4215, geo.DefaultPrecisionBits)
	require.NoError(t, err)
	assert.Equal(t, wantHash, got.Geohash)
	assert.Equal(t, "PT", got.Country)
}

func TestSaveRejectsInvalidCoordinates(t *testing.T) {
	s := newSpotService()

	_, err := s.Save(context.Background(), &entities.Spot{
		Name:      "nowhere",
		Continent: "EU",
		Country:   "DE",
		Position:  entities.NewPosition(120, 13.4),
	})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)
}

func TestGetByIDAbsent(t *testing.T) {
	s := newSpotService()

	got, err := s.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindByContinentAndCountry(t *testing.T) {
	ctx := context.Background()
	s := newSpotService()

	saveSpot(t, s, "berlin", "EU", "DE", berlinLat, berlinLon)
	saveSpot(t, s, "munich", "EU", "DE", 48.1371, 11.5754)
	saveSpot(t, s, "ericeira", "EU", "PT", 38.9631, -9.4170)
	saveSpot(t, s, "malibu", "NA", "US", 34.0259, -118.7798)

	europe, err := s.FindByContinent(ctx, "EU")
	require.NoError(t, err)
	assert.Len(t, europe, 3)

	germany, err := s.FindByCountry(ctx, "EU", "DE")
	require.NoError(t, err)
	require.Len(t, germany, 2)
	for _, spot := range germany {
		assert.Equal(t, "DE", spot.Country)
	}

	nothing, err := s.FindByCountry(ctx, "EU", "US")
	require.NoError(t, err)
	assert.Empty(t, nothing)
}

// TestFindInRadiusBerlin is the reference scenario: 50 km around central
// Berlin must include a spot ~7.5 km away and exclude Paris (~880 km).
func TestFindInRadiusBerlin(t *testing.T) {
	ctx := context.Background()
	s := newSpotService()

	nearID := saveSpot(t, s, "near", "EU", "DE", 52.5, 13.3)
	saveSpot(t, s, "paris", "EU", "FR", 48.8566, 2.3522)
	saveSpot(t, s, "other continent", "NA", "US", 52.5, 13.3)

	results, err := s.FindInRadius(ctx, "EU", entities.NewPosition(berlinLat, berlinLon), 50000)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, nearID, results[0].Spot.ID)
	assert.InDelta(t, 7500, results[0].Meters, 500)
}

// TestFindInRadiusCoarsePrecision runs a radius search at a non-default
// indexing precision. Search prefixes must never be longer than the stored
// geohashes, or prefix matching would silently return nothing.
func TestFindInRadiusCoarsePrecision(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		Store: config.StoreConfig{PageSize: 100},
		Geo:   config.GeoConfig{PrecisionBits: 20},
	}
	s := services.NewSpotService(memory.New(), cfg)

	// ~13 m from the center, well within the 500 m radius.
	id := saveSpot(t, s, "next door", "EU", "DE", 52.5201, 13.4051)

	results, err := s.FindInRadius(ctx, "EU", entities.NewPosition(berlinLat, berlinLon), 500)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].Spot.ID)
}

// TestFindInRadiusExact seeds random spots around the center and checks
// the result is exactly the set within the radius, sorted by distance.
func TestFindInRadiusExact(t *testing.T) {
	ctx := context.Background()
	s := newSpotService()
	rng := rand.New(rand.NewSource(7))

	const radius = 40000.0
	center := entities.NewPosition(berlinLat, berlinLon)

	want := make(map[string]bool)
	for i := 0; i < 60; i++ {
		lat := berlinLat + (rng.Float64()-0.5)*1.2
		lon := berlinLon + (rng.Float64()-0.5)*1.2
		id := saveSpot(t, s, "seeded", "EU", "DE", lat, lon)
		if geo.Distance(berlinLat, berlinLon, lat, lon) <= radius {
			want[id] = true
		}
	}

	results, err := s.FindInRadius(ctx, "EU", center, radius)
	require.NoError(t, err)
	require.Len(t, results, len(want), "radius search must return exactly the spots within range")

	prev := -1.0
	for _, r := range results {
		assert.True(t, want[r.Spot.ID], "unexpected spot %s at %vm", r.Spot.ID, r.Meters)
		assert.LessOrEqual(t, r.Meters, radius)
		assert.GreaterOrEqual(t, r.Meters, prev, "results must be sorted by ascending distance")
		prev = r.Meters

		wantDist := geo.Distance(berlinLat, berlinLon, r.Spot.Position.Latitude, r.Spot.Position.Longitude)
		assert.InDelta(t, wantDist, r.Meters, 0.001)
	}
}

type failingQueryBackend struct {
	store.Backend
}

func (f failingQueryBackend) Query(ctx context.Context, t store.TableSpec, q store.Query) ([]store.Item, error) {
	return nil, store.Unavailable(errors.New("connection reset"))
}

// TestFindInRadiusFailsWhole verifies that a failed cell query fails the
// request instead of silently dropping that cell's candidates.
func TestFindInRadiusFailsWhole(t *testing.T) {
	cfg := &config.Config{
		Store: config.StoreConfig{PageSize: 100},
		Geo:   config.GeoConfig{PrecisionBits: geo.DefaultPrecisionBits},
	}
	s := services.NewSpotService(failingQueryBackend{memory.New()}, cfg)

	results, err := s.FindInRadius(context.Background(), "EU", entities.NewPosition(berlinLat, berlinLon), 50000)
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	assert.Nil(t, results)
}

func TestFindAllAndDeleteAllSpots(t *testing.T) {
	ctx := context.Background()
	s := newSpotService()

	saveSpot(t, s, "one", "EU", "DE", berlinLat, berlinLon)
	saveSpot(t, s, "two", "EU", "FR", 48.8566, 2.3522)

	all, err := s.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.DeleteAll(ctx))

	all, err = s.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
