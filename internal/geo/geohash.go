// Package geo implements geohash encoding and the circle decomposition used
// by the radius search.
//
// A geohash encodes a latitude/longitude pair by recursively bisecting the
// coordinate ranges and interleaving the resulting bits, longitude first.
// Nearby locations share a common prefix, so a sorted index over geohashes
// answers proximity queries with a small number of prefix range scans.
//
// Two representations of the same bit stream are used: the binary form
// ("0110...", one character per bit), which is what gets stored in the
// continent-geohash index because it allows prefixes of arbitrary bit
// length, and the conventional base-32 form (5 bits per character).
package geo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// ErrInvalidCoordinate is returned for latitudes outside [-90, 90],
// longitudes outside [-180, 180], or non-positive radii. It is checked
// before any store access.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// DefaultPrecisionBits is the fixed precision at which spot geohashes are
// indexed: 50 bits = 10 base-32 characters, cells of well under a meter.
// Search prefixes are always coarser than this.
const DefaultPrecisionBits = 50

const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

var base32Index = map[byte]int{}

func init() {
	for i := 0; i < len(base32); i++ {
		base32Index[base32[i]] = i
	}
}

func validate(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrInvalidCoordinate
	}
	return nil
}

// EncodeBinary converts latitude and longitude to a binary geohash string of
// the given bit length. Even bits (starting at 0) encode longitude, odd bits
// latitude.
func EncodeBinary(lat, lon float64, bits int) (string, error) {
	if err := validate(lat, lon); err != nil {
		return "", err
	}
	if bits <= 0 {
		bits = DefaultPrecisionBits
	}

	minLat, maxLat := -90.0, 90.0
	minLon, maxLon := -180.0, 180.0

	var hash strings.Builder
	hash.Grow(bits)
	even := true

	for hash.Len() < bits {
		if even {
			mid := (minLon + maxLon) / 2
			if lon >= mid {
				hash.WriteByte('1')
				minLon = mid
			} else {
				hash.WriteByte('0')
				maxLon = mid
			}
		} else {
			mid := (minLat + maxLat) / 2
			if lat >= mid {
				hash.WriteByte('1')
				minLat = mid
			} else {
				hash.WriteByte('0')
				maxLat = mid
			}
		}
		even = !even
	}

	return hash.String(), nil
}

// Encode converts latitude and longitude to a base-32 geohash string with the
// given precision in characters. It encodes the same bit stream as
// EncodeBinary at 5 bits per character.
func Encode(lat, lon float64, precision int) (string, error) {
	if precision <= 0 {
		precision = DefaultPrecisionBits / 5
	}
	bin, err := EncodeBinary(lat, lon, precision*5)
	if err != nil {
		return "", err
	}
	return ToBase32(bin), nil
}

// ToBase32 converts a binary geohash to base-32 form. Trailing bits that do
// not fill a 5-bit group are dropped.
func ToBase32(bin string) string {
	var hash strings.Builder
	hash.Grow(len(bin) / 5)
	for i := 0; i+5 <= len(bin); i += 5 {
		ch := 0
		for j := 0; j < 5; j++ {
			ch <<= 1
			if bin[i+j] == '1' {
				ch |= 1
			}
		}
		hash.WriteByte(base32[ch])
	}
	return hash.String()
}

// FromBase32 converts a base-32 geohash to its binary form. Characters
// outside the geohash alphabet fail the conversion; silently dropping them
// would make the round trip with ToBase32 lossy.
func FromBase32(hash string) (string, error) {
	var bin strings.Builder
	bin.Grow(len(hash) * 5)
	for i := 0; i < len(hash); i++ {
		ch, ok := base32Index[hash[i]]
		if !ok {
			return "", fmt.Errorf("invalid geohash character %q", hash[i])
		}
		for j := 4; j >= 0; j-- {
			if (ch>>j)&1 == 1 {
				bin.WriteByte('1')
			} else {
				bin.WriteByte('0')
			}
		}
	}
	return bin.String(), nil
}

// CellBound returns the bounding box of the region a binary geohash cell
// denotes, as a lon/lat orb.Bound. The empty cell denotes the whole globe.
func CellBound(cell string) orb.Bound {
	minLat, maxLat := -90.0, 90.0
	minLon, maxLon := -180.0, 180.0
	even := true

	for i := 0; i < len(cell); i++ {
		bit := cell[i] == '1'
		if even {
			mid := (minLon + maxLon) / 2
			if bit {
				minLon = mid
			} else {
				maxLon = mid
			}
		} else {
			mid := (minLat + maxLat) / 2
			if bit {
				minLat = mid
			} else {
				maxLat = mid
			}
		}
		even = !even
	}

	return orb.Bound{
		Min: orb.Point{minLon, minLat},
		Max: orb.Point{maxLon, maxLat},
	}
}
