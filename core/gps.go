package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Precision is a GPS fuzzing level, expressed as kept decimal places.
type Precision int

const (
	PrecisionRegion       Precision = 0
	PrecisionCity         Precision = 1
	PrecisionNeighborhood Precision = 2
	PrecisionStreet       Precision = 3
	PrecisionExact        Precision = 6
)

var precisionNames = map[string]Precision{
	"exact":        PrecisionExact,
	"street":       PrecisionStreet,
	"neighborhood": PrecisionNeighborhood,
	"city":         PrecisionCity,
	"region":       PrecisionRegion,
}

// ParsePrecision maps a level name to a Precision.
func ParsePrecision(s string) (Precision, error) {
	p, ok := precisionNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return PrecisionExact, errors.Errorf("unknown GPS precision %q", s)
	}
	return p, nil
}

// Description returns a human-readable description of the level.
func (p Precision) Description() string {
	switch p {
	case PrecisionExact:
		return "Exact location (~1 meter)"
	case PrecisionStreet:
		return "Street level (~100 meters)"
	case PrecisionNeighborhood:
		return "Neighborhood (~1 kilometer)"
	case PrecisionCity:
		return "City level (~10 kilometers)"
	case PrecisionRegion:
		return "Region level (~100 kilometers)"
	}
	return fmt.Sprintf("%d decimal places", int(p))
}

// Fuzz rounds both axes of c to p decimal places, half away from zero.
func Fuzz(c GPSCoordinate, p Precision) GPSCoordinate {
	mul := math.Pow(10, float64(p))
	return GPSCoordinate{
		Latitude:  math.Round(c.Latitude*mul) / mul,
		Longitude: math.Round(c.Longitude*mul) / mul,
	}
}

// MapLink is a named URL pointing at a coordinate.
type MapLink struct {
	Name string
	URL  string
}

// MapLinks returns viewer links for c.
func MapLinks(c GPSCoordinate) []MapLink {
	lat, lon := formatFloat(c.Latitude), formatFloat(c.Longitude)
	return []MapLink{
		{"Google Maps", "https://maps.google.com/maps?q=" + lat + "," + lon},
		{"Apple Maps", "https://maps.apple.com/?ll=" + lat + "," + lon},
		{"OpenStreetMap", "https://www.openstreetmap.org/?mlat=" + lat + "&mlon=" + lon},
	}
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%v", f)
}
