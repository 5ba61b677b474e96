// Package geo captures the single site location chosen with the map picker.
package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// MapsLinkTemplate is the fixed template used to derive a map link. Both
// placeholders receive the coordinates formatted with strconv 'f', -1.
const MapsLinkTemplate = "https://www.google.com/maps?q=%s,%s"

// ErrOutOfRange is returned for coordinates outside WGS84 bounds.
var ErrOutOfRange = errors.New("geo: coordinates out of range")

// Point is a raw coordinate pair from the picker.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// GeoPoint is a confirmed location with its derived map link.
type GeoPoint struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	MapsLink string  `json:"maps_link"`
}

// Picker is the external map-picking collaborator.
type Picker interface {
	Pick(ctx context.Context) (Point, error)
}

// PickerFunc adapts a function into a Picker.
type PickerFunc func(ctx context.Context) (Point, error)

// Pick calls fn.
func (fn PickerFunc) Pick(ctx context.Context) (Point, error) { return fn(ctx) }

// Confirm validates p and derives the full GeoPoint. On error the zero value
// is returned so callers never see partial coordinates.
func Confirm(p Point) (GeoPoint, error) {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) ||
		p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return GeoPoint{}, fmt.Errorf("%w: lat=%v lng=%v", ErrOutOfRange, p.Lat, p.Lng)
	}
	return GeoPoint{Lat: p.Lat, Lng: p.Lng, MapsLink: MapsLink(p.Lat, p.Lng)}, nil
}

// MapsLink renders MapsLinkTemplate for the coordinates.
func MapsLink(lat, lng float64) string {
	return fmt.Sprintf(MapsLinkTemplate, FormatCoordinate(lat), FormatCoordinate(lng))
}

// FormatCoordinate renders a coordinate with the shortest exact
// representation, so 51.5 stays "51.5".
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
