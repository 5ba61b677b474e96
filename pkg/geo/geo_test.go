package geo_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-instructform/pkg/geo"
)

func TestConfirm_DerivesMapsLink(t *testing.T) {
	got, err := geo.Confirm(geo.Point{Lat: 51.5, Lng: -0.1})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	want := geo.GeoPoint{Lat: 51.5, Lng: -0.1, MapsLink: "https://www.google.com/maps?q=51.5,-0.1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("geo point mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(got.MapsLink, "51.5") || !strings.Contains(got.MapsLink, "-0.1") {
		t.Fatalf("maps link must embed both coordinates verbatim: %s", got.MapsLink)
	}
}

func TestConfirm_RejectsOutOfRange(t *testing.T) {
	nan := math.NaN()
	for _, p := range []geo.Point{{Lat: 91}, {Lat: -91}, {Lng: 181}, {Lng: -180.5}, {Lat: nan}, {Lng: nan}, {Lat: nan, Lng: nan}} {
		got, err := geo.Confirm(p)
		if !errors.Is(err, geo.ErrOutOfRange) {
			t.Fatalf("Confirm(%+v) error = %v, want ErrOutOfRange", p, err)
		}
		if got != (geo.GeoPoint{}) {
			t.Fatalf("expected zero GeoPoint on error, got %+v", got)
		}
	}
}
