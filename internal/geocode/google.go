package geocode

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/example/commute-matching/internal/geo"
)

// Google geocodes through the Google Maps Geocoding API.
type Google struct {
	client *maps.Client
	region string
	city   string
}

// NewGoogle creates a geocoder biased to region (ccTLD, e.g. "in") with
// city appended to every query when set.
func NewGoogle(apiKey, region, city string) (*Google, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Google{client: client, region: region, city: city}, nil
}

func (g *Google) Geocode(ctx context.Context, location string) (geo.Point, error) {
	addr := strings.TrimSpace(location)
	if addr == "" {
		return geo.Point{}, ErrNoResult
	}
	if g.city != "" && !strings.Contains(strings.ToLower(addr), strings.ToLower(g.city)) {
		addr += ", " + g.city
	}
	res, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: addr, Region: g.region})
	if err != nil {
		return geo.Point{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(res) == 0 {
		return geo.Point{}, ErrNoResult
	}
	l := res[0].Geometry.Location
	return geo.Point{Lat: l.Lat, Lng: l.Lng}, nil
}
