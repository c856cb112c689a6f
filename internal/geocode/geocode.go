package geocode

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/example/commute-matching/internal/geo"
)

var ErrNoResult = errors.New("geocode: no result")

// Geocoder resolves a free-text location to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (geo.Point, error)
}

// BangaloreCentre is used when nothing better is known about a location.
var BangaloreCentre = geo.Point{Lat: 12.9716, Lng: 77.5946}

// Static resolves locations from a fixed table, matching entries by
// case-insensitive substring and falling back to a single point.
type Static struct {
	known    []staticEntry
	fallback geo.Point
}

type staticEntry struct {
	name string
	p    geo.Point
}

// NewStatic builds a Static geocoder. Entries are tried in the given order.
func NewStatic(fallback geo.Point, known map[string]geo.Point, order ...string) *Static {
	s := &Static{fallback: fallback}
	seen := make(map[string]bool, len(known))
	add := func(name string) {
		p, ok := known[name]
		if !ok || seen[name] {
			return
		}
		seen[name] = true
		s.known = append(s.known, staticEntry{name: strings.ToLower(name), p: p})
	}
	for _, name := range order {
		add(name)
	}
	for name := range known {
		add(name)
	}
	return s
}

func (s *Static) Geocode(_ context.Context, location string) (geo.Point, error) {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc != "" {
		for _, e := range s.known {
			if strings.Contains(loc, e.name) {
				return e.p, nil
			}
		}
	}
	return s.fallback, nil
}

// Fallback answers from secondary when primary finds no match for a
// location. Other primary errors are returned unchanged.
type Fallback struct {
	primary   Geocoder
	secondary Geocoder
	logger    *slog.Logger
}

func NewFallback(primary, secondary Geocoder, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *Fallback) Geocode(ctx context.Context, location string) (geo.Point, error) {
	p, err := f.primary.Geocode(ctx, location)
	if errors.Is(err, ErrNoResult) {
		f.logger.InfoContext(ctx, "no geocode match, using fallback", "location", location)
		return f.secondary.Geocode(ctx, location)
	}
	return p, err
}
