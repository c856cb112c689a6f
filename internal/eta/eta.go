package eta

import (
	"fmt"
	"math"
	"time"

	"github.com/example/commute-matching/internal/geo"
	"github.com/example/commute-matching/internal/models"
)

// Bracket is a distance range from the commute policy travel-time matrix.
type Bracket struct {
	Label       string
	TimeRange   string
	BaseMinutes int
	MaxKm       float64 // inclusive; +Inf for the last bracket
}

var brackets = []Bracket{
	{Label: "0-10km", TimeRange: "0-60 mins", BaseMinutes: 30, MaxKm: 10},
	{Label: "11-20km", TimeRange: "60-90 mins", BaseMinutes: 75, MaxKm: 20},
	{Label: "21-30km", TimeRange: "90-120 mins", BaseMinutes: 105, MaxKm: 30},
	{Label: "30km+", TimeRange: "120-150 mins", BaseMinutes: 135, MaxKm: math.Inf(1)},
}

func BracketFor(km float64) Bracket {
	for _, b := range brackets {
		if km <= b.MaxKm {
			return b
		}
	}
	return brackets[len(brackets)-1]
}

// TrafficFactor is the congestion multiplier for an hour of the day.
func TrafficFactor(hour int) float64 {
	switch {
	case hour >= 7 && hour <= 10: // morning rush
		return 1.5
	case hour >= 18 && hour <= 21: // evening rush
		return 1.8
	case hour >= 22 || hour <= 5:
		return 0.7
	default:
		return 1.0
	}
}

func TrafficCondition(factor float64) string {
	switch {
	case factor >= 1.5:
		return "Heavy Traffic"
	case factor >= 1.2:
		return "Moderate Traffic"
	case factor <= 0.8:
		return "Light Traffic"
	default:
		return "Normal Traffic"
	}
}

type TravelEstimate struct {
	DistanceKm float64
	Bracket    Bracket
	Factor     float64
	Minutes    int
}

// Estimate looks up the bracket for km and scales its base time by the
// traffic factor for hour, truncating to whole minutes.
func Estimate(km float64, hour int) TravelEstimate {
	b := BracketFor(km)
	f := TrafficFactor(hour)
	return TravelEstimate{
		DistanceKm: km,
		Bracket:    b,
		Factor:     f,
		Minutes:    int(math.Floor(float64(b.BaseMinutes) * f)),
	}
}

// Config holds the office location and the commute policy buffers.
type Config struct {
	Office           geo.Point
	PreLoginBuffer   time.Duration
	PostLogoutBuffer time.Duration
	SociableStart    string
	SociableEnd      string
}

func DefaultConfig() Config {
	return Config{
		Office:           geo.Point{Lat: 12.9698, Lng: 77.7500}, // Whitefield, ITPL Main Road
		PreLoginBuffer:   15 * time.Minute,
		PostLogoutBuffer: 20 * time.Minute,
		SociableStart:    "06:30",
		SociableEnd:      "20:30",
	}
}

type Estimator struct {
	cfg           Config
	sociableStart TimeOfDay
	sociableEnd   TimeOfDay
	cache         *Cache
}

// NewEstimator validates cfg. cache may be nil.
func NewEstimator(cfg Config, cache *Cache) (*Estimator, error) {
	start, err := ParseTimeOfDay(cfg.SociableStart)
	if err != nil {
		return nil, fmt.Errorf("sociable start: %w", err)
	}
	end, err := ParseTimeOfDay(cfg.SociableEnd)
	if err != nil {
		return nil, fmt.Errorf("sociable end: %w", err)
	}
	if cfg.PreLoginBuffer < 0 || cfg.PostLogoutBuffer < 0 {
		return nil, fmt.Errorf("eta buffers must not be negative")
	}
	return &Estimator{cfg: cfg, sociableStart: start, sociableEnd: end, cache: cache}, nil
}

func (e *Estimator) Office() geo.Point { return e.cfg.Office }

// Plan estimates travel from the office to pickup at now's hour and works
// back from the shift start: pickup = shift - (travel + pre-login buffer).
func (e *Estimator) Plan(pickup geo.Point, shift string, now time.Time) (models.ETAEstimate, error) {
	shiftAt, err := ParseTimeOfDay(shift)
	if err != nil {
		return models.ETAEstimate{}, err
	}
	hour := now.Hour()

	var te TravelEstimate
	cached := false
	if e.cache != nil {
		te, cached = e.cache.Get(pickup, hour)
	}
	if !cached {
		te = Estimate(geo.DistanceKm(e.cfg.Office, pickup), hour)
		if e.cache != nil {
			e.cache.Set(pickup, hour, te)
		}
	}

	buffer := int(e.cfg.PreLoginBuffer / time.Minute)
	pickupAt := shiftAt.Add(-(te.Minutes + buffer))
	return models.ETAEstimate{
		Pickup:           pickup,
		DistanceKm:       math.Round(te.DistanceKm*100) / 100,
		Bracket:          te.Bracket.Label,
		TimeRange:        te.Bracket.TimeRange,
		TrafficFactor:    te.Factor,
		TravelMinutes:    te.Minutes,
		ShiftTime:        shiftAt.String(),
		PickupTime:       pickupAt.String(),
		ETAAtPickup:      pickupAt.Add(te.Minutes).String(),
		TrafficCondition: TrafficCondition(te.Factor),
		ShiftWindow:      e.Window(shiftAt),
	}, nil
}

// DropOff is the latest cab departure for a shift ending at logout.
func (e *Estimator) DropOff(logout string) (string, error) {
	t, err := ParseTimeOfDay(logout)
	if err != nil {
		return "", err
	}
	return t.Add(int(e.cfg.PostLogoutBuffer / time.Minute)).String(), nil
}

// Window classifies a shift time as sociable or unsociable hours.
func (e *Estimator) Window(t TimeOfDay) string {
	var in bool
	if e.sociableStart <= e.sociableEnd {
		in = t >= e.sociableStart && t < e.sociableEnd
	} else {
		in = t >= e.sociableStart || t < e.sociableEnd
	}
	if in {
		return "sociable"
	}
	return "unsociable"
}
