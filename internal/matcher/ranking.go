package matcher

import (
	"sort"

	"github.com/example/commute-matching/internal/models"
	"github.com/example/commute-matching/internal/zone"
)

const (
	sameZonePoints  = 10
	otherZonePoints = 5
	dayPoints       = 10
	nightPoints     = 5
)

// Ranker orders drivers by zone agreement with the employee and time of
// day. Points are higher-is-better.
type Ranker struct {
	zones *zone.Classifier
}

func NewRanker(zones *zone.Classifier) *Ranker {
	return &Ranker{zones: zones}
}

func (r *Ranker) Rank(employeeLocation string, candidates []models.DriverCandidate, hour int) []models.ScoredCandidate {
	employeeZone := r.zones.Classify(employeeLocation)
	timePoints := nightPoints
	if hour >= 6 && hour <= 22 {
		timePoints = dayPoints
	}

	out := make([]models.ScoredCandidate, 0, len(candidates))
	for _, d := range candidates {
		if !d.Available {
			continue
		}
		z := r.zones.Classify(d.ServiceArea)
		zonePoints := otherZonePoints
		if z == employeeZone {
			zonePoints = sameZonePoints
		}
		out = append(out, models.ScoredCandidate{
			Driver:    d,
			Zone:      z,
			ZoneMatch: z == employeeZone,
			Points:    zonePoints + timePoints,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Points > out[j].Points })
	return out
}
