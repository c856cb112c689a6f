package matcher

import (
	"sort"
	"strings"
	"unicode"

	"github.com/example/commute-matching/internal/models"
	"github.com/example/commute-matching/internal/zone"
)

// Location scores, lower is better.
const (
	ExactScore      = 0.1
	SubstringScore  = 0.3
	NoOverlapScore  = 0.9
	MinOverlapScore = 0.15
)

// ScoreLocation compares an employee location with a driver service area.
// Exact match beats substring match, which beats shared words; the more
// words shared the lower the score, but never below MinOverlapScore.
func ScoreLocation(employeeLocation, serviceArea string) float64 {
	a := strings.ToLower(employeeLocation)
	b := strings.ToLower(serviceArea)
	if a == b {
		return ExactScore
	}
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return NoOverlapScore
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return SubstringScore
	}

	common := 0
	bw := words(b)
	for w := range words(a) {
		if _, ok := bw[w]; ok {
			common++
		}
	}
	if common == 0 {
		return NoOverlapScore
	}
	score := float64(6-common) / 10
	if score < MinOverlapScore {
		score = MinOverlapScore
	}
	return score
}

func words(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out[w] = struct{}{}
	}
	return out
}

// LocationMatcher ranks drivers by how well their service area matches a location.
type LocationMatcher struct {
	zones *zone.Classifier
}

func NewLocationMatcher(zones *zone.Classifier) *LocationMatcher {
	return &LocationMatcher{zones: zones}
}

// Rank scores every available driver that has a service area and returns
// them best first. Equal scores keep the input order.
func (m *LocationMatcher) Rank(location string, candidates []models.DriverCandidate) []models.MatchResult {
	out := make([]models.MatchResult, 0, len(candidates))
	for _, d := range candidates {
		if !d.Matchable() {
			continue
		}
		out = append(out, models.MatchResult{
			DriverID:    d.ID,
			Name:        d.Name,
			Phone:       d.Phone,
			ServiceArea: d.ServiceArea,
			Score:       ScoreLocation(location, d.ServiceArea),
			Zone:        m.zones.Classify(d.ServiceArea),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	return out
}
