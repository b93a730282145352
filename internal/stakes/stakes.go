// Package stakes classifies matches into relative-difficulty strata.
//
// Strata are terciles of the team's odds-implied expected points within one
// team-season: low expected points mean the team faces a hard match, high
// expected points an easy one. Classification is never pooled across teams or
// seasons, because the expected-points scale is not comparable between teams
// of different strength.
package stakes

import (
	"sort"

	"pvcli/internal/panel"
)

// Stratum is a per-team-season relative-difficulty bucket.
type Stratum string

const (
	Hard   Stratum = "hard"
	Medium Stratum = "medium"
	Easy   Stratum = "easy"
)

// MatchKey identifies one team's side of one match.
type MatchKey struct {
	MatchID string
	TeamID  string
}

// Classify assigns a stratum to every score in one team-season group.
// Boundary values fall into the stricter bucket: the hard check (<= q_low)
// runs before the easy check (>= q_high). Degenerate groups with few distinct
// scores still get buckets from whatever quantiles result; downstream
// estimators apply their own minimum-sample filters.
func Classify(scores []float64) []Stratum {
	qLow, qHigh := Thresholds(scores)
	out := make([]Stratum, len(scores))
	for i, s := range scores {
		switch {
		case s <= qLow:
			out[i] = Hard
		case s >= qHigh:
			out[i] = Easy
		default:
			out[i] = Medium
		}
	}
	return out
}

// Thresholds returns the 1/3 and 2/3 quantiles of the scores.
func Thresholds(scores []float64) (qLow, qHigh float64) {
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)
	return Quantile(sorted, 1.0/3.0), Quantile(sorted, 2.0/3.0)
}

// Quantile computes the q-th quantile of sorted values by linear
// interpolation at position (n-1)*q. This matches the interpolation the
// stratification thresholds were defined with; gonum's CumulantKind variants
// interpolate the empirical CDF differently and would shift tercile
// boundaries on small groups.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := float64(n-1) * q
	lo := int(pos)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// ClassifyMatches classifies every match in the calendar, grouping by
// (team_id, season) internally. The returned map is keyed by match and team.
func ClassifyMatches(matches []panel.MatchRecord) map[MatchKey]Stratum {
	type tsKey struct {
		TeamID string
		Season int
	}
	groups := make(map[tsKey][]panel.MatchRecord)
	for _, m := range matches {
		k := tsKey{m.TeamID, m.Season}
		groups[k] = append(groups[k], m)
	}

	out := make(map[MatchKey]Stratum, len(matches))
	for _, ms := range groups {
		scores := make([]float64, len(ms))
		for i, m := range ms {
			scores[i] = m.XPts
		}
		strata := Classify(scores)
		for i, m := range ms {
			out[MatchKey{m.MatchID, m.TeamID}] = strata[i]
		}
	}
	return out
}
