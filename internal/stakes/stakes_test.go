package stakes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pvcli/internal/panel"
)

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		q      float64
		want   float64
	}{
		{
			name:   "median of even count interpolates",
			sorted: []float64{1, 2, 3, 4},
			q:      0.5,
			want:   2.5,
		},
		{
			name:   "median of odd count is exact",
			sorted: []float64{1, 2, 3},
			q:      0.5,
			want:   2,
		},
		{
			name:   "zero quantile is minimum",
			sorted: []float64{1, 2, 3},
			q:      0,
			want:   1,
		},
		{
			name:   "full quantile is maximum",
			sorted: []float64{1, 2, 3},
			q:      1,
			want:   3,
		},
		{
			name:   "single value",
			sorted: []float64{7},
			q:      0.5,
			want:   7,
		},
		{
			name:   "lower tercile of six values",
			sorted: []float64{0.5, 0.5, 1.0, 1.5, 2.0, 2.5},
			q:      1.0 / 3.0,
			want:   0.5 + (5.0/3.0-1.0)*0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Quantile(tt.sorted, tt.q), 1e-12)
		})
	}
}

func TestThresholds(t *testing.T) {
	qLow, qHigh := Thresholds([]float64{2.5, 0.5, 1.5, 0.5, 2.0, 1.0})
	assert.InDelta(t, 0.8333333333, qLow, 1e-9)
	assert.InDelta(t, 1.6666666666, qHigh, 1e-9)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   []Stratum
	}{
		{
			name:   "six match team season",
			scores: []float64{0.5, 0.5, 1.0, 1.5, 2.0, 2.5},
			want:   []Stratum{Hard, Hard, Medium, Medium, Easy, Easy},
		},
		{
			name:   "constant scores collapse to hard",
			scores: []float64{1, 1, 1, 1},
			want:   []Stratum{Hard, Hard, Hard, Hard},
		},
		{
			name:   "boundary value on both thresholds goes hard first",
			scores: []float64{1, 1, 1},
			want:   []Stratum{Hard, Hard, Hard},
		},
		{
			name:   "two values split hard and easy",
			scores: []float64{1, 2},
			want:   []Stratum{Hard, Easy},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.scores))
		})
	}
}

func TestClassifyMatchesGroupsPerTeamSeason(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC) }

	matches := []panel.MatchRecord{
		// Team A: 1.0 is the weakest score and classifies hard.
		{MatchID: "m1", Season: 2020, Date: day(1), TeamID: "A", XPts: 1.0},
		{MatchID: "m2", Season: 2020, Date: day(2), TeamID: "A", XPts: 2.0},
		{MatchID: "m3", Season: 2020, Date: day(3), TeamID: "A", XPts: 3.0},
		// Team B: 1.0 is the strongest score and classifies easy.
		{MatchID: "m4", Season: 2020, Date: day(1), TeamID: "B", XPts: 0.2},
		{MatchID: "m5", Season: 2020, Date: day(2), TeamID: "B", XPts: 0.4},
		{MatchID: "m6", Season: 2020, Date: day(3), TeamID: "B", XPts: 1.0},
	}

	strata := ClassifyMatches(matches)

	assert.Equal(t, Hard, strata[MatchKey{MatchID: "m1", TeamID: "A"}])
	assert.Equal(t, Medium, strata[MatchKey{MatchID: "m2", TeamID: "A"}])
	assert.Equal(t, Easy, strata[MatchKey{MatchID: "m3", TeamID: "A"}])
	assert.Equal(t, Hard, strata[MatchKey{MatchID: "m4", TeamID: "B"}])
	assert.Equal(t, Easy, strata[MatchKey{MatchID: "m6", TeamID: "B"}])
}
