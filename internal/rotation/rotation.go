// Package rotation computes the rotation-exposure proxy: how strongly a
// player's probability of starting responds to fixture difficulty.
package rotation

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"pvcli/internal/panel"
	"pvcli/internal/stakes"
)

// Config holds the minimum-sample filters. Groups failing a filter are
// excluded from output, which is expected, not an error.
type Config struct {
	MinMatches int
	MinHard    int
	MinEasy    int
}

// Record is one qualifying player-team-season. Elasticity is the start-rate
// difference between hard and easy matches and always lies in [-1, 1].
type Record struct {
	PlayerKey     string
	PlayerName    string
	TeamID        string
	Season        int
	NMatches      int
	NStarts       int
	StartRateAll  float64
	NHard         int
	NHardStarts   int
	StartRateHard float64
	NEasy         int
	NEasyStarts   int
	StartRateEasy float64
	Elasticity    float64
}

// Summary reports group coverage for the user-visible run report.
type Summary struct {
	Groups           int
	Kept             int
	SkippedMinSample int
}

// Estimator computes rotation elasticity per player-team-season.
type Estimator struct {
	cfg    Config
	logger *slog.Logger
}

// NewEstimator creates a rotation estimator.
func NewEstimator(cfg Config, logger *slog.Logger) *Estimator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{cfg: cfg, logger: logger}
}

type groupKey struct {
	PlayerKey string
	TeamID    string
	Season    int
}

// Estimate computes one record per qualifying (player, team, season) group.
// Output order is deterministic: (season, team, player).
func (e *Estimator) Estimate(ctx context.Context, rows []panel.AppearanceRow, strata map[stakes.MatchKey]stakes.Stratum) ([]Record, Summary) {
	groups := make(map[groupKey][]panel.AppearanceRow)
	names := make(map[groupKey]string)
	for _, r := range rows {
		k := groupKey{r.PlayerKey, r.TeamID, r.Season}
		groups[k] = append(groups[k], r)
		if names[k] == "" {
			names[k] = r.PlayerName
		}
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		if a.TeamID != b.TeamID {
			return a.TeamID < b.TeamID
		}
		return a.PlayerKey < b.PlayerKey
	})

	summary := Summary{Groups: len(keys)}
	records := make([]Record, 0, len(keys))
	for _, k := range keys {
		rec := e.aggregate(k, names[k], groups[k], strata)
		if rec.NMatches < e.cfg.MinMatches ||
			rec.NHard < e.cfg.MinHard ||
			rec.NEasy < e.cfg.MinEasy ||
			math.IsNaN(rec.Elasticity) {
			summary.SkippedMinSample++
			e.logger.DebugContext(ctx, "rotation group below minimum sample",
				"player", k.PlayerKey, "team", k.TeamID, "season", k.Season,
				"n_matches", rec.NMatches, "n_hard", rec.NHard, "n_easy", rec.NEasy)
			continue
		}
		summary.Kept++
		records = append(records, rec)
	}

	e.logger.InfoContext(ctx, "rotation proxy built",
		"groups", summary.Groups,
		"kept", summary.Kept,
		"skipped_min_sample", summary.SkippedMinSample,
	)
	return records, summary
}

func (e *Estimator) aggregate(k groupKey, name string, rows []panel.AppearanceRow, strata map[stakes.MatchKey]stakes.Stratum) Record {
	rec := Record{
		PlayerKey:  k.PlayerKey,
		PlayerName: name,
		TeamID:     k.TeamID,
		Season:     k.Season,
	}
	for _, r := range rows {
		rec.NMatches++
		if r.Started {
			rec.NStarts++
		}
		switch strata[stakes.MatchKey{MatchID: r.MatchID, TeamID: r.TeamID}] {
		case stakes.Hard:
			rec.NHard++
			if r.Started {
				rec.NHardStarts++
			}
		case stakes.Easy:
			rec.NEasy++
			if r.Started {
				rec.NEasyStarts++
			}
		}
	}

	rec.StartRateAll = rate(rec.NStarts, rec.NMatches)
	rec.StartRateHard = rate(rec.NHardStarts, rec.NHard)
	rec.StartRateEasy = rate(rec.NEasyStarts, rec.NEasy)
	if math.IsNaN(rec.StartRateHard) || math.IsNaN(rec.StartRateEasy) {
		rec.Elasticity = math.NaN()
	} else {
		rec.Elasticity = rec.StartRateHard - rec.StartRateEasy
	}
	return rec
}

func rate(num, den int) float64 {
	if den == 0 {
		return math.NaN()
	}
	return float64(num) / float64(den)
}
