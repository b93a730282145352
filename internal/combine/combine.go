// Package combine merges the two proxies into one ranked player-season table.
package combine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	pverrors "pvcli/internal/errors"
	"pvcli/internal/injury"
	"pvcli/internal/rotation"
)

// Row is one (player, team, season) present in at least one proxy. Rows from
// a single proxy keep the other side's numeric fields as NaN; the coverage
// flags say which sides are populated.
type Row struct {
	PlayerKey  string
	PlayerName string
	TeamID     string
	Season     int

	HasRotation bool
	HasInjury   bool

	// Rotation side (meaningful only when HasRotation).
	NMatches      int
	NStarts       int
	StartRateAll  float64
	StartRateHard float64
	StartRateEasy float64
	Elasticity    float64

	// Injury side (meaningful only when HasInjury).
	EffectCoefficient float64
	ValuePerMatch     float64
	ValueSeasonTotal  float64
	MoneySeasonTotal  float64

	// Global z-scores and the composite value index.
	RotationZ  float64
	ValueZ     float64
	MoneyZ     float64
	CompositeZ float64
}

// Combiner merges proxy tables with key validation and normalization.
type Combiner struct {
	logger *slog.Logger
}

// NewCombiner creates a proxy combiner.
func NewCombiner(logger *slog.Logger) *Combiner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Combiner{logger: logger}
}

type key struct {
	PlayerKey string
	TeamID    string
	Season    int
}

// Combine outer-merges the proxies on (player, team, season), validates key
// uniqueness on both inputs first, computes global z-scores, and sorts the
// result by (season, team, player name). A player-season present in only one
// proxy is retained: proxy coverage legitimately differs.
func (c *Combiner) Combine(ctx context.Context, rot []rotation.Record, inj []injury.Record) ([]Row, error) {
	if len(rot) == 0 && len(inj) == 0 {
		return nil, pverrors.NewIntegrityError("combined_value_table", "both proxy tables are empty")
	}

	rotByKey := make(map[key]rotation.Record, len(rot))
	for _, r := range rot {
		k := key{r.PlayerKey, r.TeamID, r.Season}
		if _, dup := rotByKey[k]; dup {
			return nil, pverrors.NewIntegrityError("rotation_proxy",
				fmt.Sprintf("duplicate key (player_key=%s, team_id=%s, season=%d)", k.PlayerKey, k.TeamID, k.Season))
		}
		rotByKey[k] = r
	}
	injByKey := make(map[key]injury.Record, len(inj))
	for _, r := range inj {
		k := key{r.PlayerKey, r.TeamID, r.Season}
		if _, dup := injByKey[k]; dup {
			return nil, pverrors.NewIntegrityError("injury_proxy",
				fmt.Sprintf("duplicate key (player_key=%s, team_id=%s, season=%d)", k.PlayerKey, k.TeamID, k.Season))
		}
		injByKey[k] = r
	}

	keys := make(map[key]struct{}, len(rotByKey)+len(injByKey))
	for k := range rotByKey {
		keys[k] = struct{}{}
	}
	for k := range injByKey {
		keys[k] = struct{}{}
	}

	rows := make([]Row, 0, len(keys))
	for k := range keys {
		row := Row{
			PlayerKey: k.PlayerKey,
			TeamID:    k.TeamID,
			Season:    k.Season,

			StartRateAll:      math.NaN(),
			StartRateHard:     math.NaN(),
			StartRateEasy:     math.NaN(),
			Elasticity:        math.NaN(),
			EffectCoefficient: math.NaN(),
			ValuePerMatch:     math.NaN(),
			ValueSeasonTotal:  math.NaN(),
			MoneySeasonTotal:  math.NaN(),
		}
		if r, ok := rotByKey[k]; ok {
			row.HasRotation = true
			row.PlayerName = r.PlayerName
			row.NMatches = r.NMatches
			row.NStarts = r.NStarts
			row.StartRateAll = r.StartRateAll
			row.StartRateHard = r.StartRateHard
			row.StartRateEasy = r.StartRateEasy
			row.Elasticity = r.Elasticity
		}
		if r, ok := injByKey[k]; ok {
			row.HasInjury = true
			if row.PlayerName == "" {
				row.PlayerName = r.PlayerName
			}
			row.EffectCoefficient = r.EffectCoefficient
			row.ValuePerMatch = r.ValuePerMatch
			row.ValueSeasonTotal = r.ValueSeasonTotal
			row.MoneySeasonTotal = r.MoneySeasonTotal
		}
		rows = append(rows, row)
	}

	applyZScores(rows)

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		if a.TeamID != b.TeamID {
			return a.TeamID < b.TeamID
		}
		if a.PlayerName != b.PlayerName {
			return a.PlayerName < b.PlayerName
		}
		return a.PlayerKey < b.PlayerKey
	})

	both := 0
	for _, r := range rows {
		if r.HasRotation && r.HasInjury {
			both++
		}
	}
	c.logger.InfoContext(ctx, "proxies combined",
		"rows", len(rows),
		"rotation_only", len(rotByKey)-both,
		"injury_only", len(injByKey)-both,
		"both", both,
	)
	return rows, nil
}

// applyZScores normalizes each metric over the entire merged table and sets
// the composite index to the mean of the z-scores available on each row.
func applyZScores(rows []Row) {
	rotZ := zscorer(rows, func(r Row) float64 { return r.Elasticity })
	valZ := zscorer(rows, func(r Row) float64 { return r.ValueSeasonTotal })
	monZ := zscorer(rows, func(r Row) float64 { return r.MoneySeasonTotal })

	for i := range rows {
		rows[i].RotationZ = rotZ(rows[i])
		rows[i].ValueZ = valZ(rows[i])
		rows[i].MoneyZ = monZ(rows[i])

		// Composite: mean of the available proxy z-scores. The money z-score
		// is informational and not part of the index, since it is a rescaled
		// duplicate of the value z-score within each season.
		sum, n := 0.0, 0
		for _, z := range []float64{rows[i].RotationZ, rows[i].ValueZ} {
			if !math.IsNaN(z) {
				sum += z
				n++
			}
		}
		if n == 0 {
			rows[i].CompositeZ = math.NaN()
		} else {
			rows[i].CompositeZ = sum / float64(n)
		}
	}
}

// zscorer returns a function mapping a row to its global z-score for one
// metric. A metric with zero, non-finite, or undefined standard deviation
// yields NaN for every row, never a division by zero.
func zscorer(rows []Row, metric func(Row) float64) func(Row) float64 {
	var finite []float64
	for _, r := range rows {
		if v := metric(r); !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	nan := func(Row) float64 { return math.NaN() }
	if len(finite) < 2 {
		return nan
	}
	mean := stat.Mean(finite, nil)
	sd := stat.StdDev(finite, nil)
	if sd <= 0 || math.IsNaN(sd) || math.IsInf(sd, 0) {
		return nan
	}
	return func(r Row) float64 {
		v := metric(r)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.NaN()
		}
		return (v - mean) / sd
	}
}
