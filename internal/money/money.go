// Package money converts the injury-effect coefficient from expected-points
// units into monetary units, via a per-season linear fit of season revenue on
// season points across the league's teams.
package money

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	pverrors "pvcli/internal/errors"
	"pvcli/internal/injury"
)

// StandingRow is one team's season points and season money total, from the
// standings/revenue feed.
type StandingRow struct {
	Season int
	TeamID string
	Points float64
	Money  float64
}

// SeasonRate maps one season to its money value per unit of expected
// performance (the slope of money on points within the season).
type SeasonRate struct {
	Season        int
	MoneyPerPoint float64
}

// Converter fits and applies season money rates.
type Converter struct {
	logger *slog.Logger
}

// NewConverter creates a unit converter.
func NewConverter(logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{logger: logger}
}

// FitSeasonRates fits money ~ a + b*points per season and returns one rate
// per season, sorted by season. A season with fewer than two distinct point
// values cannot be fit and indicates malformed input, so it is a hard error,
// not a skip.
func (c *Converter) FitSeasonRates(ctx context.Context, rows []StandingRow) ([]SeasonRate, error) {
	if len(rows) == 0 {
		return nil, pverrors.NewIntegrityError("season_standings", "no rows to fit money rates from")
	}

	bySeason := make(map[int][]StandingRow)
	for _, r := range rows {
		bySeason[r.Season] = append(bySeason[r.Season], r)
	}
	seasons := make([]int, 0, len(bySeason))
	for s := range bySeason {
		seasons = append(seasons, s)
	}
	sort.Ints(seasons)

	rates := make([]SeasonRate, 0, len(seasons))
	for _, season := range seasons {
		group := bySeason[season]
		points := make([]float64, len(group))
		moneys := make([]float64, len(group))
		distinct := make(map[float64]struct{})
		for i, r := range group {
			points[i] = r.Points
			moneys[i] = r.Money
			distinct[r.Points] = struct{}{}
		}
		if len(distinct) < 2 {
			return nil, pverrors.NewIntegrityError("season_standings",
				fmt.Sprintf("season %d has %d distinct point values, need at least 2 to fit a slope", season, len(distinct)))
		}

		_, slope := stat.LinearRegression(points, moneys, nil, false)
		rates = append(rates, SeasonRate{Season: season, MoneyPerPoint: slope})
		c.logger.DebugContext(ctx, "fitted season money rate",
			"season", season, "money_per_point", slope, "teams", len(group))
	}

	c.logger.InfoContext(ctx, "season money rates fitted", "seasons", len(rates))
	return rates, nil
}

// Apply fills the value and money fields on the injury records. Value fields
// are in expected-points units and never depend on the mapping; money fields
// stay NaN for seasons missing from it, which is logged, not fatal.
func (c *Converter) Apply(ctx context.Context, records []injury.Record, rates []SeasonRate) []injury.Record {
	rateBySeason := make(map[int]float64, len(rates))
	for _, r := range rates {
		rateBySeason[r.Season] = r.MoneyPerPoint
	}

	out := make([]injury.Record, len(records))
	copy(out, records)

	missingSeasons := make(map[int]struct{})
	for i := range out {
		// unavailable=1 means absent, so the value of having the player
		// present is the negated coefficient.
		out[i].ValuePerMatch = -out[i].EffectCoefficient
		out[i].ValueSeasonTotal = out[i].ValuePerMatch * float64(out[i].NMatches)

		rate, ok := rateBySeason[out[i].Season]
		if !ok {
			missingSeasons[out[i].Season] = struct{}{}
			out[i].MoneyPerMatch = math.NaN()
			out[i].MoneySeasonTotal = math.NaN()
			continue
		}
		out[i].MoneyPerMatch = out[i].ValuePerMatch * rate
		out[i].MoneySeasonTotal = out[i].ValueSeasonTotal * rate
	}

	if len(missingSeasons) > 0 {
		seasons := make([]int, 0, len(missingSeasons))
		for s := range missingSeasons {
			seasons = append(seasons, s)
		}
		sort.Ints(seasons)
		c.logger.WarnContext(ctx, "no money rate for some seasons, monetary fields left empty",
			"seasons", seasons)
	}
	return out
}
