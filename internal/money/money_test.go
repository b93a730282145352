package money

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pverrors "pvcli/internal/errors"
	"pvcli/internal/injury"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFitSeasonRates(t *testing.T) {
	c := NewConverter(testLogger())

	// Season 2020 money is exactly 2M per point plus a 10M floor; season 2021
	// runs at 3M per point.
	rows := []StandingRow{
		{Season: 2021, TeamID: "A", Points: 40, Money: 120e6},
		{Season: 2021, TeamID: "B", Points: 60, Money: 180e6},
		{Season: 2021, TeamID: "C", Points: 80, Money: 240e6},
		{Season: 2020, TeamID: "A", Points: 50, Money: 110e6},
		{Season: 2020, TeamID: "B", Points: 70, Money: 150e6},
		{Season: 2020, TeamID: "C", Points: 90, Money: 190e6},
	}

	rates, err := c.FitSeasonRates(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, rates, 2)

	assert.Equal(t, 2020, rates[0].Season)
	assert.InDelta(t, 2e6, rates[0].MoneyPerPoint, 1)
	assert.Equal(t, 2021, rates[1].Season)
	assert.InDelta(t, 3e6, rates[1].MoneyPerPoint, 1)
}

func TestFitSeasonRatesDegenerateSeason(t *testing.T) {
	c := NewConverter(testLogger())

	rows := []StandingRow{
		{Season: 2020, TeamID: "A", Points: 50, Money: 100e6},
		{Season: 2020, TeamID: "B", Points: 50, Money: 120e6},
	}
	_, err := c.FitSeasonRates(context.Background(), rows)
	require.Error(t, err)
	assert.True(t, pverrors.IsIntegrity(err))
}

func TestFitSeasonRatesEmpty(t *testing.T) {
	c := NewConverter(testLogger())
	_, err := c.FitSeasonRates(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, pverrors.IsIntegrity(err))
}

func TestApply(t *testing.T) {
	c := NewConverter(testLogger())

	records := []injury.Record{
		{PlayerKey: "p1", Season: 2020, EffectCoefficient: -0.3, NMatches: 10},
		{PlayerKey: "p2", Season: 1999, EffectCoefficient: 0.1, NMatches: 4},
	}
	rates := []SeasonRate{{Season: 2020, MoneyPerPoint: 2e6}}

	out := c.Apply(context.Background(), records, rates)
	require.Len(t, out, 2)

	// Losing 0.3 xPts when absent is worth +0.3 per match present.
	assert.InDelta(t, 0.3, out[0].ValuePerMatch, 1e-12)
	assert.InDelta(t, 3.0, out[0].ValueSeasonTotal, 1e-12)
	assert.InDelta(t, 0.6e6, out[0].MoneyPerMatch, 1e-3)
	assert.InDelta(t, 6e6, out[0].MoneySeasonTotal, 1e-3)

	// Value fields never depend on the money mapping; money fields stay NaN
	// for a season without a rate.
	assert.InDelta(t, -0.1, out[1].ValuePerMatch, 1e-12)
	assert.InDelta(t, -0.4, out[1].ValueSeasonTotal, 1e-12)
	assert.True(t, math.IsNaN(out[1].MoneyPerMatch))
	assert.True(t, math.IsNaN(out[1].MoneySeasonTotal))

	// Input slice is not mutated.
	assert.Zero(t, records[0].ValueSeasonTotal)
}
