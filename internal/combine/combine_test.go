package combine

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
	"pvcli/internal/rotation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCombineOuterMerge(t *testing.T) {
	rot := []rotation.Record{
		{PlayerKey: "p1", PlayerName: "One", TeamID: "AVL", Season: 2020, NMatches: 10, Elasticity: 0.5},
		{PlayerKey: "p2", PlayerName: "Two", TeamID: "AVL", Season: 2020, NMatches: 8, Elasticity: -0.2},
		{PlayerKey: "p3", PlayerName: "Three", TeamID: "AVL", Season: 2020, NMatches: 6, Elasticity: 0.1},
	}
	inj := []injury.Record{
		{PlayerKey: "p1", PlayerName: "One", TeamID: "AVL", Season: 2020,
			EffectCoefficient: -0.3, ValueSeasonTotal: 3.0, MoneySeasonTotal: 6e6,
			ValuePerMatch: 0.3, NMatches: 10},
		{PlayerKey: "p4", PlayerName: "Four", TeamID: "AVL", Season: 2020,
			EffectCoefficient: -0.1, ValueSeasonTotal: 1.0, MoneySeasonTotal: 2e6,
			ValuePerMatch: 0.1, NMatches: 10},
	}

	rows, err := NewCombiner(testLogger()).Combine(context.Background(), rot, inj)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	byKey := make(map[string]Row)
	for _, r := range rows {
		byKey[r.PlayerKey] = r
	}

	p1 := byKey["p1"]
	assert.True(t, p1.HasRotation)
	assert.True(t, p1.HasInjury)
	assert.InDelta(t, 0.5, p1.Elasticity, 1e-12)
	assert.InDelta(t, 3.0, p1.ValueSeasonTotal, 1e-12)

	p2 := byKey["p2"]
	assert.True(t, p2.HasRotation)
	assert.False(t, p2.HasInjury)
	assert.True(t, math.IsNaN(p2.ValueSeasonTotal))

	p4 := byKey["p4"]
	assert.False(t, p4.HasRotation)
	assert.True(t, p4.HasInjury)
	assert.True(t, math.IsNaN(p4.Elasticity))
	assert.Equal(t, "Four", p4.PlayerName)

	// Sorted by season, team, player name.
	assert.Equal(t, []string{"p4", "p1", "p3", "p2"}, []string{
		rows[0].PlayerKey, rows[1].PlayerKey, rows[2].PlayerKey, rows[3].PlayerKey,
	})
}

func TestCombineZScoresAndComposite(t *testing.T) {
	rot := []rotation.Record{
		{PlayerKey: "p1", TeamID: "A", Season: 2020, Elasticity: 1.0},
		{PlayerKey: "p2", TeamID: "A", Season: 2020, Elasticity: -1.0},
	}
	inj := []injury.Record{
		{PlayerKey: "p1", TeamID: "A", Season: 2020, ValueSeasonTotal: 2.0},
		{PlayerKey: "p2", TeamID: "A", Season: 2020, ValueSeasonTotal: -2.0},
	}

	rows, err := NewCombiner(testLogger()).Combine(context.Background(), rot, inj)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byKey := make(map[string]Row)
	for _, r := range rows {
		byKey[r.PlayerKey] = r
	}

	// Two symmetric values with sample standard deviation: z = +/- 1/sqrt(2)*...
	// here sd of {1,-1} is sqrt(2), so z = +/- 0.7071.
	z := 1.0 / math.Sqrt2
	assert.InDelta(t, z, byKey["p1"].RotationZ, 1e-9)
	assert.InDelta(t, -z, byKey["p2"].RotationZ, 1e-9)
	assert.InDelta(t, z, byKey["p1"].ValueZ, 1e-9)
	assert.InDelta(t, z, byKey["p1"].CompositeZ, 1e-9)
	assert.InDelta(t, -z, byKey["p2"].CompositeZ, 1e-9)

	// No money values at all: the money z column is entirely undefined.
	assert.True(t, math.IsNaN(byKey["p1"].MoneyZ))
}

func TestCombineZeroVarianceColumnIsAllNaN(t *testing.T) {
	rot := []rotation.Record{
		{PlayerKey: "p1", TeamID: "A", Season: 2020, Elasticity: 0.4},
		{PlayerKey: "p2", TeamID: "A", Season: 2020, Elasticity: 0.4},
		{PlayerKey: "p3", TeamID: "A", Season: 2020, Elasticity: 0.4},
	}

	rows, err := NewCombiner(testLogger()).Combine(context.Background(), rot, nil)
	require.NoError(t, err)
	for _, r := range rows {
		assert.True(t, math.IsNaN(r.RotationZ))
		assert.True(t, math.IsNaN(r.CompositeZ))
	}
}

func TestCombineSingleProxyComposite(t *testing.T) {
	rot := []rotation.Record{
		{PlayerKey: "p1", TeamID: "A", Season: 2020, Elasticity: 1.0},
		{PlayerKey: "p2", TeamID: "A", Season: 2020, Elasticity: 0.0},
	}

	rows, err := NewCombiner(testLogger()).Combine(context.Background(), rot, nil)
	require.NoError(t, err)
	for _, r := range rows {
		// With only the rotation proxy available, the composite equals the
		// rotation z-score.
		assert.InDelta(t, r.RotationZ, r.CompositeZ, 1e-12)
	}
}

func TestCombineDuplicateKeysFail(t *testing.T) {
	rot := []rotation.Record{
		{PlayerKey: "p1", TeamID: "A", Season: 2020},
		{PlayerKey: "p1", TeamID: "A", Season: 2020},
	}
	_, err := NewCombiner(testLogger()).Combine(context.Background(), rot, nil)
	require.Error(t, err)
	assert.True(t, pverrors.IsIntegrity(err))

	inj := []injury.Record{
		{PlayerKey: "p1", TeamID: "A", Season: 2020},
		{PlayerKey: "p1", TeamID: "A", Season: 2020},
	}
	_, err = NewCombiner(testLogger()).Combine(context.Background(), nil, inj)
	require.Error(t, err)
	assert.True(t, pverrors.IsIntegrity(err))
}

func TestCombineBothEmptyFails(t *testing.T) {
	_, err := NewCombiner(testLogger()).Combine(context.Background(), nil, nil)
	require.Error(t, err)
	assert.True(t, pverrors.IsIntegrity(err))
}
