package exporter

import (
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pvcli/internal/combine"
	"pvcli/internal/rotation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"NaN is an empty cell", math.NaN(), ""},
		{"positive infinity is an empty cell", math.Inf(1), ""},
		{"integer-valued float stays short", 3.0, "3"},
		{"fraction round-trips", 0.1, "0.1"},
		{"third does not lose precision", 1.0 / 3.0, "0.3333333333333333"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatFloat(tt.in))
		})
	}
}

func TestWriteTableAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.csv")
	w := NewCSVWriter(testLogger())

	require.NoError(t, w.WriteTable(path, []string{"a", "b"}, [][]string{{"1", "2"}, {"3", ""}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n3,\n", string(data))

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteRotationIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rotation.csv")
	w := NewCSVWriter(testLogger())

	records := []rotation.Record{
		{PlayerKey: "p1", PlayerName: "One", TeamID: "AVL", Season: 2020,
			NMatches: 6, NStarts: 3, StartRateAll: 0.5,
			NHard: 3, NHardStarts: 3, StartRateHard: 1.0,
			NEasy: 2, NEasyStarts: 0, StartRateEasy: 0.0,
			Elasticity: 1.0},
	}

	require.NoError(t, w.WriteRotation(path, records))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, w.WriteRotation(path, records))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestWriteCombinedNaNColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "combined.csv")
	w := NewCSVWriter(testLogger())

	rows := []combine.Row{
		{PlayerKey: "p1", PlayerName: "One", TeamID: "AVL", Season: 2020,
			HasRotation: true,
			Elasticity:  0.5,
			ValueSeasonTotal: math.NaN(), MoneySeasonTotal: math.NaN(),
			ValueZ: math.NaN(), MoneyZ: math.NaN(),
			RotationZ: math.NaN(), CompositeZ: math.NaN(),
			EffectCoefficient: math.NaN(), ValuePerMatch: math.NaN(),
			StartRateAll: math.NaN(), StartRateHard: math.NaN(), StartRateEasy: math.NaN()},
	}
	require.NoError(t, w.WriteCombined(path, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "p1,One,AVL,2020,true,false,0,0,,,,0.5,,,,,,,,\n")
}
