package exporter

import (
	"math"
	"strconv"
)

// formatFloat renders a metric cell. NaN and infinities mean the metric is
// undefined for the row and become an empty cell; finite values use the
// shortest representation that parses back to the same float64.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
