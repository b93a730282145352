// Package feeds loads the external input collaborators: the match calendar,
// the unavailability feed, the appearance feed and the season
// standings/revenue feed.
//
// Upstream sources drift in their header naming, so every logical field is
// declared once with an ordered list of accepted aliases and resolved into a
// fixed internal schema at ingest. Nothing downstream ever re-discovers
// column names, and a required field with no matching alias is an immediate
// schema error naming the feed it came from.
package feeds

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	pverrors "pvcli/internal/errors"
)

// column declares one logical field of a feed.
type column struct {
	canonical string
	aliases   []string
	required  bool
}

// resolveHeader maps canonical field names to header indices. The first
// alias present in the header wins.
func resolveHeader(header []string, cols []column, source string) (map[string]int, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if _, ok := byName[name]; !ok {
			byName[name] = i
		}
	}

	idx := make(map[string]int, len(cols))
	for _, c := range cols {
		found := false
		for _, a := range c.aliases {
			if j, ok := byName[a]; ok {
				idx[c.canonical] = j
				found = true
				break
			}
		}
		if !found && c.required {
			return nil, pverrors.NewSchemaError(source, c.canonical,
				fmt.Sprintf("no header matches any of %v", c.aliases))
		}
	}
	return idx, nil
}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", "02/01/2006"}

// parseDate parses a date cell. An unparseable, non-empty value is a schema
// error: dates must be fixed at ingest, not deep inside a computation.
func parseDate(s, source, field string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, pverrors.NewSchemaError(source, field, fmt.Sprintf("cannot parse date %q", s))
}

// parseSeason accepts either a bare start year ("2019") or a season label
// ("2019-2020") and returns the start year.
func parseSeason(s, source string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) > 4 {
		s = s[:4]
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, pverrors.NewSchemaError(source, "season", fmt.Sprintf("cannot parse season %q", s))
	}
	return year, nil
}

// parseFloat parses a numeric cell, tolerating thousands separators that
// revenue sources like to include.
func parseFloat(s, source, field string) (float64, error) {
	cleaned := strings.NewReplacer(",", "", "_", "").Replace(strings.TrimSpace(s))
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, pverrors.NewSchemaError(source, field, fmt.Sprintf("cannot parse number %q", s))
	}
	return v, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "t", "yes":
		return true
	}
	return false
}
