package feeds

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	pverrors "pvcli/internal/errors"
	"pvcli/internal/money"
	"pvcli/internal/panel"
)

// Feed source names used in error messages and logs.
const (
	SourceMatches   = "match_calendar"
	SourceSpells    = "unavailability_feed"
	SourceMinutes   = "appearance_feed"
	SourceStandings = "season_standings"
)

func readCSV(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err = r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

func cell(row []string, idx map[string]int, field string) string {
	i, ok := idx[field]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// LoadMatches loads the match calendar. The squad injury count column is
// optional; the second return value reports whether it was present, so the
// caller knows to derive counts from the spells instead.
func LoadMatches(path string, logger *slog.Logger) ([]panel.MatchRecord, bool, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, false, err
	}
	idx, err := resolveHeader(header, []column{
		{"season", []string{"season", "Season"}, true},
		{"match_id", []string{"match_id", "MatchID"}, true},
		{"date", []string{"date", "Date"}, true},
		{"team_id", []string{"team_id", "team", "Team"}, true},
		{"opponent_id", []string{"opponent_id", "opponent", "Opponent"}, true},
		{"is_home", []string{"is_home", "IsHome", "home"}, false},
		{"xpts", []string{"expected_performance_score", "xpts", "xPts"}, true},
		{"squad_injury_count", []string{"squad_injury_count", "n_injured_squad", "injured_players"}, false},
	}, SourceMatches)
	if err != nil {
		return nil, false, err
	}
	_, hasInjuryCounts := idx["squad_injury_count"]

	type matchKey struct {
		Season int
		Date   time.Time
		TeamID string
	}
	seen := make(map[matchKey]struct{}, len(rows))

	out := make([]panel.MatchRecord, 0, len(rows))
	for _, row := range rows {
		season, err := parseSeason(cell(row, idx, "season"), SourceMatches)
		if err != nil {
			return nil, false, err
		}
		date, err := parseDate(cell(row, idx, "date"), SourceMatches, "date")
		if err != nil {
			return nil, false, err
		}
		xpts, err := parseFloat(cell(row, idx, "xpts"), SourceMatches, "expected_performance_score")
		if err != nil {
			return nil, false, err
		}
		m := panel.MatchRecord{
			MatchID:    strings.TrimSpace(cell(row, idx, "match_id")),
			Season:     season,
			Date:       date,
			TeamID:     strings.TrimSpace(cell(row, idx, "team_id")),
			OpponentID: strings.TrimSpace(cell(row, idx, "opponent_id")),
			IsHome:     parseBool(cell(row, idx, "is_home")),
			XPts:       xpts,
		}
		if hasInjuryCounts {
			if raw := strings.TrimSpace(cell(row, idx, "squad_injury_count")); raw != "" {
				n, err := strconv.Atoi(raw)
				if err != nil {
					return nil, false, pverrors.NewSchemaError(SourceMatches, "squad_injury_count",
						fmt.Sprintf("cannot parse count %q", raw))
				}
				m.SquadInjuryCount = n
			}
		}

		k := matchKey{m.Season, m.Date, m.TeamID}
		if _, dup := seen[k]; dup {
			return nil, false, pverrors.NewIntegrityError(SourceMatches,
				fmt.Sprintf("duplicate key (season=%d, date=%s, team_id=%s)", m.Season, m.Date.Format("2006-01-02"), m.TeamID))
		}
		seen[k] = struct{}{}
		out = append(out, m)
	}

	if len(out) == 0 {
		return nil, false, pverrors.NewIntegrityError(SourceMatches, "zero matches found in calendar")
	}
	logger.Info("loaded match calendar", "path", path, "rows", len(out), "has_injury_counts", hasInjuryCounts)
	return out, hasInjuryCounts, nil
}

// LoadSpells loads the unavailability feed. Rows with empty date cells are
// dropped with a warning (incomplete source rows, not schema drift);
// non-empty unparseable dates are schema errors. Reversed intervals are
// swapped, not rejected.
func LoadSpells(path string, logger *slog.Logger) ([]panel.Spell, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	idx, err := resolveHeader(header, []column{
		{"player_key", []string{"player_key", "player_name", "player"}, true},
		{"player_display_name", []string{"player_display_name", "player_name", "player"}, false},
		{"team_id", []string{"team_id", "team", "Team"}, true},
		{"season", []string{"season", "Season"}, true},
		{"start_date", []string{"start_date", "from_date"}, true},
		{"end_date", []string{"end_date", "to_date"}, true},
	}, SourceSpells)
	if err != nil {
		return nil, err
	}

	out := make([]panel.Spell, 0, len(rows))
	dropped := 0
	swapped := 0
	for _, row := range rows {
		startRaw := strings.TrimSpace(cell(row, idx, "start_date"))
		endRaw := strings.TrimSpace(cell(row, idx, "end_date"))
		if startRaw == "" || endRaw == "" {
			dropped++
			continue
		}
		start, err := parseDate(startRaw, SourceSpells, "start_date")
		if err != nil {
			return nil, err
		}
		end, err := parseDate(endRaw, SourceSpells, "end_date")
		if err != nil {
			return nil, err
		}
		if start.After(end) {
			start, end = end, start
			swapped++
		}
		season, err := parseSeason(cell(row, idx, "season"), SourceSpells)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSpace(cell(row, idx, "player_display_name"))
		key := strings.TrimSpace(cell(row, idx, "player_key"))
		if name == "" {
			name = key
		}
		out = append(out, panel.Spell{
			PlayerKey:  key,
			PlayerName: name,
			TeamID:     strings.TrimSpace(cell(row, idx, "team_id")),
			Season:     season,
			Start:      start,
			End:        end,
		})
	}

	if dropped > 0 {
		logger.Warn("dropped spells with missing dates", "path", path, "count", dropped)
	}
	if swapped > 0 {
		logger.Warn("swapped reversed spell intervals", "path", path, "count", swapped)
	}
	logger.Info("loaded unavailability feed", "path", path, "rows", len(out))
	return out, nil
}

// LoadMinutes loads the appearance feed and deduplicates to one row per
// (season, date, team, player), keeping the maximum minutes and OR-ing the
// started flag.
func LoadMinutes(path string, logger *slog.Logger) ([]panel.Minutes, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	idx, err := resolveHeader(header, []column{
		{"season", []string{"season", "Season"}, true},
		{"date", []string{"date", "match_date", "Date"}, true},
		{"team_id", []string{"team_id", "team", "Team"}, true},
		{"player_key", []string{"player_key", "player_name", "player"}, true},
		{"player_display_name", []string{"player_display_name", "player_name", "player"}, false},
		{"minutes_played", []string{"minutes_played", "minutes", "Min"}, true},
		{"started", []string{"started"}, true},
	}, SourceMinutes)
	if err != nil {
		return nil, err
	}

	type mkey struct {
		Season    int
		Date      time.Time
		TeamID    string
		PlayerKey string
	}
	dedup := make(map[mkey]panel.Minutes, len(rows))
	order := make([]mkey, 0, len(rows))

	for _, row := range rows {
		season, err := parseSeason(cell(row, idx, "season"), SourceMinutes)
		if err != nil {
			return nil, err
		}
		date, err := parseDate(cell(row, idx, "date"), SourceMinutes, "date")
		if err != nil {
			return nil, err
		}
		minutes := 0.0
		if raw := strings.TrimSpace(cell(row, idx, "minutes_played")); raw != "" {
			minutes, err = parseFloat(raw, SourceMinutes, "minutes_played")
			if err != nil {
				return nil, err
			}
		}
		key := strings.TrimSpace(cell(row, idx, "player_key"))
		name := strings.TrimSpace(cell(row, idx, "player_display_name"))
		if name == "" {
			name = key
		}
		mn := panel.Minutes{
			Season:     season,
			Date:       date,
			TeamID:     strings.TrimSpace(cell(row, idx, "team_id")),
			PlayerKey:  key,
			PlayerName: name,
			Minutes:    minutes,
			Started:    parseBool(cell(row, idx, "started")),
		}

		k := mkey{mn.Season, mn.Date, mn.TeamID, mn.PlayerKey}
		prev, ok := dedup[k]
		if !ok {
			dedup[k] = mn
			order = append(order, k)
			continue
		}
		if mn.Minutes > prev.Minutes {
			prev.Minutes = mn.Minutes
		}
		prev.Started = prev.Started || mn.Started
		dedup[k] = prev
	}

	out := make([]panel.Minutes, 0, len(dedup))
	for _, k := range order {
		out = append(out, dedup[k])
	}
	logger.Info("loaded appearance feed", "path", path, "rows", len(out), "raw_rows", len(rows))
	return out, nil
}

// LoadStandings loads the season standings/revenue feed, accepting either a
// CSV file or an XLSX workbook by extension.
func LoadStandings(path string, logger *slog.Logger) ([]money.StandingRow, error) {
	var (
		header []string
		rows   [][]string
		err    error
	)
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		header, rows, err = readXLSX(path)
	} else {
		header, rows, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}
	return parseStandings(header, rows, logger, path)
}

func parseStandings(header []string, rows [][]string, logger *slog.Logger, path string) ([]money.StandingRow, error) {
	idx, err := resolveHeader(header, []column{
		{"season", []string{"season", "Season"}, true},
		{"team_id", []string{"team_id", "team", "Team", "Club"}, true},
		{"points", []string{"points", "Points", "Pts"}, true},
		{"money_total", []string{"money_total", "money_gbp", "Money_gbp", "pl_total_gbp"}, true},
	}, SourceStandings)
	if err != nil {
		return nil, err
	}

	out := make([]money.StandingRow, 0, len(rows))
	for _, row := range rows {
		season, err := parseSeason(cell(row, idx, "season"), SourceStandings)
		if err != nil {
			return nil, err
		}
		points, err := parseFloat(cell(row, idx, "points"), SourceStandings, "points")
		if err != nil {
			return nil, err
		}
		moneyTotal, err := parseFloat(cell(row, idx, "money_total"), SourceStandings, "money_total")
		if err != nil {
			return nil, err
		}
		out = append(out, money.StandingRow{
			Season: season,
			TeamID: strings.TrimSpace(cell(row, idx, "team_id")),
			Points: points,
			Money:  moneyTotal,
		})
	}
	if len(out) == 0 {
		return nil, pverrors.NewIntegrityError(SourceStandings, "zero rows in standings feed")
	}
	logger.Info("loaded standings feed", "path", path, "rows", len(out))
	return out, nil
}
