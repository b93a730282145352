package panel

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	pverrors "pvcli/internal/errors"
)

// Builder assembles the appearance panel that both proxies consume.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a panel builder.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

type teamSeasonKey struct {
	TeamID string
	Season int
}

type groupKey struct {
	PlayerKey string
	TeamID    string
	Season    int
}

type rowKey struct {
	MatchID   string
	TeamID    string
	PlayerKey string
}

type minutesKey struct {
	Season    int
	Date      time.Time
	TeamID    string
	PlayerKey string
}

// AddSquadInjuryCounts returns a copy of matches with SquadInjuryCount set to
// the number of distinct players inside a spell on each match date. Used when
// the match calendar feed does not already carry the count.
func (b *Builder) AddSquadInjuryCounts(matches []MatchRecord, spells []Spell) []MatchRecord {
	byTeamSeason := make(map[teamSeasonKey][]Spell)
	for _, s := range spells {
		k := teamSeasonKey{s.TeamID, s.Season}
		byTeamSeason[k] = append(byTeamSeason[k], s)
	}

	out := make([]MatchRecord, len(matches))
	copy(out, matches)
	for i := range out {
		injured := make(map[string]struct{})
		for _, s := range byTeamSeason[teamSeasonKey{out[i].TeamID, out[i].Season}] {
			if s.Contains(out[i].Date) {
				injured[s.PlayerKey] = struct{}{}
			}
		}
		out[i].SquadInjuryCount = len(injured)
	}
	return out
}

// BuildAppearancePanel builds one row per (match, team, player) for every
// player who had at least one spell for a team-season present in the match
// calendar. The minutes slice is optional: without it the panel still builds,
// with Started=false and Minutes=0 everywhere.
func (b *Builder) BuildAppearancePanel(ctx context.Context, matches []MatchRecord, spells []Spell, minutes []Minutes) ([]AppearanceRow, error) {
	matchesByTS := make(map[teamSeasonKey][]MatchRecord)
	for _, m := range matches {
		k := teamSeasonKey{m.TeamID, m.Season}
		matchesByTS[k] = append(matchesByTS[k], m)
	}
	for k := range matchesByTS {
		ms := matchesByTS[k]
		sort.Slice(ms, func(i, j int) bool {
			if !ms[i].Date.Equal(ms[j].Date) {
				return ms[i].Date.Before(ms[j].Date)
			}
			return ms[i].MatchID < ms[j].MatchID
		})
	}

	// Restrict spells to team-seasons that exist in the calendar.
	spellsByGroup := make(map[groupKey][]Spell)
	names := make(map[groupKey]string)
	droppedSpells := 0
	for _, s := range spells {
		if _, ok := matchesByTS[teamSeasonKey{s.TeamID, s.Season}]; !ok {
			droppedSpells++
			continue
		}
		k := groupKey{s.PlayerKey, s.TeamID, s.Season}
		spellsByGroup[k] = append(spellsByGroup[k], s)
		if names[k] == "" {
			names[k] = s.PlayerName
		}
	}
	if droppedSpells > 0 {
		b.logger.WarnContext(ctx, "dropped spells outside the match calendar",
			"count", droppedSpells)
	}

	minutesIdx := make(map[minutesKey]Minutes, len(minutes))
	for _, mn := range minutes {
		k := minutesKey{mn.Season, mn.Date, mn.TeamID, mn.PlayerKey}
		prev, ok := minutesIdx[k]
		if !ok {
			minutesIdx[k] = mn
			continue
		}
		if mn.Minutes > prev.Minutes {
			prev.Minutes = mn.Minutes
		}
		prev.Started = prev.Started || mn.Started
		minutesIdx[k] = prev
	}
	if len(minutes) == 0 {
		b.logger.WarnContext(ctx, "no appearance feed provided, panel will carry started=false and minutes=0")
	}

	groups := make([]groupKey, 0, len(spellsByGroup))
	for k := range spellsByGroup {
		groups = append(groups, k)
	}
	sort.Slice(groups, func(i, j int) bool {
		a, c := groups[i], groups[j]
		if a.Season != c.Season {
			return a.Season < c.Season
		}
		if a.TeamID != c.TeamID {
			return a.TeamID < c.TeamID
		}
		return a.PlayerKey < c.PlayerKey
	})

	var rows []AppearanceRow
	seen := make(map[rowKey]struct{})
	unavailableRows := 0
	for _, g := range groups {
		teamMatches := matchesByTS[teamSeasonKey{g.TeamID, g.Season}]
		dates := make([]time.Time, len(teamMatches))
		for i, m := range teamMatches {
			dates[i] = m.Date
		}
		unavailable := ResolveAvailability(dates, spellsByGroup[g])

		for i, m := range teamMatches {
			rk := rowKey{m.MatchID, m.TeamID, g.PlayerKey}
			if _, dup := seen[rk]; dup {
				return nil, pverrors.NewIntegrityError("appearance_panel",
					fmt.Sprintf("duplicate key (match_id=%s, team_id=%s, player_key=%s)", m.MatchID, m.TeamID, g.PlayerKey))
			}
			seen[rk] = struct{}{}

			row := AppearanceRow{
				MatchID:          m.MatchID,
				PlayerKey:        g.PlayerKey,
				PlayerName:       names[g],
				TeamID:           m.TeamID,
				Season:           m.Season,
				Date:             m.Date,
				OpponentID:       m.OpponentID,
				XPts:             m.XPts,
				SquadInjuryCount: m.SquadInjuryCount,
				Unavailable:      unavailable[i],
			}
			if mn, ok := minutesIdx[minutesKey{m.Season, m.Date, m.TeamID, g.PlayerKey}]; ok {
				row.Minutes = mn.Minutes
				row.Started = mn.Started
			}
			if row.Unavailable {
				unavailableRows++
			}
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 {
		return nil, pverrors.NewIntegrityError("appearance_panel", "no rows built: no spell overlaps the match calendar")
	}

	b.logger.InfoContext(ctx, "appearance panel built",
		"rows", len(rows),
		"groups", len(groups),
		"unavailable_rate", float64(unavailableRows)/float64(len(rows)),
	)
	return rows, nil
}
