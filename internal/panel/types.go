package panel

import (
	"time"
)

// MatchRecord is one team's side of one match, with its odds-implied expected
// points and the squad-wide injury count on match day. Produced by the match
// calendar feed; immutable once loaded. (Season, Date, TeamID) is unique.
type MatchRecord struct {
	MatchID          string
	Season           int
	Date             time.Time
	TeamID           string
	OpponentID       string
	IsHome           bool
	XPts             float64 // odds-implied expected points
	SquadInjuryCount int
}

// Spell is one unavailability interval for a player. Both bounds are
// inclusive. Start <= End is guaranteed after ingest (reversed bounds are
// swapped, not rejected).
type Spell struct {
	PlayerKey  string
	PlayerName string
	TeamID     string
	Season     int
	Start      time.Time
	End        time.Time
}

// Contains reports whether date falls inside the spell, bounds inclusive.
func (s Spell) Contains(date time.Time) bool {
	return !date.Before(s.Start) && !date.After(s.End)
}

// AppearanceRow is one row of the appearance panel: one match of one
// team-season, seen from the perspective of one player who had at least one
// unavailability spell for that team-season. Unavailable is derived from the
// player's spells; Minutes/Started come from the appearance feed when
// present. (MatchID, TeamID, PlayerKey) is unique.
type AppearanceRow struct {
	MatchID          string
	PlayerKey        string
	PlayerName       string
	TeamID           string
	Season           int
	Date             time.Time
	OpponentID       string
	XPts             float64
	SquadInjuryCount int
	Unavailable      bool
	Minutes          float64
	Started          bool
}

// Minutes is one row of the appearance feed after deduplication: per
// (season, date, team, player), the maximum minutes and whether the player
// started.
type Minutes struct {
	Season     int
	Date       time.Time
	TeamID     string
	PlayerKey  string
	PlayerName string
	Minutes    float64
	Started    bool
}
