package panel

import "time"

// ResolveAvailability tags each match date as unavailable when it falls
// inside any of the player's spells. Bounds are inclusive on both ends, and
// overlapping spells collapse via logical OR. A player with zero spells gets
// all matches marked available; such players are excluded upstream anyway,
// since the proxies only study players with at least one spell.
//
// Pure function: dates that reach this point have already been parsed and
// validated at ingest.
func ResolveAvailability(dates []time.Time, spells []Spell) []bool {
	unavailable := make([]bool, len(dates))
	if len(spells) == 0 {
		return unavailable
	}
	for i, d := range dates {
		for _, s := range spells {
			if s.Contains(d) {
				unavailable[i] = true
				break
			}
		}
	}
	return unavailable
}
