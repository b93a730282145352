package exporter

import (
	"pvcli/internal/combine"
	"pvcli/internal/injury"
	"pvcli/internal/rotation"
)

var rotationHeader = []string{
	"player_key", "player_name", "team_id", "season",
	"n_matches", "n_starts", "start_rate_all",
	"n_hard", "n_hard_starts", "start_rate_hard",
	"n_easy", "n_easy_starts", "start_rate_easy",
	"selection_elasticity",
}

// WriteRotation writes the rotation proxy table.
func (w *CSVWriter) WriteRotation(path string, records []rotation.Record) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.PlayerKey, r.PlayerName, r.TeamID, formatInt(r.Season),
			formatInt(r.NMatches), formatInt(r.NStarts), formatFloat(r.StartRateAll),
			formatInt(r.NHard), formatInt(r.NHardStarts), formatFloat(r.StartRateHard),
			formatInt(r.NEasy), formatInt(r.NEasyStarts), formatFloat(r.StartRateEasy),
			formatFloat(r.Elasticity),
		})
	}
	return w.WriteTable(path, rotationHeader, rows)
}

var injuryHeader = []string{
	"player_key", "player_name", "team_id", "season",
	"effect_coefficient", "standard_error", "p_value",
	"n_matches", "n_unavailable", "n_available",
	"covariance_method", "n_opponent_clusters",
	"value_per_match", "value_season_total",
	"money_per_match", "money_season_total",
}

// WriteInjury writes the injury proxy table.
func (w *CSVWriter) WriteInjury(path string, records []injury.Record) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.PlayerKey, r.PlayerName, r.TeamID, formatInt(r.Season),
			formatFloat(r.EffectCoefficient), formatFloat(r.StandardError), formatFloat(r.PValue),
			formatInt(r.NMatches), formatInt(r.NUnavailable), formatInt(r.NAvailable),
			r.CovarianceMethod, formatInt(r.NOpponentClusters),
			formatFloat(r.ValuePerMatch), formatFloat(r.ValueSeasonTotal),
			formatFloat(r.MoneyPerMatch), formatFloat(r.MoneySeasonTotal),
		})
	}
	return w.WriteTable(path, injuryHeader, rows)
}

var combinedHeader = []string{
	"player_key", "player_name", "team_id", "season",
	"has_rotation", "has_injury",
	"n_matches", "n_starts",
	"start_rate_all", "start_rate_hard", "start_rate_easy", "selection_elasticity",
	"effect_coefficient", "value_per_match", "value_season_total", "money_season_total",
	"rotation_z", "value_z", "money_z", "composite_z",
}

// WriteCombined writes the merged player value table.
func (w *CSVWriter) WriteCombined(path string, rows []combine.Row) error {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.PlayerKey, r.PlayerName, r.TeamID, formatInt(r.Season),
			formatBool(r.HasRotation), formatBool(r.HasInjury),
			formatInt(r.NMatches), formatInt(r.NStarts),
			formatFloat(r.StartRateAll), formatFloat(r.StartRateHard), formatFloat(r.StartRateEasy), formatFloat(r.Elasticity),
			formatFloat(r.EffectCoefficient), formatFloat(r.ValuePerMatch), formatFloat(r.ValueSeasonTotal), formatFloat(r.MoneySeasonTotal),
			formatFloat(r.RotationZ), formatFloat(r.ValueZ), formatFloat(r.MoneyZ), formatFloat(r.CompositeZ),
		})
	}
	return w.WriteTable(path, combinedHeader, out)
}
