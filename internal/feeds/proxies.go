package feeds

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	pverrors "pvcli/internal/errors"
	"pvcli/internal/injury"
	"pvcli/internal/rotation"
)

// Proxy table source names, used when the report command reads previously
// written tables back in.
const (
	SourceRotationProxy = "rotation_proxy"
	SourceInjuryProxy   = "injury_proxy"
)

// optFloat treats an empty cell as NaN, the convention the exporter uses for
// undefined metrics.
func optFloat(s, source, field string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return math.NaN(), nil
	}
	return parseFloat(s, source, field)
}

func optInt(s, source, field string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, pverrors.NewSchemaError(source, field, "cannot parse integer "+strconv.Quote(s))
	}
	return n, nil
}

// LoadRotationTable reads a rotation proxy table previously written by the
// pipeline, so the combined table can be rebuilt without re-running the
// estimations.
func LoadRotationTable(path string, logger *slog.Logger) ([]rotation.Record, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	idx, err := resolveHeader(header, []column{
		{"player_key", []string{"player_key", "player_name"}, true},
		{"player_name", []string{"player_name", "player_key"}, false},
		{"team_id", []string{"team_id", "team"}, true},
		{"season", []string{"season"}, true},
		{"n_matches", []string{"n_matches"}, true},
		{"n_starts", []string{"n_starts"}, false},
		{"start_rate_all", []string{"start_rate_all", "start_share_overall"}, true},
		{"n_hard", []string{"n_hard"}, false},
		{"n_hard_starts", []string{"n_hard_starts"}, false},
		{"start_rate_hard", []string{"start_rate_hard", "start_share_hard"}, true},
		{"n_easy", []string{"n_easy"}, false},
		{"n_easy_starts", []string{"n_easy_starts"}, false},
		{"start_rate_easy", []string{"start_rate_easy", "start_share_easy"}, true},
		{"elasticity", []string{"selection_elasticity", "elasticity"}, true},
	}, SourceRotationProxy)
	if err != nil {
		return nil, err
	}

	out := make([]rotation.Record, 0, len(rows))
	for _, row := range rows {
		season, err := parseSeason(cell(row, idx, "season"), SourceRotationProxy)
		if err != nil {
			return nil, err
		}
		rec := rotation.Record{
			PlayerKey:  strings.TrimSpace(cell(row, idx, "player_key")),
			PlayerName: strings.TrimSpace(cell(row, idx, "player_name")),
			TeamID:     strings.TrimSpace(cell(row, idx, "team_id")),
			Season:     season,
		}
		if rec.PlayerName == "" {
			rec.PlayerName = rec.PlayerKey
		}
		if rec.NMatches, err = optInt(cell(row, idx, "n_matches"), SourceRotationProxy, "n_matches"); err != nil {
			return nil, err
		}
		if rec.NStarts, err = optInt(cell(row, idx, "n_starts"), SourceRotationProxy, "n_starts"); err != nil {
			return nil, err
		}
		if rec.NHard, err = optInt(cell(row, idx, "n_hard"), SourceRotationProxy, "n_hard"); err != nil {
			return nil, err
		}
		if rec.NHardStarts, err = optInt(cell(row, idx, "n_hard_starts"), SourceRotationProxy, "n_hard_starts"); err != nil {
			return nil, err
		}
		if rec.NEasy, err = optInt(cell(row, idx, "n_easy"), SourceRotationProxy, "n_easy"); err != nil {
			return nil, err
		}
		if rec.NEasyStarts, err = optInt(cell(row, idx, "n_easy_starts"), SourceRotationProxy, "n_easy_starts"); err != nil {
			return nil, err
		}
		if rec.StartRateAll, err = optFloat(cell(row, idx, "start_rate_all"), SourceRotationProxy, "start_rate_all"); err != nil {
			return nil, err
		}
		if rec.StartRateHard, err = optFloat(cell(row, idx, "start_rate_hard"), SourceRotationProxy, "start_rate_hard"); err != nil {
			return nil, err
		}
		if rec.StartRateEasy, err = optFloat(cell(row, idx, "start_rate_easy"), SourceRotationProxy, "start_rate_easy"); err != nil {
			return nil, err
		}
		if rec.Elasticity, err = optFloat(cell(row, idx, "elasticity"), SourceRotationProxy, "selection_elasticity"); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	logger.Info("loaded rotation proxy table", "path", path, "rows", len(out))
	return out, nil
}

// LoadInjuryTable reads an injury proxy table previously written by the
// pipeline.
func LoadInjuryTable(path string, logger *slog.Logger) ([]injury.Record, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	idx, err := resolveHeader(header, []column{
		{"player_key", []string{"player_key", "player_name"}, true},
		{"player_name", []string{"player_name", "player_key"}, false},
		{"team_id", []string{"team_id", "team"}, true},
		{"season", []string{"season"}, true},
		{"effect_coefficient", []string{"effect_coefficient", "beta_unavailable"}, true},
		{"standard_error", []string{"standard_error", "se_unavailable"}, false},
		{"p_value", []string{"p_value"}, false},
		{"n_matches", []string{"n_matches"}, true},
		{"n_unavailable", []string{"n_unavailable"}, false},
		{"n_available", []string{"n_available"}, false},
		{"covariance_method", []string{"covariance_method", "cov_type"}, false},
		{"n_opponent_clusters", []string{"n_opponent_clusters", "n_clusters"}, false},
		{"value_per_match", []string{"value_per_match", "xpts_per_match_present"}, false},
		{"value_season_total", []string{"value_season_total", "xpts_season_total"}, true},
		{"money_per_match", []string{"money_per_match", "gbp_per_match"}, false},
		{"money_season_total", []string{"money_season_total", "gbp_season_total"}, false},
	}, SourceInjuryProxy)
	if err != nil {
		return nil, err
	}

	out := make([]injury.Record, 0, len(rows))
	for _, row := range rows {
		season, err := parseSeason(cell(row, idx, "season"), SourceInjuryProxy)
		if err != nil {
			return nil, err
		}
		rec := injury.Record{
			PlayerKey:        strings.TrimSpace(cell(row, idx, "player_key")),
			PlayerName:       strings.TrimSpace(cell(row, idx, "player_name")),
			TeamID:           strings.TrimSpace(cell(row, idx, "team_id")),
			Season:           season,
			CovarianceMethod: strings.TrimSpace(cell(row, idx, "covariance_method")),
		}
		if rec.PlayerName == "" {
			rec.PlayerName = rec.PlayerKey
		}
		if rec.NMatches, err = optInt(cell(row, idx, "n_matches"), SourceInjuryProxy, "n_matches"); err != nil {
			return nil, err
		}
		if rec.NUnavailable, err = optInt(cell(row, idx, "n_unavailable"), SourceInjuryProxy, "n_unavailable"); err != nil {
			return nil, err
		}
		if rec.NAvailable, err = optInt(cell(row, idx, "n_available"), SourceInjuryProxy, "n_available"); err != nil {
			return nil, err
		}
		if rec.NOpponentClusters, err = optInt(cell(row, idx, "n_opponent_clusters"), SourceInjuryProxy, "n_opponent_clusters"); err != nil {
			return nil, err
		}
		if rec.EffectCoefficient, err = optFloat(cell(row, idx, "effect_coefficient"), SourceInjuryProxy, "effect_coefficient"); err != nil {
			return nil, err
		}
		if rec.StandardError, err = optFloat(cell(row, idx, "standard_error"), SourceInjuryProxy, "standard_error"); err != nil {
			return nil, err
		}
		if rec.PValue, err = optFloat(cell(row, idx, "p_value"), SourceInjuryProxy, "p_value"); err != nil {
			return nil, err
		}
		if rec.ValuePerMatch, err = optFloat(cell(row, idx, "value_per_match"), SourceInjuryProxy, "value_per_match"); err != nil {
			return nil, err
		}
		if rec.ValueSeasonTotal, err = optFloat(cell(row, idx, "value_season_total"), SourceInjuryProxy, "value_season_total"); err != nil {
			return nil, err
		}
		if rec.MoneyPerMatch, err = optFloat(cell(row, idx, "money_per_match"), SourceInjuryProxy, "money_per_match"); err != nil {
			return nil, err
		}
		if rec.MoneySeasonTotal, err = optFloat(cell(row, idx, "money_season_total"), SourceInjuryProxy, "money_season_total"); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	logger.Info("loaded injury proxy table", "path", path, "rows", len(out))
	return out, nil
}
