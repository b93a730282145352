package injury

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"pvcli/internal/panel"
)

// Estimator fits one regression per player-team-season. Groups are
// independent, so they are estimated in parallel; a pathological group is
// skipped with a warning and never aborts the batch.
type Estimator struct {
	cfg    Config
	logger *slog.Logger
}

// NewEstimator creates an injury-effect estimator.
func NewEstimator(cfg Config, logger *slog.Logger) *Estimator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{cfg: cfg, logger: logger}
}

type groupKey struct {
	PlayerKey string
	TeamID    string
	Season    int
}

// Estimate runs the per-group regressions. Output order is deterministic:
// (season, team, player).
func (e *Estimator) Estimate(ctx context.Context, rows []panel.AppearanceRow) ([]Record, Summary, error) {
	groups := make(map[groupKey][]panel.AppearanceRow)
	names := make(map[groupKey]string)
	for _, r := range rows {
		k := groupKey{r.PlayerKey, r.TeamID, r.Season}
		groups[k] = append(groups[k], r)
		if names[k] == "" {
			names[k] = r.PlayerName
		}
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		if a.TeamID != b.TeamID {
			return a.TeamID < b.TeamID
		}
		return a.PlayerKey < b.PlayerKey
	})

	summary := Summary{Groups: len(keys)}

	// Identification filter first: both availability states must occur often
	// enough for the effect to be estimable at all.
	identified := make([]groupKey, 0, len(keys))
	for _, k := range keys {
		nUnavail, nAvail := 0, 0
		for _, r := range groups[k] {
			if r.Unavailable {
				nUnavail++
			} else {
				nAvail++
			}
		}
		if nUnavail < e.cfg.MinUnavailable || nAvail < e.cfg.MinAvailable {
			summary.SkippedNotIdentified++
			e.logger.DebugContext(ctx, "injury group not identified",
				"player", k.PlayerKey, "team", k.TeamID, "season", k.Season,
				"n_unavailable", nUnavail, "n_available", nAvail)
			continue
		}
		identified = append(identified, k)
	}

	results := make([]*Record, len(identified))
	var mu sync.Mutex
	failed := 0

	eg, egCtx := errgroup.WithContext(ctx)
	workers := e.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	eg.SetLimit(workers)

	for i, k := range identified {
		i, k := i, k
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			rec, err := e.fitGroup(k, names[k], groups[k])
			if err != nil {
				e.logger.WarnContext(egCtx, "injury regression failed, skipping group",
					"player", k.PlayerKey, "team", k.TeamID, "season", k.Season,
					"error", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			results[i] = rec
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, summary, err
	}
	summary.SkippedFitFailed = failed

	records := make([]Record, 0, len(results))
	for _, r := range results {
		if r != nil {
			records = append(records, *r)
		}
	}
	summary.Kept = len(records)

	e.logger.InfoContext(ctx, "injury proxy built",
		"groups", summary.Groups,
		"kept", summary.Kept,
		"skipped_not_identified", summary.SkippedNotIdentified,
		"skipped_fit_failed", summary.SkippedFitFailed,
	)
	return records, summary, nil
}

// fitGroup estimates the effect for one player-team-season.
func (e *Estimator) fitGroup(k groupKey, name string, rows []panel.AppearanceRow) (*Record, error) {
	ordered := make([]panel.AppearanceRow, len(rows))
	copy(ordered, rows)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].MatchID < ordered[j].MatchID
	})

	x, y, opponents := buildDesign(ordered)
	fit, err := fitOLS(x, y, opponents)
	if err != nil {
		return nil, err
	}

	distinct := make(map[string]struct{})
	for _, o := range opponents {
		distinct[o] = struct{}{}
	}
	nClusters := len(distinct)

	var (
		se     float64
		df     int
		method string
	)
	if nClusters >= e.cfg.ClusterThreshold {
		method = CovCluster
		se, _, err = clusterStandardError(fit)
		df = nClusters - 1
	} else {
		method = CovHC1
		se, err = hc1StandardError(fit)
		df = fit.n - fit.k
	}
	if err != nil {
		return nil, err
	}

	coef := fit.coef[fit.effectCol]
	rec := &Record{
		PlayerKey:         k.PlayerKey,
		PlayerName:        name,
		TeamID:            k.TeamID,
		Season:            k.Season,
		EffectCoefficient: coef,
		StandardError:     se,
		PValue:            tTestPValue(coef, se, df),
		NMatches:          len(ordered),
		CovarianceMethod:  method,
		NOpponentClusters: nClusters,
		ValuePerMatch:     math.NaN(),
		ValueSeasonTotal:  math.NaN(),
		MoneyPerMatch:     math.NaN(),
		MoneySeasonTotal:  math.NaN(),
	}
	for _, r := range ordered {
		if r.Unavailable {
			rec.NUnavailable++
		} else {
			rec.NAvailable++
		}
	}
	return rec, nil
}
