// Package injury estimates the causal injury-impact proxy: a per
// player-team-season regression of team expected points on an availability
// indicator, controlling for opponent identity, squad-wide injury burden and
// a within-season time trend.
package injury

// Config holds identification thresholds and the covariance selection rule.
type Config struct {
	// MinUnavailable and MinAvailable are the minimum counts of matches with
	// unavailable=1 and unavailable=0 a group needs before its effect is
	// identified.
	MinUnavailable int
	MinAvailable   int
	// ClusterThreshold is the minimum number of distinct opponents required
	// for cluster-robust standard errors; below it HC1 is used instead.
	ClusterThreshold int
	// Workers bounds the parallel per-group estimation loop. Zero or one
	// means sequential.
	Workers int
}

// Covariance estimator names reported on each record.
const (
	CovCluster = "cluster"
	CovHC1     = "HC1"
)

// Record is the estimate for one qualifying player-team-season.
//
// EffectCoefficient is the estimated change in expected points when the
// player is unavailable. The value and money fields are derived from it by
// the money package; until then they are NaN.
type Record struct {
	PlayerKey  string
	PlayerName string
	TeamID     string
	Season     int

	EffectCoefficient float64
	StandardError     float64
	PValue            float64
	NMatches          int
	NUnavailable      int
	NAvailable        int
	CovarianceMethod  string
	NOpponentClusters int

	// Filled by money.Apply. ValuePerMatch is the expected-points gain from
	// having the player present, i.e. -EffectCoefficient.
	ValuePerMatch    float64
	ValueSeasonTotal float64
	MoneyPerMatch    float64
	MoneySeasonTotal float64
}

// Summary reports group coverage for the user-visible run report.
type Summary struct {
	Groups               int
	Kept                 int
	SkippedNotIdentified int
	SkippedFitFailed     int
}
