package injury

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"pvcli/internal/panel"
)

// fitResult carries everything the covariance estimators need from one
// least-squares fit.
type fitResult struct {
	x         *mat.Dense
	residuals []float64
	xtxInv    *mat.Dense
	coef      []float64
	n         int
	k         int
	// column index of the unavailable regressor
	effectCol int
	opponents []string // opponent of each observation, aligned with rows of x
}

// buildDesign constructs the regression design for one group, ordered by
// date:
//
//	xpts ~ 1 + unavailable + squad_injury_count + opponent dummies + match_index
//
// Opponent levels are sorted and the first is the reference, so the dummies
// never collide with the intercept. match_index is a numeric trend,
// deliberately not a per-match fixed effect, which would saturate the design.
func buildDesign(rows []panel.AppearanceRow) (x *mat.Dense, y []float64, opponents []string) {
	levels := make(map[string]struct{})
	for _, r := range rows {
		levels[r.OpponentID] = struct{}{}
	}
	sorted := make([]string, 0, len(levels))
	for l := range levels {
		sorted = append(sorted, l)
	}
	sort.Strings(sorted)

	dummyCol := make(map[string]int, len(sorted))
	for i, l := range sorted[1:] {
		dummyCol[l] = 3 + i
	}

	n := len(rows)
	k := 3 + len(sorted) - 1 + 1
	x = mat.NewDense(n, k, nil)
	y = make([]float64, n)
	opponents = make([]string, n)

	for i, r := range rows {
		x.Set(i, 0, 1)
		if r.Unavailable {
			x.Set(i, 1, 1)
		}
		x.Set(i, 2, float64(r.SquadInjuryCount))
		if c, ok := dummyCol[r.OpponentID]; ok {
			x.Set(i, c, 1)
		}
		x.Set(i, k-1, float64(i)) // match_index
		y[i] = r.XPts
		opponents[i] = r.OpponentID
	}
	return x, y, opponents
}

// fitOLS solves the least-squares problem and precomputes (X'X)^-1.
// Singular or near-singular designs return an error; the caller skips the
// group rather than aborting the batch.
func fitOLS(x *mat.Dense, y []float64, opponents []string) (*fitResult, error) {
	n, k := x.Dims()
	if n <= k {
		return nil, fmt.Errorf("underdetermined design: %d observations, %d regressors", n, k)
	}

	var qr mat.QR
	qr.Factorize(x)
	beta := mat.NewVecDense(k, nil)
	if err := qr.SolveVecTo(beta, false, mat.NewVecDense(n, y)); err != nil {
		return nil, fmt.Errorf("solve least squares: %w", err)
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("invert X'X: %w", err)
	}

	coef := make([]float64, k)
	residuals := make([]float64, n)
	for j := 0; j < k; j++ {
		coef[j] = beta.AtVec(j)
		if math.IsNaN(coef[j]) || math.IsInf(coef[j], 0) {
			return nil, fmt.Errorf("non-finite coefficient at column %d", j)
		}
	}
	for i := 0; i < n; i++ {
		fitted := 0.0
		for j := 0; j < k; j++ {
			fitted += x.At(i, j) * coef[j]
		}
		residuals[i] = y[i] - fitted
	}

	return &fitResult{
		x:         x,
		residuals: residuals,
		xtxInv:    &xtxInv,
		coef:      coef,
		n:         n,
		k:         k,
		effectCol: 1,
		opponents: opponents,
	}, nil
}

// tTestPValue is the two-sided p-value of coef/se under a Student-t with df
// degrees of freedom.
func tTestPValue(coef, se float64, df int) float64 {
	if se <= 0 || math.IsNaN(se) || df <= 0 {
		return math.NaN()
	}
	t := math.Abs(coef / se)
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	return 2 * dist.CDF(-t)
}
