package injury

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// hc1StandardError computes the heteroskedasticity-robust (HC1) standard
// error of the effect coefficient, with the n/(n-k) small-sample correction.
func hc1StandardError(fit *fitResult) (float64, error) {
	n, k := fit.n, fit.k

	// meat = X' diag(e^2) X
	weighted := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		e2 := fit.residuals[i] * fit.residuals[i]
		for j := 0; j < k; j++ {
			weighted.Set(i, j, fit.x.At(i, j)*e2)
		}
	}
	var meat mat.Dense
	meat.Mul(fit.x.T(), weighted)

	scale := float64(n) / float64(n-k)
	return sandwichSE(fit, &meat, scale)
}

// clusterStandardError computes cluster-robust standard errors, clustering
// observations by opponent. The correction factor G/(G-1) * (n-1)/(n-k)
// matches the conventional CR1 adjustment.
func clusterStandardError(fit *fitResult) (float64, int, error) {
	n, k := fit.n, fit.k

	scores := make(map[string][]float64) // cluster -> X_g' e_g
	for i := 0; i < n; i++ {
		g := fit.opponents[i]
		s, ok := scores[g]
		if !ok {
			s = make([]float64, k)
			scores[g] = s
		}
		for j := 0; j < k; j++ {
			s[j] += fit.x.At(i, j) * fit.residuals[i]
		}
	}
	nClusters := len(scores)
	if nClusters < 2 {
		return 0, nClusters, fmt.Errorf("cannot cluster with %d cluster", nClusters)
	}

	meat := mat.NewDense(k, k, nil)
	for _, s := range scores {
		for a := 0; a < k; a++ {
			for b := 0; b < k; b++ {
				meat.Set(a, b, meat.At(a, b)+s[a]*s[b])
			}
		}
	}

	g := float64(nClusters)
	scale := g / (g - 1) * float64(n-1) / float64(n-k)
	se, err := sandwichSE(fit, meat, scale)
	return se, nClusters, err
}

// sandwichSE assembles bread * meat * bread, scales it, and extracts the
// standard error of the effect coefficient.
func sandwichSE(fit *fitResult, meat *mat.Dense, scale float64) (float64, error) {
	var half, cov mat.Dense
	half.Mul(fit.xtxInv, meat)
	cov.Mul(&half, fit.xtxInv)
	cov.Scale(scale, &cov)

	v := cov.At(fit.effectCol, fit.effectCol)
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid effect variance %v", v)
	}
	return math.Sqrt(v), nil
}
