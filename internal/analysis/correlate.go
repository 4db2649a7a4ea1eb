package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Interpretation thresholds on |pearson|.
const (
	strongCorrelation   = 0.70
	moderateCorrelation = 0.30
	weakCorrelation     = 0.10

	// significanceLevel is applied uniformly to both p-values.
	significanceLevel = 0.05
)

// Correlate computes Pearson and Spearman correlation between position and
// orders, with two-tailed p-values, and classifies the outcome.
//
// Degenerate inputs (too few rows, zero variance) never fail: both
// coefficients fall back to 0 and both p-values to 1, and the run continues.
func Correlate(ctx context.Context, logger *slog.Logger, records []Record) Correlation {
	if logger == nil {
		logger = slog.Default()
	}

	positions := make([]float64, len(records))
	orders := make([]float64, len(records))
	for i, r := range records {
		positions[i] = r.AvgPos
		orders[i] = r.Orders
	}

	c := Correlation{Pearson: 0, PearsonP: 1, Spearman: 0, SpearmanP: 1}

	pearson, pearsonP, err := pearsonWithP(positions, orders)
	if err != nil {
		logger.WarnContext(ctx, "pearson correlation failed, using neutral values", "error", err)
	} else {
		c.Pearson, c.PearsonP = pearson, pearsonP
	}

	spearman, spearmanP, err := pearsonWithP(ranks(positions), ranks(orders))
	if err != nil {
		logger.WarnContext(ctx, "spearman correlation failed, using neutral values", "error", err)
	} else {
		c.Spearman, c.SpearmanP = spearman, spearmanP
	}

	c.Strength = strengthOf(c.Pearson)
	if c.Pearson < 0 {
		c.Direction = "negative"
	} else {
		c.Direction = "positive"
	}
	c.Significant = c.PearsonP < significanceLevel
	c.Recommendation = recommendationFor(c.Pearson)

	logger.InfoContext(ctx, "computed correlation",
		"pearson", c.Pearson,
		"pearson_p", c.PearsonP,
		"spearman", c.Spearman,
		"spearman_p", c.SpearmanP,
		"strength", c.Strength,
		"direction", c.Direction,
	)

	return c
}

// pearsonWithP computes the Pearson coefficient and its two-tailed p-value
// from a Student's t distribution with n-2 degrees of freedom.
func pearsonWithP(xs, ys []float64) (r, p float64, err error) {
	n := len(xs)
	if n < 3 {
		return 0, 0, fmt.Errorf("need at least 3 observations, got %d", n)
	}

	r = stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, 0, fmt.Errorf("correlation undefined (zero variance)")
	}
	// Clamp rounding drift so perfectly collinear data stays in [-1, 1].
	r = math.Max(-1, math.Min(1, r))

	if math.Abs(r) == 1 {
		return r, 0, nil
	}

	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p = 2 * dist.CDF(-math.Abs(t))
	if math.IsNaN(p) {
		return 0, 0, fmt.Errorf("p-value undefined for t=%v", t)
	}
	return r, math.Min(1, p), nil
}

// ranks assigns average ranks (1-based), sharing ranks across ties, which is
// what the Spearman coefficient requires.
func ranks(values []float64) []float64 {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranked := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		// Average rank for the tie group [i, j].
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranked[idx[k]] = avg
		}
		i = j + 1
	}
	return ranked
}

// strengthOf classifies |r| against the documented thresholds.
func strengthOf(r float64) string {
	switch abs := math.Abs(r); {
	case abs >= strongCorrelation:
		return "strong"
	case abs >= moderateCorrelation:
		return "moderate"
	case abs >= weakCorrelation:
		return "weak"
	default:
		return "negligible"
	}
}

// recommendationFor derives the narrative advice from the signed Pearson value.
func recommendationFor(r float64) string {
	switch {
	case r < -moderateCorrelation:
		return "Position strongly drives orders: push campaigns toward the top-20 positions and lower the average position below 20."
	case math.Abs(r) < moderateCorrelation:
		return "No strong linear link between position and orders: investigate click-through rate, conversion and price before buying better positions."
	default:
		return "Unexpected positive correlation between position and orders: audit the data quality before acting on it."
	}
}

// Matrix computes a pairwise Pearson correlation matrix over the given numeric
// columns, using pairwise-complete observations. Undefined cells become 0,
// the diagonal is always 1.
func Matrix(records []Record, cols []string) [][]float64 {
	m := make([][]float64, len(cols))
	for i := range m {
		m[i] = make([]float64, len(cols))
		m[i][i] = 1
	}

	for i := 0; i < len(cols); i++ {
		for j := i + 1; j < len(cols); j++ {
			var xs, ys []float64
			for _, r := range records {
				x, okX := FieldValue(r, cols[i])
				y, okY := FieldValue(r, cols[j])
				if okX && okY {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			r, _, err := pearsonWithP(xs, ys)
			if err != nil {
				r = 0
			}
			m[i][j], m[j][i] = r, r
		}
	}
	return m
}

// FieldValue extracts a numeric field from a record by column name.
func FieldValue(r Record, col string) (float64, bool) {
	switch col {
	case "avg_pos":
		return r.AvgPos, true
	case "orders":
		return r.Orders, true
	default:
		v, ok := r.Extra[col]
		return v, ok
	}
}
