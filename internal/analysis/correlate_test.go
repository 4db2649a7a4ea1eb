package analysis

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelateStrongNegative(t *testing.T) {
	// position=i, orders=200-i: a perfect inverse relationship.
	var records []Record
	for i := 1; i <= 15; i++ {
		records = append(records, Record{AvgPos: float64(i), Orders: float64(200 - i)})
	}

	c := Correlate(context.Background(), nil, records)
	assert.InDelta(t, -1.0, c.Pearson, 1e-9)
	assert.InDelta(t, -1.0, c.Spearman, 1e-9)
	assert.Less(t, c.PearsonP, 0.05)
	assert.Equal(t, "strong", c.Strength)
	assert.Equal(t, "negative", c.Direction)
	assert.True(t, c.Significant)
	assert.Contains(t, c.Recommendation, "top-20")
}

func TestCorrelateBounds(t *testing.T) {
	records := []Record{
		{AvgPos: 3, Orders: 7}, {AvgPos: 11, Orders: 2}, {AvgPos: 25, Orders: 9},
		{AvgPos: 40, Orders: 1}, {AvgPos: 8, Orders: 5}, {AvgPos: 90, Orders: 3},
		{AvgPos: 120, Orders: 2}, {AvgPos: 55, Orders: 8}, {AvgPos: 17, Orders: 4},
		{AvgPos: 63, Orders: 6},
	}

	c := Correlate(context.Background(), nil, records)
	assert.GreaterOrEqual(t, c.Pearson, -1.0)
	assert.LessOrEqual(t, c.Pearson, 1.0)
	assert.GreaterOrEqual(t, c.Spearman, -1.0)
	assert.LessOrEqual(t, c.Spearman, 1.0)
	assert.GreaterOrEqual(t, c.PearsonP, 0.0)
	assert.LessOrEqual(t, c.PearsonP, 1.0)
	assert.GreaterOrEqual(t, c.SpearmanP, 0.0)
	assert.LessOrEqual(t, c.SpearmanP, 1.0)
}

func TestCorrelateNeutralFallback(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
	}{
		{"too few rows", []Record{{AvgPos: 1, Orders: 2}, {AvgPos: 2, Orders: 3}}},
		{"zero variance", []Record{
			{AvgPos: 5, Orders: 1}, {AvgPos: 5, Orders: 2}, {AvgPos: 5, Orders: 3},
			{AvgPos: 5, Orders: 4}, {AvgPos: 5, Orders: 5},
		}},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Correlate(context.Background(), nil, tt.records)
			assert.Zero(t, c.Pearson)
			assert.Equal(t, 1.0, c.PearsonP)
			assert.Zero(t, c.Spearman)
			assert.Equal(t, 1.0, c.SpearmanP)
			assert.False(t, c.Significant)
		})
	}
}

func TestSpearmanMonotonicNonLinear(t *testing.T) {
	// Exponential decay is monotonic: Spearman must be exactly -1 while
	// Pearson stays above it.
	var records []Record
	for i := 1; i <= 12; i++ {
		records = append(records, Record{
			AvgPos: float64(i),
			Orders: 1000 * math.Exp(-float64(i)),
		})
	}

	c := Correlate(context.Background(), nil, records)
	assert.InDelta(t, -1.0, c.Spearman, 1e-9)
	assert.Greater(t, c.Pearson, -1.0)
	assert.Less(t, c.Pearson, 0.0)
}

func TestRanksHandleTies(t *testing.T) {
	got := ranks([]float64{10, 20, 20, 30})
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, got)
}

func TestStrengthClassification(t *testing.T) {
	tests := []struct {
		r    float64
		want string
	}{
		{-0.9, "strong"},
		{0.75, "strong"},
		{-0.5, "moderate"},
		{0.3, "moderate"},
		{-0.15, "weak"},
		{0.05, "negligible"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, strengthOf(tt.r), "r=%v", tt.r)
	}
}

func TestMatrixPairwise(t *testing.T) {
	var records []Record
	for i := 1; i <= 10; i++ {
		records = append(records, Record{
			AvgPos: float64(i),
			Orders: float64(11 - i),
			Extra:  map[string]float64{"views": float64(i * 2)},
		})
	}

	cols := []string{"avg_pos", "orders", "views"}
	m := Matrix(records, cols)
	require.Len(t, m, 3)

	for i := range m {
		assert.Equal(t, 1.0, m[i][i])
		for j := range m[i] {
			assert.Equal(t, m[i][j], m[j][i])
			assert.GreaterOrEqual(t, m[i][j], -1.0)
			assert.LessOrEqual(t, m[i][j], 1.0)
		}
	}
	assert.InDelta(t, -1.0, m[0][1], 1e-9) // avg_pos vs orders
	assert.InDelta(t, 1.0, m[0][2], 1e-9)  // avg_pos vs views
}
