// Package analysis cleans advertising performance records and computes the
// statistical relationship between average search position and order count.
package analysis

import (
	"fmt"
	"strings"
)

// Required columns in the advertising table. The analysis aborts when any of
// these is missing from the loaded snapshot.
var RequiredColumns = []string{"avg_pos", "orders", "norm_query", "advert_id", "nm_id"}

// Optional numeric columns picked up for the correlation matrix when present.
var optionalNumericColumns = []string{"views", "clicks", "cpc", "atbs"}

// MinRecordsForAnalysis is the minimum number of cleaned rows required before
// any statistic is computed.
const MinRecordsForAnalysis = 10

// MaxPosition is the outlier cutoff: positions above it are dropped.
const MaxPosition = 200.0

// Record is one cleaned row of advertising performance data.
type Record struct {
	Query     string  `json:"norm_query"`
	AdvertID  string  `json:"advert_id"`
	ProductID string  `json:"nm_id"`
	Date      string  `json:"date"` // YYYY-MM-DD
	AvgPos    float64 `json:"avg_pos"`
	Orders    float64 `json:"orders"`

	// Extra holds optional numeric columns (views, clicks, cpc, atbs) that
	// were present and parseable for this row.
	Extra map[string]float64 `json:"extra,omitempty"`
}

// Window is the inclusive analysis date range.
type Window struct {
	Start string `json:"start"` // YYYY-MM-DD
	End   string `json:"end"`   // YYYY-MM-DD
}

// String renders the window for file naming, e.g. "2026-01-01_to_2026-02-01".
func (w Window) String() string {
	return w.Start + "_to_" + w.End
}

// CleanStats describes what cleaning removed from the raw snapshot.
type CleanStats struct {
	RawRows          int `json:"raw_rows"`
	DroppedNonNumeric int `json:"dropped_non_numeric"`
	DroppedZeroOrders int `json:"dropped_zero_orders"`
	DroppedOutliers   int `json:"dropped_outliers"`
	Remaining         int `json:"remaining"`
}

// BucketStats aggregates cleaned records that fall into one position bucket.
type BucketStats struct {
	Bucket       Bucket  `json:"bucket"`
	Count        int     `json:"count"`
	MeanOrders   float64 `json:"mean_orders"`
	SumOrders    float64 `json:"sum_orders"`
	MedianOrders float64 `json:"median_orders"`
	MeanPos      float64 `json:"mean_pos"`
}

// Summary holds global descriptive statistics over the cleaned records.
type Summary struct {
	Records      int     `json:"records"`
	MeanPos      float64 `json:"mean_pos"`
	MedianPos    float64 `json:"median_pos"`
	MinPos       float64 `json:"min_pos"`
	MaxPos       float64 `json:"max_pos"`
	MeanOrders   float64 `json:"mean_orders"`
	MedianOrders float64 `json:"median_orders"`
	SumOrders    float64 `json:"sum_orders"`
}

// CampaignStats aggregates records of one (campaign, query) pair.
type CampaignStats struct {
	AdvertID  string  `json:"advert_id"`
	Query     string  `json:"norm_query"`
	Days      int     `json:"days"` // distinct dates with data
	MeanPos   float64 `json:"mean_pos"`
	SumOrders float64 `json:"sum_orders"`
}

// Correlation holds both correlation measures and their interpretation.
type Correlation struct {
	Pearson   float64 `json:"pearson"`
	PearsonP  float64 `json:"pearson_p"`
	Spearman  float64 `json:"spearman"`
	SpearmanP float64 `json:"spearman_p"`

	Strength       string `json:"strength"`  // strong, moderate, weak, negligible
	Direction      string `json:"direction"` // negative, positive
	Significant    bool   `json:"significant"`
	Recommendation string `json:"recommendation"`
}

// Result is the full outcome of one analysis run. It exists only in memory;
// the reporter renders it to files.
type Result struct {
	Window       Window          `json:"window"`
	Records      []Record        `json:"records"`
	CleanStats   CleanStats      `json:"clean_stats"`
	Buckets      []BucketStats   `json:"buckets"`
	Summary      Summary         `json:"summary"`
	Correlation  Correlation     `json:"correlation"`
	TopCampaigns []CampaignStats `json:"top_campaigns"`
	BestCombos   []Record        `json:"best_combos"`
	WorstCombos  []Record        `json:"worst_combos"`

	// NumericColumns lists the numeric fields available for the correlation
	// matrix, always starting with avg_pos and orders.
	NumericColumns []string `json:"numeric_columns"`
}

// MissingColumnsError reports required columns absent from the snapshot.
type MissingColumnsError struct {
	Columns []string
}

// Error implements the error interface.
func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}
