package analysis

import (
	"context"
	"log/slog"
	"math"
	"sort"
)

// Aggregator computes descriptive statistics, bucket groupings and top-N
// subsets over cleaned records.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates an aggregator.
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

// Aggregate fills a Result from cleaned records. The correlation block is left
// zero; Correlate computes it separately.
func (a *Aggregator) Aggregate(ctx context.Context, records []Record, window Window) *Result {
	res := &Result{
		Window:         window,
		Records:        records,
		Buckets:        bucketStats(records),
		Summary:        summarize(records),
		TopCampaigns:   topCampaigns(records, 10),
		BestCombos:     bestCombinations(records),
		WorstCombos:    worstCombinations(records),
		NumericColumns: numericColumns(records),
	}

	a.logger.InfoContext(ctx, "aggregated records",
		"records", len(records),
		"buckets", len(res.Buckets),
		"top_campaigns", len(res.TopCampaigns),
		"numeric_columns", len(res.NumericColumns),
	)

	return res
}

// summarize computes the global descriptive statistics.
func summarize(records []Record) Summary {
	if len(records) == 0 {
		return Summary{}
	}

	positions := make([]float64, len(records))
	orders := make([]float64, len(records))
	s := Summary{
		Records: len(records),
		MinPos:  math.Inf(1),
		MaxPos:  math.Inf(-1),
	}
	for i, r := range records {
		positions[i] = r.AvgPos
		orders[i] = r.Orders
		s.MeanPos += r.AvgPos
		s.MeanOrders += r.Orders
		s.SumOrders += r.Orders
		s.MinPos = math.Min(s.MinPos, r.AvgPos)
		s.MaxPos = math.Max(s.MaxPos, r.AvgPos)
	}
	n := float64(len(records))
	s.MeanPos /= n
	s.MeanOrders /= n
	s.MedianPos = median(positions)
	s.MedianOrders = median(orders)
	return s
}

// bucketStats groups records into position buckets and aggregates each group.
// Empty buckets are omitted.
func bucketStats(records []Record) []BucketStats {
	grouped := make(map[Bucket][]Record, int(numBuckets))
	for _, r := range records {
		b := BucketFor(r.AvgPos)
		grouped[b] = append(grouped[b], r)
	}

	var stats []BucketStats
	for _, b := range AllBuckets() {
		group := grouped[b]
		if len(group) == 0 {
			continue
		}
		bs := BucketStats{Bucket: b, Count: len(group)}
		orders := make([]float64, len(group))
		for i, r := range group {
			orders[i] = r.Orders
			bs.SumOrders += r.Orders
			bs.MeanPos += r.AvgPos
		}
		bs.MeanOrders = bs.SumOrders / float64(len(group))
		bs.MeanPos /= float64(len(group))
		bs.MedianOrders = median(orders)
		stats = append(stats, bs)
	}
	return stats
}

// topCampaigns groups records by (campaign, query) and returns the n pairs
// with the most summed orders, descending. Ties keep first-seen order.
func topCampaigns(records []Record, n int) []CampaignStats {
	type key struct{ advert, query string }
	type agg struct {
		stats CampaignStats
		dates map[string]struct{}
		posSum float64
		count  int
	}

	byKey := make(map[key]*agg)
	var order []key
	for _, r := range records {
		k := key{r.AdvertID, r.Query}
		entry, ok := byKey[k]
		if !ok {
			entry = &agg{
				stats: CampaignStats{AdvertID: r.AdvertID, Query: r.Query},
				dates: make(map[string]struct{}),
			}
			byKey[k] = entry
			order = append(order, k)
		}
		entry.stats.SumOrders += r.Orders
		entry.posSum += r.AvgPos
		entry.count++
		if r.Date != "" {
			entry.dates[r.Date] = struct{}{}
		}
	}

	campaigns := make([]CampaignStats, 0, len(order))
	for _, k := range order {
		entry := byKey[k]
		entry.stats.MeanPos = entry.posSum / float64(entry.count)
		entry.stats.Days = len(entry.dates)
		campaigns = append(campaigns, entry.stats)
	}

	sort.SliceStable(campaigns, func(i, j int) bool {
		return campaigns[i].SumOrders > campaigns[j].SumOrders
	})
	if len(campaigns) > n {
		campaigns = campaigns[:n]
	}
	return campaigns
}

// bestCombinations returns, among the 20 records with the lowest position,
// the 5 with the most orders: well-ranked placements that actually convert.
func bestCombinations(records []Record) []Record {
	lowest := sortedCopy(records, func(a, b Record) bool { return a.AvgPos < b.AvgPos })
	if len(lowest) > 20 {
		lowest = lowest[:20]
	}
	best := sortedCopy(lowest, func(a, b Record) bool { return a.Orders > b.Orders })
	if len(best) > 5 {
		best = best[:5]
	}
	return best
}

// worstCombinations returns, among records deeper than position 30, the 5
// with the fewest orders: poorly ranked placements that also fail to convert.
func worstCombinations(records []Record) []Record {
	var deep []Record
	for _, r := range records {
		if r.AvgPos > 30 {
			deep = append(deep, r)
		}
	}
	worst := sortedCopy(deep, func(a, b Record) bool { return a.Orders < b.Orders })
	if len(worst) > 5 {
		worst = worst[:5]
	}
	return worst
}

// numericColumns lists the numeric fields usable in a correlation matrix:
// avg_pos and orders always, plus any optional column present on every record.
func numericColumns(records []Record) []string {
	cols := []string{"avg_pos", "orders"}
	for _, col := range optionalNumericColumns {
		present := len(records) > 0
		for _, r := range records {
			if _, ok := r.Extra[col]; !ok {
				present = false
				break
			}
		}
		if present {
			cols = append(cols, col)
		}
	}
	return cols
}

// sortedCopy returns a stably sorted copy, leaving the input untouched.
func sortedCopy(records []Record, less func(a, b Record) bool) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// median returns the median of values. The input slice is reordered.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 0 {
		return (values[mid-1] + values[mid]) / 2
	}
	return values[mid]
}
