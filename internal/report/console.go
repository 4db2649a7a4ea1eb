package report

import (
	"fmt"
	"strings"

	"adpulse/internal/analysis"
)

// top10EfficiencyFactor is the per-record order advantage the Top-10 bucket
// must show over the rest before the budget callout is printed.
const top10EfficiencyFactor = 1.5

// PrintFindings writes the human-readable analysis report to stdout. The
// output is informative only; files written by the other reporters are the
// machine-consumable artifacts.
func PrintFindings(res *analysis.Result) {
	rule := strings.Repeat("=", 64)

	fmt.Println(rule)
	fmt.Println("POSITION vs ORDERS CORRELATION ANALYSIS")
	fmt.Printf("Window: %s to %s | records: %d\n", res.Window.Start, res.Window.End, res.Summary.Records)
	fmt.Println(rule)

	fmt.Println("\n=== DESCRIPTIVE STATISTICS ===")
	fmt.Printf("Mean position:    %.2f\n", res.Summary.MeanPos)
	fmt.Printf("Median position:  %.2f\n", res.Summary.MedianPos)
	fmt.Printf("Position range:   %.2f - %.2f\n", res.Summary.MinPos, res.Summary.MaxPos)
	fmt.Printf("Mean orders:      %.2f\n", res.Summary.MeanOrders)
	fmt.Printf("Median orders:    %.2f\n", res.Summary.MedianOrders)
	fmt.Printf("Total orders:     %.0f\n", res.Summary.SumOrders)

	fmt.Println("\n=== POSITION GROUPS ===")
	fmt.Println("Group   | Count | Mean orders | Sum orders | Median | Mean pos")
	fmt.Println("--------|-------|-------------|------------|--------|---------")
	for _, b := range res.Buckets {
		fmt.Printf("%-7s | %5d | %11.2f | %10.0f | %6.1f | %8.2f\n",
			b.Bucket, b.Count, b.MeanOrders, b.SumOrders, b.MedianOrders, b.MeanPos)
	}

	c := res.Correlation
	fmt.Println("\n=== CORRELATION ===")
	fmt.Printf("Pearson:  %.4f (p=%.6f)\n", c.Pearson, c.PearsonP)
	fmt.Printf("Spearman: %.4f (p=%.6f)\n", c.Spearman, c.SpearmanP)
	fmt.Printf("Interpretation: %s %s correlation between position and orders\n",
		c.Strength, c.Direction)
	switch {
	case c.Pearson < -0.3:
		fmt.Println("Lower positions (closer to 1) bring more orders.")
	case c.Pearson > 0.3:
		fmt.Println("Higher positions (further from 1) bring more orders.")
	default:
		fmt.Println("No clear linear relationship.")
	}

	fmt.Println("\n=== TOP CAMPAIGNS BY ORDERS ===")
	for i, camp := range res.TopCampaigns {
		fmt.Printf("  %2d. Campaign %s (%s): position=%.1f, orders=%.0f, days=%d\n",
			i+1, camp.AdvertID, truncate(camp.Query, 30), camp.MeanPos, camp.SumOrders, camp.Days)
	}

	if len(res.BestCombos) > 0 {
		fmt.Println("\n=== BEST POSITION/ORDER COMBINATIONS ===")
		for _, r := range res.BestCombos {
			fmt.Printf("  position %.1f: %.0f orders (%s)\n", r.AvgPos, r.Orders, truncate(r.Query, 20))
		}
	}
	if len(res.WorstCombos) > 0 {
		fmt.Println("\n=== WORST COMBINATIONS (deep position, few orders) ===")
		for _, r := range res.WorstCombos {
			fmt.Printf("  position %.1f: %.0f orders (%s)\n", r.AvgPos, r.Orders, truncate(r.Query, 20))
		}
	}

	fmt.Println("\n=== RECOMMENDATIONS ===")
	fmt.Println(c.Recommendation)
	printPositionAdvice(res)
	printTop10Efficiency(res)

	fmt.Println("\n=== VERDICT ===")
	significance := "not statistically significant"
	if c.Significant {
		significance = "statistically significant"
	}
	fmt.Printf("Pearson %.4f, %s (p=%.4f)\n", c.Pearson, significance, c.PearsonP)
	fmt.Println(rule)
}

// printPositionAdvice comments on the average position achieved in the window.
func printPositionAdvice(res *analysis.Result) {
	avg := res.Summary.MeanPos
	switch {
	case avg > 30:
		fmt.Printf("Average position %.1f leaves room to grow; target an average below 25.\n", avg)
	case avg < 20:
		fmt.Printf("Average position %.1f is excellent; maintain current bids.\n", avg)
	}
}

// printTop10Efficiency compares per-record orders of the Top-10 bucket against
// the rest and suggests shifting budget when the gap is large.
func printTop10Efficiency(res *analysis.Result) {
	var top10 *analysis.BucketStats
	var otherSum float64
	var otherCount int
	for i, b := range res.Buckets {
		if b.Bucket == analysis.BucketTop10 {
			top10 = &res.Buckets[i]
			continue
		}
		otherSum += b.SumOrders
		otherCount += b.Count
	}
	if top10 == nil || top10.Count == 0 || otherCount == 0 {
		return
	}

	top10PerRecord := top10.SumOrders / float64(top10.Count)
	otherPerRecord := otherSum / float64(otherCount)
	if otherPerRecord > 0 && top10PerRecord > otherPerRecord*top10EfficiencyFactor {
		fmt.Printf("Top-10 placements yield %.1fx more orders per record; shift budget toward top positions.\n",
			top10PerRecord/otherPerRecord)
	}
}

// truncate shortens long query strings for console display.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
