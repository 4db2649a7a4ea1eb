package analysis

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(query, advert string, pos, orders float64) Record {
	return Record{
		Query:     query,
		AdvertID:  advert,
		ProductID: "p-" + advert,
		Date:      "2026-01-10",
		AvgPos:    pos,
		Orders:    orders,
	}
}

func TestSummarize(t *testing.T) {
	records := []Record{
		rec("a", "1", 10, 2),
		rec("b", "2", 20, 4),
		rec("c", "3", 30, 6),
	}

	s := summarize(records)
	assert.Equal(t, 3, s.Records)
	assert.InDelta(t, 20.0, s.MeanPos, 1e-9)
	assert.InDelta(t, 20.0, s.MedianPos, 1e-9)
	assert.InDelta(t, 10.0, s.MinPos, 1e-9)
	assert.InDelta(t, 30.0, s.MaxPos, 1e-9)
	assert.InDelta(t, 4.0, s.MeanOrders, 1e-9)
	assert.InDelta(t, 4.0, s.MedianOrders, 1e-9)
	assert.InDelta(t, 12.0, s.SumOrders, 1e-9)
}

func TestBucketStatsGrouping(t *testing.T) {
	records := []Record{
		rec("a", "1", 2, 10),
		rec("b", "2", 5, 20),
		rec("c", "3", 15, 3),
		rec("d", "4", 150, 1),
	}

	stats := bucketStats(records)
	require.Len(t, stats, 3) // Top-10, 11-20, 100+

	top10 := stats[0]
	assert.Equal(t, BucketTop10, top10.Bucket)
	assert.Equal(t, 2, top10.Count)
	assert.InDelta(t, 15.0, top10.MeanOrders, 1e-9)
	assert.InDelta(t, 30.0, top10.SumOrders, 1e-9)
	assert.InDelta(t, 15.0, top10.MedianOrders, 1e-9)
	assert.InDelta(t, 3.5, top10.MeanPos, 1e-9)

	assert.Equal(t, Bucket11To20, stats[1].Bucket)
	assert.Equal(t, Bucket100Plus, stats[2].Bucket)
}

func TestTopCampaignsOrderingAndLimit(t *testing.T) {
	var records []Record
	for i := 0; i < 15; i++ {
		advert := fmt.Sprintf("c%02d", i)
		records = append(records, rec("q-"+advert, advert, 10, float64(i+1)))
	}
	// Tied pair, inserted in a known order.
	records = append(records,
		rec("tie-first", "t1", 5, 100),
		rec("tie-second", "t2", 6, 100),
	)

	top := topCampaigns(records, 10)
	require.Len(t, top, 10)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].SumOrders, top[i].SumOrders)
	}
	// Stable ties: t1 seen before t2 keeps its place.
	assert.Equal(t, "t1", top[0].AdvertID)
	assert.Equal(t, "t2", top[1].AdvertID)
}

func TestTopCampaignsAggregatesPerPair(t *testing.T) {
	records := []Record{
		{Query: "q", AdvertID: "a", Date: "2026-01-01", AvgPos: 10, Orders: 2},
		{Query: "q", AdvertID: "a", Date: "2026-01-02", AvgPos: 20, Orders: 4},
		{Query: "q", AdvertID: "a", Date: "2026-01-02", AvgPos: 30, Orders: 1},
	}

	top := topCampaigns(records, 10)
	require.Len(t, top, 1)
	assert.Equal(t, 2, top[0].Days)
	assert.InDelta(t, 20.0, top[0].MeanPos, 1e-9)
	assert.InDelta(t, 7.0, top[0].SumOrders, 1e-9)
}

func TestBestAndWorstCombinations(t *testing.T) {
	var records []Record
	// 25 records at positions 1..25, orders equal to position so the
	// best-converting of the lowest 20 positions are 16..20.
	for i := 1; i <= 25; i++ {
		records = append(records, rec(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i),
			float64(i), float64(i)))
	}
	// Deep placements with few orders.
	records = append(records,
		rec("deep-1", "d1", 40, 1),
		rec("deep-2", "d2", 60, 2),
	)

	best := bestCombinations(records)
	require.Len(t, best, 5)
	assert.InDelta(t, 20.0, best[0].Orders, 1e-9)
	for _, r := range best {
		assert.LessOrEqual(t, r.AvgPos, 20.0)
	}

	worst := worstCombinations(records)
	require.Len(t, worst, 2)
	assert.Equal(t, "d1", worst[0].AdvertID)
	assert.Equal(t, "d2", worst[1].AdvertID)
	for _, r := range worst {
		assert.Greater(t, r.AvgPos, 30.0)
	}
}

func TestNumericColumnsRequireFullPresence(t *testing.T) {
	records := []Record{
		{AvgPos: 1, Orders: 1, Extra: map[string]float64{"views": 10, "clicks": 1}},
		{AvgPos: 2, Orders: 2, Extra: map[string]float64{"views": 20}},
	}
	cols := numericColumns(records)
	assert.Equal(t, []string{"avg_pos", "orders", "views"}, cols)
}

func TestAggregateIsIdempotent(t *testing.T) {
	var records []Record
	for i := 1; i <= 30; i++ {
		records = append(records, rec(fmt.Sprintf("q%d", i%7), fmt.Sprintf("a%d", i%7),
			float64(i*3%180+1), float64(i%11+1)))
	}
	window := Window{Start: "2026-01-01", End: "2026-02-01"}

	agg := NewAggregator(nil)
	first := agg.Aggregate(context.Background(), records, window)
	second := agg.Aggregate(context.Background(), records, window)

	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Buckets, second.Buckets)
	assert.Equal(t, first.TopCampaigns, second.TopCampaigns)
	assert.Equal(t, first.BestCombos, second.BestCombos)
	assert.Equal(t, first.WorstCombos, second.WorstCombos)
}
