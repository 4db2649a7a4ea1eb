package report

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"adpulse/internal/analysis"
)

// minTrendSupport is the minimum number of records behind a rounded position
// for it to appear in the trend chart.
const minTrendSupport = 3

// TrendPoint is the aggregate of all records sharing a rounded position.
type TrendPoint struct {
	Position   float64
	MeanOrders float64
	StdOrders  float64
	Count      int
}

// TrendPoints groups records by rounded position and keeps only positions
// supported by at least minTrendSupport records, in ascending position order.
func TrendPoints(records []analysis.Record) []TrendPoint {
	grouped := make(map[float64][]float64)
	for _, r := range records {
		pos := math.Round(r.AvgPos)
		grouped[pos] = append(grouped[pos], r.Orders)
	}

	var points []TrendPoint
	for pos, orders := range grouped {
		if len(orders) < minTrendSupport {
			continue
		}
		mean := 0.0
		for _, o := range orders {
			mean += o
		}
		mean /= float64(len(orders))

		variance := 0.0
		for _, o := range orders {
			variance += (o - mean) * (o - mean)
		}
		std := math.Sqrt(variance / float64(len(orders)))

		points = append(points, TrendPoint{
			Position:   pos,
			MeanOrders: mean,
			StdOrders:  std,
			Count:      len(orders),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Position < points[j].Position })
	return points
}

// RenderTrend renders mean orders against rounded position as a line with a
// one-standard-deviation band and writes it as a PNG to path. When no rounded
// position has enough support the chart is skipped and no file is produced.
func RenderTrend(ctx context.Context, logger *slog.Logger, res *analysis.Result, path string) error {
	if logger == nil {
		logger = slog.Default()
	}

	points := TrendPoints(res.Records)
	if len(points) == 0 {
		logger.WarnContext(ctx, "not enough data for trend chart, skipping", "path", path)
		return nil
	}

	xs := make([]float64, len(points))
	means := make([]float64, len(points))
	upper := make([]float64, len(points))
	lower := make([]float64, len(points))
	for i, pt := range points {
		xs[i] = pt.Position
		means[i] = pt.MeanOrders
		upper[i] = pt.MeanOrders + pt.StdOrders
		lower[i] = math.Max(0, pt.MeanOrders-pt.StdOrders)
	}

	bandStyle := chart.Style{
		StrokeWidth: 1,
		StrokeColor: drawing.Color{R: 70, G: 130, B: 180, A: 90},
	}

	graph := chart.Chart{
		Title:      "Order trend by position",
		Background: chart.Style{Padding: chart.Box{Top: 16, Left: 16, Right: 16, Bottom: 16}},
		Width:      1000,
		Height:     600,
		XAxis:      chart.XAxis{Name: "Position (rounded)"},
		YAxis:      chart.YAxis{Name: "Mean orders"},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: "+1 std", XValues: xs, YValues: upper, Style: bandStyle},
			chart.ContinuousSeries{Name: "-1 std", XValues: xs, YValues: lower, Style: bandStyle},
			chart.ContinuousSeries{
				Name:    "Mean orders",
				XValues: xs,
				YValues: means,
				Style: chart.Style{
					StrokeWidth: 2.5,
					StrokeColor: chart.ColorBlue,
					DotWidth:    4,
					DotColor:    chart.ColorBlue,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trend chart file: %w", err)
	}
	defer w.Close()

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render trend chart: %w", err)
	}

	logger.InfoContext(ctx, "saved trend chart", "path", path, "positions", len(points))
	return nil
}
