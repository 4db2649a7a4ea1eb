package report

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"adpulse/internal/analysis"
)

const (
	panelRows = 2
	panelCols = 3

	histogramBins = 30

	// minBoxPlotRecords is the minimum bucket size for a box to be drawn.
	minBoxPlotRecords = 5
	maxBoxPlotGroups  = 4

	// minNumericColumns for a correlation heat map; below it a QQ plot of
	// orders is drawn instead.
	minNumericColumns = 3
)

// RenderPanels renders the 2x3 panel figure summarizing the analysis and
// writes it as a PNG to path.
func RenderPanels(ctx context.Context, logger *slog.Logger, res *analysis.Result, path string) error {
	if logger == nil {
		logger = slog.Default()
	}

	plots := make([][]*plot.Plot, panelRows)
	for i := range plots {
		plots[i] = make([]*plot.Plot, panelCols)
	}

	var err error
	if plots[0][0], err = scatterPanel(res); err != nil {
		return fmt.Errorf("scatter panel: %w", err)
	}
	if plots[0][1], err = positionHistPanel(res); err != nil {
		return fmt.Errorf("position histogram panel: %w", err)
	}
	if plots[0][2], err = orderHistPanel(res); err != nil {
		return fmt.Errorf("order histogram panel: %w", err)
	}
	if plots[1][0], err = bucketBarPanel(res); err != nil {
		return fmt.Errorf("bucket bar panel: %w", err)
	}
	if plots[1][1], err = boxPlotPanel(res); err != nil {
		return fmt.Errorf("box plot panel: %w", err)
	}
	if len(res.NumericColumns) >= minNumericColumns {
		plots[1][2], err = heatMapPanel(res)
	} else {
		plots[1][2], err = qqPanel(res)
	}
	if err != nil {
		return fmt.Errorf("correlation panel: %w", err)
	}

	img := vgimg.New(18*vg.Inch, 12*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: panelRows, Cols: panelCols,
		PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 4,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j := range plots[i] {
			if plots[i][j] != nil {
				plots[i][j].Draw(canvases[i][j])
			}
		}
	}

	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer w.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}

	logger.InfoContext(ctx, "saved panel figure", "path", path)
	return nil
}

// scatterPanel plots orders against position with a least-squares trend line.
func scatterPanel(res *analysis.Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Position vs orders (r=%.3f)", res.Correlation.Pearson)
	p.X.Label.Text = "Average position"
	p.Y.Label.Text = "Orders"

	pts := make(plotter.XYs, len(res.Records))
	for i, r := range res.Records {
		pts[i].X = r.AvgPos
		pts[i].Y = r.Orders
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Radius = vg.Points(2)
	p.Add(scatter, plotter.NewGrid())

	if len(res.Records) > 1 {
		xs := make([]float64, len(res.Records))
		ys := make([]float64, len(res.Records))
		for i, r := range res.Records {
			xs[i], ys[i] = r.AvgPos, r.Orders
		}
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		minX, maxX := res.Summary.MinPos, res.Summary.MaxPos
		trend, err := plotter.NewLine(plotter.XYs{
			{X: minX, Y: alpha + beta*minX},
			{X: maxX, Y: alpha + beta*maxX},
		})
		if err != nil {
			return nil, err
		}
		trend.LineStyle.Width = vg.Points(1.5)
		trend.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(trend)
	}
	return p, nil
}

// positionHistPanel draws the distribution of average positions.
func positionHistPanel(res *analysis.Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Position distribution"
	p.X.Label.Text = "Average position"
	p.Y.Label.Text = "Frequency"

	values := make(plotter.Values, len(res.Records))
	for i, r := range res.Records {
		values[i] = r.AvgPos
	}
	hist, err := plotter.NewHist(values, histogramBins)
	if err != nil {
		return nil, err
	}
	p.Add(hist, plotter.NewGrid())
	return p, nil
}

// orderHistPanel draws the order distribution on a log1p scale, which keeps
// the long tail of high-order rows readable.
func orderHistPanel(res *analysis.Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Order distribution (log)"
	p.X.Label.Text = "log(orders + 1)"
	p.Y.Label.Text = "Frequency"

	values := make(plotter.Values, len(res.Records))
	for i, r := range res.Records {
		values[i] = math.Log1p(r.Orders)
	}
	hist, err := plotter.NewHist(values, histogramBins)
	if err != nil {
		return nil, err
	}
	p.Add(hist, plotter.NewGrid())
	return p, nil
}

// bucketBarPanel draws mean orders per position bucket, largest group first,
// with record counts as labels.
func bucketBarPanel(res *analysis.Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Mean orders by position group"
	p.X.Label.Text = "Position group"
	p.Y.Label.Text = "Mean orders"

	buckets := make([]analysis.BucketStats, len(res.Buckets))
	copy(buckets, res.Buckets)
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Count > buckets[j].Count })

	values := make(plotter.Values, len(buckets))
	names := make([]string, len(buckets))
	labelPts := make(plotter.XYs, len(buckets))
	labelText := make([]string, len(buckets))
	for i, b := range buckets {
		values[i] = b.MeanOrders
		names[i] = b.Bucket.String()
		labelPts[i].X = float64(i)
		labelPts[i].Y = b.MeanOrders
		labelText[i] = fmt.Sprintf("n=%d", b.Count)
	}

	bars, err := plotter.NewBarChart(values, vg.Points(25))
	if err != nil {
		return nil, err
	}
	p.Add(bars)
	p.NominalX(names...)

	counts, err := plotter.NewLabels(plotter.XYLabels{XYs: labelPts, Labels: labelText})
	if err != nil {
		return nil, err
	}
	p.Add(counts)
	return p, nil
}

// boxPlotPanel draws order distributions per bucket for buckets with at least
// minBoxPlotRecords records, capped at maxBoxPlotGroups groups.
func boxPlotPanel(res *analysis.Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Orders by position group"
	p.X.Label.Text = "Position group"
	p.Y.Label.Text = "Orders"

	grouped := make(map[analysis.Bucket]plotter.Values)
	for _, r := range res.Records {
		b := analysis.BucketFor(r.AvgPos)
		grouped[b] = append(grouped[b], r.Orders)
	}

	var names []string
	loc := 0.0
	for _, b := range analysis.AllBuckets() {
		values := grouped[b]
		if len(values) < minBoxPlotRecords {
			continue
		}
		if len(names) >= maxBoxPlotGroups {
			break
		}
		box, err := plotter.NewBoxPlot(vg.Points(25), loc, values)
		if err != nil {
			return nil, err
		}
		p.Add(box)
		names = append(names, b.String())
		loc++
	}

	if len(names) == 0 {
		p.Title.Text = "Orders by position group (insufficient data)"
		return p, nil
	}
	p.NominalX(names...)
	return p, nil
}

// corrGrid adapts a correlation matrix to the plotter.GridXYZ interface.
type corrGrid struct {
	matrix [][]float64
}

func (g corrGrid) Dims() (int, int) { return len(g.matrix), len(g.matrix) }
func (g corrGrid) X(c int) float64  { return float64(c) }
func (g corrGrid) Y(r int) float64  { return float64(r) }
func (g corrGrid) Z(c, r int) float64 {
	return g.matrix[r][c]
}

// heatMapPanel draws the pairwise correlation matrix of the available numeric
// columns.
func heatMapPanel(res *analysis.Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Correlation matrix"

	matrix := analysis.Matrix(res.Records, res.NumericColumns)

	colors := moreland.SmoothBlueRed()
	colors.SetMin(-1)
	colors.SetMax(1)
	heat := plotter.NewHeatMap(corrGrid{matrix: matrix}, colors.Palette(64))
	heat.Min, heat.Max = -1, 1
	p.Add(heat)

	ticks := make([]plot.Tick, len(res.NumericColumns))
	for i, col := range res.NumericColumns {
		ticks[i] = plot.Tick{Value: float64(i), Label: col}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	return p, nil
}

// qqPanel draws a normal QQ plot of orders, used when the snapshot has too few
// numeric columns for a correlation matrix.
func qqPanel(res *analysis.Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "QQ plot of orders"
	p.X.Label.Text = "Theoretical quantiles"
	p.Y.Label.Text = "Ordered values"

	sorted := make([]float64, len(res.Records))
	for i, r := range res.Records {
		sorted[i] = r.Orders
	}
	sort.Float64s(sorted)

	mean := stat.Mean(sorted, nil)
	std := stat.StdDev(sorted, nil)
	if std == 0 || math.IsNaN(std) {
		std = 1
	}
	normal := distuv.Normal{Mu: mean, Sigma: std}

	n := len(sorted)
	pts := make(plotter.XYs, n)
	for i, v := range sorted {
		q := (float64(i) + 0.5) / float64(n)
		pts[i].X = normal.Quantile(q)
		pts[i].Y = v
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Radius = vg.Points(2)
	p.Add(scatter, plotter.NewGrid())
	return p, nil
}
