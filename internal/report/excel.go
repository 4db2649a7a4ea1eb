package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/xuri/excelize/v2"

	"adpulse/internal/analysis"
)

// Workbook sheet names.
const (
	sheetData          = "Data"
	sheetGroupStats    = "Group Statistics"
	sheetTopCampaigns  = "Top Campaigns"
	sheetSummary       = "Summary"
	sheetTopByOrders   = "Top-20 by Orders"
	sheetTopByPosition = "Top-20 by Position"
)

// WriteWorkbook writes the multi-sheet Excel report for one analysis run.
// Chart files already produced are unaffected when this fails.
func WriteWorkbook(ctx context.Context, logger *slog.Logger, res *analysis.Result, path string) error {
	if logger == nil {
		logger = slog.Default()
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeDataSheet(f, sheetData, res.Records, res.NumericColumns); err != nil {
		return fmt.Errorf("write %s sheet: %w", sheetData, err)
	}
	if err := writeGroupStats(f, res.Buckets); err != nil {
		return fmt.Errorf("write %s sheet: %w", sheetGroupStats, err)
	}
	if err := writeTopCampaigns(f, res.TopCampaigns); err != nil {
		return fmt.Errorf("write %s sheet: %w", sheetTopCampaigns, err)
	}
	if err := writeSummary(f, res); err != nil {
		return fmt.Errorf("write %s sheet: %w", sheetSummary, err)
	}

	byOrders := topN(res.Records, 20, func(a, b analysis.Record) bool { return a.Orders > b.Orders })
	if err := writeDataSheet(f, sheetTopByOrders, byOrders, nil); err != nil {
		return fmt.Errorf("write %s sheet: %w", sheetTopByOrders, err)
	}
	byPosition := topN(res.Records, 20, func(a, b analysis.Record) bool { return a.AvgPos < b.AvgPos })
	if err := writeDataSheet(f, sheetTopByPosition, byPosition, nil); err != nil {
		return fmt.Errorf("write %s sheet: %w", sheetTopByPosition, err)
	}

	// The implicit default sheet is replaced by Data.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	logger.InfoContext(ctx, "saved analysis workbook", "path", path)
	return nil
}

// writeDataSheet writes records as a flat table. extraCols may carry the
// numeric column list; columns beyond avg_pos and orders get their own cells.
func writeDataSheet(f *excelize.File, sheet string, records []analysis.Record, extraCols []string) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := []any{"norm_query", "advert_id", "nm_id", "date", "avg_pos", "orders"}
	var extras []string
	for _, col := range extraCols {
		if col != "avg_pos" && col != "orders" {
			extras = append(extras, col)
			header = append(header, col)
		}
	}
	if err := writeRow(f, sheet, 1, header); err != nil {
		return err
	}

	for i, rec := range records {
		row := []any{rec.Query, rec.AdvertID, rec.ProductID, rec.Date, rec.AvgPos, rec.Orders}
		for _, col := range extras {
			if v, ok := analysis.FieldValue(rec, col); ok {
				row = append(row, v)
			} else {
				row = append(row, "")
			}
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeGroupStats(f *excelize.File, buckets []analysis.BucketStats) error {
	if _, err := f.NewSheet(sheetGroupStats); err != nil {
		return err
	}
	header := []any{"position_group", "count", "mean_orders", "sum_orders", "median_orders", "mean_pos"}
	if err := writeRow(f, sheetGroupStats, 1, header); err != nil {
		return err
	}
	for i, b := range buckets {
		row := []any{b.Bucket.String(), b.Count, b.MeanOrders, b.SumOrders, b.MedianOrders, b.MeanPos}
		if err := writeRow(f, sheetGroupStats, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeTopCampaigns(f *excelize.File, campaigns []analysis.CampaignStats) error {
	if _, err := f.NewSheet(sheetTopCampaigns); err != nil {
		return err
	}
	header := []any{"advert_id", "norm_query", "days", "mean_pos", "sum_orders"}
	if err := writeRow(f, sheetTopCampaigns, 1, header); err != nil {
		return err
	}
	for i, c := range campaigns {
		row := []any{c.AdvertID, c.Query, c.Days, c.MeanPos, c.SumOrders}
		if err := writeRow(f, sheetTopCampaigns, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, res *analysis.Result) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return err
	}

	rows := [][]any{
		{"Metric", "Value"},
		{"Pearson correlation", res.Correlation.Pearson},
		{"Pearson p-value", res.Correlation.PearsonP},
		{"Spearman correlation", res.Correlation.Spearman},
		{"Spearman p-value", res.Correlation.SpearmanP},
		{"Records", res.Summary.Records},
		{"Mean position", res.Summary.MeanPos},
		{"Median position", res.Summary.MedianPos},
		{"Mean orders", res.Summary.MeanOrders},
		{"Median orders", res.Summary.MedianOrders},
		{"Total orders", res.Summary.SumOrders},
	}
	for i, row := range rows {
		if err := writeRow(f, sheetSummary, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

// writeRow writes values into one spreadsheet row, starting at column A.
func writeRow(f *excelize.File, sheet string, rowNum int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

// topN returns up to n records under the given order, input left untouched.
func topN(records []analysis.Record, n int, less func(a, b analysis.Record) bool) []analysis.Record {
	out := make([]analysis.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
