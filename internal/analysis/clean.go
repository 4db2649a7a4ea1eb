package analysis

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"adpulse/internal/store"
)

// ErrInsufficientData signals that fewer than MinRecordsForAnalysis rows
// survived cleaning.
var ErrInsufficientData = errors.New("insufficient data after cleaning")

// Cleaner turns a raw table snapshot into validated records.
type Cleaner struct {
	logger *slog.Logger
}

// NewCleaner creates a cleaner.
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger}
}

// Clean validates the snapshot schema and applies the cleaning rules:
// rows with missing or non-numeric position/orders are dropped, then rows
// with zero orders, then position outliers outside (0, MaxPosition].
//
// It returns *MissingColumnsError when required columns are absent and
// ErrInsufficientData when fewer than MinRecordsForAnalysis rows survive the
// zero-order filter. The minimum-rows check runs before the outlier filter,
// so a snapshot can still abort as insufficient even if outlier rows would
// have been removed later.
func (c *Cleaner) Clean(ctx context.Context, t *store.Table) ([]Record, CleanStats, error) {
	stats := CleanStats{RawRows: len(t.Rows)}

	if missing := missingColumns(t); len(missing) > 0 {
		return nil, stats, &MissingColumnsError{Columns: missing}
	}

	idx := columnIndices(t)
	records := make([]Record, 0, len(t.Rows))

	for _, row := range t.Rows {
		pos, okPos := parseNumeric(row[idx["avg_pos"]])
		orders, okOrders := parseNumeric(row[idx["orders"]])
		if !okPos || !okOrders {
			stats.DroppedNonNumeric++
			continue
		}
		if orders <= 0 {
			stats.DroppedZeroOrders++
			continue
		}

		rec := Record{
			Query:     row[idx["norm_query"]],
			AdvertID:  row[idx["advert_id"]],
			ProductID: row[idx["nm_id"]],
			AvgPos:    pos,
			Orders:    orders,
		}
		if i := idx["date"]; i >= 0 {
			rec.Date = dateOnly(row[i])
		}
		for _, col := range optionalNumericColumns {
			i := t.ColumnIndex(col)
			if i < 0 {
				continue
			}
			if v, ok := parseNumeric(row[i]); ok {
				if rec.Extra == nil {
					rec.Extra = make(map[string]float64, len(optionalNumericColumns))
				}
				rec.Extra[col] = v
			}
		}
		records = append(records, rec)
	}

	c.logger.InfoContext(ctx, "removed invalid rows",
		"non_numeric", stats.DroppedNonNumeric,
		"zero_orders", stats.DroppedZeroOrders,
		"remaining", len(records),
	)

	if len(records) < MinRecordsForAnalysis {
		stats.Remaining = len(records)
		return nil, stats, ErrInsufficientData
	}

	// Position outliers go last, after the minimum-rows gate.
	kept := records[:0]
	for _, rec := range records {
		if rec.AvgPos <= 0 || rec.AvgPos > MaxPosition {
			stats.DroppedOutliers++
			continue
		}
		kept = append(kept, rec)
	}
	stats.Remaining = len(kept)

	c.logger.InfoContext(ctx, "cleaned snapshot",
		"outliers", stats.DroppedOutliers,
		"records", stats.Remaining,
	)

	return kept, stats, nil
}

// missingColumns returns the required columns absent from the table.
func missingColumns(t *store.Table) []string {
	var missing []string
	for _, col := range RequiredColumns {
		if t.ColumnIndex(col) < 0 {
			missing = append(missing, col)
		}
	}
	return missing
}

// columnIndices maps required column names (plus date) to their indices.
func columnIndices(t *store.Table) map[string]int {
	idx := make(map[string]int, len(RequiredColumns)+1)
	for _, col := range RequiredColumns {
		idx[col] = t.ColumnIndex(col)
	}
	idx["date"] = t.ColumnIndex("date")
	return idx
}

// parseNumeric coerces a cell to float64. Empty cells and unparsable values
// report false, which the caller treats as a missing value.
func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// dateOnly truncates a date string to its YYYY-MM-DD prefix.
func dateOnly(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
