// Package report renders analysis results: a multi-panel PNG figure, a
// position trend chart, a multi-sheet Excel workbook and a console summary.
//
// Each artifact is produced independently; a failure in one is reported by
// the caller and leaves the others in place.
package report
