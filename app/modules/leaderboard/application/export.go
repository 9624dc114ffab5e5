package leaderboardservice

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	leaderboarddomain "github.com/msnews/mind-leaderboard/app/modules/leaderboard/domain"
)

const exportSheet = "Leaderboard"

var exportHeader = []any{"Rank", "Team", "AUC", "MRR", "nDCG@5", "nDCG@10", "Date of Last Entry", "Source"}

// WriteXLSX writes the combined leaderboard as an XLSX workbook with one
// sheet, one header row and one row per team, in rank order.
func WriteXLSX(w io.Writer, combined *leaderboarddomain.Combined) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, r := range combined.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		row := []any{r.Rank, r.Team, metricCell(r.AUC), metricCell(r.MRR), metricCell(r.NDCG5), metricCell(r.NDCG10), rowDate(r), r.Source}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// metricCell keeps missing metrics as empty cells rather than zeros.
func metricCell(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
