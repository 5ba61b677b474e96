// Package export writes received instructions to spreadsheets for the
// operations team.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/goliatone/go-instructform/internal/store"
)

// SheetName is the worksheet holding the instruction rows.
const SheetName = "Instructions"

// ContentType is the media type of the written workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Header is the first row of the sheet.
var Header = []string{"ID", "Received", "Submitted", "Client", "Email", "Property address"}

const dateLayout = "2006-01-02 15:04"

// WriteWorkbook writes subs as one row each, in the order given.
func WriteWorkbook(w io.Writer, subs []store.Submission) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("export: name sheet: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("export: header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}

	for i, sub := range subs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: row %d: %w", i+2, err)
		}
		row := []any{
			sub.ID,
			formatTime(sub.ReceivedAt),
			formatTime(sub.SubmittedAt),
			sub.ClientName,
			sub.ClientEmail,
			sub.PropertyAddress,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("export: row %s: %w", sub.ID, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "F", 24); err != nil {
		return fmt.Errorf("export: column width: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
