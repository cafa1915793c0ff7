package enrichment

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractSpreadsheet reads every sheet of an .xlsx/.xls file into a bounded
// text rendering for the spreadsheet files that route to category=csv. No
// per-cell coordinate labels: the extracted text only has to be embeddable
// and searchable, not a faithful re-rendering of the sheet.
func extractSpreadsheet(path string, maxBytes int) (string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer wb.Close()

	var out strings.Builder
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			continue
		}
		out.WriteString("[sheet: " + sheet + "]\n")
		for _, row := range rows {
			cells := make([]string, 0, len(row))
			for _, cell := range row {
				cell = strings.TrimSpace(cell)
				if cell != "" {
					cells = append(cells, cell)
				}
			}
			if len(cells) > 0 {
				out.WriteString(strings.Join(cells, "\t"))
				out.WriteByte('\n')
			}
			if maxBytes > 0 && out.Len() > maxBytes {
				return out.String()[:maxBytes], nil
			}
		}
	}
	return out.String(), nil
}
