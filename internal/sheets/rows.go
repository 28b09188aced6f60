package sheets

import (
	"regexp"
	"strings"
	"time"

	"github.com/yshiproto/lazy-email-to-spreadsheet/internal/tracker"
)

// Column layout of the tracking tab.
//
//	A: Company  B: Status  C: Role  D: Date Submitted  E: Email Link
const headerCompany = "Company"

var (
	spreadsheetURLPattern = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)
	titleDateSuffix       = regexp.MustCompile(` - \d{2}/\d{2}/\d{4}$`)
)

// ParseSpreadsheetID accepts either a bare spreadsheet ID or a full
// Google Sheets URL and returns the ID.
func ParseSpreadsheetID(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "/") {
		return s
	}
	if m := spreadsheetURLPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// rowFor renders an application as one sheet row in column order.
func rowFor(app tracker.Application) []any {
	return []any{
		app.Company,
		string(app.Status),
		app.Role,
		app.DateSubmitted,
		app.EmailLink,
	}
}

// parseRows indexes raw sheet values by dedup key. A leading header
// row is skipped; row numbers in the result are 1-based sheet rows.
// Rows with an empty company cell are ignored, and on key collisions
// the first row wins.
func parseRows(values [][]any) map[tracker.Key]tracker.RowRef {
	index := make(map[tracker.Key]tracker.RowRef, len(values))

	for i, row := range values {
		if i == 0 && isHeader(row) {
			continue
		}

		company := cell(row, 0)
		if company == "" {
			continue
		}

		key := tracker.Key{
			Company: tracker.NormalizeCompany(company),
			Role:    tracker.NormalizeRole(cell(row, 2)),
		}
		if _, ok := index[key]; ok {
			continue
		}

		index[key] = tracker.RowRef{
			Row:       i + 1,
			Status:    tracker.ParseSheetStatus(cell(row, 1)),
			EmailLink: cell(row, 4),
		}
	}
	return index
}

func isHeader(row []any) bool {
	return strings.EqualFold(cell(row, 0), headerCompany)
}

func cell(row []any, i int) string {
	if i >= len(row) {
		return ""
	}
	s, _ := row[i].(string)
	return strings.TrimSpace(s)
}

// titleWithDate replaces any existing " - MM/DD/YYYY" suffix on the
// spreadsheet title with the given date.
func titleWithDate(title string, date time.Time) string {
	base := titleDateSuffix.ReplaceAllString(title, "")
	return base + " - " + date.Format("01/02/2006")
}
