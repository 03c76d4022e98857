// Package formatter renders record batches as signed markdown reports.
package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"msupdates/internal/models"
	"msupdates/pkg/metadata"
)

// ReportTitle is the heading of every report.
const ReportTitle = "# Microsoft Update Releases"

var reportHeader = []string{"Date", "KB", "Product", "Classification", "Severity", "Details"}

// RenderReport renders records as a markdown table preceded by a coverage
// line, and signs the result. Records are rendered in the order given.
func RenderReport(records []models.Record, window time.Duration, generatedAt time.Time) string {
	var sb strings.Builder

	sb.WriteString(ReportTitle)
	sb.WriteString("\n\n")
	sb.WriteString(coverage(records, window, generatedAt))
	sb.WriteString("\n")

	if len(records) > 0 {
		table := make([][]string, 0, len(records)+1)
		table = append(table, reportHeader)

		for _, r := range records {
			table = append(table, []string{
				r.Date,
				r.Identifier,
				r.Product,
				string(r.Classification),
				r.Severity,
				r.Summary,
			})
		}

		sb.WriteString("\n")
		sb.WriteString(strings.Join(alignTable(table), "\n"))
		sb.WriteString("\n")
	}

	return metadata.Sign(sb.String(), len(records), generatedAt)
}

func coverage(records []models.Record, window time.Duration, generatedAt time.Time) string {
	days := int(window / (24 * time.Hour))
	since := generatedAt.Add(-window).UTC().Format(time.DateOnly)

	if len(records) == 0 {
		return fmt.Sprintf("Coverage: last %d days (since %s). No updates found.", days, since)
	}

	newest, oldest := records[0].Date, records[0].Date
	for _, r := range records[1:] {
		if r.Date > newest {
			newest = r.Date
		}

		if r.Date < oldest {
			oldest = r.Date
		}
	}

	return fmt.Sprintf("Coverage: last %d days (since %s). %d updates released %s to %s.",
		days, since, len(records), oldest, newest)
}

// escapeCell keeps a value on one table row and out of the column structure.
func escapeCell(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	return strings.ReplaceAll(s, "|", `\|`)
}

// alignTable renders rows (the first being the header) as a markdown table
// padded to the display width of the widest cell in each column.
func alignTable(rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}

	colCount := 0
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	cells := make([][]string, len(rows))
	colWidths := make([]int, colCount)

	for r, row := range rows {
		cells[r] = make([]string, colCount)

		for i, cell := range row {
			cells[r][i] = escapeCell(cell)

			if width := runewidth.StringWidth(cells[r][i]); width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	// Separator needs at least three dashes.
	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	separator := make([]string, colCount)
	for i, w := range colWidths {
		separator[i] = strings.Repeat("-", w)
	}

	result := make([]string, 0, len(cells)+1)
	result = append(result, renderRow(cells[0], colWidths))
	result = append(result, renderRow(separator, colWidths))

	for _, row := range cells[1:] {
		result = append(result, renderRow(row, colWidths))
	}

	return result
}

func renderRow(row []string, colWidths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j, content := range row {
		sb.WriteString(" ")
		sb.WriteString(content)

		if padding := colWidths[j] - runewidth.StringWidth(content); padding > 0 {
			sb.WriteString(strings.Repeat(" ", padding))
		}

		sb.WriteString(" |")
	}

	return sb.String()
}
