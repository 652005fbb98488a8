// Package export renders summaries as CSV, JSON and XLSX downloads.
package export

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"invoscan/internal/domain"
	"invoscan/internal/schema"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Columns returns the export header row: record metadata, the schema fields,
// their confidence columns, and the row average.
func Columns() []string {
	cols := []string{"recordId", "driveFileName"}
	cols = append(cols, schema.FieldKeys...)
	for _, f := range schema.FieldKeys {
		cols = append(cols, f+"_Confidence")
	}
	return append(cols, "avg_confidence_row", "createdAt")
}

// WriteCSV renders the summary as CSV. The first line is a comment carrying
// the corpus-wide average so spreadsheet users see it without computing it.
func WriteCSV(w io.Writer, summary *domain.Summary) error {
	if _, err := fmt.Fprintf(w, "# Overall_Avg_Confidence,%.6f\n", summary.OverallAvgConfidence); err != nil {
		return err
	}
	if err := writeRow(w, Columns()); err != nil {
		return err
	}
	for i := range summary.Rows {
		if err := writeRow(w, rowValues(&summary.Rows[i])); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(w io.Writer, values []string) error {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteValue(v)
	}
	_, err := io.WriteString(w, strings.Join(quoted, ",")+"\n")
	return err
}

// quoteValue quotes a value only when it contains a comma, a quote or a
// newline, doubling embedded quotes.
func quoteValue(v string) string {
	if !strings.ContainsAny(v, ",\"\n") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// rowValues flattens one summary row into export columns, in Columns() order.
func rowValues(row *domain.SummaryRow) []string {
	values := []string{row.RecordID, row.DriveFileName}
	for _, f := range schema.FieldKeys {
		values = append(values, stringifyField(row.Fields[f]))
	}
	for _, f := range schema.FieldKeys {
		if c, ok := row.FieldsConfidence[f]; ok {
			values = append(values, strconv.FormatFloat(c, 'f', 4, 64))
		} else {
			values = append(values, "")
		}
	}
	values = append(values, strconv.FormatFloat(row.AvgConfidenceRow, 'f', 6, 64))
	return append(values, row.CreatedAt)
}

func stringifyField(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// BuildFilename returns a sanitized attachment filename, as
// {sanitized_base}_{YYYY-MM-DD}.{ext}.
func BuildFilename(base, ext string) string {
	s := nonAlphanumeric.ReplaceAllString(base, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		s = "summary"
	}
	if len(s) > 100 {
		s = s[:100]
	}
	return fmt.Sprintf("%s_%s.%s", s, time.Now().Format("2006-01-02"), ext)
}
