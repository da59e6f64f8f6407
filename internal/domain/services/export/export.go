// Package export renders downloadable reports.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/stack-service/backoffice/internal/domain/entities"
)

// TransactionsHeader is the first row of every transaction export
var TransactionsHeader = []string{"id", "investorId", "type", "amount", "status", "date", "description"}

// WriteTransactionsCSV writes one row per transaction after the header.
// Dates are RFC 3339 in UTC.
func WriteTransactionsCSV(w io.Writer, txs []*entities.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TransactionsHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, tx := range txs {
		date := ""
		if !tx.Date.IsZero() {
			date = tx.Date.UTC().Format(time.RFC3339)
		}
		row := []string{
			tx.ID,
			tx.InvestorID,
			string(tx.Type),
			tx.Amount.StringFixed(2),
			string(tx.Status),
			date,
			tx.Description,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row %s: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes v as indented JSON
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// ReportFilename builds names like "performance-report-2024-03-01.json"
func ReportFilename(prefix, ext string, now time.Time) string {
	prefix = strings.Trim(strings.ToLower(strings.ReplaceAll(prefix, " ", "-")), "-")
	return fmt.Sprintf("%s-%s.%s", prefix, now.UTC().Format("2006-01-02"), strings.TrimPrefix(ext, "."))
}
