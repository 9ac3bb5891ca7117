// AngelaMos | 2026
// csv.go

package audit

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"
)

var csvHeader = []string{
	"timestamp",
	"action",
	"admin_email",
	"target_email",
	"details",
}

// EncodeCSV renders entries with a header row. Quoting follows RFC 4180
// as implemented by encoding/csv.
func EncodeCSV(entries []Entry) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}

	for _, e := range entries {
		details := ""
		if e.Details != nil {
			details = *e.Details
		}

		record := []string{
			e.Timestamp.UTC().Format(time.RFC3339),
			string(e.Action),
			emailOrDeleted(e.AdminEmail),
			emailOrDeleted(e.TargetEmail),
			details,
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}

	return buf.String(), nil
}
