// AngelaMos | 2026
// csv_test.go

package audit

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestEncodeCSVRoundTrip(t *testing.T) {
	ts := time.Date(2026, 5, 4, 9, 30, 0, 0, time.FixedZone("CEST", 2*3600))

	entries := []Entry{
		{
			ID:          "e2",
			Timestamp:   ts,
			Action:      ActionDeleteUser,
			AdminID:     "a1",
			AdminEmail:  strPtr("admin@auratrack.io"),
			TargetID:    "t1",
			TargetEmail: nil,
			Details:     strPtr("deleted, with \"quotes\"\nand a newline"),
		},
		{
			ID:          "e1",
			Timestamp:   ts.Add(-time.Hour),
			Action:      ActionPromoteToAdmin,
			AdminID:     "a2",
			AdminEmail:  nil,
			TargetID:    "t2",
			TargetEmail: strPtr("user@auratrack.io"),
		},
	}

	out, err := EncodeCSV(entries)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(entries)+1)

	assert.Equal(t, csvHeader, records[0])

	assert.Equal(t, []string{
		"2026-05-04T07:30:00Z",
		"DELETE_USER",
		"admin@auratrack.io",
		DeletedPlaceholder,
		"deleted, with \"quotes\"\nand a newline",
	}, records[1])

	assert.Equal(t, []string{
		"2026-05-04T06:30:00Z",
		"PROMOTE_TO_ADMIN",
		DeletedPlaceholder,
		"user@auratrack.io",
		"",
	}, records[2])
}

func TestEncodeCSVEmpty(t *testing.T) {
	out, err := EncodeCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "timestamp,action,admin_email,target_email,details\n", out)
}
