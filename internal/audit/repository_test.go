// AngelaMos | 2026
// repository_test.go

package audit

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

var entryColumns = []string{
	"id", "timestamp", "action", "admin_id", "admin_email",
	"target_id", "target_email", "details",
}

func TestRepositoryListAppliesFiltersConjunctively(t *testing.T) {
	repo, mock := newMockRepo(t)

	action := ActionDeleteUser
	email := "admin@auratrack.io"
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE a.action = $1 AND au.email = $2 ORDER BY a.timestamp DESC, a.id DESC LIMIT $3 OFFSET $4",
	)).
		WithArgs("DELETE_USER", email, 10, 20).
		WillReturnRows(sqlmock.NewRows(entryColumns).AddRow(
			"e1", ts, "DELETE_USER", "a1", email, "t1", nil, "gone",
		))

	entries, err := repo.List(context.Background(), ListParams{
		Filter: Filter{Action: &action, AdminEmail: &email},
		Limit:  10,
		Offset: 20,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, ActionDeleteUser, got.Action)
	require.NotNil(t, got.AdminEmail)
	assert.Equal(t, email, *got.AdminEmail)
	assert.Nil(t, got.TargetEmail, "deleted target resolves to null email")
	require.NotNil(t, got.Details)
	assert.Equal(t, "gone", *got.Details)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryListWithoutFilterUsesDefaults(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"LEFT JOIN users tu ON tu.id = a.target_id ORDER BY a.timestamp DESC, a.id DESC LIMIT $1 OFFSET $2",
	)).
		WithArgs(DefaultLimit, 0).
		WillReturnRows(sqlmock.NewRows(entryColumns))

	entries, err := repo.List(context.Background(), ListParams{Offset: -5})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCount(t *testing.T) {
	repo, mock := newMockRepo(t)

	action := ActionPromoteToAdmin

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("PROMOTE_TO_ADMIN").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	total, err := repo.Count(context.Background(), Filter{Action: &action})
	require.NoError(t, err)
	assert.Equal(t, 7, total)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryInsert(t *testing.T) {
	repo, mock := newMockRepo(t)

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	details := "Admin a@x.io (a1) promoted user t1 to admin"

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WithArgs("e1", ts, "PROMOTE_TO_ADMIN", "a1", "t1", details).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Insert(context.Background(), &Entry{
		ID:        "e1",
		Timestamp: ts,
		Action:    ActionPromoteToAdmin,
		AdminID:   "a1",
		TargetID:  "t1",
		Details:   &details,
	})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryActionCountsPerAdmin(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(au.email, $1)")).
		WithArgs(DeletedPlaceholder, "PROMOTE_TO_ADMIN", "DEMOTE_TO_USER", "DELETE_USER").
		WillReturnRows(sqlmock.NewRows([]string{
			"admin_email", "promote_to_admin", "demote_to_user", "delete_user",
		}).
			AddRow("zoe@auratrack.io", 0, 1, 0).
			AddRow("[deleted]", 1, 0, 0).
			AddRow("Root@auratrack.io", 0, 0, 1).
			AddRow("admin@auratrack.io", 3, 1, 2))

	summaries, err := repo.ActionCountsPerAdmin(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 4)

	emails := make([]string, len(summaries))
	for i, s := range summaries {
		emails[i] = s.AdminEmail
	}
	assert.Equal(t, []string{
		"Root@auratrack.io",
		"admin@auratrack.io",
		"zoe@auratrack.io",
		DeletedPlaceholder,
	}, emails, "byte-wise email order with the deleted group last")

	assert.Equal(t, ActionSummary{
		AdminEmail:     "admin@auratrack.io",
		PromoteToAdmin: 3,
		DemoteToUser:   1,
		DeleteUser:     2,
	}, summaries[1])

	assert.NoError(t, mock.ExpectationsWereMet())
}
