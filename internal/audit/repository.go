// AngelaMos | 2026
// repository.go

package audit

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/auratrack/auratrack-api/internal/core"
)

// Repository has an insert path and read paths only. The table itself
// rejects UPDATE and DELETE with a trigger.
type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
	List(ctx context.Context, params ListParams) ([]Entry, error)
	ListAll(ctx context.Context, filter Filter) ([]Entry, error)
	Count(ctx context.Context, filter Filter) (int, error)
	ActionCountsPerAdmin(ctx context.Context) ([]ActionSummary, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const entrySelect = `
	SELECT a.id, a.timestamp, a.action, a.admin_id, au.email AS admin_email,
	       a.target_id, tu.email AS target_email, a.details
	FROM audit_logs a
	LEFT JOIN users au ON au.id = a.admin_id
	LEFT JOIN users tu ON tu.id = a.target_id`

const entryOrder = ` ORDER BY a.timestamp DESC, a.id DESC`

func (r *repository) Insert(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO audit_logs (id, timestamp, action, admin_id, target_id, details)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.Timestamp,
		entry.Action,
		entry.AdminID,
		entry.TargetID,
		entry.Details,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Entry, error) {
	params.Normalize()

	where, args := buildWhere(params.Filter)
	argIdx := len(args) + 1

	query := entrySelect + where + entryOrder +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, params.Limit, params.Offset)

	entries := []Entry{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	return entries, nil
}

func (r *repository) ListAll(
	ctx context.Context,
	filter Filter,
) ([]Entry, error) {
	where, args := buildWhere(filter)

	entries := []Entry{}
	if err := r.db.SelectContext(ctx, &entries, entrySelect+where+entryOrder, args...); err != nil {
		return nil, fmt.Errorf("list all audit entries: %w", err)
	}

	return entries, nil
}

func (r *repository) Count(ctx context.Context, filter Filter) (int, error) {
	where, args := buildWhere(filter)

	query := `
		SELECT COUNT(*)
		FROM audit_logs a
		LEFT JOIN users au ON au.id = a.admin_id` + where

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}

	return total, nil
}

// ActionCountsPerAdmin groups entries of deleted admins under one
// placeholder row rather than dropping them.
func (r *repository) ActionCountsPerAdmin(
	ctx context.Context,
) ([]ActionSummary, error) {
	query := `
		SELECT COALESCE(au.email, $1) AS admin_email,
		       COUNT(*) FILTER (WHERE a.action = $2) AS promote_to_admin,
		       COUNT(*) FILTER (WHERE a.action = $3) AS demote_to_user,
		       COUNT(*) FILTER (WHERE a.action = $4) AS delete_user
		FROM audit_logs a
		LEFT JOIN users au ON au.id = a.admin_id
		GROUP BY 1`

	summaries := []ActionSummary{}
	err := r.db.SelectContext(ctx, &summaries, query,
		DeletedPlaceholder,
		ActionPromoteToAdmin,
		ActionDemoteToUser,
		ActionDeleteUser,
	)
	if err != nil {
		return nil, fmt.Errorf("count actions per admin: %w", err)
	}

	sortSummaries(summaries)
	return summaries, nil
}

// sortSummaries orders by byte-wise email so the result does not depend on
// the database collation. The deleted-admin group always comes last.
func sortSummaries(summaries []ActionSummary) {
	slices.SortFunc(summaries, func(a, b ActionSummary) int {
		aDeleted := a.AdminEmail == DeletedPlaceholder
		bDeleted := b.AdminEmail == DeletedPlaceholder
		switch {
		case aDeleted != bDeleted:
			if aDeleted {
				return 1
			}
			return -1
		default:
			return strings.Compare(a.AdminEmail, b.AdminEmail)
		}
	})
}

func buildWhere(filter Filter) (string, []any) {
	var conditions []string
	var args []any
	argIdx := 1

	if filter.Action != nil {
		conditions = append(conditions, fmt.Sprintf("a.action = $%d", argIdx))
		args = append(args, *filter.Action)
		argIdx++
	}

	if filter.AdminEmail != nil {
		conditions = append(conditions, fmt.Sprintf("au.email = $%d", argIdx))
		args = append(args, *filter.AdminEmail)
	}

	if len(conditions) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}
