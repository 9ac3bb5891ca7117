// AngelaMos | 2026
// entity.go

package audit

import (
	"time"
)

type Action string

const (
	ActionPromoteToAdmin Action = "PROMOTE_TO_ADMIN"
	ActionDemoteToUser   Action = "DEMOTE_TO_USER"
	ActionDeleteUser     Action = "DELETE_USER"
)

// Actions lists every action kind in the column order used by summaries.
var Actions = []Action{
	ActionPromoteToAdmin,
	ActionDemoteToUser,
	ActionDeleteUser,
}

func (a Action) Valid() bool {
	switch a {
	case ActionPromoteToAdmin, ActionDemoteToUser, ActionDeleteUser:
		return true
	}
	return false
}

// DeletedPlaceholder stands in for the email of an account that no longer
// exists.
const DeletedPlaceholder = "[deleted]"

// Entry is one audit row with both user references resolved at read time.
// AdminEmail and TargetEmail are nil once the referenced user is gone.
type Entry struct {
	ID          string    `db:"id"`
	Timestamp   time.Time `db:"timestamp"`
	Action      Action    `db:"action"`
	AdminID     string    `db:"admin_id"`
	AdminEmail  *string   `db:"admin_email"`
	TargetID    string    `db:"target_id"`
	TargetEmail *string   `db:"target_email"`
	Details     *string   `db:"details"`
}

type RecordParams struct {
	AdminID  string
	Action   Action
	TargetID string
	Details  string
}

// Filter predicates combine with AND. Nil fields do not filter.
type Filter struct {
	Action     *Action
	AdminEmail *string
}

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

type ListParams struct {
	Filter
	Limit  int
	Offset int
}

func (p *ListParams) Normalize() {
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

type ActionSummary struct {
	AdminEmail     string `db:"admin_email"`
	PromoteToAdmin int    `db:"promote_to_admin"`
	DemoteToUser   int    `db:"demote_to_user"`
	DeleteUser     int    `db:"delete_user"`
}

func emailOrDeleted(email *string) string {
	if email == nil {
		return DeletedPlaceholder
	}
	return *email
}
