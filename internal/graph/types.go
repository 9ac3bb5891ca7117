// AngelaMos | 2026
// types.go

package graph

import (
	"time"

	"github.com/graph-gophers/graphql-go"

	"github.com/auratrack/auratrack-api/internal/audit"
	"github.com/auratrack/auratrack-api/internal/auth"
	"github.com/auratrack/auratrack-api/internal/metric"
	"github.com/auratrack/auratrack-api/internal/user"
)

type userResolver struct {
	id    string
	email string
	role  string
}

func fromUser(u *user.User) *userResolver {
	return &userResolver{id: u.ID, email: u.Email, role: u.Role}
}

func fromUserInfo(u *auth.UserInfo) *userResolver {
	return &userResolver{id: u.ID, email: u.Email, role: u.Role}
}

func (r *userResolver) ID() graphql.ID { return graphql.ID(r.id) }
func (r *userResolver) Email() string  { return r.email }
func (r *userResolver) Role() string   { return r.role }

type authPayloadResolver struct {
	user  *userResolver
	token string
}

func (r *authPayloadResolver) User() *userResolver { return r.user }
func (r *authPayloadResolver) Token() string       { return r.token }

type metricResolver struct {
	m metric.Metric
}

func (r *metricResolver) ID() graphql.ID     { return graphql.ID(r.m.ID) }
func (r *metricResolver) Date() string       { return r.m.Date() }
func (r *metricResolver) SleepHours() *int32 { return int32Ptr(r.m.SleepHours) }
func (r *metricResolver) Mood() *int32       { return int32Ptr(r.m.Mood) }
func (r *metricResolver) Energy() *int32     { return int32Ptr(r.m.Energy) }

type auditEntryResolver struct {
	e audit.Entry
}

func (r *auditEntryResolver) ID() graphql.ID { return graphql.ID(r.e.ID) }

func (r *auditEntryResolver) Timestamp() string {
	return r.e.Timestamp.UTC().Format(time.RFC3339)
}

func (r *auditEntryResolver) Action() string       { return string(r.e.Action) }
func (r *auditEntryResolver) AdminID() graphql.ID  { return graphql.ID(r.e.AdminID) }
func (r *auditEntryResolver) AdminEmail() *string  { return r.e.AdminEmail }
func (r *auditEntryResolver) TargetID() graphql.ID { return graphql.ID(r.e.TargetID) }
func (r *auditEntryResolver) TargetEmail() *string { return r.e.TargetEmail }
func (r *auditEntryResolver) Details() *string     { return r.e.Details }

type actionSummaryResolver struct {
	s audit.ActionSummary
}

func (r *actionSummaryResolver) AdminEmail() string    { return r.s.AdminEmail }
func (r *actionSummaryResolver) PromoteToAdmin() int32 { return int32(r.s.PromoteToAdmin) }
func (r *actionSummaryResolver) DemoteToUser() int32   { return int32(r.s.DemoteToUser) }
func (r *actionSummaryResolver) DeleteUser() int32     { return int32(r.s.DeleteUser) }

func int32Ptr(v *int) *int32 {
	if v == nil {
		return nil
	}
	out := int32(*v)
	return &out
}

func intPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	out := int(*v)
	return &out
}
