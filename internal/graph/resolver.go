// AngelaMos | 2026
// resolver.go

package graph

import (
	"context"

	"github.com/auratrack/auratrack-api/internal/admin"
	"github.com/auratrack/auratrack-api/internal/audit"
	"github.com/auratrack/auratrack-api/internal/auth"
	"github.com/auratrack/auratrack-api/internal/authz"
	"github.com/auratrack/auratrack-api/internal/metric"
	"github.com/auratrack/auratrack-api/internal/user"
)

// Resolver is the root for both Query and Mutation. Resolvers only adapt
// arguments and results; every rule lives in the services, which read the
// caller from the identity passed to them.
type Resolver struct {
	auth    *auth.Service
	admins  *admin.Service
	audit   *audit.Service
	metrics *metric.Service
}

type Services struct {
	Auth    *auth.Service
	Admins  *admin.Service
	Audit   *audit.Service
	Metrics *metric.Service
}

func NewResolver(s Services) *Resolver {
	return &Resolver{
		auth:    s.Auth,
		admins:  s.Admins,
		audit:   s.Audit,
		metrics: s.Metrics,
	}
}

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	u, err := r.auth.Me(ctx, authz.FromContext(ctx))
	if err != nil {
		return nil, classify(ctx, err)
	}
	if u == nil {
		return nil, nil
	}
	return fromUserInfo(u), nil
}

func (r *Resolver) GetMetrics(ctx context.Context) ([]*metricResolver, error) {
	metrics, err := r.metrics.List(ctx, authz.FromContext(ctx))
	if err != nil {
		return nil, classify(ctx, err)
	}

	out := make([]*metricResolver, len(metrics))
	for i := range metrics {
		out[i] = &metricResolver{m: metrics[i]}
	}
	return out, nil
}

type usersArgs struct {
	Limit  int32
	Offset int32
}

func (r *Resolver) Users(
	ctx context.Context,
	args usersArgs,
) ([]*userResolver, error) {
	users, err := r.admins.ListUsers(ctx, authz.FromContext(ctx), user.ListUsersParams{
		Limit:  int(args.Limit),
		Offset: int(args.Offset),
	})
	if err != nil {
		return nil, classify(ctx, err)
	}

	out := make([]*userResolver, len(users))
	for i := range users {
		out[i] = fromUser(&users[i])
	}
	return out, nil
}

func (r *Resolver) UserCount(ctx context.Context) (int32, error) {
	total, err := r.admins.CountUsers(ctx, authz.FromContext(ctx))
	if err != nil {
		return 0, classify(ctx, err)
	}
	return int32(total), nil
}

type auditFilterArgs struct {
	Action     *string
	AdminEmail *string
}

func (a auditFilterArgs) filter() audit.Filter {
	var f audit.Filter
	if a.Action != nil {
		action := audit.Action(*a.Action)
		f.Action = &action
	}
	f.AdminEmail = a.AdminEmail
	return f
}

type auditLogsArgs struct {
	Limit      *int32
	Offset     *int32
	Action     *string
	AdminEmail *string
}

func (r *Resolver) GetAuditLogs(
	ctx context.Context,
	args auditLogsArgs,
) ([]*auditEntryResolver, error) {
	params := audit.ListParams{
		Filter: auditFilterArgs{Action: args.Action, AdminEmail: args.AdminEmail}.filter(),
		Limit:  audit.DefaultLimit,
	}
	if args.Limit != nil {
		params.Limit = max(int(*args.Limit), 1)
	}
	if args.Offset != nil {
		params.Offset = int(*args.Offset)
	}

	entries, err := r.audit.List(ctx, authz.FromContext(ctx), params)
	if err != nil {
		return nil, classify(ctx, err)
	}

	out := make([]*auditEntryResolver, len(entries))
	for i := range entries {
		out[i] = &auditEntryResolver{e: entries[i]}
	}
	return out, nil
}

func (r *Resolver) GetAuditLogCount(
	ctx context.Context,
	args auditFilterArgs,
) (int32, error) {
	total, err := r.audit.Count(ctx, authz.FromContext(ctx), args.filter())
	if err != nil {
		return 0, classify(ctx, err)
	}
	return int32(total), nil
}

func (r *Resolver) ExportAuditLogs(
	ctx context.Context,
	args auditFilterArgs,
) (string, error) {
	out, err := r.audit.ExportCSV(ctx, authz.FromContext(ctx), args.filter())
	if err != nil {
		return "", classify(ctx, err)
	}
	return out, nil
}

func (r *Resolver) GetAuditActionCountsPerAdmin(
	ctx context.Context,
) ([]*actionSummaryResolver, error) {
	summaries, err := r.audit.ActionCountsPerAdmin(ctx, authz.FromContext(ctx))
	if err != nil {
		return nil, classify(ctx, err)
	}

	out := make([]*actionSummaryResolver, len(summaries))
	for i := range summaries {
		out[i] = &actionSummaryResolver{s: summaries[i]}
	}
	return out, nil
}
