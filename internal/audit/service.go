// AngelaMos | 2026
// service.go

package audit

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/auratrack/auratrack-api/internal/authz"
	"github.com/auratrack/auratrack-api/internal/core"
)

// Service is the read side of the audit log. Every method is admin only
// and runs the guard before touching the store.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(
	ctx context.Context,
	id *authz.Identity,
	params ListParams,
) (entries []Entry, err error) {
	if err := authz.Authorize(id, authz.RoleAdmin); err != nil {
		return nil, err
	}

	filter, err := normalizeFilter(params.Filter)
	if err != nil {
		return nil, err
	}
	params.Filter = filter
	params.Normalize()

	ctx, span := core.StartSpan(ctx, "audit.List",
		attribute.Int("audit.limit", params.Limit),
		attribute.Int("audit.offset", params.Offset),
	)
	defer func() { core.EndSpan(span, err) }()

	return s.repo.List(ctx, params)
}

func (s *Service) Count(
	ctx context.Context,
	id *authz.Identity,
	filter Filter,
) (total int, err error) {
	if err := authz.Authorize(id, authz.RoleAdmin); err != nil {
		return 0, err
	}

	filter, err = normalizeFilter(filter)
	if err != nil {
		return 0, err
	}

	ctx, span := core.StartSpan(ctx, "audit.Count")
	defer func() { core.EndSpan(span, err) }()

	return s.repo.Count(ctx, filter)
}

// ExportCSV renders the full matching set, unpaginated, in list order.
func (s *Service) ExportCSV(
	ctx context.Context,
	id *authz.Identity,
	filter Filter,
) (out string, err error) {
	if err := authz.Authorize(id, authz.RoleAdmin); err != nil {
		return "", err
	}

	filter, err = normalizeFilter(filter)
	if err != nil {
		return "", err
	}

	ctx, span := core.StartSpan(ctx, "audit.ExportCSV")
	defer func() { core.EndSpan(span, err) }()

	entries, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return "", err
	}
	span.SetAttributes(attribute.Int("audit.rows", len(entries)))

	return EncodeCSV(entries)
}

func (s *Service) ActionCountsPerAdmin(
	ctx context.Context,
	id *authz.Identity,
) (summaries []ActionSummary, err error) {
	if err := authz.Authorize(id, authz.RoleAdmin); err != nil {
		return nil, err
	}

	ctx, span := core.StartSpan(ctx, "audit.ActionCountsPerAdmin")
	defer func() { core.EndSpan(span, err) }()

	return s.repo.ActionCountsPerAdmin(ctx)
}

func normalizeFilter(f Filter) (Filter, error) {
	if f.Action != nil && !f.Action.Valid() {
		return Filter{}, core.ValidationError(
			fmt.Sprintf("Invalid audit action: %s", *f.Action),
		)
	}

	if f.AdminEmail != nil {
		email := strings.ToLower(strings.TrimSpace(*f.AdminEmail))
		if email == "" {
			f.AdminEmail = nil
		} else {
			f.AdminEmail = &email
		}
	}

	return f, nil
}
