// AngelaMos | 2026
// service.go

package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/auratrack/auratrack-api/internal/audit"
	"github.com/auratrack/auratrack-api/internal/authz"
	"github.com/auratrack/auratrack-api/internal/core"
	"github.com/auratrack/auratrack-api/internal/user"
)

// ErrAuditIncomplete marks an action whose mutation is durable but whose
// audit entry could not be written.
var ErrAuditIncomplete = errors.New("admin action completed without audit entry")

var actionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auratrack_admin_actions_total",
		Help: "Admin actions by kind and outcome",
	},
	[]string{"action", "result"},
)

const (
	resultSuccess     = "success"
	resultDenied      = "denied"
	resultRejected    = "rejected"
	resultError       = "error"
	resultAuditFailed = "audit_failed"
)

type UserStore interface {
	GetUser(ctx context.Context, id string) (*user.User, error)
	CreateUser(
		ctx context.Context,
		email, passwordHash, role string,
	) (*user.User, error)
	UpdateRole(ctx context.Context, id, role string) (*user.User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(
		ctx context.Context,
		params user.ListUsersParams,
	) ([]user.User, error)
	CountUsers(ctx context.Context) (int, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, p audit.RecordParams) (*audit.Entry, error)
}

type CreateUserInput struct {
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=8,max=128"`
	Role     string `validate:"required,oneof=user admin"`
}

// Service runs privileged user management. Each mutation follows the same
// order: authorize, check preconditions, mutate, then audit. Mutation and
// audit are two separate statements; there is no transaction spanning them.
type Service struct {
	users    UserStore
	recorder AuditRecorder
	validate *validator.Validate
}

func NewService(users UserStore, recorder AuditRecorder) *Service {
	return &Service{
		users:    users,
		recorder: recorder,
		validate: validator.New(),
	}
}

func (s *Service) Promote(
	ctx context.Context,
	actor *authz.Identity,
	targetID string,
) (updated *user.User, err error) {
	const action = audit.ActionPromoteToAdmin

	ctx, span := core.StartSpan(ctx, "admin.Promote",
		attribute.String("admin.target_id", targetID),
	)
	defer func() { s.finish(action, span, err) }()

	if err := authz.Authorize(actor, authz.RoleAdmin); err != nil {
		return nil, err
	}

	if targetID == actor.UserID {
		return nil, core.ValidationError("Admins cannot promote themselves")
	}

	if _, err := s.loadTarget(ctx, targetID); err != nil {
		return nil, err
	}

	updated, err = s.users.UpdateRole(ctx, targetID, authz.RoleAdmin)
	if err != nil {
		return nil, mapStoreError(err)
	}

	details := fmt.Sprintf(
		"Admin %s (%s) promoted user %s to admin",
		actor.Email, actor.UserID, targetID,
	)
	if err := s.record(ctx, actor, action, targetID, details); err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *Service) Demote(
	ctx context.Context,
	actor *authz.Identity,
	targetID string,
) (updated *user.User, err error) {
	const action = audit.ActionDemoteToUser

	ctx, span := core.StartSpan(ctx, "admin.Demote",
		attribute.String("admin.target_id", targetID),
	)
	defer func() { s.finish(action, span, err) }()

	if err := authz.Authorize(actor, authz.RoleAdmin); err != nil {
		return nil, err
	}

	if targetID == actor.UserID {
		return nil, core.ValidationError("Admins cannot demote themselves")
	}

	target, err := s.loadTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if target.IsMaster {
		return nil, core.ValidationError("Cannot demote master admin")
	}

	updated, err = s.users.UpdateRole(ctx, targetID, authz.RoleUser)
	if err != nil {
		return nil, mapStoreError(err)
	}

	details := fmt.Sprintf(
		"Admin %s (%s) demoted user %s to regular user",
		actor.Email, actor.UserID, targetID,
	)
	if err := s.record(ctx, actor, action, targetID, details); err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes the account first and audits second, so an entry never
// describes a deletion that did not happen.
func (s *Service) Delete(
	ctx context.Context,
	actor *authz.Identity,
	targetID string,
) (err error) {
	const action = audit.ActionDeleteUser

	ctx, span := core.StartSpan(ctx, "admin.Delete",
		attribute.String("admin.target_id", targetID),
	)
	defer func() { s.finish(action, span, err) }()

	if err := authz.Authorize(actor, authz.RoleAdmin); err != nil {
		return err
	}

	if targetID == actor.UserID {
		return core.ValidationError("Admins cannot delete themselves")
	}

	target, err := s.loadTarget(ctx, targetID)
	if err != nil {
		return err
	}

	if target.IsMaster {
		return core.ValidationError("Cannot delete master admin")
	}

	if err := s.users.DeleteUser(ctx, targetID); err != nil {
		return mapStoreError(err)
	}

	details := fmt.Sprintf(
		"Admin %s (%s) deleted user %s",
		actor.Email, actor.UserID, targetID,
	)
	return s.record(ctx, actor, action, targetID, details)
}

// CreateUser is not audited: the audit log has no action kind for it.
func (s *Service) CreateUser(
	ctx context.Context,
	actor *authz.Identity,
	in CreateUserInput,
) (*user.User, error) {
	if err := authz.Authorize(actor, authz.RoleAdmin); err != nil {
		return nil, err
	}

	in.Email = user.NormalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	hash, err := core.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.CreateUser(ctx, in.Email, hash, in.Role)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.ValidationError("Email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "user created by admin",
		"admin_id", actor.UserID,
		"user_id", created.ID,
		"role", created.Role,
	)

	return created, nil
}

func (s *Service) ListUsers(
	ctx context.Context,
	actor *authz.Identity,
	params user.ListUsersParams,
) ([]user.User, error) {
	if err := authz.Authorize(actor, authz.RoleAdmin); err != nil {
		return nil, err
	}

	params.Normalize()
	return s.users.ListUsers(ctx, params)
}

func (s *Service) CountUsers(
	ctx context.Context,
	actor *authz.Identity,
) (int, error) {
	if err := authz.Authorize(actor, authz.RoleAdmin); err != nil {
		return 0, err
	}

	return s.users.CountUsers(ctx)
}

func (s *Service) loadTarget(
	ctx context.Context,
	targetID string,
) (*user.User, error) {
	target, err := s.users.GetUser(ctx, targetID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return target, nil
}

func (s *Service) record(
	ctx context.Context,
	actor *authz.Identity,
	action audit.Action,
	targetID, details string,
) error {
	_, err := s.recorder.Record(ctx, audit.RecordParams{
		AdminID:  actor.UserID,
		Action:   action,
		TargetID: targetID,
		Details:  details,
	})
	if err == nil {
		return nil
	}

	slog.ErrorContext(ctx, "admin action applied but audit entry missing",
		"action", action,
		"admin_id", actor.UserID,
		"target_id", targetID,
		"error", err,
	)

	return fmt.Errorf("%s on %s: %w: %w", action, targetID, ErrAuditIncomplete, err)
}

func (s *Service) finish(action audit.Action, span trace.Span, err error) {
	actionsTotal.WithLabelValues(string(action), outcome(err)).Inc()
	core.EndSpan(span, err)
}

func outcome(err error) string {
	if err == nil {
		return resultSuccess
	}

	if errors.Is(err, ErrAuditIncomplete) {
		return resultAuditFailed
	}

	if appErr, ok := core.AsAppError(err); ok {
		if appErr.Code == core.CodeUnauthenticated {
			return resultDenied
		}
		return resultRejected
	}

	return resultError
}

func mapStoreError(err error) error {
	if errors.Is(err, core.ErrNotFound) {
		return core.NotFoundError("User")
	}
	return err
}
