// AngelaMos | 2026
// mutation.go

package graph

import (
	"context"

	"github.com/graph-gophers/graphql-go"

	"github.com/auratrack/auratrack-api/internal/admin"
	"github.com/auratrack/auratrack-api/internal/auth"
	"github.com/auratrack/auratrack-api/internal/authz"
	"github.com/auratrack/auratrack-api/internal/core"
	"github.com/auratrack/auratrack-api/internal/metric"
	"github.com/auratrack/auratrack-api/internal/middleware"
)

type credentialsArgs struct {
	Email    string
	Password string
}

func (r *Resolver) Signup(
	ctx context.Context,
	args credentialsArgs,
) (*authPayloadResolver, error) {
	if err := mutationsAllowed(ctx); err != nil {
		return nil, err
	}

	sess, err := r.auth.Signup(ctx, auth.Credentials(args))
	if err != nil {
		return nil, classify(ctx, err)
	}

	setCookie(ctx, r.auth.SessionCookie(sess))
	return &authPayloadResolver{user: fromUserInfo(sess.User), token: sess.Token}, nil
}

func (r *Resolver) Login(
	ctx context.Context,
	args credentialsArgs,
) (*authPayloadResolver, error) {
	if err := mutationsAllowed(ctx); err != nil {
		return nil, err
	}

	sess, err := r.auth.Login(ctx, auth.Credentials(args))
	if err != nil {
		return nil, classify(ctx, err)
	}

	setCookie(ctx, r.auth.SessionCookie(sess))
	return &authPayloadResolver{user: fromUserInfo(sess.User), token: sess.Token}, nil
}

// Logout always clears the cookie, even for anonymous callers, so a stale
// cookie cannot linger in the browser.
func (r *Resolver) Logout(ctx context.Context) (bool, error) {
	if err := mutationsAllowed(ctx); err != nil {
		return false, err
	}

	setCookie(ctx, r.auth.ClearSessionCookie())

	if err := r.auth.Logout(ctx, middleware.GetClaims(ctx)); err != nil {
		return false, classify(ctx, err)
	}
	return true, nil
}

type createMetricArgs struct {
	Date       string
	SleepHours *int32
	Mood       *int32
	Energy     *int32
}

func (r *Resolver) CreateMetric(
	ctx context.Context,
	args createMetricArgs,
) (*metricResolver, error) {
	if err := mutationsAllowed(ctx); err != nil {
		return nil, err
	}

	m, err := r.metrics.Create(ctx, authz.FromContext(ctx), metric.CreateInput{
		Date:       args.Date,
		SleepHours: intPtr(args.SleepHours),
		Mood:       intPtr(args.Mood),
		Energy:     intPtr(args.Energy),
	})
	if err != nil {
		return nil, classify(ctx, err)
	}
	return &metricResolver{m: *m}, nil
}

type createUserArgs struct {
	Email    string
	Password string
	Role     string
}

func (r *Resolver) CreateUser(
	ctx context.Context,
	args createUserArgs,
) (*userResolver, error) {
	if err := mutationsAllowed(ctx); err != nil {
		return nil, err
	}

	created, err := r.admins.CreateUser(ctx, authz.FromContext(ctx), admin.CreateUserInput(args))
	if err != nil {
		return nil, classify(ctx, err)
	}
	return fromUser(created), nil
}

type targetArgs struct {
	UserID graphql.ID
}

func (r *Resolver) PromoteUserToAdmin(
	ctx context.Context,
	args targetArgs,
) (bool, error) {
	if err := mutationsAllowed(ctx); err != nil {
		return false, err
	}

	if _, err := r.admins.Promote(ctx, authz.FromContext(ctx), string(args.UserID)); err != nil {
		return false, classify(ctx, err)
	}
	return true, nil
}

func (r *Resolver) DemoteAdminToUser(
	ctx context.Context,
	args targetArgs,
) (bool, error) {
	if err := mutationsAllowed(ctx); err != nil {
		return false, err
	}

	if _, err := r.admins.Demote(ctx, authz.FromContext(ctx), string(args.UserID)); err != nil {
		return false, classify(ctx, err)
	}
	return true, nil
}

func (r *Resolver) DeleteUser(
	ctx context.Context,
	args targetArgs,
) (bool, error) {
	if err := mutationsAllowed(ctx); err != nil {
		return false, err
	}

	if err := r.admins.Delete(ctx, authz.FromContext(ctx), string(args.UserID)); err != nil {
		return false, classify(ctx, err)
	}
	return true, nil
}

func mutationsAllowed(ctx context.Context) error {
	if readOnly(ctx) {
		return &Error{
			Message: "Mutations must be sent with POST",
			Code:    core.CodeBadUserInput,
		}
	}
	return nil
}
