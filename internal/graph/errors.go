// AngelaMos | 2026
// errors.go

package graph

import (
	"context"
	"errors"
	"log/slog"

	"github.com/auratrack/auratrack-api/internal/auth"
	"github.com/auratrack/auratrack-api/internal/core"
)

// Error is what resolvers hand back to graphql-go. Its Extensions end up
// in the response so clients can branch on the code.
type Error struct {
	Message string
	Code    string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Extensions() map[string]any {
	return map[string]any{"code": e.Code}
}

// classify maps service errors onto the four client-visible kinds.
// Anything unrecognized is a dependency failure: it is logged in full and
// reported without detail.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &Error{Message: "Invalid credentials", Code: core.CodeUnauthenticated}
	case errors.Is(err, auth.ErrEmailExists):
		return &Error{Message: "Email already registered", Code: core.CodeBadUserInput}
	}

	if appErr, ok := core.AsAppError(err); ok &&
		appErr.StatusCode < 500 {
		return &Error{Message: appErr.Message, Code: clientCode(appErr.Code)}
	}

	slog.ErrorContext(ctx, "graphql resolver failed",
		"error", err,
		"trace_id", core.TraceIDFromContext(ctx),
	)

	return &Error{Message: "Internal server error", Code: core.CodeInternal}
}

func clientCode(code string) string {
	switch code {
	case core.CodeUnauthenticated, core.CodeNotFound, core.CodeBadUserInput:
		return code
	}
	return core.CodeInternal
}
