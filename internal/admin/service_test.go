// AngelaMos | 2026
// service_test.go

package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auratrack/auratrack-api/internal/audit"
	"github.com/auratrack/auratrack-api/internal/authz"
	"github.com/auratrack/auratrack-api/internal/core"
	"github.com/auratrack/auratrack-api/internal/user"
)

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[string]*user.User
	writes int
}

func newFakeUsers(users ...*user.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]*user.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetUser(_ context.Context, id string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) CreateUser(_ context.Context, email, hash, role string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return nil, fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}
	f.writes++
	u := &user.User{ID: fmt.Sprintf("new-%d", len(f.byID)), Email: email, PasswordHash: hash, Role: role}
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id, role string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("update role: %w", core.ErrNotFound)
	}
	f.writes++
	u.Role = role
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return fmt.Errorf("delete user: %w", core.ErrNotFound)
	}
	f.writes++
	delete(f.byID, id)
	return nil
}

func (f *fakeUsers) ListUsers(_ context.Context, p user.ListUsersParams) ([]user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]user.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if p.Offset >= len(out) {
		return []user.User{}, nil
	}
	return out[p.Offset:min(p.Offset+p.Limit, len(out))], nil
}

func (f *fakeUsers) CountUsers(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID), nil
}

type fakeRecorder struct {
	entries []audit.RecordParams
	err     error
}

func (f *fakeRecorder) Record(_ context.Context, p audit.RecordParams) (*audit.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.entries = append(f.entries, p)
	return &audit.Entry{Action: p.Action, AdminID: p.AdminID, TargetID: p.TargetID}, nil
}

const (
	masterID = "00000000-0000-0000-0000-000000000001"
	adminID  = "00000000-0000-0000-0000-000000000002"
	userID   = "00000000-0000-0000-0000-000000000003"
)

func fixture() (*Service, *fakeUsers, *fakeRecorder) {
	users := newFakeUsers(
		&user.User{ID: masterID, Email: "admin@auratrack.io", Role: user.RoleAdmin, IsMaster: true},
		&user.User{ID: adminID, Email: "ops@auratrack.io", Role: user.RoleAdmin},
		&user.User{ID: userID, Email: "u1@auratrack.io", Role: user.RoleUser},
	)
	rec := &fakeRecorder{}
	return NewService(users, rec), users, rec
}

var (
	master  = &authz.Identity{UserID: masterID, Email: "admin@auratrack.io", Role: authz.RoleAdmin}
	other   = &authz.Identity{UserID: adminID, Email: "ops@auratrack.io", Role: authz.RoleAdmin}
	regular = &authz.Identity{UserID: userID, Email: "u1@auratrack.io", Role: authz.RoleUser}
)

func requireAppError(t *testing.T, err error, code, message string) {
	t.Helper()
	appErr, ok := core.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, message, appErr.Message)
}

func TestNonAdminsCannotMutate(t *testing.T) {
	ctx := context.Background()

	for name, actor := range map[string]*authz.Identity{"anonymous": nil, "user": regular} {
		t.Run(name, func(t *testing.T) {
			svc, users, rec := fixture()

			_, err := svc.Promote(ctx, actor, adminID)
			requireAppError(t, err, core.CodeUnauthenticated, "Access denied")

			_, err = svc.Demote(ctx, actor, adminID)
			requireAppError(t, err, core.CodeUnauthenticated, "Access denied")

			err = svc.Delete(ctx, actor, adminID)
			requireAppError(t, err, core.CodeUnauthenticated, "Access denied")

			_, err = svc.CreateUser(ctx, actor, CreateUserInput{
				Email: "x@auratrack.io", Password: "password123", Role: "user",
			})
			requireAppError(t, err, core.CodeUnauthenticated, "Access denied")

			_, err = svc.ListUsers(ctx, actor, user.ListUsersParams{Limit: 10})
			requireAppError(t, err, core.CodeUnauthenticated, "Access denied")

			_, err = svc.CountUsers(ctx, actor)
			requireAppError(t, err, core.CodeUnauthenticated, "Access denied")

			assert.Zero(t, users.writes)
			assert.Empty(t, rec.entries)
		})
	}
}

func TestPromote(t *testing.T) {
	svc, users, rec := fixture()

	updated, err := svc.Promote(context.Background(), master, userID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, updated.Role)
	assert.Equal(t, user.RoleAdmin, users.byID[userID].Role)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, audit.RecordParams{
		AdminID:  masterID,
		Action:   audit.ActionPromoteToAdmin,
		TargetID: userID,
		Details:  "Admin admin@auratrack.io (" + masterID + ") promoted user " + userID + " to admin",
	}, rec.entries[0])
}

func TestPromoteIsIdempotent(t *testing.T) {
	svc, _, rec := fixture()

	_, err := svc.Promote(context.Background(), master, adminID)
	require.NoError(t, err)
	_, err = svc.Promote(context.Background(), master, adminID)
	require.NoError(t, err)

	assert.Len(t, rec.entries, 2)
}

func TestSelfActionsRejected(t *testing.T) {
	ctx := context.Background()
	svc, users, rec := fixture()

	_, err := svc.Promote(ctx, other, adminID)
	requireAppError(t, err, core.CodeBadUserInput, "Admins cannot promote themselves")

	_, err = svc.Demote(ctx, other, adminID)
	requireAppError(t, err, core.CodeBadUserInput, "Admins cannot demote themselves")

	err = svc.Delete(ctx, other, adminID)
	requireAppError(t, err, core.CodeBadUserInput, "Admins cannot delete themselves")

	assert.Zero(t, users.writes)
	assert.Empty(t, rec.entries)
	assert.Equal(t, user.RoleAdmin, users.byID[adminID].Role)
}

func TestMasterAdminProtected(t *testing.T) {
	ctx := context.Background()
	svc, users, rec := fixture()

	_, err := svc.Demote(ctx, other, masterID)
	requireAppError(t, err, core.CodeBadUserInput, "Cannot demote master admin")

	err = svc.Delete(ctx, other, masterID)
	requireAppError(t, err, core.CodeBadUserInput, "Cannot delete master admin")

	assert.Zero(t, users.writes)
	assert.Empty(t, rec.entries)
	require.Contains(t, users.byID, masterID)
	assert.Equal(t, user.RoleAdmin, users.byID[masterID].Role)
}

func TestMissingTarget(t *testing.T) {
	ctx := context.Background()
	svc, _, rec := fixture()
	missing := "00000000-0000-0000-0000-0000000000ff"

	_, err := svc.Promote(ctx, master, missing)
	requireAppError(t, err, core.CodeNotFound, "User not found")

	_, err = svc.Demote(ctx, master, missing)
	requireAppError(t, err, core.CodeNotFound, "User not found")

	err = svc.Delete(ctx, master, missing)
	requireAppError(t, err, core.CodeNotFound, "User not found")

	assert.Empty(t, rec.entries)
}

func TestDemoteAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, users, rec := fixture()

	updated, err := svc.Demote(ctx, master, adminID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, updated.Role)

	require.NoError(t, svc.Delete(ctx, master, userID))
	assert.NotContains(t, users.byID, userID)

	require.Len(t, rec.entries, 2)
	assert.Equal(t, audit.ActionDemoteToUser, rec.entries[0].Action)
	assert.Equal(t, adminID, rec.entries[0].TargetID)
	assert.Contains(t, rec.entries[0].Details, "demoted user "+adminID+" to regular user")
	assert.Equal(t, audit.ActionDeleteUser, rec.entries[1].Action)
	assert.Equal(t, userID, rec.entries[1].TargetID)
	assert.Contains(t, rec.entries[1].Details, "deleted user "+userID)
}

func TestAuditFailureSurfacesAfterMutation(t *testing.T) {
	svc, users, rec := fixture()
	rec.err = errors.New("audit_logs: connection refused")

	_, err := svc.Promote(context.Background(), master, userID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuditIncomplete)
	assert.False(t, core.IsAppError(err))

	assert.Equal(t, user.RoleAdmin, users.byID[userID].Role, "mutation stays durable")
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	svc, users, rec := fixture()

	created, err := svc.CreateUser(ctx, master, CreateUserInput{
		Email:    "  New@AuraTrack.io ",
		Password: "correct horse battery",
		Role:     user.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "new@auratrack.io", created.Email)
	assert.Equal(t, user.RoleAdmin, created.Role)
	assert.NotEqual(t, "correct horse battery", created.PasswordHash)

	ok, err := core.VerifyPassword("correct horse battery", users.byID[created.ID].PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Empty(t, rec.entries, "user creation is not audited")
}

func TestCreateUserValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := fixture()

	_, err := svc.CreateUser(ctx, master, CreateUserInput{
		Email: "u1@auratrack.io", Password: "password123", Role: user.RoleUser,
	})
	requireAppError(t, err, core.CodeBadUserInput, "Email already registered")

	tests := []CreateUserInput{
		{Email: "not-an-email", Password: "password123", Role: user.RoleUser},
		{Email: "ok@auratrack.io", Password: "short", Role: user.RoleUser},
		{Email: "ok@auratrack.io", Password: "password123", Role: "superuser"},
	}
	for _, in := range tests {
		_, err := svc.CreateUser(ctx, master, in)
		appErr, ok := core.AsAppError(err)
		require.True(t, ok, "input %+v", in)
		assert.Equal(t, core.CodeBadUserInput, appErr.Code)
	}
}

func TestListAndCountUsers(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := fixture()

	total, err := svc.CountUsers(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	page, err := svc.ListUsers(ctx, other, user.ListUsersParams{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, adminID, page[0].ID)
	assert.Equal(t, userID, page[1].ID)
}

func TestOutcomeLabels(t *testing.T) {
	assert.Equal(t, resultSuccess, outcome(nil))
	assert.Equal(t, resultDenied, outcome(core.UnauthorizedError("Access denied")))
	assert.Equal(t, resultRejected, outcome(core.ValidationError("nope")))
	assert.Equal(t, resultAuditFailed, outcome(fmt.Errorf("x: %w", ErrAuditIncomplete)))
	assert.Equal(t, resultError, outcome(errors.New("boom")))
}
