// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auratrack/auratrack-api/internal/authz"
	"github.com/auratrack/auratrack-api/internal/config"
	"github.com/auratrack/auratrack-api/internal/core"
	"github.com/auratrack/auratrack-api/internal/middleware"
)

type fakeProvider struct {
	mu       sync.Mutex
	byID     map[string]*UserInfo
	rehashed map[string]string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		byID:     map[string]*UserInfo{},
		rehashed: map[string]string{},
	}
}

func (f *fakeProvider) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeProvider) GetByID(_ context.Context, id string) (*UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, core.ErrNotFound
}

func (f *fakeProvider) Create(
	ctx context.Context,
	email, passwordHash, role string,
) (*UserInfo, error) {
	if _, err := f.GetByEmail(ctx, email); err == nil {
		return nil, core.ErrDuplicateKey
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	u := &UserInfo{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		Role:         role,
	}
	f.byID[u.ID] = u
	cp := *u
	return &cp, nil
}

func (f *fakeProvider) UpdatePassword(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rehashed[id] = hash
	f.byID[id].PasswordHash = hash
	return nil
}

func (f *fakeProvider) setRole(id, role string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[id].Role = role
}

func (f *fakeProvider) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
}

func newJWTManager(t *testing.T) *JWTManager {
	t.Helper()

	dir := t.TempDir()
	cfg := config.JWTConfig{
		PrivateKeyPath: filepath.Join(dir, "private.pem"),
		PublicKeyPath:  filepath.Join(dir, "public.pem"),
		TokenExpire:    time.Hour,
		Issuer:         "auratrack",
		Audience:       "auratrack-api",
	}
	require.NoError(t, GenerateKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath))

	m, err := NewJWTManager(cfg)
	require.NoError(t, err)
	return m
}

func newTestService(t *testing.T) (*Service, *fakeProvider, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	users := newFakeProvider()
	svc := NewService(newJWTManager(t), users, rdb, config.SessionConfig{
		CookieName: "jwt",
		MaxAge:     90 * 24 * time.Hour,
		Secure:     true,
	})
	return svc, users, mr
}

func TestSignupAndLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Signup(ctx, Credentials{Email: "mia@auratrack.io", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, authz.RoleUser, sess.User.Role)
	assert.NotEmpty(t, sess.Token)
	assert.NotEmpty(t, sess.TokenID)

	_, err = svc.Signup(ctx, Credentials{Email: "mia@auratrack.io", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailExists)

	sess, err = svc.Login(ctx, Credentials{Email: "mia@auratrack.io", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "mia@auratrack.io", sess.User.Email)

	_, err = svc.Login(ctx, Credentials{Email: "mia@auratrack.io", Password: "password124"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, Credentials{Email: "ghost@auratrack.io", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignupValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	tests := []struct {
		name  string
		creds Credentials
	}{
		{"bad email", Credentials{Email: "not-an-email", Password: "password123"}},
		{"short password", Credentials{Email: "a@auratrack.io", Password: "short"}},
		{"missing email", Credentials{Password: "password123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tt.creds)

			appErr, ok := core.AsAppError(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, core.CodeBadUserInput, appErr.Code)
		})
	}
}

func TestLoginUpgradesOutdatedHash(t *testing.T) {
	svc, users, _ := newTestService(t)

	legacy := core.DefaultPasswordParams
	legacy.Time = 2
	hash, err := legacy.Hash("password123")
	require.NoError(t, err)

	u, err := users.Create(context.Background(), "old@auratrack.io", hash, authz.RoleUser)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), Credentials{Email: "old@auratrack.io", Password: "password123"})
	require.NoError(t, err)

	require.Contains(t, users.rehashed, u.ID)
	assert.NotEqual(t, hash, users.rehashed[u.ID])
}

func TestVerifyAccessTokenReloadsRole(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Signup(ctx, Credentials{Email: "riley@auratrack.io", Password: "password123"})
	require.NoError(t, err)

	claims, err := svc.VerifyAccessToken(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, claims.UserID)
	assert.Equal(t, authz.RoleUser, claims.Role)

	users.setRole(sess.User.ID, authz.RoleAdmin)

	claims, err = svc.VerifyAccessToken(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleAdmin, claims.Role)

	users.remove(sess.User.ID)

	_, err = svc.VerifyAccessToken(ctx, sess.Token)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _, mr := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Signup(ctx, Credentials{Email: "sam@auratrack.io", Password: "password123"})
	require.NoError(t, err)

	claims, err := svc.VerifyAccessToken(ctx, sess.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))
	assert.True(t, mr.Exists(blacklistPrefix+claims.TokenID))
	assert.Greater(t, mr.TTL(blacklistPrefix+claims.TokenID), time.Duration(0))

	_, err = svc.VerifyAccessToken(ctx, sess.Token)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	assert.NoError(t, svc.Logout(ctx, nil), "anonymous logout is a no-op")
}

func TestVerifyAccessTokenRejects(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.VerifyAccessToken(ctx, "garbage")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	other := newJWTManager(t)
	foreign, err := other.CreateAccessToken(SessionClaims{UserID: uuid.NewString(), Role: authz.RoleAdmin})
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(ctx, foreign.Token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid, "signed by a different key")

	svc.jwt.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, err := svc.jwt.CreateAccessToken(SessionClaims{UserID: uuid.NewString(), Role: authz.RoleUser})
	require.NoError(t, err)
	svc.jwt.now = time.Now

	_, err = svc.VerifyAccessToken(ctx, stale.Token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestMe(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()

	me, err := svc.Me(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, me)

	sess, err := svc.Signup(ctx, Credentials{Email: "kai@auratrack.io", Password: "password123"})
	require.NoError(t, err)

	id := &authz.Identity{UserID: sess.User.ID, Email: sess.User.Email, Role: sess.User.Role}
	me, err = svc.Me(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "kai@auratrack.io", me.Email)

	users.remove(sess.User.ID)
	me, err = svc.Me(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, me)
}

func TestSessionCookies(t *testing.T) {
	svc, _, _ := newTestService(t)

	c := svc.SessionCookie(&Session{Token: "tok"})
	assert.Equal(t, "jwt", c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.Equal(t, 90*24*60*60, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)

	cleared := svc.ClearSessionCookie()
	assert.Equal(t, -1, cleared.MaxAge)
	assert.Empty(t, cleared.Value)
}

func TestIdentifyMiddleware(t *testing.T) {
	svc, _, _ := newTestService(t)

	sess, err := svc.Signup(context.Background(), Credentials{Email: "ada@auratrack.io", Password: "password123"})
	require.NoError(t, err)

	var seen *authz.Identity
	h := middleware.Identify(svc, "jwt")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = authz.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: sess.Token})
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, seen)
	assert.Equal(t, sess.User.ID, seen.UserID)

	req = httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, seen)
	assert.Equal(t, "ada@auratrack.io", seen.Email)

	req = httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("Authorization", "Bearer nope")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Nil(t, seen)
}

func TestJWKSHandler(t *testing.T) {
	m := newJWTManager(t)
	assert.Len(t, m.GetKeyID(), 16)

	rec := httptest.NewRecorder()
	m.GetJWKSHandler()(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kid":"`+m.GetKeyID()+`"`)
	assert.NotContains(t, rec.Body.String(), `"d":`, "private part must not leak")
}
