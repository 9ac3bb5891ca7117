// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/auratrack/auratrack-api/internal/authz"
	"github.com/auratrack/auratrack-api/internal/config"
	"github.com/auratrack/auratrack-api/internal/core"
	"github.com/auratrack/auratrack-api/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already exists")
)

const blacklistPrefix = "blacklist:"

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(
		ctx context.Context,
		email, passwordHash, role string,
	) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type Service struct {
	jwt          *JWTManager
	userProvider UserProvider
	redis        *redis.Client
	session      config.SessionConfig
	validate     *validator.Validate
}

func NewService(
	jwt *JWTManager,
	userProvider UserProvider,
	redisClient *redis.Client,
	session config.SessionConfig,
) *Service {
	return &Service{
		jwt:          jwt,
		userProvider: userProvider,
		redis:        redisClient,
		session:      session,
		validate:     validator.New(),
	}
}

func (s *Service) Signup(
	ctx context.Context,
	req Credentials,
) (*Session, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.Create(
		ctx,
		req.Email,
		passwordHash,
		authz.RoleUser,
	)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issue(user)
}

func (s *Service) Login(
	ctx context.Context,
	req Credentials,
) (*Session, error) {
	user, err := s.userProvider.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // unknown emails pay the same hashing cost
			_, _ = core.CheckPassword(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	check, err := core.CheckPassword(req.Password, &user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !check.Valid {
		return nil, ErrInvalidCredentials
	}

	if check.Rehash != "" {
		if err := s.userProvider.UpdatePassword(ctx, user.ID, check.Rehash); err != nil {
			slog.WarnContext(ctx, "password rehash failed",
				"user_id", user.ID,
				"error", err,
			)
		}
	}

	return s.issue(user)
}

// Logout revokes the presented token until it would have expired anyway.
// A missing or already expired token is a no-op.
func (s *Service) Logout(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) error {
	if claims == nil || claims.TokenID == "" {
		return nil
	}

	return s.RevokeAccessToken(ctx, claims.TokenID, claims.ExpiresAt)
}

func (s *Service) RevokeAccessToken(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, blacklistPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

func (s *Service) IsAccessTokenBlacklisted(
	ctx context.Context,
	jti string,
) (bool, error) {
	exists, err := s.redis.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return exists > 0, nil
}

// VerifyAccessToken validates the token, rejects revoked ones and reloads
// the account so role changes apply on the very next request.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if claims.TokenID != "" {
		revoked, err := s.IsAccessTokenBlacklisted(ctx, claims.TokenID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
		}
	}

	user, err := s.userProvider.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("verify token: %w", err)
	}

	claims.Email = user.Email
	claims.Role = user.Role

	return claims, nil
}

// Me returns nil for anonymous callers and for accounts deleted since the
// token was issued.
func (s *Service) Me(
	ctx context.Context,
	id *authz.Identity,
) (*UserInfo, error) {
	if id == nil {
		return nil, nil
	}

	user, err := s.userProvider.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get current user: %w", err)
	}

	return user, nil
}

func (s *Service) SessionCookie(sess *Session) *http.Cookie {
	return NewSessionCookie(s.session, sess.Token)
}

func (s *Service) ClearSessionCookie() *http.Cookie {
	return ExpiredSessionCookie(s.session)
}

func (s *Service) issue(user *UserInfo) (*Session, error) {
	signed, err := s.jwt.CreateAccessToken(SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	return &Session{
		User:      user,
		Token:     signed.Token,
		TokenID:   signed.ID,
		ExpiresAt: signed.ExpiresAt,
	}, nil
}
