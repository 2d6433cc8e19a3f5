package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"arbor/application/ports"
	"arbor/domain/core/entities"
	"arbor/pkg/auth"
	pkgerrors "arbor/pkg/errors"
	"arbor/pkg/utils"
)

// TokenPair is what a successful login or refresh hands back to the
// client. RefreshToken is the raw opaque value; only its hash is ever
// stored.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// UserInfo is the read model for an account
type UserInfo struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthService handles registration, login and the refresh token
// rotation flow
type AuthService struct {
	users      ports.UserStore
	tokens     ports.RefreshTokenStore
	jwt        *auth.JWTService
	refreshTTL time.Duration
	logger     *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	users ports.UserStore,
	tokens ports.RefreshTokenStore,
	jwtService *auth.JWTService,
	refreshTTL time.Duration,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		jwt:        jwtService,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// Register creates a new member account
func (s *AuthService) Register(ctx context.Context, username, password string) (*UserInfo, error) {
	user, err := entities.NewUser(username, password, entities.RoleMember)
	if err != nil {
		return nil, err
	}
	if err := s.users.Add(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("username", user.Username()))
	return newUserInfo(user), nil
}

// Login verifies credentials and issues a fresh token pair
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			// Same answer for unknown user and wrong password
			return nil, pkgerrors.NewUnauthorizedError("invalid credentials")
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, pkgerrors.NewUnauthorizedError("invalid credentials")
	}

	return s.issuePair(ctx, user)
}

// Refresh rotates a refresh token: the presented token is revoked and a
// new pair is issued. A revoked, expired or unknown token fails
// Unauthorized.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*TokenPair, error) {
	hash := hashToken(rawToken)

	stored, err := s.tokens.FindByHash(ctx, hash)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, pkgerrors.NewUnauthorizedError("invalid refresh token")
		}
		return nil, err
	}
	if stored.Revoked {
		// Reuse of a rotated token: treat the whole session as
		// compromised and revoke everything the user holds.
		if err := s.tokens.RevokeAllForUser(ctx, stored.UserID); err != nil {
			s.logger.Warn("failed to revoke user tokens after reuse",
				zap.String("user_id", stored.UserID),
				zap.Error(err),
			)
		}
		return nil, pkgerrors.NewUnauthorizedError("invalid refresh token")
	}
	if utils.NowUTC().After(stored.ExpiresAt) {
		return nil, pkgerrors.NewUnauthorizedError("refresh token expired")
	}

	user, err := s.users.FindByID(ctx, stored.UserID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, pkgerrors.NewUnauthorizedError("invalid refresh token")
		}
		return nil, err
	}

	if err := s.tokens.Revoke(ctx, hash); err != nil {
		return nil, err
	}
	return s.issuePair(ctx, user)
}

// Logout revokes the presented refresh token. Unknown tokens are
// ignored so logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	err := s.tokens.Revoke(ctx, hashToken(rawToken))
	if err != nil && !pkgerrors.IsNotFound(err) {
		return err
	}
	return nil
}

func (s *AuthService) issuePair(ctx context.Context, user *entities.User) (*TokenPair, error) {
	access, err := s.jwt.GenerateToken(user.ID(), user.Username(), string(user.Role()))
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to sign access token").WithCause(err)
	}

	raw, err := newOpaqueToken()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to generate refresh token").WithCause(err)
	}
	if err := s.tokens.Save(ctx, &ports.RefreshToken{
		TokenHash: hashToken(raw),
		UserID:    user.ID(),
		ExpiresAt: utils.NowUTC().Add(s.refreshTTL),
	}); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: raw,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwt.AccessTTL().Seconds()),
	}, nil
}

func newUserInfo(user *entities.User) *UserInfo {
	return &UserInfo{
		ID:        user.ID(),
		Username:  user.Username(),
		Role:      string(user.Role()),
		CreatedAt: user.CreatedAt(),
	}
}

// newOpaqueToken returns 32 random bytes hex-encoded
func newOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// hashToken derives the storage key for a raw refresh token
func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
