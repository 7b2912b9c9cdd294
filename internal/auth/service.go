package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/secure/precis"

	"github.com/furu-identity/furu-identity/internal/shared"
)

// EmailDispatcher enqueues transactional email as a fire-and-forget task.
// Delivery is at-least-once and failures never surface to the caller of the
// triggering operation.
type EmailDispatcher interface {
	EnqueueVerificationEmail(ctx context.Context, email, token string) error
	EnqueuePasswordResetEmail(ctx context.Context, email, token string) error
}

// Service wraps the authentication business rules: registration, login,
// token refresh and the email verification / password reset flows.
type Service struct {
	logger     *slog.Logger
	repo       Repository
	hasher     *Hasher
	codec      *Codec
	tokens     *EphemeralStore
	rotation   RevocationList
	dispatcher EmailDispatcher
	now        func() time.Time
}

// ServiceConfig collects the collaborators of the Service.
type ServiceConfig struct {
	Logger     *slog.Logger
	Repo       Repository
	Hasher     *Hasher
	Codec      *Codec
	Tokens     *EphemeralStore
	Rotation   RevocationList
	Dispatcher EmailDispatcher
	Now        func() time.Time
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		logger:     cfg.Logger,
		repo:       cfg.Repo,
		hasher:     cfg.Hasher,
		codec:      cfg.Codec,
		tokens:     cfg.Tokens,
		rotation:   cfg.Rotation,
		dispatcher: cfg.Dispatcher,
		now:        cfg.Now,
	}
}

// RegisterInput carries the validated registration request.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	FullName string
}

// NormalizeEmail lowercases and trims an email address so lookups and the
// unique constraint agree on one spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername case-folds the username through the PRECIS
// UsernameCaseMapped profile, rejecting confusable or invisible input.
func NormalizeUsername(username string) (string, error) {
	normalized, err := precis.UsernameCaseMapped.String(strings.TrimSpace(username))
	if err != nil {
		return "", shared.ErrInvalidUsername
	}
	return normalized, nil
}

// Register creates an account, issues a verification token and dispatches
// the verification email.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	username, err := NormalizeUsername(input.Username)
	if err != nil {
		return nil, err
	}
	if err := s.hasher.CheckPolicy(input.Password); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user, err := s.repo.CreateUser(ctx, &User{
		Email:        NormalizeEmail(input.Email),
		Username:     username,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
		IsActive:     true,
		IsVerified:   false,
		Plan:         PlanFree,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	if err := s.sendVerification(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and returns the user with a fresh token pair.
// A missing user and a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string, remember bool) (*User, *TokenPair, error) {
	user, err := s.repo.FindUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, shared.ErrAccountDeactivated
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, nil, err
	}
	user.LastLogin = &now

	pair, err := s.issuePair(user.ID, now, remember)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh exchanges a refresh token for a new token pair. Rotation: the
// presented token's jti is revoked for its remaining lifetime, so replaying
// it fails with ErrInvalidToken. The revoke is a conditional write; when two
// holders of the same token race, exactly one obtains the new pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*User, *TokenPair, error) {
	now := s.now()
	claims, err := s.codec.Parse(refreshToken, ClassRefresh, now)
	if err != nil {
		return nil, nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, nil, err
	}
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.ErrInvalidToken
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, shared.ErrAccountDeactivated
	}

	rotated, err := s.rotation.Revoke(ctx, claims.ID, claims.ExpiresAt.Time, now)
	if err != nil {
		return nil, nil, err
	}
	if !rotated {
		return nil, nil, shared.ErrInvalidToken
	}
	pair, err := s.issuePair(user.ID, now, false)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// VerifyEmail consumes a verification token and flips is_verified.
func (s *Service) VerifyEmail(ctx context.Context, secret string) error {
	now := s.now()
	userID, err := s.tokens.Consume(ctx, secret, ClassVerification, now)
	if err != nil {
		return err
	}
	return s.repo.MarkUserVerified(ctx, userID, now)
}

// ResendVerification reissues the verification token. An unknown email is a
// silent success so the endpoint cannot be used to enumerate accounts.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repo.FindUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if user.IsVerified {
		return shared.ErrAlreadyVerified
	}
	return s.sendVerification(ctx, user)
}

// ForgotPassword issues a reset token when the email matches an account.
// The caller always observes success regardless of a match.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.FindUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}

	secret, err := s.tokens.Issue(ctx, user.ID, ClassReset, s.now())
	if err != nil {
		return err
	}
	if err := s.dispatcher.EnqueuePasswordResetEmail(ctx, user.Email, secret); err != nil {
		s.logger.Warn("enqueue password reset email", slog.Any("error", err))
	}
	return nil
}

// ResetPassword consumes a reset token and installs the new password. The
// policy is checked before the token is consumed so a weak password does not
// burn the secret.
func (s *Service) ResetPassword(ctx context.Context, secret, newPassword string) error {
	if err := s.hasher.CheckPolicy(newPassword); err != nil {
		return err
	}
	now := s.now()
	userID, err := s.tokens.Consume(ctx, secret, ClassReset, now)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePasswordHash(ctx, userID, hash, now)
}

func (s *Service) issuePair(userID int64, now time.Time, remember bool) (*TokenPair, error) {
	access, err := s.codec.Issue(userID, ClassAccess, now)
	if err != nil {
		return nil, err
	}
	refreshTTL := s.codec.RefreshTTL()
	if remember {
		refreshTTL *= 4
	}
	refresh, err := s.codec.IssueWithTTL(userID, ClassRefresh, now, refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// sendVerification issues a fresh verification token and enqueues the email.
// A failed Issue is a storage error and surfaces to the caller; a failed
// enqueue is delivery-side and is only logged.
func (s *Service) sendVerification(ctx context.Context, user *User) error {
	secret, err := s.tokens.Issue(ctx, user.ID, ClassVerification, s.now())
	if err != nil {
		return err
	}
	if err := s.dispatcher.EnqueueVerificationEmail(ctx, user.Email, secret); err != nil {
		s.logger.Warn("enqueue verification email", slog.Any("error", err))
	}
	return nil
}
