// Package services implements the authentication core: registration, login,
// token rotation, password lifecycle, email confirmation, and federated
// sign-in. Services speak to storage through repositories handed out by a
// RepositoryManager, so multi-step mutations can run inside one transaction.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/randx"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/email"
	"github.com/dmitrijs2005/authkeeper/internal/server/federated"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

// refreshTokenBytes is the entropy of an opaque refresh token (32 bytes,
// 256 bits, 43 base64url characters).
const refreshTokenBytes = 32

const minPasswordLength = 8

// refreshTokenPattern matches the exact shape of tokens this service mints,
// so malformed input is rejected before touching storage.
var refreshTokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{43}$`)

// AuthService implements the account and token lifecycle.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      cryptox.PasswordHasher
	broker      federated.Broker
	sender      email.Sender
	logger      logging.Logger

	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	resetTokenValidityDuration   time.Duration
	confirmTokenValidityDuration time.Duration
	defaultRoleID                string
	appBaseURL                   string

	// dummyHash is verified against on login paths that have no stored
	// hash, so response timing does not reveal whether the account exists.
	dummyHash string
}

// NewAuthService wires an AuthService from its collaborators and config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher cryptox.PasswordHasher,
	broker federated.Broker, sender email.Sender, logger logging.Logger, cfg *config.Config) (*AuthService, error) {

	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("error preparing dummy hash: %w", err)
	}

	return &AuthService{
		db:                           db,
		repomanager:                  m,
		hasher:                       hasher,
		broker:                       broker,
		sender:                       sender,
		logger:                       logger,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		resetTokenValidityDuration:   cfg.ResetTokenValidityDuration,
		confirmTokenValidityDuration: cfg.ConfirmTokenValidityDuration,
		defaultRoleID:                cfg.DefaultRoleID,
		appBaseURL:                   cfg.AppBaseURL,
		dummyHash:                    dummyHash,
	}, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validateEmail(s string) error {
	if _, err := mail.ParseAddress(s); err != nil {
		return fmt.Errorf("%w: invalid email address", common.ErrValidation)
	}
	return nil
}

func validatePassword(s string) error {
	if len(s) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, minPasswordLength)
	}
	return nil
}

// Register creates an account with the default role, signs the new user in,
// and issues an email confirmation token. The confirmation email is sent
// best-effort; a delivery failure is logged but does not fail registration.
func (s *AuthService) Register(ctx context.Context, emailAddr, name, password, repeatPassword string) (*AuthenticateResponse, error) {
	emailAddr = normalizeEmail(emailAddr)
	if err := validateEmail(emailAddr); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if password != repeatPassword {
		return nil, fmt.Errorf("%w: passwords do not match", common.ErrValidation)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, common.ErrInternal
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        emailAddr,
		Name:         name,
		PasswordHash: &passwordHash,
	}

	var resp *AuthenticateResponse

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		userRepo := s.repomanager.Users(tx)

		if _, err := userRepo.Create(ctx, user); err != nil {
			return err
		}
		if err := userRepo.AddRole(ctx, user.ID, s.defaultRoleID); err != nil {
			return fmt.Errorf("error assigning default role: %w", err)
		}

		resp, err = s.authenticate(ctx, tx, user.ID, []string{s.defaultRoleID})
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrAlreadyExists
		}
		s.logger.Error(ctx, "registration failed", "error", err)
		return nil, common.ErrInternal
	}

	confirmToken, err := auth.GenerateStateToken(user.ID, auth.PurposeConfirmEmail, s.jwtSecret, s.confirmTokenValidityDuration)
	if err != nil {
		s.logger.Error(ctx, "error generating confirmation token", "user_id", user.ID, "error", err)
	} else {
		resp.EmailConfirmationToken = confirmToken
		s.sendConfirmationEmail(ctx, user, confirmToken)
	}

	resp.Message = "registration successful, please confirm your email address"

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return resp, nil
}

func (s *AuthService) sendConfirmationEmail(ctx context.Context, user *models.User, token string) {
	link := fmt.Sprintf("%s/confirm-email?userId=%s&token=%s", s.appBaseURL, user.ID, token)
	msg := email.Message{
		To:       user.Email,
		Subject:  "Confirm your email",
		TextBody: "Welcome! Please confirm your email address by following this link: " + link,
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Warn(ctx, "error sending confirmation email", "user_id", user.ID, "error", err)
	}
}

// Login verifies the credentials and establishes a session. Unknown emails,
// passwordless (federated-only) accounts, and wrong passwords are
// indistinguishable to the caller: all return common.ErrInvalidCredentials,
// and a hash verification is performed in every branch so timing does not
// leak which case occurred.
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (*AuthenticateResponse, error) {
	emailAddr = normalizeEmail(emailAddr)

	userRepo := s.repomanager.Users(s.db)

	user, err := userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// burn the same work as a real verification
			_, _ = s.hasher.Verify(password, s.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.ErrInternal
	}

	if !user.HasPassword() {
		_, _ = s.hasher.Verify(password, s.dummyHash)
		return nil, common.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, *user.PasswordHash)
	if err != nil {
		s.logger.Error(ctx, "error verifying password hash", "user_id", user.ID, "error", err)
		return nil, common.ErrInternal
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	var resp *AuthenticateResponse
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		resp, err = s.authenticate(ctx, tx, user.ID, nil)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "login failed", "user_id", user.ID, "error", err)
		return nil, common.ErrInternal
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return resp, nil
}

// Logout revokes every refresh token owned by userID. Idempotent: with no
// outstanding tokens it succeeds silently.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.repomanager.RefreshTokens(s.db).DeleteAllByUser(ctx, userID); err != nil {
		return common.ErrInternal
	}

	s.logger.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is minted atomically. The conditional delete arbitrates concurrent
// rotations of the same token; the loser observes zero rows deleted and
// fails with common.ErrInvalidToken, so a stolen-then-replayed token can
// never yield two live sessions.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthenticateResponse, error) {
	if !refreshTokenPattern.MatchString(refreshToken) {
		return nil, common.ErrInvalidToken
	}

	token, err := s.repomanager.RefreshTokens(s.db).GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, common.ErrInternal
	}

	if token.IsExpired() {
		// an expired row is as dead as a consumed one; remove it so the
		// value can never match again
		_, _ = s.repomanager.RefreshTokens(s.db).DeleteByID(ctx, token.ID)
		return nil, common.ErrInvalidToken
	}

	var resp *AuthenticateResponse

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		deleted, err := s.repomanager.RefreshTokens(tx).DeleteByID(ctx, token.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return common.ErrInvalidToken
		}

		resp, err = s.authenticate(ctx, tx, token.UserID, nil)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			return nil, common.ErrInvalidToken
		}
		s.logger.Error(ctx, "token refresh failed", "user_id", token.UserID, "error", err)
		return nil, common.ErrInternal
	}

	return resp, nil
}

// ChangePassword replaces the password of an account that already has one,
// after verifying the current password. A federated-only account (no stored
// hash) is not authorized for this operation; it must create a password
// first.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (*ResultOutcome, error) {
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}
	if newPassword == currentPassword {
		return nil, fmt.Errorf("%w: new password must differ from the current one", common.ErrValidation)
	}

	userRepo := s.repomanager.Users(s.db)

	user, err := userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, common.ErrInternal
	}

	if !user.HasPassword() {
		return nil, common.ErrUnauthorized
	}

	ok, err := s.hasher.Verify(currentPassword, *user.PasswordHash)
	if err != nil {
		return nil, common.ErrInternal
	}
	if !ok {
		return nil, common.ErrUnauthorized
	}

	if err := s.updatePassword(ctx, userID, newPassword); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "password changed", "user_id", userID)
	return Succeeded(), nil
}

// CreatePassword sets an initial password on a federated-only account. An
// account that already has a password must go through ChangePassword, which
// demands the current one.
func (s *AuthService) CreatePassword(ctx context.Context, userID, newPassword string) (*ResultOutcome, error) {
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, common.ErrInternal
	}

	if user.HasPassword() {
		return nil, fmt.Errorf("%w: account already has a password", common.ErrValidation)
	}

	if err := s.updatePassword(ctx, userID, newPassword); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "password created", "user_id", userID)
	return Succeeded(), nil
}

func (s *AuthService) updatePassword(ctx context.Context, userID, newPassword string) error {
	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return common.ErrInternal
	}
	if err := s.repomanager.Users(s.db).UpdatePassword(ctx, userID, passwordHash); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return common.ErrInternal
	}
	return nil
}

// GeneratePasswordResetToken issues a single-use reset token and emails it
// to the account. The result is identical whether or not the email maps to
// an account, so the operation cannot be used to probe for registered
// addresses.
func (s *AuthService) GeneratePasswordResetToken(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return common.ErrInternal
	}

	token, hash, err := auth.GenerateResetToken()
	if err != nil {
		return common.ErrInternal
	}

	if _, err := s.repomanager.PasswordResets(s.db).Create(ctx, user.ID, hash, s.resetTokenValidityDuration); err != nil {
		s.logger.Error(ctx, "error storing password reset", "user_id", user.ID, "error", err)
		return common.ErrInternal
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.appBaseURL, token)
	msg := email.Message{
		To:       user.Email,
		Subject:  "Reset your password",
		TextBody: "A password reset was requested for your account. Follow this link to choose a new password: " + link,
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Warn(ctx, "error sending reset email", "user_id", user.ID, "error", err)
	}

	s.logger.Info(ctx, "password reset requested", "user_id", user.ID)
	return nil
}

// ResetPassword consumes a reset token and sets the new password. The token
// row is deleted and every refresh token of the account is revoked in the
// same transaction, so a reset both invalidates the token and terminates
// any session an attacker may already hold.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (*ResultOutcome, error) {
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}

	reset, err := s.repomanager.PasswordResets(s.db).GetByTokenHash(ctx, auth.HashResetToken(token))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, common.ErrInternal
	}

	if reset.IsExpired() {
		_ = s.repomanager.PasswordResets(s.db).DeleteByID(ctx, reset.ID)
		return nil, common.ErrInvalidToken
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, common.ErrInternal
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, reset.UserID, passwordHash); err != nil {
			return err
		}
		if err := s.repomanager.PasswordResets(tx).DeleteByID(ctx, reset.ID); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).DeleteAllByUser(ctx, reset.UserID)
	})
	if err != nil {
		s.logger.Error(ctx, "password reset failed", "user_id", reset.UserID, "error", err)
		return nil, common.ErrInternal
	}

	s.logger.Info(ctx, "password reset completed", "user_id", reset.UserID)
	return Succeeded(), nil
}

// ConfirmEmail validates a confirmation token for the user and marks the
// email confirmed. A token presented for an already-confirmed account fails,
// which makes each token effectively single-use.
func (s *AuthService) ConfirmEmail(ctx context.Context, userID, token string) (*ResultOutcome, error) {
	// expired and tampered tokens are equally unusable here; only access
	// tokens distinguish the two
	if err := auth.VerifyStateToken(token, userID, auth.PurposeConfirmEmail, s.jwtSecret); err != nil {
		return nil, common.ErrInvalidToken
	}

	userRepo := s.repomanager.Users(s.db)

	user, err := userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, common.ErrInternal
	}

	if user.EmailConfirmed {
		return nil, common.ErrInvalidToken
	}

	if err := userRepo.ConfirmEmail(ctx, userID); err != nil {
		return nil, common.ErrInternal
	}

	s.logger.Info(ctx, "email confirmed", "user_id", userID)
	return Succeeded(), nil
}

// FederatedSignIn verifies a provider-issued identity token and signs the
// asserted user in, creating the account on first sign-in. Only identities
// whose email the provider has verified are trusted to map onto an account;
// otherwise an attacker could register an unverified address at the
// provider and take over the matching local account.
func (s *AuthService) FederatedSignIn(ctx context.Context, idToken string) (*AuthenticateResponse, error) {
	identity, err := s.broker.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			return nil, common.ErrInvalidToken
		}
		return nil, common.ErrInternal
	}

	if !identity.EmailVerified {
		return nil, common.ErrInvalidToken
	}

	emailAddr := normalizeEmail(identity.Email)

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, emailAddr)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrInternal
	}

	var resp *AuthenticateResponse

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		userRepo := s.repomanager.Users(tx)

		if user == nil {
			user = &models.User{
				ID:             uuid.NewString(),
				Email:          emailAddr,
				Name:           identity.Name,
				EmailConfirmed: true,
			}
			if _, err := userRepo.Create(ctx, user); err != nil {
				return err
			}
			if err := userRepo.AddRole(ctx, user.ID, s.defaultRoleID); err != nil {
				return fmt.Errorf("error assigning default role: %w", err)
			}
			s.logger.Info(ctx, "user created via federated sign-in", "user_id", user.ID)
		} else if !user.EmailConfirmed {
			// the provider vouched for the address
			if err := userRepo.ConfirmEmail(ctx, user.ID); err != nil {
				return err
			}
		}

		resp, err = s.authenticate(ctx, tx, user.ID, nil)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "federated sign-in failed", "error", err)
		return nil, common.ErrInternal
	}

	s.logger.Info(ctx, "federated sign-in", "user_id", user.ID)
	return resp, nil
}

// CleanupExpired sweeps expired refresh tokens and reset requests. Run
// periodically; expiry is always enforced at use time, the sweep just keeps
// the tables from growing without bound.
func (s *AuthService) CleanupExpired(ctx context.Context) error {
	removedTokens, err := s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("error sweeping refresh tokens: %w", err)
	}

	removedResets, err := s.repomanager.PasswordResets(s.db).DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("error sweeping password resets: %w", err)
	}

	if removedTokens > 0 || removedResets > 0 {
		s.logger.Info(ctx, "expired tokens swept",
			"refresh_tokens", removedTokens, "password_resets", removedResets)
	}
	return nil
}

// authenticate mints the access/refresh pair for userID against the given
// DBTX. roles may be passed by callers that already know them (registration);
// otherwise they are loaded from storage.
func (s *AuthService) authenticate(ctx context.Context, tx dbx.DBTX, userID string, roles []string) (*AuthenticateResponse, error) {
	if roles == nil {
		var err error
		roles, err = s.repomanager.Users(tx).GetRoles(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("error loading roles: %w", err)
		}
	}

	accessToken, err := auth.GenerateToken(userID, roles, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %w", err)
	}

	expiration, err := auth.ExpirationTime(accessToken)
	if err != nil {
		return nil, fmt.Errorf("error reading token expiration: %w", err)
	}

	refreshToken, err := randx.MakeRandString(refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w", err)
	}

	if _, err := s.repomanager.RefreshTokens(tx).Create(ctx, userID, refreshToken, s.refreshTokenValidityDuration); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	return &AuthenticateResponse{
		UserID:                userID,
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiration: expiration,
	}, nil
}
