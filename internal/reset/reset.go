package reset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sl "account_service/internal/lib/logger"
	"account_service/internal/lib/random"
	"account_service/internal/models"
	"account_service/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken is returned when a reset token is unknown, expired or
// already consumed.
var ErrInvalidToken = errors.New("invalid token")

type Reset struct {
	log       *slog.Logger
	users     UserProvider
	passwords PasswordUpdater
	tokens    TokenStore
	mail      Publisher
	baseURL   string
	tokenTTL  time.Duration
}

type UserProvider interface {
	UserIDByEmail(ctx context.Context, email string) (int64, error)
}

type PasswordUpdater interface {
	UpdatePassword(ctx context.Context, userID int64, passHash []byte) error
}

type TokenStore interface {
	SaveResetToken(ctx context.Context, token string, userID int64, ttl time.Duration) error
	ResetTokenAvailable(ctx context.Context, token string) (bool, error)
	ConsumeResetToken(ctx context.Context, token string) (int64, error)
	RevokeUserSessions(ctx context.Context, userID int64) error
}

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

func New(
	log *slog.Logger,
	users UserProvider,
	passwords PasswordUpdater,
	tokens TokenStore,
	mail Publisher,
	baseURL string,
	tokenTTL time.Duration,
) *Reset {
	return &Reset{
		log:       log,
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		mail:      mail,
		baseURL:   baseURL,
		tokenTTL:  tokenTTL,
	}
}

// Request issues a reset token for the address and mails it out. An
// unknown address is NOT an error: the caller must answer the same way in
// both cases so the endpoint cannot be used to enumerate accounts.
func (r *Reset) Request(ctx context.Context, email string) error {
	const op = "reset.Request"

	log := r.log.With(slog.String("op", op))

	email = strings.ToLower(email)

	userID, err := r.users.UserIDByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("reset requested for unknown email")

			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	token, err := random.NewToken()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.tokens.SaveResetToken(ctx, token, userID, r.tokenTTL); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := models.Message{
		Email:   email,
		Link:    fmt.Sprintf("%s/reset/%s", r.baseURL, token),
		Purpose: "password_reset",
	}

	// Fire-and-forget: the token is already stored, a lost mail only
	// means the user retries.
	if err := r.mail.SendMessage(ctx, msg); err != nil {
		log.Error("failed to publish reset mail", sl.Err(err))
	}

	log.Info("reset token issued", slog.Int64("uid", userID))

	return nil
}

// Available reports whether the token still exists, without consuming it.
func (r *Reset) Available(ctx context.Context, token string) (bool, error) {
	const op = "reset.Available"

	ok, err := r.tokens.ResetTokenAvailable(ctx, token)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return ok, nil
}

// Confirm consumes the token and sets the new password. Consumption is a
// single atomic store call, so a token confirms at most once. Sessions are
// revoked before the new hash is written, matching the update-account path.
func (r *Reset) Confirm(ctx context.Context, token, newPassword string) error {
	const op = "reset.Confirm"

	log := r.log.With(slog.String("op", op))

	userID, err := r.tokens.ConsumeResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return ErrInvalidToken
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	if err := r.tokens.RevokeUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.passwords.UpdatePassword(ctx, userID, passHash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password reset completed", slog.Int64("uid", userID))

	return nil
}
