package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"account_service/internal/models"
	"account_service/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already taken")
)

type Account struct {
	log         *slog.Logger
	usrProvider UserProvider
	usrMutator  UserMutator
	sessions    SessionRevoker
}

type UserProvider interface {
	UserByID(ctx context.Context, id int64) (models.User, error)
	TeamsByUserID(ctx context.Context, userID int64) ([]models.Team, error)
}

type UserMutator interface {
	UpdateEmail(ctx context.Context, userID int64, email string) error
	UpdatePassword(ctx context.Context, userID int64, passHash []byte) error
	DeleteUser(ctx context.Context, userID int64) error
}

type SessionRevoker interface {
	RevokeUserSessions(ctx context.Context, userID int64) error
}

func New(
	log *slog.Logger,
	usrProvider UserProvider,
	usrMutator UserMutator,
	sessions SessionRevoker,
) *Account {
	return &Account{
		log:         log,
		usrProvider: usrProvider,
		usrMutator:  usrMutator,
		sessions:    sessions,
	}
}

// Profile returns the user row merged with the user's team memberships.
func (a *Account) Profile(ctx context.Context, userID int64) (models.Profile, error) {
	const op = "account.Profile"

	user, err := a.usrProvider.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.Profile{}, ErrUserNotFound
		}

		return models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	teams, err := a.usrProvider.TeamsByUserID(ctx, userID)
	if err != nil {
		return models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.Profile{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		Teams:     teams,
	}, nil
}

// Update changes the user's email and/or password after checking the
// current password. When the password changes, every live session of the
// user is revoked before the new hash is written; a token issued between
// hash write and revocation would otherwise survive the change.
func (a *Account) Update(ctx context.Context, userID int64, currentPassword string, newEmail, newPassword string) error {
	const op = "account.Update"

	log := a.log.With(slog.String("op", op), slog.Int64("uid", userID))

	user, err := a.usrProvider.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ErrUserNotFound
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(currentPassword)); err != nil {
		log.Warn("current password mismatch")

		return ErrInvalidCredentials
	}

	if newPassword != "" {
		passHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("%s: failed to hash password: %w", op, err)
		}

		if err := a.sessions.RevokeUserSessions(ctx, userID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := a.usrMutator.UpdatePassword(ctx, userID, passHash); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		log.Info("password updated, sessions revoked")
	}

	if newEmail != "" {
		if err := a.usrMutator.UpdateEmail(ctx, userID, strings.ToLower(newEmail)); err != nil {
			if errors.Is(err, storage.ErrEmailTaken) {
				return ErrEmailTaken
			}

			return fmt.Errorf("%s: %w", op, err)
		}

		log.Info("email updated")
	}

	return nil
}

// Delete removes the account and revokes every session of the user, the
// one carried by the current request included.
func (a *Account) Delete(ctx context.Context, userID int64) error {
	const op = "account.Delete"

	if err := a.usrMutator.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.sessions.RevokeUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("account deleted", slog.String("op", op), slog.Int64("uid", userID))

	return nil
}
