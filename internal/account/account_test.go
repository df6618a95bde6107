package account

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"account_service/internal/models"
	"account_service/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

type fakeProvider struct {
	userFn  func(ctx context.Context, id int64) (models.User, error)
	teamsFn func(ctx context.Context, userID int64) ([]models.Team, error)
}

func (f fakeProvider) UserByID(ctx context.Context, id int64) (models.User, error) {
	if f.userFn == nil {
		return models.User{}, storage.ErrUserNotFound
	}
	return f.userFn(ctx, id)
}

func (f fakeProvider) TeamsByUserID(ctx context.Context, userID int64) ([]models.Team, error) {
	if f.teamsFn == nil {
		return []models.Team{}, nil
	}
	return f.teamsFn(ctx, userID)
}

type fakeMutator struct {
	calls       *[]string
	emailFn     func(ctx context.Context, userID int64, email string) error
	passwordFn  func(ctx context.Context, userID int64, passHash []byte) error
	deleteErr   error
	lastEmail   string
	lastHash    []byte
	deletedUser int64
}

func (f *fakeMutator) UpdateEmail(ctx context.Context, userID int64, email string) error {
	*f.calls = append(*f.calls, "update_email")
	f.lastEmail = email
	if f.emailFn != nil {
		return f.emailFn(ctx, userID, email)
	}
	return nil
}

func (f *fakeMutator) UpdatePassword(ctx context.Context, userID int64, passHash []byte) error {
	*f.calls = append(*f.calls, "update_password")
	f.lastHash = passHash
	if f.passwordFn != nil {
		return f.passwordFn(ctx, userID, passHash)
	}
	return nil
}

func (f *fakeMutator) DeleteUser(ctx context.Context, userID int64) error {
	*f.calls = append(*f.calls, "delete_user")
	f.deletedUser = userID
	return f.deleteErr
}

type fakeRevoker struct {
	calls *[]string
	err   error
}

func (f *fakeRevoker) RevokeUserSessions(ctx context.Context, userID int64) error {
	*f.calls = append(*f.calls, "revoke_sessions")
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func userWithPassword(t *testing.T, id int64, password string) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	return models.User{
		ID:        id,
		Email:     "user@example.com",
		PassHash:  hash,
		CreatedAt: time.Now().UTC(),
	}
}

func TestProfileMergesTeams(t *testing.T) {
	user := userWithPassword(t, 1, "irrelevant")
	teams := []models.Team{
		{ID: 10, Name: "alpha", IsOwner: true},
		{ID: 11, Name: "beta", IsOwner: false},
	}

	var calls []string
	svc := New(discardLogger(),
		fakeProvider{
			userFn:  func(context.Context, int64) (models.User, error) { return user, nil },
			teamsFn: func(context.Context, int64) ([]models.Team, error) { return teams, nil },
		},
		&fakeMutator{calls: &calls},
		&fakeRevoker{calls: &calls},
	)

	profile, err := svc.Profile(context.Background(), 1)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}

	if profile.Email != user.Email || profile.ID != user.ID {
		t.Fatalf("profile does not match user row: %+v", profile)
	}
	if len(profile.Teams) != 2 || !profile.Teams[0].IsOwner || profile.Teams[1].IsOwner {
		t.Fatalf("unexpected teams: %+v", profile.Teams)
	}
}

func TestProfileMissingUser(t *testing.T) {
	var calls []string
	svc := New(discardLogger(), fakeProvider{}, &fakeMutator{calls: &calls}, &fakeRevoker{calls: &calls})

	if _, err := svc.Profile(context.Background(), 99); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateWrongCurrentPassword(t *testing.T) {
	user := userWithPassword(t, 1, "correct horse")

	var calls []string
	svc := New(discardLogger(),
		fakeProvider{userFn: func(context.Context, int64) (models.User, error) { return user, nil }},
		&fakeMutator{calls: &calls},
		&fakeRevoker{calls: &calls},
	)

	err := svc.Update(context.Background(), 1, "battery staple", "", "newpassword1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("nothing may be mutated on a credential failure, got %v", calls)
	}
}

func TestUpdateMissingUser(t *testing.T) {
	var calls []string
	svc := New(discardLogger(), fakeProvider{}, &fakeMutator{calls: &calls}, &fakeRevoker{calls: &calls})

	if err := svc.Update(context.Background(), 1, "whatever", "", ""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdatePasswordRevokesSessionsFirst(t *testing.T) {
	user := userWithPassword(t, 1, "old password")

	var calls []string
	mutator := &fakeMutator{calls: &calls}
	svc := New(discardLogger(),
		fakeProvider{userFn: func(context.Context, int64) (models.User, error) { return user, nil }},
		mutator,
		&fakeRevoker{calls: &calls},
	)

	if err := svc.Update(context.Background(), 1, "old password", "", "new password"); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(calls) != 2 || calls[0] != "revoke_sessions" || calls[1] != "update_password" {
		t.Fatalf("sessions must be revoked before the hash is written, got %v", calls)
	}

	if bcrypt.CompareHashAndPassword(mutator.lastHash, []byte("new password")) != nil {
		t.Fatal("stored hash does not match the new password")
	}
}

func TestUpdateEmailIsLowercased(t *testing.T) {
	user := userWithPassword(t, 1, "old password")

	var calls []string
	mutator := &fakeMutator{calls: &calls}
	svc := New(discardLogger(),
		fakeProvider{userFn: func(context.Context, int64) (models.User, error) { return user, nil }},
		mutator,
		&fakeRevoker{calls: &calls},
	)

	if err := svc.Update(context.Background(), 1, "old password", "New@Example.COM", ""); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if mutator.lastEmail != "new@example.com" {
		t.Fatalf("email not normalized: %q", mutator.lastEmail)
	}
	if len(calls) != 1 || calls[0] != "update_email" {
		t.Fatalf("an email-only update must not touch sessions or password, got %v", calls)
	}
}

func TestUpdateEmailAndPasswordTogether(t *testing.T) {
	user := userWithPassword(t, 1, "old password")

	var calls []string
	svc := New(discardLogger(),
		fakeProvider{userFn: func(context.Context, int64) (models.User, error) { return user, nil }},
		&fakeMutator{calls: &calls},
		&fakeRevoker{calls: &calls},
	)

	if err := svc.Update(context.Background(), 1, "old password", "next@example.com", "new password"); err != nil {
		t.Fatalf("Update: %v", err)
	}

	want := []string{"revoke_sessions", "update_password", "update_email"}
	if len(calls) != len(want) {
		t.Fatalf("unexpected calls: %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("unexpected call order: %v", calls)
		}
	}
}

func TestUpdateEmailTaken(t *testing.T) {
	user := userWithPassword(t, 1, "old password")

	var calls []string
	svc := New(discardLogger(),
		fakeProvider{userFn: func(context.Context, int64) (models.User, error) { return user, nil }},
		&fakeMutator{
			calls:   &calls,
			emailFn: func(context.Context, int64, string) error { return storage.ErrEmailTaken },
		},
		&fakeRevoker{calls: &calls},
	)

	err := svc.Update(context.Background(), 1, "old password", "taken@example.com", "")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestDeleteRemovesUserAndSessions(t *testing.T) {
	var calls []string
	mutator := &fakeMutator{calls: &calls}
	svc := New(discardLogger(), fakeProvider{}, mutator, &fakeRevoker{calls: &calls})

	if err := svc.Delete(context.Background(), 5); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if mutator.deletedUser != 5 {
		t.Fatalf("wrong user deleted: %d", mutator.deletedUser)
	}
	if len(calls) != 2 || calls[0] != "delete_user" || calls[1] != "revoke_sessions" {
		t.Fatalf("unexpected calls: %v", calls)
	}
}
