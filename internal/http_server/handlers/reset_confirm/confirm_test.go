package resetConfirm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"account_service/internal/reset"

	"github.com/go-chi/chi"
	"github.com/go-playground/validator/v10"
)

type fakeConfirmer struct {
	fn func(ctx context.Context, token, newPassword string) error
}

func (f fakeConfirmer) Confirm(ctx context.Context, token, newPassword string) error {
	if f.fn == nil {
		return nil
	}
	return f.fn(ctx, token, newPassword)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func doConfirm(t *testing.T, confirmer fakeConfirmer, token string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	r := chi.NewRouter()
	r.Post("/reset/{token}", New(discardLogger(), validator.New(), confirmer))

	req := httptest.NewRequest(http.MethodPost, "/reset/"+token, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func TestConfirmSuccess(t *testing.T) {
	var gotToken, gotPassword string
	confirmer := fakeConfirmer{fn: func(_ context.Context, token, newPassword string) error {
		gotToken, gotPassword = token, newPassword
		return nil
	}}

	rec := doConfirm(t, confirmer, "tok123", map[string]any{"password": "new password"})

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotToken != "tok123" || gotPassword != "new password" {
		t.Fatalf("service called with token=%q password=%q", gotToken, gotPassword)
	}
}

func TestConfirmInvalidToken(t *testing.T) {
	confirmer := fakeConfirmer{fn: func(context.Context, string, string) error {
		return reset.ErrInvalidToken
	}}

	rec := doConfirm(t, confirmer, "consumed", map[string]any{"password": "new password"})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestConfirmMissingPassword(t *testing.T) {
	called := false
	confirmer := fakeConfirmer{fn: func(context.Context, string, string) error {
		called = true
		return nil
	}}

	rec := doConfirm(t, confirmer, "tok123", map[string]any{})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if called {
		t.Fatal("service must not be called without a password")
	}
}

func TestConfirmShortPassword(t *testing.T) {
	rec := doConfirm(t, fakeConfirmer{}, "tok123", map[string]any{"password": "short"})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
