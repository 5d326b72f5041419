package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/julianvossen/gatherly-backend/internal/users"
	"github.com/julianvossen/gatherly-backend/pkg/db/models"
)

type testUserStore struct {
	updateFn func(ctx context.Context, id uuid.UUID, account *string) error
	findFn   func(ctx context.Context, id uuid.UUID) (*models.User, error)
}

func (s *testUserStore) UpdateRefundAccount(ctx context.Context, id uuid.UUID, account *string) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, id, account)
	}
	return nil
}

func (s *testUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.findFn != nil {
		return s.findFn(ctx, id)
	}
	return &models.User{ID: id}, nil
}

func TestUpdateRefundAccountStoresValue(t *testing.T) {
	userID := uuid.New()
	var gotID uuid.UUID
	var gotAccount *string
	store := &testUserStore{
		updateFn: func(_ context.Context, id uuid.UUID, account *string) error {
			gotID = id
			gotAccount = account
			return nil
		},
		findFn: func(_ context.Context, id uuid.UUID) (*models.User, error) {
			account := "NL91ABNA0417164300"
			return &models.User{ID: id, Nickname: "ana", RefundAccount: &account}, nil
		},
	}

	req := authedRequest(http.MethodPatch, "/api/v1/me/refund-account", `{"refund_account":"NL91ABNA0417164300"}`, userID)
	resp := httptest.NewRecorder()
	UpdateRefundAccount(store, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotID != userID {
		t.Fatalf("expected update for %s, got %s", userID, gotID)
	}
	if gotAccount == nil || *gotAccount != "NL91ABNA0417164300" {
		t.Fatalf("unexpected account %v", gotAccount)
	}

	var envelope struct {
		Data map[string]*users.UserDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	user := envelope.Data["user"]
	if user == nil || user.RefundAccount == nil || *user.RefundAccount != "NL91ABNA0417164300" {
		t.Fatalf("expected refund account echoed, got %+v", user)
	}
}

func TestUpdateRefundAccountClearsOnNull(t *testing.T) {
	cleared := false
	store := &testUserStore{
		updateFn: func(_ context.Context, _ uuid.UUID, account *string) error {
			cleared = account == nil
			return nil
		},
	}

	req := authedRequest(http.MethodPatch, "/api/v1/me/refund-account", `{"refund_account":null}`, uuid.New())
	resp := httptest.NewRecorder()
	UpdateRefundAccount(store, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !cleared {
		t.Fatal("expected account cleared")
	}
}

func TestUpdateRefundAccountRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"too short":     `{"refund_account":"ab"}`,
		"unknown field": `{"refund_account":"NL91ABNA0417164300","bogus":true}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := authedRequest(http.MethodPatch, "/api/v1/me/refund-account", body, uuid.New())
			resp := httptest.NewRecorder()
			UpdateRefundAccount(&testUserStore{}, testLogger())(resp, req)

			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.Code)
			}
		})
	}
}

func TestUpdateRefundAccountRequiresUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/me/refund-account", nil)
	resp := httptest.NewRecorder()
	UpdateRefundAccount(&testUserStore{}, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}
