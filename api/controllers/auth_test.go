package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/julianvossen/gatherly-backend/internal/auth"
	"github.com/julianvossen/gatherly-backend/internal/users"
	pkgerrors "github.com/julianvossen/gatherly-backend/pkg/errors"
)

type testAuthService struct {
	loginFn func(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error)
}

func (s *testAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, req)
	}
	return &auth.LoginResponse{}, nil
}

type testRegisterService struct {
	registerFn func(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error)
}

func (s *testRegisterService) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	if s.registerFn != nil {
		return s.registerFn(ctx, req)
	}
	return &users.UserDTO{}, nil
}

func TestAuthLoginSetsTokenHeader(t *testing.T) {
	svc := &testAuthService{
		loginFn: func(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
			if req.Email != "ana@example.com" {
				t.Fatalf("unexpected email %s", req.Email)
			}
			return &auth.LoginResponse{
				AccessToken: "signed-token",
				User:        &users.UserDTO{ID: uuid.New(), Email: req.Email},
			}, nil
		},
	}

	body := `{"email":"ana@example.com","password":"hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AuthLogin(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("X-Gatherly-Token"); got != "signed-token" {
		t.Fatalf("unexpected token header %q", got)
	}
}

func TestAuthLoginRejectsBadBody(t *testing.T) {
	cases := map[string]string{
		"missing email":    `{"password":"hunter22"}`,
		"malformed email":  `{"email":"nope","password":"hunter22"}`,
		"missing password": `{"email":"ana@example.com"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
			resp := httptest.NewRecorder()
			AuthLogin(&testAuthService{}, testLogger())(resp, req)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", resp.Code)
			}
		})
	}
}

func TestAuthLoginSurfacesUnauthorized(t *testing.T) {
	svc := &testAuthService{
		loginFn: func(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		},
	}

	body := `{"email":"ana@example.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AuthLogin(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRegisterCreatesAndLogsIn(t *testing.T) {
	registered := false
	reg := &testRegisterService{
		registerFn: func(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
			registered = true
			if req.Nickname != "ana" {
				t.Fatalf("unexpected nickname %s", req.Nickname)
			}
			return &users.UserDTO{ID: uuid.New(), Email: req.Email, Nickname: req.Nickname}, nil
		},
	}
	svc := &testAuthService{
		loginFn: func(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
			return &auth.LoginResponse{
				AccessToken: "fresh-token",
				User:        &users.UserDTO{Email: req.Email, Nickname: "ana"},
			}, nil
		},
	}

	body := `{"email":"ana@example.com","password":"hunter22","nickname":"ana"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AuthRegister(reg, svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if !registered {
		t.Fatal("expected register called")
	}
	if got := resp.Header().Get("X-Gatherly-Token"); got != "fresh-token" {
		t.Fatalf("unexpected token header %q", got)
	}
	var envelope struct {
		Data map[string]*users.UserDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["user"] == nil || envelope.Data["user"].Nickname != "ana" {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestAuthRegisterRejectsShortPassword(t *testing.T) {
	body := `{"email":"ana@example.com","password":"short","nickname":"ana"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	resp := httptest.NewRecorder()
	AuthRegister(&testRegisterService{}, &testAuthService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
