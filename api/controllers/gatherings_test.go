package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/julianvossen/gatherly-backend/api/middleware"
	"github.com/julianvossen/gatherly-backend/internal/gatherings"
	pkgerrors "github.com/julianvossen/gatherly-backend/pkg/errors"
)

type testGatheringsService struct {
	createFn  func(ctx context.Context, input gatherings.CreateGatheringInput) (*gatherings.GatheringDTO, error)
	getFn     func(ctx context.Context, gatheringID uuid.UUID) (*gatherings.GatheringDTO, error)
	joinFn    func(ctx context.Context, gatheringID, userID uuid.UUID) (*gatherings.MembershipDTO, error)
	approveFn func(ctx context.Context, gatheringID, userID, actorID uuid.UUID) (*gatherings.MembershipDTO, error)
	rejectFn  func(ctx context.Context, gatheringID, userID, actorID uuid.UUID) (*gatherings.MembershipDTO, error)
	cancelMFn func(ctx context.Context, gatheringID, userID uuid.UUID) error
	leaveFn   func(ctx context.Context, gatheringID, userID uuid.UUID) error
	updateFn  func(ctx context.Context, gatheringID, actorID uuid.UUID, input gatherings.UpdateGatheringInput) (*gatherings.GatheringDTO, error)
	deleteFn  func(ctx context.Context, gatheringID, actorID uuid.UUID) error
	cancelFn  func(ctx context.Context, gatheringID, actorID uuid.UUID) error
}

func (s *testGatheringsService) Create(ctx context.Context, input gatherings.CreateGatheringInput) (*gatherings.GatheringDTO, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return &gatherings.GatheringDTO{}, nil
}

func (s *testGatheringsService) Get(ctx context.Context, gatheringID uuid.UUID) (*gatherings.GatheringDTO, error) {
	if s.getFn != nil {
		return s.getFn(ctx, gatheringID)
	}
	return &gatherings.GatheringDTO{}, nil
}

func (s *testGatheringsService) Join(ctx context.Context, gatheringID, userID uuid.UUID) (*gatherings.MembershipDTO, error) {
	if s.joinFn != nil {
		return s.joinFn(ctx, gatheringID, userID)
	}
	return &gatherings.MembershipDTO{}, nil
}

func (s *testGatheringsService) Approve(ctx context.Context, gatheringID, userID, actorID uuid.UUID) (*gatherings.MembershipDTO, error) {
	if s.approveFn != nil {
		return s.approveFn(ctx, gatheringID, userID, actorID)
	}
	return &gatherings.MembershipDTO{}, nil
}

func (s *testGatheringsService) Reject(ctx context.Context, gatheringID, userID, actorID uuid.UUID) (*gatherings.MembershipDTO, error) {
	if s.rejectFn != nil {
		return s.rejectFn(ctx, gatheringID, userID, actorID)
	}
	return &gatherings.MembershipDTO{}, nil
}

func (s *testGatheringsService) CancelByMember(ctx context.Context, gatheringID, userID uuid.UUID) error {
	if s.cancelMFn != nil {
		return s.cancelMFn(ctx, gatheringID, userID)
	}
	return nil
}

func (s *testGatheringsService) Leave(ctx context.Context, gatheringID, userID uuid.UUID) error {
	if s.leaveFn != nil {
		return s.leaveFn(ctx, gatheringID, userID)
	}
	return nil
}

func (s *testGatheringsService) Update(ctx context.Context, gatheringID, actorID uuid.UUID, input gatherings.UpdateGatheringInput) (*gatherings.GatheringDTO, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, gatheringID, actorID, input)
	}
	return &gatherings.GatheringDTO{}, nil
}

func (s *testGatheringsService) Delete(ctx context.Context, gatheringID, actorID uuid.UUID) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, gatheringID, actorID)
	}
	return nil
}

func (s *testGatheringsService) Cancel(ctx context.Context, gatheringID, actorID uuid.UUID) error {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, gatheringID, actorID)
	}
	return nil
}

func (s *testGatheringsService) ExpireDue(ctx context.Context, asOf time.Time) (int, error) {
	return 0, nil
}

func authedRequest(method, target string, body string, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}

func addRouteParams(req *http.Request, params map[string]string) *http.Request {
	routeCtx := chi.NewRouteContext()
	for key, value := range params {
		routeCtx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestGatheringCreateSuccess(t *testing.T) {
	organizerID := uuid.New()
	var got gatherings.CreateGatheringInput
	svc := &testGatheringsService{
		createFn: func(ctx context.Context, input gatherings.CreateGatheringInput) (*gatherings.GatheringDTO, error) {
			got = input
			return &gatherings.GatheringDTO{ID: uuid.New(), Title: input.Title}, nil
		},
	}

	body := `{"title":"Friday ramen","gathering_date":"2026-10-02T19:00:00Z","min_users":2,"max_users":4,"fee_cents":1200}`
	req := authedRequest(http.MethodPost, "/api/v1/gatherings", body, organizerID)
	resp := httptest.NewRecorder()
	GatheringCreate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if got.OrganizerID != organizerID {
		t.Fatalf("unexpected organizer %s", got.OrganizerID)
	}
	if got.Title != "Friday ramen" || got.MaxUsers != 4 || got.FeeCents != 1200 {
		t.Fatalf("unexpected input %+v", got)
	}
}

func TestGatheringCreateRejectsInvalidBody(t *testing.T) {
	cases := map[string]string{
		"missing title":  `{"gathering_date":"2026-10-02T19:00:00Z","min_users":2,"max_users":4}`,
		"min below two":  `{"title":"x","gathering_date":"2026-10-02T19:00:00Z","min_users":1,"max_users":4}`,
		"max below min":  `{"title":"x","gathering_date":"2026-10-02T19:00:00Z","min_users":3,"max_users":2}`,
		"unknown field":  `{"title":"x","gathering_date":"2026-10-02T19:00:00Z","min_users":2,"max_users":4,"bogus":true}`,
		"negative fee":   `{"title":"x","gathering_date":"2026-10-02T19:00:00Z","min_users":2,"max_users":4,"fee_cents":-5}`,
		"malformed json": `{"title":`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := authedRequest(http.MethodPost, "/api/v1/gatherings", body, uuid.New())
			resp := httptest.NewRecorder()
			GatheringCreate(&testGatheringsService{}, testLogger())(resp, req)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
			}
		})
	}
}

func TestGatheringCreateRequiresUser(t *testing.T) {
	body := `{"title":"x","gathering_date":"2026-10-02T19:00:00Z","min_users":2,"max_users":4}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/gatherings", strings.NewReader(body))
	resp := httptest.NewRecorder()
	GatheringCreate(&testGatheringsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestGatheringJoinSuccess(t *testing.T) {
	userID := uuid.New()
	gatheringID := uuid.New()
	svc := &testGatheringsService{
		joinFn: func(ctx context.Context, gid, uid uuid.UUID) (*gatherings.MembershipDTO, error) {
			if gid != gatheringID || uid != userID {
				t.Fatalf("unexpected ids %s %s", gid, uid)
			}
			return &gatherings.MembershipDTO{ID: uuid.New()}, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/gatherings/"+gatheringID.String()+"/join", "", userID)
	req = addRouteParam(req, "gatheringID", gatheringID.String())
	resp := httptest.NewRecorder()
	GatheringJoin(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
}

func TestMembershipApprovePassesActor(t *testing.T) {
	organizerID := uuid.New()
	gatheringID := uuid.New()
	memberID := uuid.New()
	svc := &testGatheringsService{
		approveFn: func(ctx context.Context, gid, uid, actor uuid.UUID) (*gatherings.MembershipDTO, error) {
			if gid != gatheringID || uid != memberID || actor != organizerID {
				t.Fatalf("unexpected ids %s %s %s", gid, uid, actor)
			}
			return &gatherings.MembershipDTO{ID: uuid.New()}, nil
		},
	}

	req := authedRequest(http.MethodPost, "/x", "", organizerID)
	req = addRouteParams(req, map[string]string{
		"gatheringID": gatheringID.String(),
		"userID":      memberID.String(),
	})
	resp := httptest.NewRecorder()
	MembershipApprove(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
}

func TestMembershipRejectPropagatesServiceError(t *testing.T) {
	svc := &testGatheringsService{
		rejectFn: func(ctx context.Context, gid, uid, actor uuid.UUID) (*gatherings.MembershipDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the organizer can decide join requests")
		},
	}

	req := authedRequest(http.MethodPost, "/x", "", uuid.New())
	req = addRouteParams(req, map[string]string{
		"gatheringID": uuid.NewString(),
		"userID":      uuid.NewString(),
	})
	resp := httptest.NewRecorder()
	MembershipReject(svc, testLogger())(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestGatheringLeave(t *testing.T) {
	userID := uuid.New()
	gatheringID := uuid.New()
	called := false
	svc := &testGatheringsService{
		leaveFn: func(ctx context.Context, gid, uid uuid.UUID) error {
			called = true
			if gid != gatheringID || uid != userID {
				t.Fatalf("unexpected ids %s %s", gid, uid)
			}
			return nil
		},
	}

	req := authedRequest(http.MethodPost, "/x", "", userID)
	req = addRouteParam(req, "gatheringID", gatheringID.String())
	resp := httptest.NewRecorder()
	GatheringLeave(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !called {
		t.Fatal("expected service called")
	}
}

func TestGatheringCancelDelegates(t *testing.T) {
	actorID := uuid.New()
	gatheringID := uuid.New()
	svc := &testGatheringsService{
		cancelFn: func(ctx context.Context, gid, actor uuid.UUID) error {
			if gid != gatheringID || actor != actorID {
				t.Fatalf("unexpected ids %s %s", gid, actor)
			}
			return nil
		},
	}

	req := authedRequest(http.MethodPost, "/x", "", actorID)
	req = addRouteParam(req, "gatheringID", gatheringID.String())
	resp := httptest.NewRecorder()
	GatheringCancel(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["status"] != "canceled" {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestGatheringUpdateInvalidGatheringID(t *testing.T) {
	req := authedRequest(http.MethodPatch, "/x", `{"title":"new"}`, uuid.New())
	req = addRouteParam(req, "gatheringID", "not-a-uuid")
	resp := httptest.NewRecorder()
	GatheringUpdate(&testGatheringsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
