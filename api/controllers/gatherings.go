package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/julianvossen/gatherly-backend/api/middleware"
	"github.com/julianvossen/gatherly-backend/api/responses"
	"github.com/julianvossen/gatherly-backend/api/validators"
	"github.com/julianvossen/gatherly-backend/internal/gatherings"
	pkgerrors "github.com/julianvossen/gatherly-backend/pkg/errors"
	"github.com/julianvossen/gatherly-backend/pkg/logger"
)

func authedUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return id, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name).WithDetails(map[string]any{"field": name})
	}
	return id, nil
}

type createGatheringRequest struct {
	Title         string    `json:"title" validate:"required,min=1,max=200"`
	Description   *string   `json:"description,omitempty"`
	GatheringDate time.Time `json:"gathering_date" validate:"required"`
	MinUsers      int       `json:"min_users" validate:"required,min=2"`
	MaxUsers      int       `json:"max_users" validate:"required,gtefield=MinUsers"`
	FeeCents      int64     `json:"fee_cents" validate:"gte=0"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	Address       *string   `json:"address,omitempty"`
	PlaceName     *string   `json:"place_name,omitempty"`
}

func (req createGatheringRequest) toInput(organizerID uuid.UUID) gatherings.CreateGatheringInput {
	return gatherings.CreateGatheringInput{
		Title:         req.Title,
		Description:   req.Description,
		GatheringDate: req.GatheringDate,
		MinUsers:      req.MinUsers,
		MaxUsers:      req.MaxUsers,
		FeeCents:      req.FeeCents,
		OrganizerID:   organizerID,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Address:       req.Address,
		PlaceName:     req.PlaceName,
	}
}

type updateGatheringRequest struct {
	Title         *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description   *string    `json:"description,omitempty"`
	GatheringDate *time.Time `json:"gathering_date,omitempty"`
	MinUsers      *int       `json:"min_users,omitempty" validate:"omitempty,min=2"`
	MaxUsers      *int       `json:"max_users,omitempty" validate:"omitempty,min=2"`
	FeeCents      *int64     `json:"fee_cents,omitempty" validate:"omitempty,gte=0"`
	Latitude      *float64   `json:"latitude,omitempty"`
	Longitude     *float64   `json:"longitude,omitempty"`
	Address       *string    `json:"address,omitempty"`
	PlaceName     *string    `json:"place_name,omitempty"`
}

func (req updateGatheringRequest) toInput() gatherings.UpdateGatheringInput {
	return gatherings.UpdateGatheringInput{
		Title:         req.Title,
		Description:   req.Description,
		GatheringDate: req.GatheringDate,
		MinUsers:      req.MinUsers,
		MaxUsers:      req.MaxUsers,
		FeeCents:      req.FeeCents,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Address:       req.Address,
		PlaceName:     req.PlaceName,
	}
}

// GatheringCreate opens a new gathering with the caller as organizer.
func GatheringCreate(svc gatherings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gathering service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createGatheringRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), body.toInput(userID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// GatheringGet returns one gathering with its membership counts.
func GatheringGet(svc gatherings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gathering service unavailable"))
			return
		}

		gatheringID, err := pathUUID(r, "gatheringID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), gatheringID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// GatheringUpdate edits mutable fields, organizer only.
func GatheringUpdate(svc gatherings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gathering service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		gatheringID, err := pathUUID(r, "gatheringID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateGatheringRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), gatheringID, userID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// GatheringDelete removes a gathering, organizer only.
func GatheringDelete(svc gatherings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gathering service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		gatheringID, err := pathUUID(r, "gatheringID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), gatheringID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// GatheringCancel closes a recruiting gathering, organizer only.
func GatheringCancel(svc gatherings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gathering service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		gatheringID, err := pathUUID(r, "gatheringID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), gatheringID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "canceled"})
	}
}

// GatheringJoin files a pending join request for the caller.
func GatheringJoin(svc gatherings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gathering service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		gatheringID, err := pathUUID(r, "gatheringID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Join(r.Context(), gatheringID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// MembershipApprove grants a pending join request, organizer only.
func MembershipApprove(svc gatherings.Service, logg *logger.Logger) http.HandlerFunc {
	return membershipDecision(svc, logg, decisionApprove)
}

// MembershipReject declines a pending join request, organizer only.
func MembershipReject(svc gatherings.Service, logg *logger.Logger) http.HandlerFunc {
	return membershipDecision(svc, logg, decisionReject)
}

type decisionKind int

const (
	decisionApprove decisionKind = iota
	decisionReject
)

func membershipDecision(svc gatherings.Service, logg *logger.Logger, kind decisionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gathering service unavailable"))
			return
		}

		actorID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		gatheringID, err := pathUUID(r, "gatheringID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := pathUUID(r, "userID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var dto any
		switch kind {
		case decisionApprove:
			dto, err = svc.Approve(r.Context(), gatheringID, userID, actorID)
		default:
			dto, err = svc.Reject(r.Context(), gatheringID, userID, actorID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// MembershipCancel withdraws the caller's own pending join request.
func MembershipCancel(svc gatherings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gathering service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		gatheringID, err := pathUUID(r, "gatheringID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.CancelByMember(r.Context(), gatheringID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "canceled"})
	}
}

// GatheringLeave drops an approved member out of the gathering.
func GatheringLeave(svc gatherings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gathering service unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		gatheringID, err := pathUUID(r, "gatheringID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Leave(r.Context(), gatheringID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "left"})
	}
}
