package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/julianvossen/gatherly-backend/api/responses"
	"github.com/julianvossen/gatherly-backend/internal/memberships"
	"github.com/julianvossen/gatherly-backend/pkg/enums"
	pkgerrors "github.com/julianvossen/gatherly-backend/pkg/errors"
	"github.com/julianvossen/gatherly-backend/pkg/logger"
	"github.com/julianvossen/gatherly-backend/pkg/pagination"
)

type myGatheringsResponse struct {
	Items  []memberships.MembershipWithGathering `json:"items"`
	Cursor string                                `json:"cursor"`
}

// MyGatherings lists the caller's memberships joined with gathering details.
func MyGatherings(repo *memberships.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership repository unavailable"))
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := memberships.ListUserGatheringsParams{UserID: userID}

		if limitStr := strings.TrimSpace(r.URL.Query().Get("limit")); limitStr != "" {
			value, err := strconv.Atoi(limitStr)
			if err != nil || value <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			params.Limit = value
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("cursor")); raw != "" {
			cursor, err := pagination.ParseCursor(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
				return
			}
			params.Cursor = cursor
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseMembershipStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			params.Status = &status
		}

		items, next, err := repo.ListUserGatherings(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := myGatheringsResponse{Items: items}
		if next != nil {
			resp.Cursor = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, resp)
	}
}

// GatheringMembers returns the roster for a gathering, organizer only.
func GatheringMembers(repo *memberships.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership repository unavailable"))
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

		isOrganizer, err := repo.IsOrganizer(r.Context(), userID, gatheringID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !isOrganizer {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "only the organizer can view the roster"))
			return
		}

		members, err := repo.ListGatheringMembers(r.Context(), gatheringID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"members": members})
	}
}
