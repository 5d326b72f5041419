package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/julianvossen/gatherly-backend/api/responses"
	"github.com/julianvossen/gatherly-backend/api/validators"
	"github.com/julianvossen/gatherly-backend/internal/users"
	"github.com/julianvossen/gatherly-backend/pkg/db/models"
	pkgerrors "github.com/julianvossen/gatherly-backend/pkg/errors"
	"github.com/julianvossen/gatherly-backend/pkg/logger"
)

type refundAccountStore interface {
	UpdateRefundAccount(ctx context.Context, id uuid.UUID, account *string) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type updateRefundAccountRequest struct {
	// A null account clears the stored destination.
	RefundAccount *string `json:"refund_account" validate:"omitempty,min=4,max=128"`
}

// UpdateRefundAccount stores the account refund notices point members to.
func UpdateRefundAccount(store refundAccountStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "users repository unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateRefundAccountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.UpdateRefundAccount(r.Context(), userID, body.RefundAccount); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update refund account"))
			return
		}

		user, err := store.FindByID(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user"))
			return
		}
		responses.WriteSuccess(w, map[string]*users.UserDTO{"user": users.FromModel(user)})
	}
}
