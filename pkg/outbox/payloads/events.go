package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/julianvossen/gatherly-backend/pkg/enums"
)

// GatheringCreatedEvent signals a new gathering opened for recruitment.
type GatheringCreatedEvent struct {
	GatheringID   uuid.UUID `json:"gathering_id"`
	OrganizerID   uuid.UUID `json:"organizer_id"`
	Title         string    `json:"title"`
	GatheringDate time.Time `json:"gathering_date"`
	MinUsers      int       `json:"min_users"`
	MaxUsers      int       `json:"max_users"`
	FeeCents      int64     `json:"fee_cents"`
}

// GatheringUpdatedEvent is emitted when an organizer edits a gathering.
type GatheringUpdatedEvent struct {
	GatheringID uuid.UUID `json:"gathering_id"`
	OrganizerID uuid.UUID `json:"organizer_id"`
}

// GatheringCanceledEvent carries the refund fan-out inputs for a canceled
// gathering. ApprovedUserIDs lists everyone owed a refund notice.
type GatheringCanceledEvent struct {
	GatheringID     uuid.UUID   `json:"gathering_id"`
	OrganizerID     uuid.UUID   `json:"organizer_id"`
	Title           string      `json:"title"`
	FeeCents        int64       `json:"fee_cents"`
	ApprovedUserIDs []uuid.UUID `json:"approved_user_ids"`
	CanceledAt      time.Time   `json:"canceled_at"`
}

// GatheringDeletedEvent is emitted when an organizer removes a gathering
// that never recruited anyone.
type GatheringDeletedEvent struct {
	GatheringID uuid.UUID `json:"gathering_id"`
	OrganizerID uuid.UUID `json:"organizer_id"`
}

// GatheringExpiredEvent describes the payload when the sweeper closes a
// gathering whose date has passed.
type GatheringExpiredEvent struct {
	GatheringID     uuid.UUID   `json:"gathering_id"`
	OrganizerID     uuid.UUID   `json:"organizer_id"`
	Title           string      `json:"title"`
	FeeCents        int64       `json:"fee_cents"`
	ApprovedUserIDs []uuid.UUID `json:"approved_user_ids"`
	GatheringDate   time.Time   `json:"gathering_date"`
	ExpiredAt       time.Time   `json:"expired_at"`
	BelowMinimum    bool        `json:"below_minimum"`
}

// MembershipRequestedEvent tells downstream systems a user asked to join.
type MembershipRequestedEvent struct {
	MembershipID uuid.UUID `json:"membership_id"`
	GatheringID  uuid.UUID `json:"gathering_id"`
	UserID       uuid.UUID `json:"user_id"`
	OrganizerID  uuid.UUID `json:"organizer_id"`
}

// MembershipDecisionEvent is emitted when an organizer decides a request.
type MembershipDecisionEvent struct {
	MembershipID uuid.UUID              `json:"membership_id"`
	GatheringID  uuid.UUID              `json:"gathering_id"`
	UserID       uuid.UUID              `json:"user_id"`
	OrganizerID  uuid.UUID              `json:"organizer_id"`
	Status       enums.MembershipStatus `json:"status"`
}

// MembershipCanceledEvent is emitted when a participant withdraws or leaves.
// WasApproved distinguishes a leave (refund owed) from a canceled request.
// Nickname and RefundAccount are resolved at emit time so the refund notice
// can be rendered without another user lookup downstream.
type MembershipCanceledEvent struct {
	MembershipID  uuid.UUID `json:"membership_id"`
	GatheringID   uuid.UUID `json:"gathering_id"`
	UserID        uuid.UUID `json:"user_id"`
	Nickname      string    `json:"nickname"`
	RefundAccount *string   `json:"refund_account"`
	Title         string    `json:"title"`
	FeeCents      int64     `json:"fee_cents"`
	WasApproved   bool      `json:"was_approved"`
	CanceledAt    time.Time `json:"canceled_at"`
}
