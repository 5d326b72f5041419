package memberships

import (
	"time"

	"github.com/google/uuid"

	"github.com/julianvossen/gatherly-backend/pkg/enums"
)

// MembershipWithGathering includes gathering metadata alongside the caller's
// own membership, backing the "my gatherings" listing.
type MembershipWithGathering struct {
	MembershipID  uuid.UUID              `json:"membership_id"`
	GatheringID   uuid.UUID              `json:"gathering_id"`
	UserID        uuid.UUID              `json:"user_id"`
	Title         string                 `json:"title"`
	GatheringDate time.Time              `json:"gathering_date"`
	FeeCents      int64                  `json:"fee_cents"`
	GatheringStatus enums.GatheringStatus `json:"gathering_status"`
	Role          enums.MemberRole       `json:"role"`
	Status        enums.MembershipStatus `json:"status"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// GatheringMemberDTO mixes membership metadata with the member's profile for
// the organizer-facing roster.
type GatheringMemberDTO struct {
	MembershipID uuid.UUID              `json:"membership_id"`
	GatheringID  uuid.UUID              `json:"gathering_id"`
	UserID       uuid.UUID              `json:"user_id"`
	Nickname     string                 `json:"nickname"`
	Role         enums.MemberRole       `json:"role"`
	Status       enums.MembershipStatus `json:"membership_status"`
	CreatedAt    time.Time              `json:"created_at"`
}
