package gatherings

import (
	"time"

	"github.com/google/uuid"

	"github.com/julianvossen/gatherly-backend/pkg/db/models"
	"github.com/julianvossen/gatherly-backend/pkg/enums"
)

// CreateGatheringInput carries the organizer-provided fields for a new gathering.
type CreateGatheringInput struct {
	Title         string
	Description   *string
	GatheringDate time.Time
	MinUsers      int
	MaxUsers      int
	FeeCents      int64
	OrganizerID   uuid.UUID
	Latitude      *float64
	Longitude     *float64
	Address       *string
	PlaceName     *string
}

// UpdateGatheringInput holds the editable fields. Nil pointers leave the
// current value untouched.
type UpdateGatheringInput struct {
	Title         *string
	Description   *string
	GatheringDate *time.Time
	MinUsers      *int
	MaxUsers      *int
	FeeCents      *int64
	Latitude      *float64
	Longitude     *float64
	Address       *string
	PlaceName     *string
}

// GatheringDTO is the transport shape returned to controllers.
type GatheringDTO struct {
	ID            uuid.UUID             `json:"id"`
	Title         string                `json:"title"`
	Description   *string               `json:"description,omitempty"`
	GatheringDate time.Time             `json:"gathering_date"`
	MinUsers      int                   `json:"min_users"`
	MaxUsers      int                   `json:"max_users"`
	FeeCents      int64                 `json:"fee_cents"`
	OrganizerID   uuid.UUID             `json:"organizer_id"`
	Status        enums.GatheringStatus `json:"status"`
	ApprovedCount int                   `json:"approved_count"`
	Latitude      *float64              `json:"latitude,omitempty"`
	Longitude     *float64              `json:"longitude,omitempty"`
	Address       *string               `json:"address,omitempty"`
	PlaceName     *string               `json:"place_name,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// MembershipDTO is the transport shape for a single membership row.
type MembershipDTO struct {
	ID          uuid.UUID              `json:"id"`
	GatheringID uuid.UUID              `json:"gathering_id"`
	UserID      uuid.UUID              `json:"user_id"`
	Role        enums.MemberRole       `json:"role"`
	Status      enums.MembershipStatus `json:"status"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

func FromGatheringModel(g *models.Gathering, approvedCount int) *GatheringDTO {
	if g == nil {
		return nil
	}
	return &GatheringDTO{
		ID:            g.ID,
		Title:         g.Title,
		Description:   g.Description,
		GatheringDate: g.GatheringDate,
		MinUsers:      g.MinUsers,
		MaxUsers:      g.MaxUsers,
		FeeCents:      g.FeeCents,
		OrganizerID:   g.OrganizerID,
		Status:        g.Status,
		ApprovedCount: approvedCount,
		Latitude:      g.Latitude,
		Longitude:     g.Longitude,
		Address:       g.Address,
		PlaceName:     g.PlaceName,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}

func FromMembershipModel(m *models.Membership) *MembershipDTO {
	if m == nil {
		return nil
	}
	return &MembershipDTO{
		ID:          m.ID,
		GatheringID: m.GatheringID,
		UserID:      m.UserID,
		Role:        m.Role,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
