package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/julianvossen/gatherly-backend/pkg/enums"
)

// Gathering represents a time-boxed group event owned by an organizer.
type Gathering struct {
	ID            uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Title         string                `gorm:"column:title;not null"`
	Description   *string               `gorm:"column:description"`
	GatheringDate time.Time             `gorm:"column:gathering_date;type:timestamptz;not null"`
	MinUsers      int                   `gorm:"column:min_users;not null"`
	MaxUsers      int                   `gorm:"column:max_users;not null"`
	FeeCents      int64                 `gorm:"column:fee_cents;not null;default:0"`
	OrganizerID   uuid.UUID             `gorm:"column:organizer_id;type:uuid;not null"`
	Status        enums.GatheringStatus `gorm:"column:status;type:gathering_status;not null;default:'recruiting'"`
	Latitude      *float64              `gorm:"column:latitude"`
	Longitude     *float64              `gorm:"column:longitude"`
	Address       *string               `gorm:"column:address"`
	PlaceName     *string               `gorm:"column:place_name"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
