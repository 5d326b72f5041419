package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/julianvossen/gatherly-backend/pkg/enums"
)

// Membership links a user with a gathering and captures their role/status.
// The (gathering_id, user_id) pair is unique, which closes the duplicate
// join race at the database.
type Membership struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GatheringID uuid.UUID              `gorm:"column:gathering_id;type:uuid;not null;uniqueIndex:ux_memberships_gathering_user"`
	UserID      uuid.UUID              `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_memberships_gathering_user"`
	Role        enums.MemberRole       `gorm:"column:role;type:member_role;not null"`
	Status      enums.MembershipStatus `gorm:"column:status;type:membership_status;not null"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
