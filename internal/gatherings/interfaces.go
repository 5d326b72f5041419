package gatherings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/julianvossen/gatherly-backend/pkg/db/models"
	"github.com/julianvossen/gatherly-backend/pkg/enums"
)

// Repository defines persistence operations for gatherings and memberships.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateGathering(ctx context.Context, gathering *models.Gathering) (*models.Gathering, error)
	CreateMembership(ctx context.Context, membership *models.Membership) (*models.Membership, error)
	FindGathering(ctx context.Context, id uuid.UUID) (*models.Gathering, error)
	FindMembership(ctx context.Context, gatheringID, userID uuid.UUID) (*models.Membership, error)
	ListMemberships(ctx context.Context, gatheringID uuid.UUID) ([]models.Membership, error)
	ListActiveNonOrganizerMemberships(ctx context.Context, gatheringID uuid.UUID) ([]models.Membership, error)
	CountApproved(ctx context.Context, gatheringID uuid.UUID) (int64, error)
	CountNonOrganizerMemberships(ctx context.Context, gatheringID uuid.UUID) (int64, error)
	UpdateGathering(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateGatheringStatusIf(ctx context.Context, id uuid.UUID, from, to enums.GatheringStatus) (int64, error)
	UpdateMembershipStatus(ctx context.Context, membershipID uuid.UUID, status enums.MembershipStatus) error
	ApproveWithinCapacity(ctx context.Context, membershipID, gatheringID uuid.UUID, maxUsers int) (int64, error)
	CancelActiveNonOrganizerMemberships(ctx context.Context, gatheringID uuid.UUID) (int64, error)
	HardDeleteGathering(ctx context.Context, id uuid.UUID) error
	FindDueGatherings(ctx context.Context, asOf time.Time) ([]models.Gathering, error)
}
