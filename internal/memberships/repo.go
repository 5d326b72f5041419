package memberships

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/julianvossen/gatherly-backend/pkg/db/models"
	"github.com/julianvossen/gatherly-backend/pkg/enums"
	"github.com/julianvossen/gatherly-backend/pkg/pagination"
)

// Repository exposes the read-side membership queries used by controllers.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListUserGatheringsParams filters the "my gatherings" listing.
type ListUserGatheringsParams struct {
	UserID uuid.UUID
	Status *enums.MembershipStatus
	Limit  int
	Cursor *pagination.Cursor
}

// ListUserGatherings returns the gatherings a user belongs to along with
// membership metadata, newest first.
func (r *Repository) ListUserGatherings(ctx context.Context, params ListUserGatheringsParams) ([]MembershipWithGathering, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Select("memberships.*, gatherings.title AS title, gatherings.gathering_date AS gathering_date, gatherings.fee_cents AS fee_cents, gatherings.status AS gathering_status").
		Joins("JOIN gatherings ON gatherings.id = memberships.gathering_id").
		Where("memberships.user_id = ?", params.UserID)
	if params.Status != nil {
		query = query.Where("memberships.status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(memberships.created_at, memberships.id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []membershipWithGatheringRow
	err := query.
		Order("memberships.created_at DESC, memberships.id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		out := make([]MembershipWithGathering, 0, len(rows))
		for _, row := range rows {
			out = append(out, membershipWithGatheringFromRow(row))
		}
		return out, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}

	out := make([]MembershipWithGathering, 0, len(rows))
	for _, row := range rows {
		out = append(out, membershipWithGatheringFromRow(row))
	}
	return out, nil, nil
}

// ListGatheringMembers returns the roster for a gathering along with each
// member's profile, oldest membership first.
func (r *Repository) ListGatheringMembers(ctx context.Context, gatheringID uuid.UUID) ([]GatheringMemberDTO, error) {
	var rows []gatheringMemberRow
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Select("memberships.*, users.nickname AS nickname").
		Joins("JOIN users ON users.id = memberships.user_id").
		Where("memberships.gathering_id = ?", gatheringID).
		Order("memberships.created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return gatheringMembersFromRows(rows), nil
}

// IsOrganizer reports whether the user holds the organizer membership for the
// gathering.
func (r *Repository) IsOrganizer(ctx context.Context, userID, gatheringID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("user_id = ? AND gathering_id = ? AND role = ?", userID, gatheringID, enums.MemberRoleOrganizer).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
