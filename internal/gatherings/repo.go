package gatherings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/julianvossen/gatherly-backend/pkg/db/models"
	"github.com/julianvossen/gatherly-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gatherings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateGathering(ctx context.Context, gathering *models.Gathering) (*models.Gathering, error) {
	if err := r.db.WithContext(ctx).Create(gathering).Error; err != nil {
		return nil, err
	}
	return gathering, nil
}

func (r *repository) CreateMembership(ctx context.Context, membership *models.Membership) (*models.Membership, error) {
	if err := r.db.WithContext(ctx).Create(membership).Error; err != nil {
		return nil, err
	}
	return membership, nil
}

func (r *repository) FindGathering(ctx context.Context, id uuid.UUID) (*models.Gathering, error) {
	var gathering models.Gathering
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&gathering).Error
	if err != nil {
		return nil, err
	}
	return &gathering, nil
}

func (r *repository) FindMembership(ctx context.Context, gatheringID, userID uuid.UUID) (*models.Membership, error) {
	var membership models.Membership
	err := r.db.WithContext(ctx).
		Where("gathering_id = ? AND user_id = ?", gatheringID, userID).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *repository) ListMemberships(ctx context.Context, gatheringID uuid.UUID) ([]models.Membership, error) {
	var rows []models.Membership
	err := r.db.WithContext(ctx).
		Where("gathering_id = ?", gatheringID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListActiveNonOrganizerMemberships(ctx context.Context, gatheringID uuid.UUID) ([]models.Membership, error) {
	var rows []models.Membership
	err := r.db.WithContext(ctx).
		Where("gathering_id = ? AND role <> ? AND status IN ?",
			gatheringID,
			enums.MemberRoleOrganizer,
			[]enums.MembershipStatus{enums.MembershipStatusPending, enums.MembershipStatusApproved},
		).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountApproved recomputes the capacity count from the membership set; the
// approved total is never stored redundantly.
func (r *repository) CountApproved(ctx context.Context, gatheringID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("gathering_id = ? AND status = ?", gatheringID, enums.MembershipStatusApproved).
		Count(&count).Error
	return count, err
}

func (r *repository) CountNonOrganizerMemberships(ctx context.Context, gatheringID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("gathering_id = ? AND role <> ?", gatheringID, enums.MemberRoleOrganizer).
		Count(&count).Error
	return count, err
}

func (r *repository) UpdateGathering(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Gathering{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateGatheringStatusIf transitions the gathering status only when it still
// holds the expected current status. Zero rows affected means another writer
// reached a terminal state first.
func (r *repository) UpdateGatheringStatusIf(ctx context.Context, id uuid.UUID, from, to enums.GatheringStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Gathering{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

func (r *repository) UpdateMembershipStatus(ctx context.Context, membershipID uuid.UUID, status enums.MembershipStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("id = ?", membershipID).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error
}

// ApproveWithinCapacity flips a pending membership to approved only while the
// gathering still has an open slot. The capacity subquery and the write run as
// one statement, so two racing approvals of the last slot cannot both win.
func (r *repository) ApproveWithinCapacity(ctx context.Context, membershipID, gatheringID uuid.UUID, maxUsers int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE memberships
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
		AND (
			SELECT COUNT(*) FROM memberships m2
			WHERE m2.gathering_id = ? AND m2.status = ?
		) < ?
	`,
		string(enums.MembershipStatusApproved),
		membershipID,
		string(enums.MembershipStatusPending),
		gatheringID,
		string(enums.MembershipStatusApproved),
		maxUsers,
	)
	return res.RowsAffected, res.Error
}

func (r *repository) CancelActiveNonOrganizerMemberships(ctx context.Context, gatheringID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("gathering_id = ? AND role <> ? AND status IN ?",
			gatheringID,
			enums.MemberRoleOrganizer,
			[]enums.MembershipStatus{enums.MembershipStatusPending, enums.MembershipStatusApproved},
		).
		Updates(map[string]any{"status": enums.MembershipStatusCanceled, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// HardDeleteGathering removes the row entirely; memberships cascade.
func (r *repository) HardDeleteGathering(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Gathering{}).Error
}

func (r *repository) FindDueGatherings(ctx context.Context, asOf time.Time) ([]models.Gathering, error) {
	var rows []models.Gathering
	err := r.db.WithContext(ctx).
		Where("status = ? AND gathering_date < ?", enums.GatheringStatusRecruiting, asOf).
		Order("gathering_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
