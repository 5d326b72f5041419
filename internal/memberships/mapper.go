package memberships

import (
	"time"

	"github.com/julianvossen/gatherly-backend/pkg/db/models"
	"github.com/julianvossen/gatherly-backend/pkg/enums"
)

type membershipWithGatheringRow struct {
	models.Membership
	Title           string                `gorm:"column:title"`
	GatheringDate   time.Time             `gorm:"column:gathering_date"`
	FeeCents        int64                 `gorm:"column:fee_cents"`
	GatheringStatus enums.GatheringStatus `gorm:"column:gathering_status"`
}

func membershipWithGatheringFromRow(row membershipWithGatheringRow) MembershipWithGathering {
	return MembershipWithGathering{
		MembershipID:    row.ID,
		GatheringID:     row.GatheringID,
		UserID:          row.UserID,
		Title:           row.Title,
		GatheringDate:   row.GatheringDate,
		FeeCents:        row.FeeCents,
		GatheringStatus: row.GatheringStatus,
		Role:            row.Role,
		Status:          row.Status,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

type gatheringMemberRow struct {
	models.Membership
	Nickname string `gorm:"column:nickname"`
}

func gatheringMembersFromRows(rows []gatheringMemberRow) []GatheringMemberDTO {
	out := make([]GatheringMemberDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, GatheringMemberDTO{
			MembershipID: row.ID,
			GatheringID:  row.GatheringID,
			UserID:       row.UserID,
			Nickname:     row.Nickname,
			Role:         row.Role,
			Status:       row.Status,
			CreatedAt:    row.CreatedAt,
		})
	}
	return out
}
