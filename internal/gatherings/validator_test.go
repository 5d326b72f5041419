package gatherings

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/julianvossen/gatherly-backend/pkg/db/models"
	"github.com/julianvossen/gatherly-backend/pkg/enums"
	pkgerrors "github.com/julianvossen/gatherly-backend/pkg/errors"
)

func recruitingGathering(maxUsers int, date time.Time) *models.Gathering {
	return &models.Gathering{
		ID:            uuid.New(),
		Title:         "friday ride",
		GatheringDate: date,
		MinUsers:      2,
		MaxUsers:      maxUsers,
		OrganizerID:   uuid.New(),
		Status:        enums.GatheringStatusRecruiting,
	}
}

func membershipWith(role enums.MemberRole, status enums.MembershipStatus) *models.Membership {
	return &models.Membership{
		ID:     uuid.New(),
		Role:   role,
		Status: status,
	}
}

func assertReason(t *testing.T, err error, want pkgerrors.Reason) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected violation %s, got nil", want)
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	if typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %s", typed.Code())
	}
	if typed.Reason() != want {
		t.Fatalf("expected reason %s, got %s", want, typed.Reason())
	}
}

func TestValidateJoin(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)

	if err := ValidateJoin(recruitingGathering(4, future), 2, now); err != nil {
		t.Fatalf("expected join to pass, got %v", err)
	}

	assertReason(t, ValidateJoin(recruitingGathering(4, now.Add(-time.Hour)), 0, now), ReasonDatePassed)
	assertReason(t, ValidateJoin(recruitingGathering(3, future), 3, now), ReasonCapacityFull)

	closed := recruitingGathering(4, future)
	closed.Status = enums.GatheringStatusExpired
	assertReason(t, ValidateJoin(closed, 0, now), ReasonGatheringClosed)
}

func TestValidateApprove(t *testing.T) {
	gathering := recruitingGathering(3, time.Now().Add(time.Hour))

	if err := ValidateApprove(gathering, membershipWith(enums.MemberRoleParticipant, enums.MembershipStatusPending), 2); err != nil {
		t.Fatalf("expected approve to pass, got %v", err)
	}

	assertReason(t, ValidateApprove(gathering, membershipWith(enums.MemberRoleParticipant, enums.MembershipStatusApproved), 1), ReasonAlreadyApproved)
	assertReason(t, ValidateApprove(gathering, membershipWith(enums.MemberRoleParticipant, enums.MembershipStatusCanceled), 1), ReasonMembershipClosed)
	assertReason(t, ValidateApprove(gathering, membershipWith(enums.MemberRoleParticipant, enums.MembershipStatusPending), 3), ReasonCapacityFull)
}

func TestValidateReject(t *testing.T) {
	if err := ValidateReject(membershipWith(enums.MemberRoleParticipant, enums.MembershipStatusPending)); err != nil {
		t.Fatalf("expected reject to pass, got %v", err)
	}
	assertReason(t, ValidateReject(membershipWith(enums.MemberRoleParticipant, enums.MembershipStatusRejected)), ReasonAlreadyRejected)
	assertReason(t, ValidateReject(membershipWith(enums.MemberRoleParticipant, enums.MembershipStatusApproved)), ReasonMembershipClosed)
}

func TestValidateCancel(t *testing.T) {
	if err := ValidateCancel(membershipWith(enums.MemberRoleParticipant, enums.MembershipStatusPending)); err != nil {
		t.Fatalf("expected cancel to pass, got %v", err)
	}
	assertReason(t, ValidateCancel(membershipWith(enums.MemberRoleOrganizer, enums.MembershipStatusApproved)), ReasonOrganizerCannotCancel)
	assertReason(t, ValidateCancel(membershipWith(enums.MemberRoleParticipant, enums.MembershipStatusApproved)), ReasonOnlyPendingCancelable)
	assertReason(t, ValidateCancel(membershipWith(enums.MemberRoleParticipant, enums.MembershipStatusCanceled)), ReasonOnlyPendingCancelable)
}

func TestValidateLeave(t *testing.T) {
	now := time.Now()
	gathering := recruitingGathering(3, now.Add(time.Hour))

	if err := ValidateLeave(gathering, membershipWith(enums.MemberRoleParticipant, enums.MembershipStatusApproved), now); err != nil {
		t.Fatalf("expected leave to pass, got %v", err)
	}
	assertReason(t, ValidateLeave(gathering, membershipWith(enums.MemberRoleOrganizer, enums.MembershipStatusApproved), now), ReasonOrganizerCannotLeave)
	assertReason(t, ValidateLeave(gathering, membershipWith(enums.MemberRoleParticipant, enums.MembershipStatusPending), now), ReasonOnlyApprovedCanLeave)

	past := recruitingGathering(3, now.Add(-time.Hour))
	assertReason(t, ValidateLeave(past, membershipWith(enums.MemberRoleParticipant, enums.MembershipStatusApproved), now), ReasonDatePassed)
}

func TestValidateUpdate(t *testing.T) {
	now := time.Now()
	gathering := recruitingGathering(5, now.Add(time.Hour))
	organizer := gathering.OrganizerID

	if err := ValidateUpdate(gathering, organizer, 2, 6, 3, now); err != nil {
		t.Fatalf("expected update to pass, got %v", err)
	}
	assertReason(t, ValidateUpdate(gathering, uuid.New(), 2, 6, 3, now), ReasonNotOrganizer)
	assertReason(t, ValidateUpdate(gathering, organizer, 2, 2, 3, now), ReasonMaxBelowApproved)
	assertReason(t, ValidateUpdate(gathering, organizer, 4, 6, 3, now), ReasonMinAboveApproved)
	assertReason(t, ValidateUpdate(gathering, organizer, 1, 6, 3, now), ReasonBoundsInvalid)

	past := recruitingGathering(5, now.Add(-time.Hour))
	assertReason(t, ValidateUpdate(past, past.OrganizerID, 2, 6, 3, now), ReasonDatePassed)
}

func TestValidateDelete(t *testing.T) {
	now := time.Now()
	gathering := recruitingGathering(5, now.Add(time.Hour))

	if err := ValidateDelete(gathering, gathering.OrganizerID, now); err != nil {
		t.Fatalf("expected delete to pass, got %v", err)
	}
	assertReason(t, ValidateDelete(gathering, uuid.New(), now), ReasonNotOrganizer)

	past := recruitingGathering(5, now.Add(-time.Hour))
	assertReason(t, ValidateDelete(past, past.OrganizerID, now), ReasonDatePassed)

	deleted := recruitingGathering(5, now.Add(time.Hour))
	deleted.Status = enums.GatheringStatusDeleted
	assertReason(t, ValidateDelete(deleted, deleted.OrganizerID, now), ReasonGatheringClosed)
}
