package gatherings

import (
	"time"

	"github.com/google/uuid"

	"github.com/julianvossen/gatherly-backend/pkg/db/models"
	"github.com/julianvossen/gatherly-backend/pkg/enums"
	pkgerrors "github.com/julianvossen/gatherly-backend/pkg/errors"
)

// Stable reason codes carried on STATE_CONFLICT errors so callers can branch
// on the exact rule that failed.
const (
	ReasonDatePassed            pkgerrors.Reason = "date_passed"
	ReasonCapacityFull          pkgerrors.Reason = "capacity_full"
	ReasonAlreadyApproved       pkgerrors.Reason = "already_approved"
	ReasonAlreadyRejected       pkgerrors.Reason = "already_rejected"
	ReasonOrganizerCannotCancel pkgerrors.Reason = "organizer_cannot_cancel"
	ReasonOnlyPendingCancelable pkgerrors.Reason = "only_pending_cancelable"
	ReasonOrganizerCannotLeave  pkgerrors.Reason = "organizer_cannot_leave"
	ReasonOnlyApprovedCanLeave  pkgerrors.Reason = "only_approved_can_leave"
	ReasonNotOrganizer          pkgerrors.Reason = "not_organizer"
	ReasonMaxBelowApproved      pkgerrors.Reason = "max_below_approved"
	ReasonMinAboveApproved      pkgerrors.Reason = "min_above_approved"
	ReasonDuplicateMembership   pkgerrors.Reason = "duplicate_membership"
	ReasonGatheringClosed       pkgerrors.Reason = "gathering_closed"
	ReasonMembershipClosed      pkgerrors.Reason = "membership_closed"
	ReasonBoundsInvalid         pkgerrors.Reason = "bounds_invalid"
)

func violation(reason pkgerrors.Reason, message string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, message).WithReason(reason)
}

// ValidateRecruiting rejects any member-facing operation against a gathering
// that already reached a terminal status.
func ValidateRecruiting(gathering *models.Gathering) error {
	if gathering.Status.IsTerminal() {
		return violation(ReasonGatheringClosed, "gathering is no longer recruiting")
	}
	return nil
}

// ValidateJoin checks the advisory admission rules for a join request.
// Capacity here is advisory only; approval is the capacity-consuming event.
func ValidateJoin(gathering *models.Gathering, approvedCount int64, now time.Time) error {
	if err := ValidateRecruiting(gathering); err != nil {
		return err
	}
	if !now.Before(gathering.GatheringDate) {
		return violation(ReasonDatePassed, "gathering date has passed")
	}
	if approvedCount >= int64(gathering.MaxUsers) {
		return violation(ReasonCapacityFull, "gathering is full")
	}
	return nil
}

// ValidateApprove re-checks capacity at approval time and enforces the
// membership state machine.
func ValidateApprove(gathering *models.Gathering, membership *models.Membership, approvedCount int64) error {
	if err := ValidateRecruiting(gathering); err != nil {
		return err
	}
	if membership.Status == enums.MembershipStatusApproved {
		return violation(ReasonAlreadyApproved, "membership already approved")
	}
	if membership.Status.IsTerminal() {
		return violation(ReasonMembershipClosed, "membership is no longer pending")
	}
	if approvedCount >= int64(gathering.MaxUsers) {
		return violation(ReasonCapacityFull, "gathering is full")
	}
	return nil
}

func ValidateReject(membership *models.Membership) error {
	if membership.Status == enums.MembershipStatusRejected {
		return violation(ReasonAlreadyRejected, "membership already rejected")
	}
	if membership.Status != enums.MembershipStatusPending {
		return violation(ReasonMembershipClosed, "only pending memberships can be rejected")
	}
	return nil
}

// ValidateCancel covers the self-service withdrawal of a pending request.
func ValidateCancel(membership *models.Membership) error {
	if membership.Role == enums.MemberRoleOrganizer {
		return violation(ReasonOrganizerCannotCancel, "organizer cannot cancel their membership")
	}
	if membership.Status != enums.MembershipStatusPending {
		return violation(ReasonOnlyPendingCancelable, "only pending memberships can be canceled")
	}
	return nil
}

// ValidateLeave covers an approved member exiting before the gathering date.
func ValidateLeave(gathering *models.Gathering, membership *models.Membership, now time.Time) error {
	if membership.Role == enums.MemberRoleOrganizer {
		return violation(ReasonOrganizerCannotLeave, "organizer cannot leave their gathering")
	}
	if membership.Status != enums.MembershipStatusApproved {
		return violation(ReasonOnlyApprovedCanLeave, "only approved members can leave")
	}
	if !now.Before(gathering.GatheringDate) {
		return violation(ReasonDatePassed, "gathering date has passed")
	}
	return nil
}

// ValidateUpdate keeps the approved count inside the new capacity bounds.
// Shrinking capacity below current enrollment is rejected rather than
// silently evicting members.
func ValidateUpdate(gathering *models.Gathering, actorID uuid.UUID, newMin, newMax int, approvedCount int64, now time.Time) error {
	if gathering.OrganizerID != actorID {
		return violation(ReasonNotOrganizer, "only the organizer can update a gathering")
	}
	if err := ValidateRecruiting(gathering); err != nil {
		return err
	}
	if !now.Before(gathering.GatheringDate) {
		return violation(ReasonDatePassed, "gathering date has passed")
	}
	if newMin < 2 || newMax < newMin {
		return violation(ReasonBoundsInvalid, "capacity bounds must satisfy 2 <= min <= max")
	}
	if approvedCount > int64(newMax) {
		return violation(ReasonMaxBelowApproved, "max users cannot drop below current approved count")
	}
	if newMin > gathering.MinUsers && int64(newMin) > approvedCount {
		return violation(ReasonMinAboveApproved, "min users cannot rise above current approved count")
	}
	return nil
}

func ValidateDelete(gathering *models.Gathering, actorID uuid.UUID, now time.Time) error {
	if gathering.OrganizerID != actorID {
		return violation(ReasonNotOrganizer, "only the organizer can delete a gathering")
	}
	if err := ValidateRecruiting(gathering); err != nil {
		return err
	}
	if !now.Before(gathering.GatheringDate) {
		return violation(ReasonDatePassed, "gathering date has passed")
	}
	return nil
}

// ValidateCancelGathering guards the organizer-driven cancellation of the
// whole gathering.
func ValidateCancelGathering(gathering *models.Gathering, actorID uuid.UUID, now time.Time) error {
	if gathering.OrganizerID != actorID {
		return violation(ReasonNotOrganizer, "only the organizer can cancel a gathering")
	}
	if err := ValidateRecruiting(gathering); err != nil {
		return err
	}
	if !now.Before(gathering.GatheringDate) {
		return violation(ReasonDatePassed, "gathering date has passed")
	}
	return nil
}
