package enums

import "fmt"

// MembershipStatus captures the lifecycle of a gathering membership.
// Rejected and canceled are terminal; a row never transitions out of them.
type MembershipStatus string

const (
	MembershipStatusPending  MembershipStatus = "pending"
	MembershipStatusApproved MembershipStatus = "approved"
	MembershipStatusRejected MembershipStatus = "rejected"
	MembershipStatusCanceled MembershipStatus = "canceled"
)

var validMembershipStatuses = []MembershipStatus{
	MembershipStatusPending,
	MembershipStatusApproved,
	MembershipStatusRejected,
	MembershipStatusCanceled,
}

// String implements fmt.Stringer.
func (m MembershipStatus) String() string {
	return string(m)
}

// IsValid reports whether the value matches a known MembershipStatus.
func (m MembershipStatus) IsValid() bool {
	for _, candidate := range validMembershipStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further status transition is permitted.
func (m MembershipStatus) IsTerminal() bool {
	return m == MembershipStatusRejected || m == MembershipStatusCanceled
}

// ParseMembershipStatus converts raw input into a MembershipStatus.
func ParseMembershipStatus(value string) (MembershipStatus, error) {
	for _, candidate := range validMembershipStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid membership status %q", value)
}
