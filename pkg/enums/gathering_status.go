package enums

import "fmt"

// GatheringStatus captures the lifecycle of a gathering. Recruiting is the
// only non-terminal status; every other value is final.
type GatheringStatus string

const (
	GatheringStatusRecruiting GatheringStatus = "recruiting"
	GatheringStatusExpired    GatheringStatus = "expired"
	GatheringStatusCanceled   GatheringStatus = "canceled"
	GatheringStatusDeleted    GatheringStatus = "deleted"
)

var validGatheringStatuses = []GatheringStatus{
	GatheringStatusRecruiting,
	GatheringStatusExpired,
	GatheringStatusCanceled,
	GatheringStatusDeleted,
}

// String implements fmt.Stringer.
func (g GatheringStatus) String() string {
	return string(g)
}

// IsValid reports whether the value matches a known GatheringStatus.
func (g GatheringStatus) IsValid() bool {
	for _, candidate := range validGatheringStatuses {
		if candidate == g {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further status transition is permitted.
func (g GatheringStatus) IsTerminal() bool {
	return g != GatheringStatusRecruiting
}

// ParseGatheringStatus converts raw input into a GatheringStatus.
func ParseGatheringStatus(value string) (GatheringStatus, error) {
	for _, candidate := range validGatheringStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gathering status %q", value)
}
