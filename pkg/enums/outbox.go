package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateGathering  OutboxAggregateType = "gathering"
	AggregateMembership OutboxAggregateType = "membership"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateGathering,
	AggregateMembership,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventGatheringCreated    OutboxEventType = "gathering_created"
	EventGatheringUpdated    OutboxEventType = "gathering_updated"
	EventGatheringCanceled   OutboxEventType = "gathering_canceled"
	EventGatheringDeleted    OutboxEventType = "gathering_deleted"
	EventGatheringExpired    OutboxEventType = "gathering_expired"
	EventMembershipRequested OutboxEventType = "membership_requested"
	EventMembershipApproved  OutboxEventType = "membership_approved"
	EventMembershipRejected  OutboxEventType = "membership_rejected"
	EventMembershipCanceled  OutboxEventType = "membership_canceled"
)

var validOutboxEventTypes = []OutboxEventType{
	EventGatheringCreated,
	EventGatheringUpdated,
	EventGatheringCanceled,
	EventGatheringDeleted,
	EventGatheringExpired,
	EventMembershipRequested,
	EventMembershipApproved,
	EventMembershipRejected,
	EventMembershipCanceled,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
