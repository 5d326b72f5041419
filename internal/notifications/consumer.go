package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/julianvossen/gatherly-backend/pkg/db/models"
	"github.com/julianvossen/gatherly-backend/pkg/enums"
	"github.com/julianvossen/gatherly-backend/pkg/logger"
	"github.com/julianvossen/gatherly-backend/pkg/outbox"
	"github.com/julianvossen/gatherly-backend/pkg/outbox/idempotency"
	"github.com/julianvossen/gatherly-backend/pkg/outbox/payloads"
)

const gatheringNotificationConsumer = "gathering-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches domain events and materializes in-app notifications:
// join requests for organizers, decisions and refund notices for members.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds a gathering notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	handler := c.handlerFor(enums.OutboxEventType(eventType))
	if handler == nil {
		c.logg.Info(logCtx, "skipping unhandled event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, gatheringNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := handler(logCtx, envelope.Data); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, gatheringNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *Consumer) handlerFor(eventType enums.OutboxEventType) func(ctx context.Context, data json.RawMessage) error {
	switch eventType {
	case enums.EventMembershipRequested:
		return c.handleMembershipRequested
	case enums.EventMembershipApproved, enums.EventMembershipRejected:
		return c.handleMembershipDecision
	case enums.EventMembershipCanceled:
		return c.handleMembershipCanceled
	case enums.EventGatheringExpired:
		return c.handleGatheringExpired
	default:
		return nil
	}
}

func (c *Consumer) handleMembershipRequested(ctx context.Context, data json.RawMessage) error {
	var payload payloads.MembershipRequestedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse membership_requested payload: %w", err)
	}
	if payload.OrganizerID == uuid.Nil {
		return fmt.Errorf("organizer id missing")
	}

	notification := &models.Notification{
		UserID:  payload.OrganizerID,
		Type:    enums.NotificationTypeMembershipUpdate,
		Title:   "New join request",
		Message: "Someone asked to join your gathering and is waiting for a decision.",
		Link:    gatheringLink(payload.GatheringID),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(ctx, "organizer notified of join request")
	return nil
}

func (c *Consumer) handleMembershipDecision(ctx context.Context, data json.RawMessage) error {
	var payload payloads.MembershipDecisionEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse membership decision payload: %w", err)
	}
	if payload.UserID == uuid.Nil {
		return fmt.Errorf("user id missing")
	}

	title := "Join request approved"
	message := "Your join request was approved. See you there."
	if payload.Status == enums.MembershipStatusRejected {
		title = "Join request declined"
		message = "The organizer declined your join request."
	}

	notification := &models.Notification{
		UserID:  payload.UserID,
		Type:    enums.NotificationTypeMembershipUpdate,
		Title:   title,
		Message: message,
		Link:    gatheringLink(payload.GatheringID),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(ctx, "member notified of decision")
	return nil
}

func (c *Consumer) handleMembershipCanceled(ctx context.Context, data json.RawMessage) error {
	var payload payloads.MembershipCanceledEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse membership_canceled payload: %w", err)
	}
	if payload.UserID == uuid.Nil {
		return fmt.Errorf("user id missing")
	}

	// Only an approved seat with a paid fee is owed a refund notice. A
	// withdrawn pending request needs no message.
	if !payload.WasApproved || payload.FeeCents <= 0 {
		c.logg.Info(ctx, "cancellation requires no notice")
		return nil
	}

	destination := "your registered account"
	if payload.RefundAccount != nil && *payload.RefundAccount != "" {
		destination = *payload.RefundAccount
	}
	message := fmt.Sprintf("Your spot in %q was released. The %s fee will be refunded to %s.",
		payload.Title, formatFee(payload.FeeCents), destination)
	if payload.Nickname != "" {
		message = fmt.Sprintf("Hi %s. %s", payload.Nickname, message)
	}

	notification := &models.Notification{
		UserID:  payload.UserID,
		Type:    enums.NotificationTypeRefundNotice,
		Title:   "Refund on its way",
		Message: message,
		Link:    gatheringLink(payload.GatheringID),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(ctx, "member notified of refund")
	return nil
}

func (c *Consumer) handleGatheringExpired(ctx context.Context, data json.RawMessage) error {
	var payload payloads.GatheringExpiredEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse gathering_expired payload: %w", err)
	}
	if payload.OrganizerID == uuid.Nil {
		return fmt.Errorf("organizer id missing")
	}

	message := fmt.Sprintf("%q reached its date and was closed automatically.", payload.Title)
	if payload.BelowMinimum {
		message = fmt.Sprintf("%q closed without reaching its minimum attendance.", payload.Title)
	}

	notification := &models.Notification{
		UserID:  payload.OrganizerID,
		Type:    enums.NotificationTypeSystemAnnouncement,
		Title:   "Gathering closed",
		Message: message,
		Link:    gatheringLink(payload.GatheringID),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(ctx, "organizer notified of expiry")
	return nil
}

func gatheringLink(gatheringID uuid.UUID) *string {
	link := fmt.Sprintf("/gatherings/%s", gatheringID)
	return &link
}

func formatFee(feeCents int64) string {
	return fmt.Sprintf("%d.%02d", feeCents/100, feeCents%100)
}
