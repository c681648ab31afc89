package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/selfydev/selfy-backend/pkg/db/models"
	"github.com/selfydev/selfy-backend/pkg/enums"
	"github.com/selfydev/selfy-backend/pkg/logger"
	"github.com/selfydev/selfy-backend/pkg/outbox"
	"github.com/selfydev/selfy-backend/pkg/outbox/idempotency"
	"github.com/selfydev/selfy-backend/pkg/outbox/payloads"
)

const bookingNotificationConsumer = "booking-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches booking domain events and turns lifecycle transitions into
// in-app notifications for the affected customer. Delivery is best effort:
// notification writes happen here, outside the transaction that moved the
// booking, so a failed insert never blocks the lifecycle itself.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds a booking notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("booking subscription required")
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
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if !notifiableEvent(eventType) {
		c.logg.Info(logCtx, "skipping event without a notification rule")
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

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, bookingNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handleEvent(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, bookingNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func notifiableEvent(eventType enums.OutboxEventType) bool {
	switch eventType {
	case enums.EventBookingApproved,
		enums.EventBookingRejected,
		enums.EventBookingCompleted,
		enums.EventBookingNoShow,
		enums.EventSeatAssigned,
		enums.EventSeatRemoved:
		return true
	default:
		return false
	}
}

func (c *Consumer) handleEvent(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventSeatAssigned, enums.EventSeatRemoved:
		var payload payloads.SeatEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse seat payload: %w", err)
		}
		return c.createSeatNotification(ctx, eventType, payload, logCtx)
	default:
		var payload payloads.BookingStatusEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse booking payload: %w", err)
		}
		return c.createBookingNotification(ctx, payload, logCtx)
	}
}

func (c *Consumer) createBookingNotification(ctx context.Context, payload payloads.BookingStatusEvent, logCtx context.Context) error {
	if payload.CustomerID == uuid.Nil {
		return fmt.Errorf("customer id missing")
	}

	var title, message string
	switch payload.Status {
	case enums.BookingStatusConfirmed:
		title = "Booking confirmed"
		message = fmt.Sprintf("Booking #%d has been confirmed for %s.",
			payload.BookingNumber, payload.ScheduledAt.Format("Monday, January 2, 2006 at 3:04 PM"))
	case enums.BookingStatusCancelled:
		title = "Booking declined"
		message = fmt.Sprintf("Booking #%d was declined.", payload.BookingNumber)
		if payload.Reason != "" {
			message = fmt.Sprintf("Booking #%d was declined. Reason: %s", payload.BookingNumber, payload.Reason)
		}
	case enums.BookingStatusCompleted:
		title = "Booking completed"
		message = fmt.Sprintf("Booking #%d is complete. Thanks for visiting.", payload.BookingNumber)
	case enums.BookingStatusNoShow:
		title = "Missed booking"
		message = fmt.Sprintf("Booking #%d was marked as a no-show.", payload.BookingNumber)
	default:
		c.logg.Info(logCtx, "status not handled")
		return nil
	}

	notification := &models.Notification{
		RecipientID: payload.CustomerID,
		Type:        enums.NotificationTypeBookingUpdate,
		Title:       title,
		Message:     strings.TrimSpace(message),
		Link:        stringPtr(fmt.Sprintf("/bookings/%s", payload.BookingID)),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(c.logg.WithField(logCtx, "booking_id", payload.BookingID.String()), "customer notified of booking change")
	return nil
}

func (c *Consumer) createSeatNotification(ctx context.Context, eventType enums.OutboxEventType, payload payloads.SeatEvent, logCtx context.Context) error {
	if payload.UserID == uuid.Nil {
		return fmt.Errorf("user id missing")
	}

	title := "Corporate seat assigned"
	message := "You have been added to your organization's booking plan."
	if eventType == enums.EventSeatRemoved {
		title = "Corporate seat removed"
		message = "Your corporate booking seat has been deactivated."
	}

	notification := &models.Notification{
		RecipientID: payload.UserID,
		Type:        enums.NotificationTypeSeatUpdate,
		Title:       title,
		Message:     message,
		Link:        stringPtr(fmt.Sprintf("/organizations/%s/seats", payload.OrganizationID)),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(c.logg.WithField(logCtx, "seat_id", payload.SeatID.String()), "member notified of seat change")
	return nil
}

func stringPtr(value string) *string {
	return &value
}
