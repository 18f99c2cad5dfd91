package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/aegis/internal/identity/usecase"
	"github.com/shandysiswandi/aegis/internal/pkg/instrument"
	"github.com/shandysiswandi/aegis/internal/pkg/messaging"
	"github.com/shandysiswandi/aegis/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishMFAEnrolled(ctx context.Context, msg usecase.MFAEvent) error {
	return m.publish(ctx, "PublishMFAEnrolled", event.MFAEnrolledDestination, msg)
}

func (m *Messaging) PublishMFAConfirmed(ctx context.Context, msg usecase.MFAEvent) error {
	return m.publish(ctx, "PublishMFAConfirmed", event.MFAConfirmedDestination, msg)
}

func (m *Messaging) PublishMFAVerified(ctx context.Context, msg usecase.MFAEvent) error {
	return m.publish(ctx, "PublishMFAVerified", event.MFAVerifiedDestination, msg)
}

// publish keys messages by user id so one user's events stay ordered on
// partitioned brokers.
func (m *Messaging) publish(ctx context.Context, span, destination string, msg usecase.MFAEvent) error {
	ctx, sp := m.ins.Tracer("identity.outbound.mq").Start(ctx, span)
	defer sp.End()

	body, err := json.Marshal(event.MFAMessage{
		EnrollmentID: msg.EnrollmentID,
		UserID:       msg.UserID,
		OccurredAt:   msg.OccurredAt.UnixMilli(),
	})
	if err != nil {
		sp.RecordError(err)
		sp.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, destination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(msg.UserID),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		sp.RecordError(err)
		sp.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
