package events

import (
	"context"

	"github.com/staffdir/staffdir-backend/internal/directory/domain"
	"github.com/staffdir/staffdir-backend/pkg/logger"
	"github.com/staffdir/staffdir-backend/pkg/messaging"
)

// Sink accepts typed events. *messaging.Publisher satisfies it.
type Sink interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// EmployeePublisher publishes directory events. A nil *EmployeePublisher
// publishes nothing, so the service runs unchanged without a broker.
type EmployeePublisher struct {
	sink   Sink
	logger *logger.Logger
}

// NewEmployeePublisher creates a publisher on the given exchange
func NewEmployeePublisher(rmq *messaging.RabbitMQ, exchange string, log *logger.Logger) (*EmployeePublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, exchange, "employee-service", log)
	if err != nil {
		return nil, err
	}
	return NewEmployeePublisherWithSink(publisher, log), nil
}

// NewEmployeePublisherWithSink wraps an existing sink
func NewEmployeePublisherWithSink(sink Sink, log *logger.Logger) *EmployeePublisher {
	return &EmployeePublisher{
		sink:   sink,
		logger: log.WithComponent("events"),
	}
}

// PublishEmployeeCreated publishes an employee created event
func (p *EmployeePublisher) PublishEmployeeCreated(ctx context.Context, emp domain.Employee) {
	p.publish(ctx, messaging.EventEmployeeCreated, emp.ID, messaging.EmployeeCreatedEvent{
		EmployeeID: emp.ID,
		Name:       emp.FirstName + " " + emp.LastName,
		Level:      string(emp.Level),
		Supervisor: emp.Visible().Supervisor,
	})
}

// PublishEmployeeUpdated publishes the fields a patch changed
func (p *EmployeePublisher) PublishEmployeeUpdated(ctx context.Context, id int64, fields map[string]any) {
	p.publish(ctx, messaging.EventEmployeeUpdated, id, messaging.EmployeeUpdatedEvent{
		EmployeeID: id,
		Fields:     fields,
	})
}

// PublishEmployeeDeleted publishes an employee deleted event
func (p *EmployeePublisher) PublishEmployeeDeleted(ctx context.Context, id int64) {
	p.publish(ctx, messaging.EventEmployeeDeleted, id, messaging.EmployeeDeletedEvent{EmployeeID: id})
}

// PublishPersonalStored publishes a personal details stored event
func (p *EmployeePublisher) PublishPersonalStored(ctx context.Context, id int64) {
	p.publish(ctx, messaging.EventPersonalStored, id, messaging.DetailsStoredEvent{EmployeeID: id})
}

// PublishEmploymentStored publishes an employment details stored event
func (p *EmployeePublisher) PublishEmploymentStored(ctx context.Context, id int64) {
	p.publish(ctx, messaging.EventEmploymentStored, id, messaging.DetailsStoredEvent{EmployeeID: id})
}

func (p *EmployeePublisher) publish(ctx context.Context, eventType string, id int64, data interface{}) {
	if p == nil {
		return
	}
	if err := p.sink.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Int64("employee_id", id).Str("event_type", eventType).Msg("failed to publish event")
	}
}
