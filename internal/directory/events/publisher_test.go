package events

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/staffdir/staffdir-backend/internal/directory/domain"
	"github.com/staffdir/staffdir-backend/pkg/logger"
	"github.com/staffdir/staffdir-backend/pkg/messaging"
	"github.com/staffdir/staffdir-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeePublisher_Events(t *testing.T) {
	sink := testutil.NewMockPublisher()
	p := NewEmployeePublisherWithSink(sink, logger.Nop())
	ctx := context.Background()

	p.PublishEmployeeCreated(ctx, domain.Employee{
		ID: 7, FirstName: "Mona", LastName: "Rao", Level: domain.LevelManager, Supervisor: domain.NoSupervisor,
	})
	p.PublishEmployeeUpdated(ctx, 7, map[string]any{"first_name": "Mina"})
	p.PublishPersonalStored(ctx, 7)
	p.PublishEmploymentStored(ctx, 7)
	p.PublishEmployeeDeleted(ctx, 7)

	events := sink.Events()
	require.Len(t, events, 5)
	assert.Equal(t, messaging.EventEmployeeCreated, events[0].Type)
	assert.Equal(t, messaging.EmployeeCreatedEvent{EmployeeID: 7, Name: "Mona Rao", Level: "Manager"}, events[0].Payload)
	assert.Equal(t, messaging.EventEmployeeUpdated, events[1].Type)
	assert.Equal(t, messaging.EventPersonalStored, events[2].Type)
	assert.Equal(t, messaging.EventEmploymentStored, events[3].Type)
	assert.Equal(t, messaging.EmployeeDeletedEvent{EmployeeID: 7}, events[4].Payload)
}

func TestEmployeePublisher_FailuresAreLogged(t *testing.T) {
	var buf bytes.Buffer
	sink := testutil.NewMockPublisher()
	sink.Err = errors.New("broker unavailable")
	p := NewEmployeePublisherWithSink(sink, logger.NewWithWriter("test", &buf))

	assert.NotPanics(t, func() { p.PublishEmployeeDeleted(context.Background(), 3) })
	assert.Contains(t, buf.String(), "broker unavailable")
	assert.Contains(t, buf.String(), messaging.EventEmployeeDeleted)
}

func TestEmployeePublisher_NilIsNoop(t *testing.T) {
	var p *EmployeePublisher
	assert.NotPanics(t, func() {
		p.PublishEmployeeCreated(context.Background(), domain.Employee{ID: 1})
		p.PublishEmployeeDeleted(context.Background(), 1)
	})
}
