package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventEmployeeCreated  = "directory.employee.created"
	EventEmployeeUpdated  = "directory.employee.updated"
	EventEmployeeDeleted  = "directory.employee.deleted"
	EventPersonalStored   = "directory.personal.stored"
	EventEmploymentStored = "directory.employment.stored"
)

// ExchangeDirectoryEvents is the default exchange for directory events
const ExchangeDirectoryEvents = "directory.events"

// Event is the envelope every message is wrapped in
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// EmployeeCreatedEvent is published when an employee is added
type EmployeeCreatedEvent struct {
	EmployeeID int64  `json:"employee_id"`
	Name       string `json:"name"`
	Level      string `json:"level"`
	Supervisor string `json:"supervisor,omitempty"`
}

// EmployeeUpdatedEvent is published when an employee is patched
type EmployeeUpdatedEvent struct {
	EmployeeID int64          `json:"employee_id"`
	Fields     map[string]any `json:"fields"`
}

// EmployeeDeletedEvent is published when an employee is removed
type EmployeeDeletedEvent struct {
	EmployeeID int64 `json:"employee_id"`
}

// DetailsStoredEvent is published when a personal or employment record is written
type DetailsStoredEvent struct {
	EmployeeID int64 `json:"employee_id"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.NewString()
}
