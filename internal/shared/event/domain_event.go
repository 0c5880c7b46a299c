package event

const DomainEventDestination string = "emuready.domain_event"
const DomainEventConsumerNotification string = "emuready.domain_event_notification"

// DomainEventMessage is published by the rest of the application whenever something
// notification-worthy happens. MessageID is used for redelivery de-duplication.
type DomainEventMessage struct {
	MessageID   string         `json:"message_id"`
	EventType   string         `json:"event_type"`
	EntityType  string         `json:"entity_type"`
	EntityID    string         `json:"entity_id"`
	TriggeredBy int64          `json:"triggered_by,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}
