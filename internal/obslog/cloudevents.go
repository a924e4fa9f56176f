package obslog

import (
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// CloudEvent is an alias for the CloudEvents Event type, kept so callers
// outside this package never need to import the SDK directly.
type CloudEvent = cloudevents.Event

// ExplorationLifecycleSchema identifies the payload shape of events emitted
// by NewExplorationLifecycleEvent, for lightweight routing by subscribers
// that don't want to decode the full CloudEvent data payload.
const ExplorationLifecycleSchema = "lincheck.exploration.lifecycle.v1"

// Lifecycle event types. Subjects are "exploration", "backtrack",
// "inconsistency".
const (
	EventTypeExplorationStarted  = "com.lincheck.exploration.started"
	EventTypeExplorationFinished = "com.lincheck.exploration.finished"
	EventTypeBacktrack           = "com.lincheck.exploration.backtrack"
	EventTypeInconsistency       = "com.lincheck.exploration.inconsistency"
)

// LifecyclePayload is the structured data carried by exploration lifecycle
// notifications: which subject, what happened, and a loosely typed bag of
// detail (inconsistency kind + witnessing event IDs, backtrack target, etc).
type LifecyclePayload struct {
	Subject   string                 `json:"subject"`
	Action    string                 `json:"action"`
	Timestamp time.Time              `json:"timestamp"`
	Detail    map[string]interface{} `json:"detail,omitempty"`
}

// NewExplorationLifecycleEvent builds a CloudEvent describing a driver
// lifecycle transition. source identifies the emitting engine instance
// (e.g. a run ID); subject/action select the event type; detail carries
// free-form routing-relevant fields (event IDs, inconsistency kind, ...).
func NewExplorationLifecycleEvent(source, subject, action string, detail map[string]interface{}) CloudEvent {
	payload := LifecyclePayload{
		Subject:   subject,
		Action:    action,
		Timestamp: time.Now(),
		Detail:    detail,
	}

	evt := cloudevents.NewEvent()
	evt.SetID(generateEventID())
	evt.SetSource(source)
	evt.SetTime(payload.Timestamp)
	evt.SetSpecVersion(cloudevents.VersionV1)

	switch subject {
	case "exploration":
		switch action {
		case "started":
			evt.SetType(EventTypeExplorationStarted)
		case "finished":
			evt.SetType(EventTypeExplorationFinished)
		default:
			evt.SetType("com.lincheck.exploration.lifecycle")
		}
	case "backtrack":
		evt.SetType(EventTypeBacktrack)
	case "inconsistency":
		evt.SetType(EventTypeInconsistency)
	default:
		evt.SetType("com.lincheck.lifecycle")
	}

	_ = evt.SetData(cloudevents.ApplicationJSON, payload)
	// CloudEvents 1.0 §3.1.1 restricts extension attribute names to
	// lower-case alphanumerics only; no separators allowed.
	evt.SetExtension("payloadschema", ExplorationLifecycleSchema)
	evt.SetExtension("lifecyclesubject", subject)
	evt.SetExtension("lifecycleaction", action)
	return evt
}

// generateEventID mints a time-ordered UUIDv7 for CloudEvent IDs, falling
// back to v4 if the clock-based generator errors.
func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// ValidateCloudEvent checks SDK-level structural validity of an emitted
// event; useful in tests asserting the engine never emits malformed events.
func ValidateCloudEvent(event CloudEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("CloudEvent validation failed: %w", err)
	}
	return nil
}
