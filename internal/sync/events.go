package sync

// EventKind tags an entry in the run's notification stream.
type EventKind string

const (
	// EventStatus is free-form progress text.
	EventStatus EventKind = "status"
	// EventProjectUpdate reports one applied project-row update.
	EventProjectUpdate EventKind = "project_update"
	// EventServiceUpdate reports one applied service-row update.
	EventServiceUpdate EventKind = "service_update"
	// EventChargeCreated reports one synthesized charge row.
	EventChargeCreated EventKind = "charge_created"
	// EventComplete terminates the stream, exactly once per run.
	EventComplete EventKind = "complete"
)

// Event is one entry in the ordered notification stream a run emits.
// Update events are published synchronously, immediately after the
// remote write returns, so an observer sees exactly one event per
// successful update attributed to the right entity kind.
type Event struct {
	Kind    EventKind
	Message string         // status text, or the error message on a failed complete
	Entity  string         // display name of the updated record
	Updates map[string]any // flattened payload for update/create events
	Err     error          // non-nil only on a failed complete
}

// Sink receives run events. Implementations must not block for long;
// the engine publishes inline with its work.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Publish calls f(e).
func (f SinkFunc) Publish(e Event) { f(e) }
