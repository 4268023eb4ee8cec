package trip

// Event types published when a trip is created or changes status
const (
	EventCreated   = "trip_created"
	EventAccepted  = "trip_accepted"
	EventStarted   = "trip_started"
	EventCompleted = "trip_completed"
	EventCancelled = "trip_cancelled"
)

// TransitionEvent returns the event type emitted after a successful op
func TransitionEvent(op string) string {
	switch op {
	case OpAccept:
		return EventAccepted
	case OpStart:
		return EventStarted
	case OpComplete:
		return EventCompleted
	case OpCancel:
		return EventCancelled
	}
	return ""
}
