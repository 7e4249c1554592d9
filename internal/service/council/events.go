package council

// EventType names a progress notification emitted during a run.
type EventType string

const (
	EventState       EventType = "state"
	EventPerspective EventType = "perspective"
	EventRating      EventType = "rating"
	EventDelta       EventType = "delta"
	EventVerdict     EventType = "verdict"
	EventError       EventType = "error"
)

// Event is a single progress notification. Only the fields relevant to Type are set.
type Event struct {
	Type      EventType `json:"event"`
	RunID     string    `json:"runId"`
	State     State     `json:"state,omitempty"`
	Agent     string    `json:"agent,omitempty"`
	Target    string    `json:"target,omitempty"`
	Content   string    `json:"content,omitempty"`
	Score     int       `json:"score,omitempty"`
	Iteration int       `json:"iteration,omitempty"`
	Verdict   *Verdict  `json:"verdict,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Sink receives events. Calls are serialized by the runtime.
type Sink func(Event)
