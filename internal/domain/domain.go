package domain

// ConnectionState describes the lifecycle of the single provider connection.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateError        ConnectionState = "error"
)

// EventKind is the closed set of relayed comment-feed event kinds.
type EventKind string

const (
	KindComment         EventKind = "comment"
	KindGift            EventKind = "gift"
	KindEmotion         EventKind = "emotion"
	KindNotification    EventKind = "notification"
	KindOperatorComment EventKind = "operatorComment"
)

// AllEventKinds lists every relayed kind, in relay-table order.
var AllEventKinds = []EventKind{
	KindComment,
	KindGift,
	KindEmotion,
	KindNotification,
	KindOperatorComment,
}

// ValidEventKind reports whether k is a member of the closed kind set.
func ValidEventKind(k EventKind) bool {
	switch k {
	case KindComment, KindGift, KindEmotion, KindNotification, KindOperatorComment:
		return true
	}
	return false
}

// FilterEventKinds drops values outside the closed kind set. Guards against
// malformed persisted state and API input.
func FilterEventKinds(kinds []EventKind) []EventKind {
	out := make([]EventKind, 0, len(kinds))
	for _, k := range kinds {
		if ValidEventKind(k) {
			out = append(out, k)
		}
	}
	return out
}

// EventPayload carries the per-kind fields of a relayed event. No field is
// guaranteed present; absent fields are empty strings.
type EventPayload struct {
	Content  string `json:"content,omitempty"`
	Name     string `json:"name,omitempty"`
	UserName string `json:"userName,omitempty"`
	ItemName string `json:"itemName,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Event is one normalized comment-feed event.
type Event struct {
	Kind    EventKind
	Payload EventPayload
}
