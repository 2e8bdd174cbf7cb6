package domain

const (
	ActorCtxKey = "pl-actor"
)

// PlaceholderURL is the sentinel url carried by a prompt record until it is
// realized with real image content.
const PlaceholderURL = "/placeholder-image.png"

const (
	EventRecordCreated = "record.created"
	EventRecordUpdated = "record.updated"
	EventRecordDeleted = "record.deleted"
)

// Event is published on the signal channel after every successful mutation.
type Event struct {
	Type   string  `json:"type"`
	Record *Record `json:"record,omitempty"`
	ID     string  `json:"id,omitempty"`
}
