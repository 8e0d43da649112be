package models

// Event types published on the events topic.
const (
	EventUserRegistered      = "user.registered"
	EventUserUpdated         = "user.updated"
	EventUserDeleted         = "user.deleted"
	EventMicropostCreated    = "micropost.created"
	EventMicropostDeleted    = "micropost.deleted"
	EventRelationshipCreated = "relationship.created"
	EventRelationshipDeleted = "relationship.deleted"
)

// Event describes a state change in the social graph or content store.
type Event struct {
	EventID   string `json:"event_id"`   // EventID is a unique identifier, also used as the message key.
	Type      string `json:"type"`       // Type is one of the Event* constants.
	Timestamp int64  `json:"timestamp"`  // Timestamp is the Unix time (seconds) of the change.
	UserID    string `json:"user_id"`    // UserID is the acting user.
	SubjectID string `json:"subject_id"` // SubjectID is the affected micropost or user, if any.
}
