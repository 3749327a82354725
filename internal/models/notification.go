package models

// NotificationKind identifies the message template the delivery collaborator
// should render.
type NotificationKind string

const (
	NotificationConfirmation NotificationKind = "confirmation"
	NotificationWaitlisted   NotificationKind = "waitlisted"
	NotificationPromoted     NotificationKind = "promoted"
	NotificationSuspended    NotificationKind = "suspended"
	NotificationCancelled    NotificationKind = "cancelled"
)

// NotificationIntent is the structured message the engine hands to the
// external notifier. Delivery, formatting and channel selection happen
// outside this service; a failed dispatch never rolls back the decision that
// produced it.
type NotificationIntent struct {
	StudentID string                 `json:"student_id"`
	Kind      NotificationKind       `json:"kind"`
	Params    map[string]interface{} `json:"params,omitempty"`
}
