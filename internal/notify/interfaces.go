// Package notify delivers reminder and expiration notices to the user.
package notify

// ActionKind identifies what tapping a notification action does.
type ActionKind string

const (
	// ActionConfirm confirms the scheduled transaction happened.
	ActionConfirm ActionKind = "confirm"
	// ActionCancel cancels the scheduled transaction.
	ActionCancel ActionKind = "cancel"
)

// Action is an actionable button on a notification. ScheduledID carries the
// local id of the record the action operates on.
type Action struct {
	Kind        ActionKind
	Label       string
	ScheduledID int64
}

// Notification is one user-facing notice. Reminders carry confirm and cancel
// actions; expiration notices carry none.
type Notification struct {
	Title   string
	Body    string
	Actions []Action
}

// Notifier delivers notifications.
type Notifier interface {
	Send(n Notification) error
}
