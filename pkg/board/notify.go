package board

import "sync"

// Level is the severity of a notification.
type Level int

// These are the notification levels.
const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a user visible, non-blocking message.
type Notification struct {
	Level   Level
	Message string
	Err     error
}

// Notifier shows notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to a Notifier.
type NotifierFunc func(n Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
}

// Notify implements Notifier.
func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications = append(r.notifications, n)
}

// Notifications returns a copy of the recorded notifications.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Notification, len(r.notifications))
	copy(out, r.notifications)

	return out
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.notifications) == 0 {
		return Notification{}, false
	}

	return r.notifications[len(r.notifications)-1], true
}
