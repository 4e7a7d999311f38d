// Package notify carries user-visible outcomes from the core to whatever presents them.
package notify

import (
	"sync"

	"github.com/rs/zerolog"
)

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

type Notification struct {
	Variant     Variant
	Title       string
	Description string
}

// Notifier receives notifications. Implementations must be safe for
// concurrent use: persistence failures are reported from a background goroutine.
type Notifier interface {
	Notify(n Notification)
}

type Func func(n Notification)

func (f Func) Notify(n Notification) {
	f(n)
}

var Discard Notifier = Func(func(Notification) {})

type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(l zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: l}
}

func (n *LogNotifier) Notify(notification Notification) {
	event := n.logger.Info()
	if notification.Variant == VariantDestructive {
		event = n.logger.Warn()
	}
	event.
		Str("title", notification.Title).
		Str("variant", string(notification.Variant)).
		Msg(notification.Description)
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notifications...)
}

func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notifications) == 0 {
		return Notification{}, false
	}
	return r.notifications[len(r.notifications)-1], true
}

// HasTitle reports whether any notification with the given title was received.
func (r *Recorder) HasTitle(title string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.Title == title {
			return true
		}
	}
	return false
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = nil
}
