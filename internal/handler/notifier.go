package handler

import (
	"context"

	"github.com/alexedwards/scs/v2"

	"github.com/DukeRupert/catalog-admin/internal/session"
)

// Flash is a one-shot notification shown as a toast on the next page.
type Flash struct {
	Type    string // "success", "error", "warning" or "info"
	Message string
}

// Notifier is the fire-and-forget notification sink. Messages are stored in
// the session and shown once by the page the user lands on next.
type Notifier struct {
	sessions *scs.SessionManager
}

// NewNotifier creates a notifier on top of a session manager. The session
// middleware (sessions.LoadAndSave) must wrap every route.
func NewNotifier(sessions *scs.SessionManager) *Notifier {
	return &Notifier{sessions: sessions}
}

// Success queues a success toast.
func (n *Notifier) Success(ctx context.Context, message string) {
	n.put(ctx, "success", message)
}

// Error queues an error toast.
func (n *Notifier) Error(ctx context.Context, message string) {
	n.put(ctx, "error", message)
}

// Warning queues a warning toast.
func (n *Notifier) Warning(ctx context.Context, message string) {
	n.put(ctx, "warning", message)
}

func (n *Notifier) put(ctx context.Context, kind, message string) {
	n.sessions.Put(ctx, session.KeyFlash, message)
	n.sessions.Put(ctx, session.KeyFlashType, kind)
}

// Pop returns and clears the pending notification, or nil.
func (n *Notifier) Pop(ctx context.Context) *Flash {
	message := n.sessions.PopString(ctx, session.KeyFlash)
	if message == "" {
		return nil
	}
	kind := n.sessions.PopString(ctx, session.KeyFlashType)
	if kind == "" {
		kind = "info"
	}
	return &Flash{Type: kind, Message: message}
}
