package telegram

import "strings"

// Route names the single handler that owns an inbound message. Decide
// returns exactly one Route, so a message can never reach two handlers and
// the admin paths can never fall through into chat.
type Route int

const (
	// RouteIgnore drops messages with no actionable payload.
	RouteIgnore Route = iota
	// RouteCommand dispatches "/..." messages to the command handlers.
	RouteCommand
	// RouteAdminReply relays an admin's reply back to the original user.
	RouteAdminReply
	// RouteAdminForward forwards a user's pending message to the admin.
	RouteAdminForward
	// RoutePhoto stores or stylizes an inbound photo.
	RoutePhoto
	// RouteDocument extracts text from an uploaded document.
	RouteDocument
	// RouteChat answers plain text via the completion backend.
	RouteChat
)

// String returns the route name for logs.
func (r Route) String() string {
	switch r {
	case RouteCommand:
		return "command"
	case RouteAdminReply:
		return "admin_reply"
	case RouteAdminForward:
		return "admin_forward"
	case RoutePhoto:
		return "photo"
	case RouteDocument:
		return "document"
	case RouteChat:
		return "chat"
	default:
		return "ignore"
	}
}

// Inbound is the message shape Decide routes on.
type Inbound struct {
	IsAdmin       bool
	IsReply       bool
	AwaitingAdmin bool
	IsCommand     bool
	HasPhoto      bool
	HasDocument   bool
	Text          string
}

// Decide picks the handler for an inbound message, in strict priority order:
// explicit commands first, then the admin reply path, then the pending
// admin-forward capture, then payload shape (photo, document, plain text).
func Decide(in Inbound) Route {
	switch {
	case in.IsCommand:
		return RouteCommand
	case in.IsAdmin && in.IsReply:
		return RouteAdminReply
	case in.AwaitingAdmin && strings.TrimSpace(in.Text) != "":
		return RouteAdminForward
	case in.HasPhoto:
		return RoutePhoto
	case in.HasDocument:
		return RouteDocument
	case strings.TrimSpace(in.Text) != "":
		return RouteChat
	default:
		return RouteIgnore
	}
}
