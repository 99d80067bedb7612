package telegram

import "testing"

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		in   Inbound
		want Route
	}{
		{
			name: "plain text goes to chat",
			in:   Inbound{Text: "hello"},
			want: RouteChat,
		},
		{
			name: "command wins over everything",
			in:   Inbound{IsAdmin: true, IsReply: true, AwaitingAdmin: true, IsCommand: true, Text: "/broadcast"},
			want: RouteCommand,
		},
		{
			name: "admin reply beats awaiting flag",
			in:   Inbound{IsAdmin: true, IsReply: true, AwaitingAdmin: true, Text: "answer"},
			want: RouteAdminReply,
		},
		{
			name: "admin reply with photo",
			in:   Inbound{IsAdmin: true, IsReply: true, HasPhoto: true},
			want: RouteAdminReply,
		},
		{
			name: "non-admin reply is ordinary chat",
			in:   Inbound{IsReply: true, Text: "quoting you"},
			want: RouteChat,
		},
		{
			name: "admin without reply is ordinary chat",
			in:   Inbound{IsAdmin: true, Text: "hello"},
			want: RouteChat,
		},
		{
			name: "awaiting flag captures text",
			in:   Inbound{AwaitingAdmin: true, Text: "please help"},
			want: RouteAdminForward,
		},
		{
			name: "awaiting flag ignores photos",
			in:   Inbound{AwaitingAdmin: true, HasPhoto: true},
			want: RoutePhoto,
		},
		{
			name: "awaiting flag ignores blank text",
			in:   Inbound{AwaitingAdmin: true, Text: "   "},
			want: RouteIgnore,
		},
		{
			name: "photo beats document",
			in:   Inbound{HasPhoto: true, HasDocument: true},
			want: RoutePhoto,
		},
		{
			name: "document routes to extraction",
			in:   Inbound{HasDocument: true},
			want: RouteDocument,
		},
		{
			name: "caption-only photo still routes to photo",
			in:   Inbound{HasPhoto: true, Text: ""},
			want: RoutePhoto,
		},
		{
			name: "empty message is ignored",
			in:   Inbound{},
			want: RouteIgnore,
		},
		{
			name: "whitespace text is ignored",
			in:   Inbound{Text: "  \n "},
			want: RouteIgnore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.in); got != tt.want {
				t.Errorf("Decide(%+v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRouteString(t *testing.T) {
	routes := map[Route]string{
		RouteIgnore:       "ignore",
		RouteCommand:      "command",
		RouteAdminReply:   "admin_reply",
		RouteAdminForward: "admin_forward",
		RoutePhoto:        "photo",
		RouteDocument:     "document",
		RouteChat:         "chat",
	}
	for r, want := range routes {
		if got := r.String(); got != want {
			t.Errorf("Route(%d).String() = %q, want %q", r, got, want)
		}
	}
}
