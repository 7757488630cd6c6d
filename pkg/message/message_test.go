package message

import "testing"

func TestInboundMessage_User(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		sender Sender
		want   string
	}{
		{"username preferred", Sender{ID: "U1", Username: "alice"}, "alice"},
		{"id fallback", Sender{ID: "U1"}, "U1"},
		{"empty", Sender{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := InboundMessage{Sender: tt.sender}
			if got := m.User(); got != tt.want {
				t.Errorf("User() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInboundMessage_IsEmpty(t *testing.T) {
	t.Parallel()

	if !(&InboundMessage{Text: "  \n"}).IsEmpty() {
		t.Error("whitespace-only text should be empty")
	}
	if (&InboundMessage{Text: "cron list"}).IsEmpty() {
		t.Error("command text should not be empty")
	}
}

func TestNewTextMessage(t *testing.T) {
	t.Parallel()

	m := NewTextMessage("slack", "#ops", "hello")
	if m.Channel != "slack" || m.Chat.ID != "#ops" || m.Text != "hello" {
		t.Errorf("NewTextMessage = %+v", m)
	}
}
