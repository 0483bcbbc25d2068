// PATH: internal/contracts/chatevent/envelope.go
package chatevent

import (
	"strings"

	"github.com/chat-ops/chat-relay/internal/domain"
)

// Envelope is the raw inbound payload from the chat platform. Two shapes are
// supported and modeled explicitly rather than probed field-by-field:
//   - simple: type/space/message/thread/sender at the top level
//   - add-on: a nested chat.messagePayload with its own message/space/sender
//
// Extra producer fields are ignored by json.Unmarshal.
type Envelope struct {
	Type    string     `json:"type,omitempty"`
	Space   *Space     `json:"space,omitempty"`
	Message *Message   `json:"message,omitempty"`
	Thread  *Thread    `json:"thread,omitempty"`
	Sender  *User      `json:"sender,omitempty"`
	User    *User      `json:"user,omitempty"` // legacy producers put the sender here
	Chat    *AddonChat `json:"chat,omitempty"`
}

type AddonChat struct {
	MessagePayload *MessagePayload `json:"messagePayload,omitempty"`
}

type MessagePayload struct {
	Message *Message `json:"message,omitempty"`
	Space   *Space   `json:"space,omitempty"`
	Sender  *User    `json:"sender,omitempty"`
}

type Message struct {
	Text          string  `json:"text,omitempty"`
	ArgumentText  string  `json:"argumentText,omitempty"`
	FormattedText string  `json:"formattedText,omitempty"`
	Thread        *Thread `json:"thread,omitempty"`
	Sender        *User   `json:"sender,omitempty"`
}

type Space struct {
	Name string `json:"name"`
}

type Thread struct {
	Name string `json:"name"`
}

type User struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// Normalize maps a raw envelope into the canonical event record. Pure; the
// only failure mode is a non-actionable result (missing space identity).
func Normalize(env Envelope) domain.NormalizedEvent {
	if env.Chat != nil && env.Chat.MessagePayload != nil {
		return normalizeAddon(env)
	}
	return normalizeSimple(env)
}

func normalizeSimple(env Envelope) domain.NormalizedEvent {
	ev := domain.NormalizedEvent{EventType: domain.EventTypeMessage}
	if t := strings.TrimSpace(env.Type); t != "" {
		ev.EventType = domain.EventType(t)
	}
	if env.Space != nil {
		ev.SpaceID = env.Space.Name
	}
	if env.Message != nil {
		ev.Text = messageText(env.Message)
		if env.Message.Thread != nil {
			ev.ThreadID = env.Message.Thread.Name
		}
	}
	if ev.ThreadID == "" && env.Thread != nil {
		ev.ThreadID = env.Thread.Name
	}
	applySender(&ev, firstUser(senderOf(env.Message), env.Sender, env.User))
	return ev
}

func normalizeAddon(env Envelope) domain.NormalizedEvent {
	p := env.Chat.MessagePayload
	ev := domain.NormalizedEvent{EventType: domain.EventTypeAddonMessage}
	if t := strings.TrimSpace(env.Type); t != "" {
		ev.EventType = domain.EventType(t)
	}
	if p.Space != nil {
		ev.SpaceID = p.Space.Name
	}
	if p.Message != nil {
		ev.Text = messageText(p.Message)
		if p.Message.Thread != nil {
			ev.ThreadID = p.Message.Thread.Name
		}
	}
	applySender(&ev, firstUser(senderOf(p.Message), p.Sender))
	return ev
}

// messageText applies the fixed extraction priority so behavior is
// deterministic when several candidate fields are present:
// text > argumentText > formattedText.
func messageText(m *Message) string {
	if s := strings.TrimSpace(m.Text); s != "" {
		return s
	}
	if s := strings.TrimSpace(m.ArgumentText); s != "" {
		return s
	}
	return strings.TrimSpace(m.FormattedText)
}

func senderOf(m *Message) *User {
	if m == nil {
		return nil
	}
	return m.Sender
}

func firstUser(users ...*User) *User {
	for _, u := range users {
		if u != nil {
			return u
		}
	}
	return nil
}

func applySender(ev *domain.NormalizedEvent, u *User) {
	if u == nil {
		return
	}
	ev.UserID = u.Name
	ev.UserDisplayName = u.DisplayName
}
