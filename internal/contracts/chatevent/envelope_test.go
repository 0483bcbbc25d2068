package chatevent

import (
	"encoding/json"
	"testing"

	"github.com/chat-ops/chat-relay/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestNormalize_SimpleEnvelope(t *testing.T) {
	raw := `{
		"type": "MESSAGE",
		"space": {"name": "spaces/S"},
		"message": {
			"text": "hi there",
			"thread": {"name": "spaces/S/threads/T"},
			"sender": {"name": "users/U", "displayName": "Ana"}
		}
	}`
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))

	ev := Normalize(env)
	require.True(t, ev.Actionable())
	require.Equal(t, domain.EventTypeMessage, ev.EventType)
	require.Equal(t, "spaces/S", ev.SpaceID)
	require.Equal(t, "hi there", ev.Text)
	require.Equal(t, "spaces/S/threads/T", ev.ThreadID)
	require.Equal(t, "users/U", ev.UserID)
	require.Equal(t, "Ana", ev.UserDisplayName)
}

func TestNormalize_AddonEnvelope(t *testing.T) {
	raw := `{
		"chat": {
			"messagePayload": {
				"space": {"name": "spaces/S2"},
				"message": {
					"argumentText": " do the thing ",
					"sender": {"name": "users/U2", "displayName": "Bo"}
				}
			}
		}
	}`
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))

	ev := Normalize(env)
	require.True(t, ev.Actionable())
	require.Equal(t, domain.EventTypeAddonMessage, ev.EventType)
	require.Equal(t, "spaces/S2", ev.SpaceID)
	require.Equal(t, "do the thing", ev.Text)
	require.Equal(t, "Bo", ev.UserDisplayName)
}

func TestNormalize_TextPriority(t *testing.T) {
	cases := []struct {
		name string
		msg  Message
		want string
	}{
		{"text_wins_over_everything", Message{Text: "a", ArgumentText: "b", FormattedText: "c"}, "a"},
		{"argument_text_wins_over_formatted", Message{ArgumentText: "b", FormattedText: "c"}, "b"},
		{"formatted_is_last_resort", Message{FormattedText: "c"}, "c"},
		{"blank_text_falls_through", Message{Text: "   ", ArgumentText: "b"}, "b"},
		{"all_empty", Message{}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := tc.msg

			// Same priority must hold for both envelope families.
			simple := Normalize(Envelope{
				Space:   &Space{Name: "spaces/S"},
				Message: &msg,
			})
			require.Equal(t, tc.want, simple.Text)

			addon := Normalize(Envelope{
				Chat: &AddonChat{MessagePayload: &MessagePayload{
					Space:   &Space{Name: "spaces/S"},
					Message: &msg,
				}},
			})
			require.Equal(t, tc.want, addon.Text)
		})
	}
}

func TestNormalize_MissingSpaceIsNotActionable(t *testing.T) {
	ev := Normalize(Envelope{
		Message: &Message{Text: "hello"},
	})
	require.False(t, ev.Actionable())

	ev = Normalize(Envelope{
		Chat: &AddonChat{MessagePayload: &MessagePayload{
			Message: &Message{Text: "hello"},
		}},
	})
	require.False(t, ev.Actionable())
}

func TestNormalize_EventTypeSentinels(t *testing.T) {
	simple := Normalize(Envelope{Space: &Space{Name: "spaces/S"}})
	require.Equal(t, domain.EventTypeMessage, simple.EventType)

	addon := Normalize(Envelope{
		Chat: &AddonChat{MessagePayload: &MessagePayload{Space: &Space{Name: "spaces/S"}}},
	})
	require.Equal(t, domain.EventTypeAddonMessage, addon.EventType)

	// An explicit type is kept as-is for either family.
	explicit := Normalize(Envelope{Type: "ADDED_TO_SPACE", Space: &Space{Name: "spaces/S"}})
	require.Equal(t, domain.EventType("ADDED_TO_SPACE"), explicit.EventType)
}

func TestNormalize_SenderFallbacks(t *testing.T) {
	// Legacy producers put the sender under "user" at the top level.
	ev := Normalize(Envelope{
		Space:   &Space{Name: "spaces/S"},
		Message: &Message{Text: "hi"},
		User:    &User{Name: "users/L", DisplayName: "Legacy"},
	})
	require.Equal(t, "users/L", ev.UserID)
	require.Equal(t, "Legacy", ev.UserDisplayName)

	// The message sender wins when both are present.
	ev = Normalize(Envelope{
		Space:   &Space{Name: "spaces/S"},
		Message: &Message{Text: "hi", Sender: &User{Name: "users/M", DisplayName: "Msg"}},
		User:    &User{Name: "users/L", DisplayName: "Legacy"},
	})
	require.Equal(t, "users/M", ev.UserID)
}
