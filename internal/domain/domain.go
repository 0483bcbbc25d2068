package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	// EventTypeMessage is the sentinel for the simple top-level envelope
	// family when the payload carries no explicit type.
	EventTypeMessage EventType = "MESSAGE"
	// EventTypeAddonMessage is the sentinel for the nested add-on envelope
	// family when the payload carries no explicit type.
	EventTypeAddonMessage EventType = "ADDON_MESSAGE"
)

var (
	// ErrMissingIdentity marks a callback without spaceId/messageId. Client
	// error: rejected before any collaborator call.
	ErrMissingIdentity = errors.New("callback missing spaceId or messageId")
)

// NormalizedEvent is the canonical record produced from a raw inbound
// envelope. Immutable once constructed; lives for one inbound turn.
type NormalizedEvent struct {
	EventType       EventType
	SpaceID         string
	Text            string
	ThreadID        string
	UserDisplayName string
	UserID          string
}

// Actionable reports whether the event carries enough identity to act on.
// An event without a space has nowhere to publish a placeholder.
func (e NormalizedEvent) Actionable() bool {
	return strings.TrimSpace(e.SpaceID) != ""
}

// CallbackDescriptor is the addressing block embedded in every dispatch job.
// The engine treats it as opaque and echoes it back verbatim.
type CallbackDescriptor struct {
	CallbackURL string `json:"callbackUrl"`
	SpaceID     string `json:"spaceId"`
	MessageID   string `json:"messageId"`
}

// DispatchJob is the payload sent to the processing engine webhook.
type DispatchJob struct {
	SessionID       string             `json:"sessionId"`
	UserDisplayName string             `json:"userDisplayName"`
	Action          string             `json:"action"`
	InputText       string             `json:"inputText"`
	Callback        CallbackDescriptor `json:"callback"`
}

// CallbackResult is what the engine posts back once processing finishes.
// Exactly one of Text/Error is meaningful; Error wins when both are present.
type CallbackResult struct {
	SpaceID   string `json:"spaceId"`
	MessageID string `json:"messageId"`
	Text      string `json:"text,omitempty"`
	Error     bool   `json:"error,omitempty"`
}

// NewMessageID generates the client-supplied message id used both as the
// chat platform identity of the placeholder and as the correlation key for
// the later callback. Time-based with a random suffix; unique within the
// engine's processing window is all that is required.
func NewMessageID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("client-%d-%s", time.Now().UnixMilli(), suffix)
}
