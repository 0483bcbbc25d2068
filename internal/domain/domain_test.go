package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMessageID_FormatAndUniqueness(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := NewMessageID()
		require.True(t, strings.HasPrefix(id, "client-"))
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestActionable(t *testing.T) {
	require.False(t, NormalizedEvent{}.Actionable())
	require.False(t, NormalizedEvent{SpaceID: "   "}.Actionable())
	require.True(t, NormalizedEvent{SpaceID: "spaces/S"}.Actionable())
}
