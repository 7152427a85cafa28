package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatshot/internal/pkg/errors"
)

func sampleConversation() ([]IncomingMessage, [2]string) {
	msgs := []IncomingMessage{
		{Sender: "Ana", Text: "Oi! Como você está?"},
		{Sender: "Bruno", Text: "Oi Ana! Estou bem, e você?"},
		{Sender: "Ana", Text: "Ótimo! Quer conversar sobre tecnologia?"},
	}
	return msgs, [2]string{"Ana", "Bruno"}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		messages     []IncomingMessage
		participants [2]string
		wantField    string
	}{
		{
			name:         "empty messages",
			messages:     nil,
			participants: [2]string{"Ana", "Bruno"},
			wantField:    "messages",
		},
		{
			name:         "missing participant",
			messages:     []IncomingMessage{{Sender: "Ana", Text: "oi"}},
			participants: [2]string{"Ana", ""},
			wantField:    "participants",
		},
		{
			name:         "identical participants",
			messages:     []IncomingMessage{{Sender: "Ana", Text: "oi"}},
			participants: [2]string{"Ana", "Ana"},
			wantField:    "participants",
		},
		{
			name:         "empty text",
			messages:     []IncomingMessage{{Sender: "Ana", Text: "   "}},
			participants: [2]string{"Ana", "Bruno"},
			wantField:    "messages[0].text",
		},
		{
			name:         "unknown sender",
			messages:     []IncomingMessage{{Sender: "Carla", Text: "oi"}},
			participants: [2]string{"Ana", "Bruno"},
			wantField:    "messages[0].sender",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.messages, tt.participants)
			require.Error(t, err)
			require.True(t, errors.IsValidation(err))
			require.Equal(t, tt.wantField, errors.GetFields(err)["field"])
		})
	}

	t.Run("valid conversation", func(t *testing.T) {
		msgs, participants := sampleConversation()
		require.NoError(t, Validate(msgs, participants))
	})
}

func TestAdapt(t *testing.T) {
	msgs, participants := sampleConversation()

	adapted := Adapt(msgs, participants)
	require.Len(t, adapted, 3)

	// Second participant owns the right-aligned bubbles.
	require.False(t, adapted[0].IsMine)
	require.True(t, adapted[1].IsMine)
	require.False(t, adapted[2].IsMine)

	require.Equal(t, "user1", adapted[0].User.ID)
	require.Equal(t, "user2", adapted[1].User.ID)
	require.Equal(t, "Bruno", adapted[1].User.Name)

	// Text passes through untouched.
	require.Equal(t, msgs[1].Text, adapted[1].Text)

	// IDs are ordinal.
	require.Equal(t, "1", adapted[0].ID)
	require.Equal(t, "3", adapted[2].ID)
}

func TestAdaptTimestampsMonotonic(t *testing.T) {
	msgs, participants := sampleConversation()
	adapted := Adapt(msgs, participants)

	for i := 1; i < len(adapted); i++ {
		require.True(t, adapted[i].Timestamp.After(adapted[i-1].Timestamp),
			"timestamp %d should be after timestamp %d", i, i-1)
	}
	require.Equal(t, time.Minute, adapted[1].Timestamp.Sub(adapted[0].Timestamp))
}

func TestAdaptDeterministic(t *testing.T) {
	msgs, participants := sampleConversation()

	first := Adapt(msgs, participants)
	second := Adapt(msgs, participants)

	require.Equal(t, first, second)
}
