package chat

import (
	"fmt"
	"strings"
	"time"

	"chatshot/internal/pkg/errors"
)

// Synthetic timestamps exist only so the front end renders a plausible
// clock next to each bubble; they carry no external timing meaning.
var baseTimestamp = time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)

const timestampStep = time.Minute

// Validate checks a raw conversation before any resource is committed to it.
func Validate(in []IncomingMessage, participants [2]string) error {
	if len(in) == 0 {
		return errors.ValidationField("messages", "at least one message is required")
	}

	a := strings.TrimSpace(participants[0])
	b := strings.TrimSpace(participants[1])
	if a == "" || b == "" {
		return errors.ValidationField("participants", "two participant names are required")
	}
	if a == b {
		return errors.ValidationField("participants", "participants must be distinct")
	}

	for i, m := range in {
		if strings.TrimSpace(m.Text) == "" {
			return errors.ValidationField(fmt.Sprintf("messages[%d].text", i), "message text must not be empty")
		}
		sender := strings.TrimSpace(m.Sender)
		if sender == "" {
			return errors.ValidationField(fmt.Sprintf("messages[%d].sender", i), "message sender must not be empty")
		}
		if sender != a && sender != b {
			return errors.ValidationField(fmt.Sprintf("messages[%d].sender", i), "sender is not one of the participants")
		}
	}

	return nil
}

// Adapt maps a validated conversation into the front end's display model.
// Pure and deterministic: the same input always produces the same output.
// The second participant is the "own side" of the conversation, so their
// bubbles are flagged IsMine and render right-aligned.
func Adapt(in []IncomingMessage, participants [2]string) []Message {
	out := make([]Message, len(in))
	for i, m := range in {
		sender := strings.TrimSpace(m.Sender)
		isMine := sender == participants[1]

		userID := "user1"
		if isMine {
			userID = "user2"
		}

		out[i] = Message{
			ID:        fmt.Sprintf("%d", i+1),
			Text:      m.Text,
			User:      User{ID: userID, Name: sender},
			Timestamp: baseTimestamp.Add(time.Duration(i) * timestampStep),
			IsMine:    isMine,
		}
	}
	return out
}
