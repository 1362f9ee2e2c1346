package service

import (
	"github.com/SergioCalderon101/Project-Synapse/cmd/chat-service/internal/store/models"
)

// ApplyContextLimit truncates a message list to at most maxLength entries.
// The leading system message is always retained and counts toward the budget;
// the rest is trimmed from the oldest end, preserving relative order. Lists
// already within the limit are returned unchanged. The result of a call is a
// fixed point: applying the limit again is a no-op.
func ApplyContextLimit(messages []models.Message, maxLength int) []models.Message {
	if len(messages) <= maxLength {
		return messages
	}

	var system []models.Message
	if messages[0].Role == models.RoleSystem {
		system = messages[:1]
	}

	rest := make([]models.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role != models.RoleSystem {
			rest = append(rest, m)
		}
	}

	keep := maxLength - len(system)
	if keep < 0 {
		keep = 0
	}
	if keep < len(rest) {
		rest = rest[len(rest)-keep:]
	}

	limited := make([]models.Message, 0, len(system)+len(rest))
	limited = append(limited, system...)
	return append(limited, rest...)
}
