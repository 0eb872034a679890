package transcript

import (
	"strings"

	"github.com/huygnguyen04/at-everyone/internal/model"
)

// DefaultMinMessages is the qualifying threshold for a participant.
const DefaultMinMessages = 5

// ForUser returns the messages authored by username, in transcript order.
func ForUser(msgs []model.Message, username string) []model.Message {
	var out []model.Message
	for _, m := range msgs {
		if m.Author.Name == username {
			out = append(out, m)
		}
	}
	return out
}

// QualifyingUsernames returns authors with at least min messages whose
// trimmed content is non-empty, ordered by their first such message.
func QualifyingUsernames(msgs []model.Message, min int) []string {
	counts := make(map[string]int)
	var order []string
	for _, m := range msgs {
		name := m.Author.Name
		if name == "" || strings.TrimSpace(m.Content) == "" {
			continue
		}
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}
	out := make([]string, 0, len(order))
	for _, name := range order {
		if counts[name] >= min {
			out = append(out, name)
		}
	}
	return out
}
