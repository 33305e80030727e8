// Package prompt assembles the ordered turn sequence sent to the completion
// backend.
package prompt

import (
	"strings"

	"github.com/comigor/chatbot-go/internal/chat"
)

// NameReminder is injected right after a user turn that introduces a name.
const NameReminder = "Remember this user's name and use it appropriately in future responses."

var nameIntroductions = []string{"my name is", "i am", "i'm", "call me"}

// IntroducesName reports whether text contains a name-introduction phrase.
func IntroducesName(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range nameIntroductions {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// Compose builds the turns for one completion call: a leading system turn for
// the persona (unless prior already starts with one), the prior turns in order
// then input as a user turn. Every user turn that introduces a name, input
// included, is followed by a NameReminder system turn. Turns with roles other than system, user or assistant are dropped. Neither
// argument is modified.
func Compose(t chat.ChatType, prior []chat.Turn, input string) []chat.Turn {
	persona, _ := chat.Lookup(t)

	out := make([]chat.Turn, 0, len(prior)+3)
	if len(prior) == 0 || prior[0].Role != chat.RoleSystem {
		out = append(out, chat.Turn{Role: chat.RoleSystem, Content: persona.SystemPrompt()})
	}

	for _, turn := range prior {
		if !turn.Role.Valid() {
			continue
		}
		out = appendTurn(out, turn)
	}

	return appendTurn(out, chat.Turn{Role: chat.RoleUser, Content: input})
}

func appendTurn(out []chat.Turn, turn chat.Turn) []chat.Turn {
	out = append(out, turn)
	if turn.Role == chat.RoleUser && IntroducesName(turn.Content) {
		out = append(out, chat.Turn{Role: chat.RoleSystem, Content: NameReminder})
	}
	return out
}
