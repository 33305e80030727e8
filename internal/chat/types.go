// Package chat holds the vocabulary shared by the composer, the completion
// gateway and the conversation store: chatbot types, roles and turns.
package chat

import "strings"

// ChatType names a persona configuration.
type ChatType string

const (
	TypeGeneral  ChatType = "general"
	TypeTravel   ChatType = "travel"
	TypeLearning ChatType = "learning"
	TypeCoding   ChatType = "coding"
)

// Types lists every known chatbot type in display order.
var Types = []ChatType{TypeGeneral, TypeTravel, TypeLearning, TypeCoding}

// Valid reports whether t is one of the known chatbot types.
func (t ChatType) Valid() bool {
	switch t {
	case TypeGeneral, TypeTravel, TypeLearning, TypeCoding:
		return true
	}
	return false
}

// ParseType normalises a client-supplied type. Empty input yields general;
// unknown input is returned as-is so the persona lookup can signal the fallback.
func ParseType(s string) ChatType {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TypeGeneral
	}
	return ChatType(s)
}

// Role tags the author of a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is system, user or assistant.
func (r Role) Valid() bool {
	return r == RoleSystem || r == RoleUser || r == RoleAssistant
}

// Turn is one role-tagged unit of conversational text.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
