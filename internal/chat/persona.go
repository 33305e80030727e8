package chat

import "github.com/comigor/chatbot-go/internal/logger"

// Sampling carries the per-persona completion parameters.
type Sampling struct {
	Temperature      float32 `json:"temperature"`
	PresencePenalty  float32 `json:"presence_penalty"`
	FrequencyPenalty float32 `json:"frequency_penalty"`
}

// Persona is a system prompt template plus its sampling parameters.
type Persona struct {
	Type     ChatType `json:"type"`
	Prompt   string   `json:"prompt"`
	Sampling Sampling `json:"sampling"`
}

// AdditionalInstructions is appended to every synthesized system turn.
const AdditionalInstructions = `Additional Instructions:
1. Always use the user's name if they've shared it
2. Refer back to previous parts of the conversation when relevant
3. Build upon previously shared information
4. Keep track of user preferences and details
5. Be consistent with how you address the user`

// personas is initialised once and never written afterwards; callers only
// ever receive copies through Lookup and Personas.
var personas = map[ChatType]Persona{
	TypeGeneral: {
		Type: TypeGeneral,
		Prompt: `You are a helpful AI assistant. Your responses should be natural and conversational.
Important:
1. Remember and maintain context from the conversation history
2. Remember personal details shared by the user (names, preferences, etc.)
3. Use remembered information to provide personalized responses
4. Be consistent with previously shared information
5. If asked about something mentioned earlier in the conversation, refer back to it accurately`,
		Sampling: Sampling{Temperature: 0.7, PresencePenalty: 0.6, FrequencyPenalty: 0.3},
	},
	TypeTravel: {
		Type: TypeTravel,
		Prompt: `You are a knowledgeable travel assistant. Help users plan their trips and provide detailed travel advice.
Important:
1. Remember user's travel preferences, constraints, and past trips
2. Provide specific recommendations based on user's interests
3. Consider seasonal factors and current travel conditions
4. Maintain context of the travel planning discussion
5. Offer practical tips and local insights
6. Keep track of the trip itinerary being discussed`,
		Sampling: Sampling{Temperature: 0.7, PresencePenalty: 0.6, FrequencyPenalty: 0.3},
	},
	TypeLearning: {
		Type: TypeLearning,
		Prompt: `You are an educational assistant focused on helping users learn and understand new concepts.
Important:
1. Remember user's learning goals and progress
2. Adapt explanations based on user's understanding level
3. Build upon previously discussed concepts
4. Provide examples that relate to user's interests
5. Break down complex topics into manageable parts
6. Encourage critical thinking and deeper understanding`,
		Sampling: Sampling{Temperature: 0.5, PresencePenalty: 0.3, FrequencyPenalty: 0.3},
	},
	TypeCoding: {
		Type: TypeCoding,
		Prompt: `You are a coding assistant helping users with programming and development.
Important:
1. Remember the programming languages and technologies being discussed
2. Maintain context of the codebase and architecture
3. Provide explanations along with code examples
4. Follow best practices and coding standards
5. Consider performance and security implications
6. Help debug issues by analyzing error messages and code context`,
		Sampling: Sampling{Temperature: 0.3, PresencePenalty: 0.2, FrequencyPenalty: 0.3},
	},
}

// Lookup returns the persona for t. An empty type means general. Unknown
// types fall back to general with a warning; ok is false in that case.
func Lookup(t ChatType) (p Persona, ok bool) {
	if t == "" {
		return personas[TypeGeneral], true
	}
	p, ok = personas[t]
	if !ok {
		logger.L.Warnw("unknown chatbot type, falling back to general", "chatbot_type", string(t))
		return personas[TypeGeneral], false
	}
	return p, true
}

// Personas returns a copy of the persona table in Types order.
func Personas() []Persona {
	out := make([]Persona, 0, len(Types))
	for _, t := range Types {
		out = append(out, personas[t])
	}
	return out
}

// SystemPrompt is the full text of the synthesized leading system turn.
func (p Persona) SystemPrompt() string {
	return p.Prompt + "\n\n" + AdditionalInstructions
}
