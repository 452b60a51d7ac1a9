package assistant

import (
	"encoding/json"
	"strings"

	"github.com/samber/lo"

	"tripassistant/llm"
)

const systemPrompt = "You are Surmai's AI-powered itinerary assistant. Use the trip context to answer questions, " +
	"reference actual plans, and offer proactive suggestions when helpful. Keep answers concise, organized, and " +
	"grounded in the provided data unless the user explicitly asks for speculation. Write times in 12-hour format " +
	"with AM/PM instead of 24-hour time, for every time you read, edit, or add. Write dates as MM-DD without the year. " +
	"When the traveler asks you to add, adjust, or remove something, call the matching function " +
	"(create/update/delete activity/lodging/transportation). Always include the record_id from the trip context " +
	"when editing or deleting. Never treat a change as saved until the traveler approves it, and mention any " +
	"assumptions you make when inferring missing details."

const contextPromptPrefix = "Latest trip context:\n"

// Message is one entry of the conversation as sent by the client.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type promptOptions struct {
	historyLimit int
}

type PromptOption func(*promptOptions)

// WithHistoryLimit keeps only the last n usable messages. Zero keeps all.
func WithHistoryLimit(n int) PromptOption {
	return func(o *promptOptions) {
		o.historyLimit = n
	}
}

// BuildTurns produces the provider input: the behavioral instructions, the
// serialized snapshot, then the user and assistant messages in order.
func BuildTurns(messages []Message, tripCtx *TripContext, opts ...PromptOption) ([]llm.Turn, error) {
	var o promptOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctxJSON, err := json.MarshalIndent(tripCtx, "", "  ")
	if err != nil {
		return nil, err
	}

	usable := lo.Filter(messages, func(m Message, _ int) bool {
		if strings.TrimSpace(m.Content) == "" {
			return false
		}
		return m.Role == string(llm.RoleUser) || m.Role == string(llm.RoleAssistant)
	})
	if o.historyLimit > 0 && len(usable) > o.historyLimit {
		usable = usable[len(usable)-o.historyLimit:]
	}

	turns := make([]llm.Turn, 0, len(usable)+2)
	turns = append(turns,
		llm.Turn{Role: llm.RoleDeveloper, Content: systemPrompt},
		llm.Turn{Role: llm.RoleDeveloper, Content: contextPromptPrefix + string(ctxJSON)},
	)
	for _, m := range usable {
		turns = append(turns, llm.Turn{Role: llm.Role(m.Role), Content: m.Content})
	}
	return turns, nil
}

// HasUserMessage reports whether the conversation carries anything to answer.
func HasUserMessage(messages []Message) bool {
	return lo.ContainsBy(messages, func(m Message) bool {
		return m.Role == string(llm.RoleUser) && strings.TrimSpace(m.Content) != ""
	})
}
