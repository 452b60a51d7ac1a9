package llm

import "github.com/openai/openai-go/responses"

type Role string

const (
	RoleSystem    Role = "system"
	RoleDeveloper Role = "developer"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) easyRole() responses.EasyInputMessageRole {
	switch r {
	case RoleSystem:
		return responses.EasyInputMessageRoleSystem
	case RoleDeveloper:
		return responses.EasyInputMessageRoleDeveloper
	case RoleAssistant:
		return responses.EasyInputMessageRoleAssistant
	default:
		return responses.EasyInputMessageRoleUser
	}
}

// Turn is one role-tagged entry of the conversation sent to the provider.
type Turn struct {
	Role    Role
	Content string
}

type Request struct {
	Turns []Turn
	Tools []Tool
}

const (
	ToolTypeFunction  = "function"
	ToolTypeWebSearch = "web_search"
)

// Tool is a tool declaration in the Responses API shape.
type Tool struct {
	Type        string  `json:"type"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
	Strict      *bool   `json:"strict,omitempty"`
}

// Schema is the subset of JSON Schema used by tool parameters.
type Schema struct {
	Type                 string             `json:"type"`
	Description          string             `json:"description,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties *bool              `json:"additionalProperties,omitempty"`
}

func WebSearchTool() Tool {
	return Tool{Type: ToolTypeWebSearch}
}

// FunctionTool declares a non-strict function tool, so optional arguments
// may be left out of the call.
func FunctionTool(name, description string, params *Schema) Tool {
	strict := false
	return Tool{Type: ToolTypeFunction, Name: name, Description: description, Parameters: params, Strict: &strict}
}
