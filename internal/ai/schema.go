package ai

import "encoding/json"

// Schema is a provider-neutral description of the JSON document a
// generation call must return. Gemini maps it onto a native response
// schema; OpenAI-compatible providers receive it as format instructions
// alongside JSON mode.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// Instructions renders the schema as a prompt fragment for providers
// without native schema support.
func (s *Schema) Instructions() string {
	if s == nil {
		return ""
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return ""
	}
	return "Return ONLY a JSON document matching this schema exactly:\n" + string(data)
}
