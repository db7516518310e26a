package chat

// ToolSpec declares a tool the language model may call during a stage.
// Parameters describe the tool's input as a JSON Schema object.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// QuerySpec builds the declaration for a single-argument text-query tool,
// the shape shared by both retrieval tools.
func QuerySpec(name, description string) ToolSpec {
	return ToolSpec{
		Name:        name,
		Description: description,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Text query to search for.",
				},
			},
			"required": []string{"query"},
		},
	}
}
