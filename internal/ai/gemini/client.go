package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spigell/ai-interviewer/internal/ai"
	"github.com/spigell/ai-interviewer/internal/chat"
	"github.com/spigell/ai-interviewer/internal/logger"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	providerName = "gemini"
	defaultModel = "gemini-2.5-pro"

	defaultMaxLogLength = 200
)

// Client wraps the Google GenAI client behind the ai.Generator interface,
// translating between the session message log and the Gemini content format.
type Client struct {
	client    *genai.Client
	modelName string
	logger    *zap.Logger
	maxLogLen int
}

// New creates a Client configured for the Gemini API backend.
func New(ctx context.Context, apiKey, model string, maxLogLength int, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Client{
		client:    client,
		modelName: model,
		logger:    logger.WithProviderFields(log, providerName, model),
		maxLogLen: maxLogLength,
	}, nil
}

func (c *Client) Name() string { return providerName }

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.modelName
}

// Invoke sends the instruction, history and tool declarations to Gemini and
// returns the assistant message, carrying pending tool calls when the model
// requested any.
func (c *Client) Invoke(ctx context.Context, instruction string, history []chat.Message, tools []chat.ToolSpec) (chat.Message, error) {
	if c == nil || c.client == nil {
		return chat.Message{}, errors.New("gemini client is not initialized")
	}

	contents, err := toContents(history)
	if err != nil {
		return chat.Message{}, err
	}

	if len(contents) == 0 {
		return chat.Message{}, errors.New("message history must not be empty")
	}

	config := &genai.GenerateContentConfig{}
	if instruction = strings.TrimSpace(instruction); instruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: instruction}},
		}
	}

	if len(tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: toDeclarations(tools)}}
	}

	c.logger.Debug("gemini generate content request",
		zap.Int("history_length", len(contents)),
		zap.Int("declared_tools", len(tools)),
		zap.String("instruction_preview", logger.TruncateForLog(instruction, c.maxLogLen)),
	)

	resp, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, config)
	if err != nil {
		return chat.Message{}, fmt.Errorf("%w: gemini: %v", ai.ErrModelUnavailable, err)
	}

	msg, err := fromResponse(resp)
	if err != nil {
		return chat.Message{}, err
	}

	c.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(msg.Content)),
		zap.Int("tool_calls", len(msg.ToolCalls)),
		zap.String("response_preview", logger.TruncateForLog(msg.Content, c.maxLogLen)),
	)

	return msg, nil
}

// toContents converts a session message log into the Gemini content list.
// Tool result messages become user-role function response parts, which is how
// the Gemini API expects tool output to be returned.
func toContents(history []chat.Message) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(history))

	for _, msg := range history {
		switch msg.Role {
		case chat.RoleHuman:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		case chat.RoleAssistant:
			parts := make([]*genai.Part, 0, len(msg.ToolCalls)+1)
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   call.ID,
					Name: call.Name,
					Args: call.Arguments,
				}})
			}
			if len(parts) == 0 {
				parts = append(parts, &genai.Part{Text: ""})
			}
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
		case chat.RoleTool:
			contents = append(contents, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{{FunctionResponse: &genai.FunctionResponse{
					ID:       msg.ToolCallID,
					Name:     msg.ToolName,
					Response: map[string]any{"output": msg.Content},
				}}},
			})
		default:
			return nil, fmt.Errorf("unsupported message role: %s", msg.Role)
		}
	}

	return contents, nil
}

func toDeclarations(tools []chat.ToolSpec) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  toSchema(tool.Parameters),
		})
	}
	return decls
}

// toSchema converts a JSON Schema object into the genai schema type. Only the
// subset used by the tool declarations (object/string types, properties,
// required, description) is translated.
func toSchema(params map[string]any) *genai.Schema {
	if len(params) == 0 {
		return nil
	}

	schema := &genai.Schema{}

	if t, ok := params["type"].(string); ok {
		switch t {
		case "object":
			schema.Type = genai.TypeObject
		case "string":
			schema.Type = genai.TypeString
		case "number":
			schema.Type = genai.TypeNumber
		case "integer":
			schema.Type = genai.TypeInteger
		case "boolean":
			schema.Type = genai.TypeBoolean
		}
	}

	if desc, ok := params["description"].(string); ok {
		schema.Description = desc
	}

	if props, ok := params["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if prop, ok := raw.(map[string]any); ok {
				schema.Properties[name] = toSchema(prop)
			}
		}
	}

	switch required := params["required"].(type) {
	case []string:
		schema.Required = required
	case []any:
		for _, raw := range required {
			if name, ok := raw.(string); ok {
				schema.Required = append(schema.Required, name)
			}
		}
	}

	return schema
}

func fromResponse(resp *genai.GenerateContentResponse) (chat.Message, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return chat.Message{}, errors.New("gemini api returned empty response")
	}

	var builder strings.Builder
	var calls []chat.ToolCall

	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}

			if part.FunctionCall != nil {
				calls = append(calls, chat.ToolCall{
					ID:        part.FunctionCall.ID,
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				})
				continue
			}

			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	content := strings.TrimSpace(builder.String())
	if content == "" && len(calls) == 0 {
		return chat.Message{}, errors.New("gemini api returned empty response")
	}

	return chat.Message{Role: chat.RoleAssistant, Content: content, ToolCalls: calls}, nil
}
