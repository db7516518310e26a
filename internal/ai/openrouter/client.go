// Package openrouter implements the ai.Generator interface on top of any
// OpenAI-compatible chat completion endpoint (OpenRouter, Groq and similar).
package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/spigell/ai-interviewer/internal/ai"
	"github.com/spigell/ai-interviewer/internal/chat"
	"github.com/spigell/ai-interviewer/internal/logger"
	"go.uber.org/zap"
)

const defaultMaxLogLength = 200

// Config describes one OpenAI-compatible backend.
type Config struct {
	// Provider is the human-readable backend name used in logs and errors,
	// e.g. "openrouter" or "groq".
	Provider string
	// BaseURL is the API endpoint, e.g. "https://openrouter.ai/api/v1".
	BaseURL string
	APIKey  string
	Model   string
	// Temperature is passed through to the completion request when positive.
	Temperature  float64
	MaxLogLength int
}

// Client talks to an OpenAI-compatible chat completion API.
type Client struct {
	client      openai.Client
	provider    string
	modelName   string
	temperature float64
	logger      *zap.Logger
	maxLogLen   int
}

// New creates a Client for the configured backend.
func New(cfg Config, log *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s api key is required", cfg.Provider)
	}

	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("%s model is required", cfg.Provider)
	}

	options := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if url := strings.TrimSpace(cfg.BaseURL); url != "" {
		options = append(options, option.WithBaseURL(url))
	}

	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Client{
		client:      openai.NewClient(options...),
		provider:    cfg.Provider,
		modelName:   cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger.WithProviderFields(log, cfg.Provider, cfg.Model),
		maxLogLen:   maxLogLen,
	}, nil
}

func (c *Client) Name() string { return c.provider }

func (c *Client) Model() string { return c.modelName }

// Invoke sends the instruction, history and tool declarations as a chat
// completion request and converts the first choice back into a session
// message.
func (c *Client) Invoke(ctx context.Context, instruction string, history []chat.Message, tools []chat.ToolSpec) (chat.Message, error) {
	params := openai.ChatCompletionNewParams{
		Model:    c.modelName,
		Messages: toParams(instruction, history),
	}

	if c.temperature > 0 {
		params.Temperature = openai.Float(c.temperature)
	}

	for _, tool := range tools {
		params.Tools = append(params.Tools, toToolParam(tool))
	}

	c.logger.Debug("chat completion request",
		zap.Int("history_length", len(history)),
		zap.Int("declared_tools", len(tools)),
		zap.String("instruction_preview", logger.TruncateForLog(instruction, c.maxLogLen)),
	)

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return chat.Message{}, fmt.Errorf("%w: %s: %v", ai.ErrModelUnavailable, c.provider, err)
	}

	if len(completion.Choices) == 0 {
		return chat.Message{}, fmt.Errorf("%s api returned no choices", c.provider)
	}

	msg, err := fromCompletion(completion.Choices[0].Message)
	if err != nil {
		return chat.Message{}, err
	}

	c.logger.Debug("chat completion response",
		zap.Int("response_length", utf8.RuneCountInString(msg.Content)),
		zap.Int("tool_calls", len(msg.ToolCalls)),
		zap.String("response_preview", logger.TruncateForLog(msg.Content, c.maxLogLen)),
	)

	return msg, nil
}

func toParams(instruction string, history []chat.Message) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)

	if instruction = strings.TrimSpace(instruction); instruction != "" {
		params = append(params, openai.SystemMessage(instruction))
	}

	for _, msg := range history {
		switch msg.Role {
		case chat.RoleHuman:
			params = append(params, openai.UserMessage(msg.Content))
		case chat.RoleAssistant:
			param := openai.AssistantMessage(msg.Content)
			for _, call := range msg.ToolCalls {
				param.OfAssistant.ToolCalls = append(param.OfAssistant.ToolCalls, toToolCallParam(call))
			}
			params = append(params, param)
		case chat.RoleTool:
			params = append(params, openai.ToolMessage(msg.Content, msg.ToolCallID))
		}
	}

	return params
}

func toToolParam(tool chat.ToolSpec) openai.ChatCompletionToolUnionParam {
	return openai.ChatCompletionToolUnionParam{
		OfFunction: &openai.ChatCompletionFunctionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  openai.FunctionParameters(tool.Parameters),
			},
		},
	}
}

func toToolCallParam(call chat.ToolCall) openai.ChatCompletionMessageToolCallUnionParam {
	return openai.ChatCompletionMessageToolCallUnionParam{
		OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
			ID: call.ID,
			Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
				Name:      call.Name,
				Arguments: encodeArguments(call.Arguments),
			},
		},
	}
}

func fromCompletion(msg openai.ChatCompletionMessage) (chat.Message, error) {
	out := chat.Message{Role: chat.RoleAssistant, Content: strings.TrimSpace(msg.Content)}

	for _, call := range msg.ToolCalls {
		args, err := decodeArguments(call.Function.Arguments)
		if err != nil {
			return chat.Message{}, fmt.Errorf("decode arguments of tool call %s: %w", call.Function.Name, err)
		}

		out.ToolCalls = append(out.ToolCalls, chat.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: args,
		})
	}

	if out.Content == "" && len(out.ToolCalls) == 0 {
		return chat.Message{}, errors.New("api returned empty message")
	}

	return out, nil
}

func encodeArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}

	data, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func decodeArguments(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	return args, nil
}
