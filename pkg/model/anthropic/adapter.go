// Package anthropic provides an Anthropic implementation of the model
// provider.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/AlexandrePreito/meudashboard-sub003/pkg/classify"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/model"
)

// Config holds Anthropic adapter configuration.
type Config struct {
	// APIKey authenticates against the Anthropic API.
	APIKey string

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
}

// Adapter implements model.Provider using the Anthropic Messages API.
type Adapter struct {
	client sdk.Client
}

// New creates a new Anthropic adapter.
func New(cfg Config) (*Adapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}

	// Retry policy lives in the Invoker; the SDK's own retries are disabled
	// so attempts stay observable to the classifier.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Adapter{client: sdk.NewClient(opts...)}, nil
}

// Call performs one Messages API request.
func (a *Adapter) Call(ctx context.Context, params model.CallParams) (*model.CallResult, error) {
	req := sdk.MessageNewParams{
		Model:     sdk.Model(params.Model),
		MaxTokens: int64(params.MaxTokens),
		Messages:  buildMessages(params.Messages),
	}
	if params.System != "" {
		req.System = []sdk.TextBlockParam{{Text: params.System}}
	}
	if params.Temperature != nil {
		req.Temperature = sdk.Float(*params.Temperature)
	}
	for _, t := range params.Tools {
		req.Tools = append(req.Tools, sdk.ToolUnionParam{
			OfTool: &sdk.ToolParam{
				Name:        t.Name,
				Description: sdk.String(t.Description),
				InputSchema: sdk.ToolInputSchemaParam{
					Properties: t.InputSchema,
					Required:   t.Required,
				},
			},
		})
	}

	msg, err := a.client.Messages.New(ctx, req)
	if err != nil {
		return nil, wrapError(err)
	}
	return parseMessage(msg)
}

func buildMessages(messages []model.Message) []sdk.MessageParam {
	out := make([]sdk.MessageParam, 0, len(messages))
	for _, m := range messages {
		block := sdk.NewTextBlock(m.Content)
		if m.Role == model.RoleAssistant {
			out = append(out, sdk.NewAssistantMessage(block))
		} else {
			out = append(out, sdk.NewUserMessage(block))
		}
	}
	return out
}

// parseMessage extracts text and tool invocations from the response content
// blocks.
func parseMessage(msg *sdk.Message) (*model.CallResult, error) {
	result := &model.CallResult{
		StopReason: mapStopReason(string(msg.StopReason)),
	}

	var textParts []string
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case sdk.TextBlock:
			textParts = append(textParts, variant.Text)
		case sdk.ToolUseBlock:
			input, err := decodeInput(variant.Input)
			if err != nil {
				return nil, fmt.Errorf("decoding tool input: %w", err)
			}
			result.ToolCalls = append(result.ToolCalls, model.ToolCall{
				ID:    variant.ID,
				Name:  variant.Name,
				Input: input,
			})
		}
	}
	result.Text = strings.Join(textParts, "\n")
	return result, nil
}

// decodeInput round-trips the SDK's tool input into a plain map.
func decodeInput(raw any) (map[string]any, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var input map[string]any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}
	return input, nil
}

func mapStopReason(reason string) model.StopReason {
	switch reason {
	case "tool_use":
		return model.StopToolUse
	case "max_tokens":
		return model.StopMaxTokens
	default:
		return model.StopEndTurn
	}
}

// wrapError surfaces the HTTP status of API errors so the classifier can
// apply its status-based branches.
func wrapError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return &classify.StatusError{Status: apiErr.StatusCode, Err: err}
	}
	return err
}

// Verify interface compliance.
var _ model.Provider = (*Adapter)(nil)
