package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coursechat/coursechat"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ coursechat.Provider = (*Client)(nil)

// Client implements [coursechat.Provider] for the Google Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID. Default is gemini-2.5-flash.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c := &Client{
		client: gc,
		model:  defaultModel,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Complete sends a request to the Gemini API and returns the assembled
// assistant message.
func (c *Client) Complete(ctx context.Context, req coursechat.Request) (coursechat.AssistantMessage, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	contents := ConvertMessages(req.Messages)
	config := buildConfig(req)

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return coursechat.AssistantMessage{}, fmt.Errorf("gemini: %w", err)
	}

	return ConvertResponse(resp), nil
}

func buildConfig(req coursechat.Request) *genai.GenerateContentConfig {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		Tools:           ConvertTools(req.Tools),
	}

	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}

	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}

	return config
}

// ConvertMessages converts coursechat Messages to genai Contents.
// Exported for testing.
func ConvertMessages(msgs []coursechat.Message) []*genai.Content {
	var result []*genai.Content
	for _, msg := range msgs {
		switch m := msg.(type) {
		case coursechat.UserMessage:
			result = append(result, &genai.Content{
				Role:  "user",
				Parts: convertParts(m.Content),
			})
		case coursechat.AssistantMessage:
			result = append(result, &genai.Content{
				Role:  "model",
				Parts: convertParts(m.Content),
			})
		case coursechat.ToolResultMessage:
			var responseMap map[string]any
			if m.IsError {
				responseMap = map[string]any{"error": m.Content}
			} else {
				responseMap = map[string]any{"output": m.Content}
			}
			result = append(result, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       m.ToolCallID,
						Name:     m.ToolName,
						Response: responseMap,
					},
				}},
			})
		}
	}
	return result
}

func convertParts(blocks []coursechat.ContentBlock) []*genai.Part {
	var parts []*genai.Part
	for _, b := range blocks {
		switch bl := b.(type) {
		case coursechat.TextBlock:
			parts = append(parts, &genai.Part{Text: bl.Text})
		case coursechat.ThinkingBlock:
			parts = append(parts, &genai.Part{Text: bl.Thinking, Thought: true})
		case coursechat.ToolCallBlock:
			// Arguments is json.RawMessage, always valid JSON from domain types.
			var args map[string]any
			_ = json.Unmarshal(bl.Arguments, &args)
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					ID:   bl.ID,
					Name: bl.Name,
					Args: args,
				},
			})
		}
	}
	return parts
}

// ConvertTools converts coursechat tool schemas to genai Tools.
// Exported for testing.
func ConvertTools(tools []coursechat.ToolSchema) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		// InputSchema is json.RawMessage, always valid JSON from domain types.
		var schema map[string]any
		_ = json.Unmarshal(t.InputSchema, &schema)
		decls[i] = &genai.FunctionDeclaration{
			Name:                 t.Name,
			Description:          t.Description,
			ParametersJsonSchema: schema,
		}
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// ConvertResponse converts a genai response into an AssistantMessage.
// Exported for testing.
func ConvertResponse(resp *genai.GenerateContentResponse) coursechat.AssistantMessage {
	msg := coursechat.AssistantMessage{StopReason: coursechat.StopEndTurn}

	if resp.UsageMetadata != nil {
		msg.Usage = coursechat.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		msg.StopReason = coursechat.StopUnknown
		return msg
	}

	cand := resp.Candidates[0]
	msg.RawStopReason = string(cand.FinishReason)
	if cand.FinishReason == genai.FinishReasonMaxTokens {
		msg.StopReason = coursechat.StopLength
	}

	for i, part := range cand.Content.Parts {
		switch {
		case part.FunctionCall != nil:
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				args = json.RawMessage(`{}`)
			}
			id := part.FunctionCall.ID
			if id == "" {
				// Gemini omits call IDs; synthesize stable ones so tool
				// results can still be paired with their calls.
				id = fmt.Sprintf("call_%d_%s", i, part.FunctionCall.Name)
			}
			msg.Content = append(msg.Content, coursechat.ToolCallBlock{
				ID:        id,
				Name:      part.FunctionCall.Name,
				Arguments: args,
			})
			msg.StopReason = coursechat.StopToolUse
		case part.Thought:
			msg.Content = append(msg.Content, coursechat.ThinkingBlock{Thinking: part.Text})
		case part.Text != "":
			msg.Content = append(msg.Content, coursechat.TextBlock{Text: part.Text})
		}
	}

	return msg
}
