// Package generator drives the bounded tool-calling conversation loop
// between a Provider and a tool dispatcher.
package generator

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/coursechat/coursechat"
)

// MaxToolRounds bounds the number of sequential tool-calling rounds per
// query. After the last permitted round the model is called once more
// without tool schemas to force a terminal text answer.
const MaxToolRounds = 2

const defaultMaxTokens = 800

// Dispatcher executes tool calls by name. *tools.Registry satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, args json.RawMessage) string
}

// Generator assembles answers by conversing with a Provider, executing
// the tool calls it requests round by round.
type Generator struct {
	provider  coursechat.Provider
	model     string
	maxTokens int
	logger    *slog.Logger
}

// Option configures a [Generator].
type Option func(*Generator)

// WithModel sets the model ID for provider requests.
// Empty string means the provider uses its default model.
func WithModel(model string) Option {
	return func(g *Generator) { g.model = model }
}

// WithMaxTokens sets the per-call output token budget. Default is 800:
// answers are meant to be brief.
func WithMaxTokens(n int) Option {
	return func(g *Generator) { g.maxTokens = n }
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// New creates a Generator with the given provider and options.
func New(provider coursechat.Provider, opts ...Option) *Generator {
	g := &Generator{
		provider:  provider,
		maxTokens: defaultMaxTokens,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate answers a query, optionally letting the model call tools.
//
// history is the prior conversation rendered as an opaque pre-formatted
// string; it is appended to the system prompt, not re-parsed. schemas
// lists the tools offered to the model, and dispatcher executes them.
// With empty schemas or a nil dispatcher exactly one model call is made.
//
// Provider transport errors propagate to the caller; tool failures are
// recovered locally as text the model can see.
func (g *Generator) Generate(ctx context.Context, query, history string, schemas []coursechat.ToolSchema, dispatcher Dispatcher) (string, error) {
	system := systemPrompt
	if history != "" {
		system = systemPrompt + "\n\nPrevious conversation:\n" + history
	}

	messages := []coursechat.Message{
		coursechat.UserMessage{Content: []coursechat.ContentBlock{coursechat.TextBlock{Text: query}}},
	}

	resp, err := g.complete(ctx, system, messages, schemas)
	if err != nil {
		return "", err
	}

	if resp.StopReason != coursechat.StopToolUse || dispatcher == nil {
		// A tool-use response without a dispatcher may carry no text at
		// all; an empty answer is acceptable here.
		return resp.Text(), nil
	}

	return g.runToolRounds(ctx, system, messages, resp, schemas, dispatcher)
}

// runToolRounds executes tool calls and re-invokes the model until it
// stops requesting tools or the round bound is reached.
func (g *Generator) runToolRounds(ctx context.Context, system string, messages []coursechat.Message, resp coursechat.AssistantMessage, schemas []coursechat.ToolSchema, dispatcher Dispatcher) (string, error) {
	current := resp

	for round := 0; round < MaxToolRounds; round++ {
		messages = append(messages, current)

		results := g.executeToolCalls(ctx, current, dispatcher)
		if len(results) == 0 {
			// Tool-use stop reason but no tool-use blocks: treat as
			// terminal rather than erroring.
			return current.Text(), nil
		}
		messages = append(messages, results...)

		// Offer tools again only while rounds remain; the last
		// permitted call goes out without schemas so the model is
		// forced toward a text answer.
		var nextSchemas []coursechat.ToolSchema
		if round < MaxToolRounds-1 {
			nextSchemas = schemas
		}

		next, err := g.complete(ctx, system, messages, nextSchemas)
		if err != nil {
			return "", err
		}
		if next.StopReason != coursechat.StopToolUse {
			return next.Text(), nil
		}
		current = next
	}

	// Round bound exhausted with the model still requesting tools.
	// Honor the final round's calls, then force a tool-less answer.
	messages = append(messages, current)
	if results := g.executeToolCalls(ctx, current, dispatcher); len(results) > 0 {
		messages = append(messages, results...)
	}

	final, err := g.complete(ctx, system, messages, nil)
	if err != nil {
		return "", err
	}
	return final.Text(), nil
}

func (g *Generator) complete(ctx context.Context, system string, messages []coursechat.Message, schemas []coursechat.ToolSchema) (coursechat.AssistantMessage, error) {
	temperature := 0.0
	resp, err := g.provider.Complete(ctx, coursechat.Request{
		Model:        g.model,
		SystemPrompt: system,
		Messages:     messages,
		Tools:        schemas,
		MaxTokens:    g.maxTokens,
		Temperature:  &temperature,
	})
	if err != nil {
		return coursechat.AssistantMessage{}, err
	}

	g.logger.Debug("model call completed",
		"stop_reason", resp.StopReason,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)
	return resp, nil
}

// executeToolCalls dispatches every tool-use block of the response in
// order, one result per call, each tagged with its originating call ID.
// A failed call yields an error-text result for that call only; sibling
// calls in the same round still run.
func (g *Generator) executeToolCalls(ctx context.Context, resp coursechat.AssistantMessage, dispatcher Dispatcher) []coursechat.Message {
	var results []coursechat.Message
	for _, call := range resp.ToolCalls() {
		g.logger.Debug("dispatching tool call", "tool", call.Name, "call_id", call.ID)
		output := dispatcher.Dispatch(ctx, call.Name, call.Arguments)
		results = append(results, coursechat.ToolResultMessage{
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Content:    output,
		})
	}
	return results
}
