// Package mock provides test doubles for coursechat interfaces using
// function fields.
package mock

import (
	"context"

	"github.com/coursechat/coursechat"
)

// Interface compliance check.
var _ coursechat.Provider = (*Provider)(nil)

// Provider is a test double for coursechat.Provider.
// Set CompleteFn before calling Complete.
type Provider struct {
	CompleteFn func(ctx context.Context, req coursechat.Request) (coursechat.AssistantMessage, error)

	// Requests records every request passed to Complete, in order.
	Requests []coursechat.Request
}

// Complete records the request and delegates to CompleteFn.
func (p *Provider) Complete(ctx context.Context, req coursechat.Request) (coursechat.AssistantMessage, error) {
	p.Requests = append(p.Requests, req)
	return p.CompleteFn(ctx, req)
}

// ScriptedProvider returns each response in order, one per Complete
// call. It fails the test boundary by returning the last response again
// if called more times than scripted responses exist.
type ScriptedProvider struct {
	Responses []coursechat.AssistantMessage

	// Requests records every request passed to Complete, in order.
	Requests []coursechat.Request
}

// Complete returns the next scripted response.
func (p *ScriptedProvider) Complete(_ context.Context, req coursechat.Request) (coursechat.AssistantMessage, error) {
	p.Requests = append(p.Requests, req)
	idx := len(p.Requests) - 1
	if idx >= len(p.Responses) {
		idx = len(p.Responses) - 1
	}
	return p.Responses[idx], nil
}

// Interface compliance check.
var _ coursechat.Provider = (*ScriptedProvider)(nil)
