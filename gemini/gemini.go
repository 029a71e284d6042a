// Package gemini implements [coursechat.Provider] for the Google Gemini
// API.
//
// It wraps the google.golang.org/genai SDK, translating between
// coursechat's domain types and the Gemini API types. Requests are
// non-streaming: the round loop consumes complete responses.
package gemini

const (
	defaultModel     = "gemini-2.5-flash"
	defaultMaxTokens = 800
)
