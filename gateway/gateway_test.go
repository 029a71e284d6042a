package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursechat/coursechat"
	"github.com/coursechat/coursechat/gateway"
	"github.com/coursechat/coursechat/generator"
	"github.com/coursechat/coursechat/mock"
	"github.com/coursechat/coursechat/rag"
	"github.com/coursechat/coursechat/session"
)

type stats struct {
	count  int
	titles []string
}

func (s *stats) CourseCount(context.Context) (int, error)       { return s.count, nil }
func (s *stats) CourseTitles(context.Context) ([]string, error) { return s.titles, nil }

func newTestServer(t *testing.T, provider coursechat.Provider) (*gateway.Server, *rag.System) {
	t.Helper()

	system, err := rag.New(rag.Config{
		Generator: generator.New(provider),
		Searcher:  &mock.Searcher{},
		Catalog:   &mock.Catalog{},
		Stats:     &stats{count: 1, titles: []string{"Building Toward Computer Use"}},
		Sessions:  session.NewManager(),
	})
	require.NoError(t, err)
	return gateway.New("127.0.0.1:0", system), system
}

func textProvider(text string) *mock.ScriptedProvider {
	return &mock.ScriptedProvider{Responses: []coursechat.AssistantMessage{{
		Content:    []coursechat.ContentBlock{coursechat.TextBlock{Text: text}},
		StopReason: coursechat.StopEndTurn,
	}}}
}

func doRequest(t *testing.T, server *gateway.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestQueryCreatesSession(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, textProvider("An answer."))

	rec := doRequest(t, server, http.MethodPost, "/api/query", `{"query":"What is MCP?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Answer    string              `json:"answer"`
		Sources   []coursechat.Source `json:"sources"`
		SessionID string              `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "An answer.", resp.Answer)
	assert.NotEmpty(t, resp.SessionID)
	assert.NotNil(t, resp.Sources)
}

func TestQueryReusesSession(t *testing.T) {
	t.Parallel()

	server, system := newTestServer(t, textProvider("An answer."))
	id := system.NewSession()

	rec := doRequest(t, server, http.MethodPost, "/api/query",
		`{"query":"What is MCP?","session_id":"`+id+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.SessionID)
}

func TestQueryRejectsEmptyQuery(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, textProvider("unused"))

	rec := doRequest(t, server, http.MethodPost, "/api/query", `{"query":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "query is required")

	rec = doRequest(t, server, http.MethodPost, "/api/query", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryProviderError(t *testing.T) {
	t.Parallel()

	provider := &mock.Provider{
		CompleteFn: func(context.Context, coursechat.Request) (coursechat.AssistantMessage, error) {
			return coursechat.AssistantMessage{}, assert.AnError
		},
	}
	server, _ := newTestServer(t, provider)

	rec := doRequest(t, server, http.MethodPost, "/api/query", `{"query":"boom"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestCourses(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, textProvider("unused"))

	rec := doRequest(t, server, http.MethodGet, "/api/courses", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		TotalCourses int      `json:"total_courses"`
		CourseTitles []string `json:"course_titles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalCourses)
	assert.Equal(t, []string{"Building Toward Computer Use"}, resp.CourseTitles)
}

func TestDeleteSession(t *testing.T) {
	t.Parallel()

	server, system := newTestServer(t, textProvider("unused"))
	id := system.NewSession()

	rec := doRequest(t, server, http.MethodDelete, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, server, http.MethodDelete, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t, textProvider("unused"))

	rec := doRequest(t, server, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
