package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursechat/coursechat"
	"github.com/coursechat/coursechat/session"
)

func TestCreateReturnsUniqueIDs(t *testing.T) {
	t.Parallel()

	manager := session.NewManager()

	first := manager.Create()
	second := manager.Create()
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestHistoryFormat(t *testing.T) {
	t.Parallel()

	manager := session.NewManager()
	id := manager.Create()

	manager.AddExchange(id, "What is MCP?", "MCP is a protocol.")
	manager.AddExchange(id, "Who created it?", "Anthropic.")

	want := "User: What is MCP?\n" +
		"Assistant: MCP is a protocol.\n" +
		"User: Who created it?\n" +
		"Assistant: Anthropic."
	assert.Equal(t, want, manager.History(id))
}

func TestHistoryTruncatesToMaxExchanges(t *testing.T) {
	t.Parallel()

	manager := session.NewManager(session.WithMaxHistory(2))
	id := manager.Create()

	manager.AddExchange(id, "one", "1")
	manager.AddExchange(id, "two", "2")
	manager.AddExchange(id, "three", "3")

	history := manager.History(id)
	assert.NotContains(t, history, "one")
	assert.Contains(t, history, "User: two")
	assert.Contains(t, history, "User: three")
}

func TestHistoryUnknownSession(t *testing.T) {
	t.Parallel()

	manager := session.NewManager()
	assert.Empty(t, manager.History("missing"))
}

func TestAddExchangeCreatesSessionImplicitly(t *testing.T) {
	t.Parallel()

	manager := session.NewManager()
	manager.AddExchange("client-chosen", "hello", "hi")

	assert.Equal(t, "User: hello\nAssistant: hi", manager.History("client-chosen"))
}

func TestDelete(t *testing.T) {
	t.Parallel()

	manager := session.NewManager()
	id := manager.Create()
	manager.AddExchange(id, "hello", "hi")

	require.NoError(t, manager.Delete(id))
	assert.Empty(t, manager.History(id))

	err := manager.Delete(id)
	assert.ErrorIs(t, err, coursechat.ErrSessionNotFound)
}
