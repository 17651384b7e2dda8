package adapter_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gebeer/conversation-search-mcp/internal/adapter"
)

func TestCodexNormalize_Messages(t *testing.T) {
	a := &adapter.CodexAdapter{}

	user := a.Normalize(json.RawMessage(`{
		"timestamp": "2026-03-02T09:00:00Z",
		"type": "event_msg",
		"payload": {"type": "user_message", "message": "add a retry flag"}
	}`))
	require.Equal(t, adapter.KindUser, user.Kind)
	require.Equal(t, "add a retry flag", user.Text)

	agent := a.Normalize(json.RawMessage(`{
		"type": "event_msg",
		"payload": {"type": "agent_message", "message": "added --retry"}
	}`))
	require.Equal(t, adapter.KindAssistant, agent.Kind)
	require.Equal(t, "added --retry", agent.Text)
}

func TestCodexNormalize_SessionMeta(t *testing.T) {
	a := &adapter.CodexAdapter{}
	rec := a.Normalize(json.RawMessage(`{
		"type": "session_meta",
		"payload": {"cwd": "/home/me/proj"}
	}`))

	require.Equal(t, adapter.KindMeta, rec.Kind)
	require.Equal(t, "/home/me/proj", rec.CWD)
}

func TestCodexNormalize_FunctionCall(t *testing.T) {
	a := &adapter.CodexAdapter{}
	rec := a.Normalize(json.RawMessage(`{
		"type": "response_item",
		"payload": {"type": "function_call", "name": "shell", "arguments": "{\"command\": \"ls -la\"}"}
	}`))

	require.Equal(t, adapter.KindAssistant, rec.Kind)
	require.Equal(t, []string{"shell"}, rec.ToolNames)
	require.Equal(t, "shell: ls -la", rec.ToolRenderings[0].String())
}

func TestCodexNormalize_ToolOutputAndBanners(t *testing.T) {
	a := &adapter.CodexAdapter{}

	out := a.Normalize(json.RawMessage(`{
		"type": "response_item",
		"payload": {"type": "function_call_output"}
	}`))
	require.Equal(t, adapter.KindSkip, out.Kind)
	require.True(t, out.IsToolResult)

	env := a.Normalize(json.RawMessage(`{
		"type": "event_msg",
		"payload": {"type": "user_message", "message": "<environment_context>cwd=/tmp</environment_context>"}
	}`))
	require.Equal(t, adapter.KindSkip, env.Kind)
	require.True(t, env.IsFiltered)
}

func TestCodexNormalize_Compacted(t *testing.T) {
	a := &adapter.CodexAdapter{}
	rec := a.Normalize(json.RawMessage(`{
		"type": "compacted",
		"payload": {"message": "earlier work summarized"}
	}`))

	require.Equal(t, adapter.KindSummary, rec.Kind)
	require.Equal(t, "earlier work summarized", rec.SummaryText)
}

func TestCodexNormalize_Malformed(t *testing.T) {
	a := &adapter.CodexAdapter{}
	rec := a.Normalize(json.RawMessage(`garbage`))
	require.Equal(t, adapter.KindSkip, rec.Kind)
}
