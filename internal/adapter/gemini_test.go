package adapter_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gebeer/conversation-search-mcp/internal/adapter"
)

func TestGeminiNormalize_StringAndBlocks(t *testing.T) {
	a := &adapter.GeminiAdapter{}

	user := a.Normalize(json.RawMessage(`{
		"type": "message",
		"timestamp": "2026-03-03T12:00:00Z",
		"message": {"role": "user", "content": "explain this trace"}
	}`))
	require.Equal(t, adapter.KindUser, user.Kind)
	require.Equal(t, "explain this trace", user.Text)

	model := a.Normalize(json.RawMessage(`{
		"type": "message",
		"message": {"role": "assistant", "content": [
			{"type": "text", "text": "the trace shows"},
			{"type": "toolCall", "toolCall": {"name": "read_file", "args": {"path": "trace.log"}}},
			{"type": "text", "text": "a timeout"}
		]}
	}`))
	require.Equal(t, adapter.KindAssistant, model.Kind)
	require.Equal(t, "the trace shows\na timeout", model.Text)
	require.Equal(t, []string{"read_file"}, model.ToolNames)
	require.Equal(t, "read_file: trace.log", model.ToolRenderings[0].String())
}

func TestGeminiNormalize_ToolResultNeverStartsTurn(t *testing.T) {
	a := &adapter.GeminiAdapter{}
	rec := a.Normalize(json.RawMessage(`{
		"type": "message",
		"message": {"role": "toolResult", "content": "raw output"}
	}`))

	require.Equal(t, adapter.KindSkip, rec.Kind)
	require.True(t, rec.IsToolResult)
}

func TestGeminiNormalize_NonMessageEvents(t *testing.T) {
	a := &adapter.GeminiAdapter{}

	start := a.Normalize(json.RawMessage(`{"type": "session_start", "cwd": "/work"}`))
	require.Equal(t, adapter.KindMeta, start.Kind)
	require.Equal(t, "/work", start.CWD)

	summary := a.Normalize(json.RawMessage(`{"type": "summary", "summary": "reviewed traces"}`))
	require.Equal(t, adapter.KindSummary, summary.Kind)
	require.Equal(t, "reviewed traces", summary.SummaryText)

	other := a.Normalize(json.RawMessage(`{"type": "checkpoint"}`))
	require.Equal(t, adapter.KindSkip, other.Kind)
}
