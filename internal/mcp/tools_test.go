package mcp

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gebeer/conversation-search-mcp/internal/index"
)

type stubIndex struct{}

func (stubIndex) Search(query string, limit int, sessionFilter, projectFilter string) index.SearchResponse {
	return index.SearchResponse{Query: query}
}

func (stubIndex) ListConversations(projectFilter string, limit int) index.ListResponse {
	return index.ListResponse{}
}

func (stubIndex) ReadTurn(sessionID string, turnNumber int) (index.TurnResult, error) {
	return index.TurnResult{}, index.ErrUnknownSession
}

func (stubIndex) ReadRange(sessionID string, offset, limit int) (index.RangeResult, error) {
	return index.RangeResult{}, index.ErrUnknownSession
}

func TestNewServer(t *testing.T) {
	server := NewServer(Config{Index: stubIndex{}, Logger: slog.Default()})
	require.NotNil(t, server)
}

func TestInputSchema(t *testing.T) {
	s := inputSchema(map[string]any{
		"query": map[string]any{"type": "string"},
	}, []string{"query"})
	require.Equal(t, "object", s["type"])
	require.Equal(t, []string{"query"}, s["required"])

	optional := inputSchema(map[string]any{}, nil)
	_, ok := optional["required"]
	require.False(t, ok, "no required key for all-optional schemas")
}

func TestClientErrorPayload(t *testing.T) {
	require.Nil(t, clientErrorPayload(nil, "s1", 0))

	payload := clientErrorPayload(index.ErrUnknownSession, "claude:abc", 3)
	require.Equal(t, map[string]string{"error": "Unknown session_id: claude:abc"}, payload)

	payload = clientErrorPayload(index.ErrOutOfRange, "s1", 42)
	require.Equal(t, map[string]string{"error": "turn_number 42 out of range for session s1"}, payload)

	require.Nil(t, clientErrorPayload(assertionError{}, "s1", 0), "unexpected errors stay faults")
}

type assertionError struct{}

func (assertionError) Error() string { return "boom" }
