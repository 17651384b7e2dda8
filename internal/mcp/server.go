// Package mcp exposes the conversation index as MCP tools.
package mcp

import (
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gebeer/conversation-search-mcp/internal/index"
)

// ConversationIndex defines the index operations the tool surface needs.
type ConversationIndex interface {
	Search(query string, limit int, sessionFilter, projectFilter string) index.SearchResponse
	ListConversations(projectFilter string, limit int) index.ListResponse
	ReadTurn(sessionID string, turnNumber int) (index.TurnResult, error)
	ReadRange(sessionID string, offset, limit int) (index.RangeResult, error)
}

// Config contains server configuration.
type Config struct {
	Index  ConversationIndex
	Logger *slog.Logger
}

const serverInstructions = `Search and read back indexed AI-assistant conversation transcripts.
Use search_conversations to find turns by keyword, list_conversations to browse
sessions, and get_conversation_turn / read_conversation for full-fidelity
read-back of specific turns.`

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "conversation-search",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Index)

	return server
}
