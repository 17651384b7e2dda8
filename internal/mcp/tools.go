package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gebeer/conversation-search-mcp/internal/index"
)

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func registerTools(server *sdkmcp.Server, idx ConversationIndex) {
	registerSearchTool(server, idx)
	registerListTool(server, idx)
	registerReadTurnTool(server, idx)
	registerReadRangeTool(server, idx)
}

// errorResult builds a tool-level error result: the error text as a single
// content block with IsError set, matching the SDK's unexported setError.
func errorResult(err error) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}

// addTool wires one tool handler with shared decode/encode plumbing. Results
// are marshaled into a single text content block; client-input errors arrive
// here as structured payloads, never as protocol faults.
func addTool[T any](server *sdkmcp.Server, tool *sdkmcp.Tool, handle func(ctx context.Context, req T) (any, error)) {
	server.AddTool(tool, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		var params T
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
				return errorResult(fmt.Errorf("invalid arguments: %w", err)), nil
			}
		}

		resp, err := handle(ctx, params)
		if err != nil {
			return errorResult(err), nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			return errorResult(fmt.Errorf("marshal result: %w", err)), nil
		}
		return &sdkmcp.CallToolResult{
			Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		}, nil
	})
}

// --- search_conversations ---

type searchParams struct {
	Query     string `json:"query"`
	Limit     int    `json:"limit"`
	SessionID string `json:"session_id"`
	Project   string `json:"project"`
}

func registerSearchTool(server *sdkmcp.Server, idx ConversationIndex) {
	tool := &sdkmcp.Tool{
		Name:        "search_conversations",
		Description: "Search indexed conversation turns by keyword, ranked by relevance",
		InputSchema: inputSchema(map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Keyword query text",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of results (default 10)",
			},
			"session_id": map[string]any{
				"type":        "string",
				"description": "Restrict results to one session",
			},
			"project": map[string]any{
				"type":        "string",
				"description": "Restrict results to one project",
			},
		}, []string{"query"}),
	}

	addTool(server, tool, func(_ context.Context, req searchParams) (any, error) {
		return idx.Search(req.Query, req.Limit, req.SessionID, req.Project), nil
	})
}

// --- list_conversations ---

type listParams struct {
	Project string `json:"project"`
	Limit   int    `json:"limit"`
}

func registerListTool(server *sdkmcp.Server, idx ConversationIndex) {
	tool := &sdkmcp.Tool{
		Name:        "list_conversations",
		Description: "List indexed conversations sorted by most recent activity",
		InputSchema: inputSchema(map[string]any{
			"project": map[string]any{
				"type":        "string",
				"description": "Restrict the listing to one project",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of conversations (default 20)",
			},
		}, nil),
	}

	addTool(server, tool, func(_ context.Context, req listParams) (any, error) {
		return idx.ListConversations(req.Project, req.Limit), nil
	})
}

// --- get_conversation_turn ---

type readTurnParams struct {
	SessionID  string `json:"session_id"`
	TurnNumber int    `json:"turn_number"`
}

func registerReadTurnTool(server *sdkmcp.Server, idx ConversationIndex) {
	tool := &sdkmcp.Tool{
		Name:        "get_conversation_turn",
		Description: "Read one conversation turn back from its transcript at full fidelity",
		InputSchema: inputSchema(map[string]any{
			"session_id": map[string]any{
				"type":        "string",
				"description": "Session identifier from search or list results",
			},
			"turn_number": map[string]any{
				"type":        "integer",
				"description": "0-based turn number",
			},
		}, []string{"session_id"}),
	}

	addTool(server, tool, func(_ context.Context, req readTurnParams) (any, error) {
		result, err := idx.ReadTurn(req.SessionID, req.TurnNumber)
		if payload := clientErrorPayload(err, req.SessionID, req.TurnNumber); payload != nil {
			return payload, nil
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}

// --- read_conversation ---

type readRangeParams struct {
	SessionID string `json:"session_id"`
	Offset    int    `json:"offset"`
	Limit     int    `json:"limit"`
}

func registerReadRangeTool(server *sdkmcp.Server, idx ConversationIndex) {
	tool := &sdkmcp.Tool{
		Name:        "read_conversation",
		Description: "Read a contiguous range of a conversation's turns with session metadata",
		InputSchema: inputSchema(map[string]any{
			"session_id": map[string]any{
				"type":        "string",
				"description": "Session identifier from search or list results",
			},
			"offset": map[string]any{
				"type":        "integer",
				"description": "0-based turn offset (default 0)",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of turns (default 20)",
			},
		}, []string{"session_id"}),
	}

	addTool(server, tool, func(_ context.Context, req readRangeParams) (any, error) {
		result, err := idx.ReadRange(req.SessionID, req.Offset, req.Limit)
		if payload := clientErrorPayload(err, req.SessionID, req.Offset); payload != nil {
			return payload, nil
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}

// clientErrorPayload converts expected client-input errors into structured
// result payloads. The generation may legitimately have changed between a
// listing and a later read, so these are data, not faults.
func clientErrorPayload(err error, sessionID string, n int) map[string]string {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, index.ErrUnknownSession):
		return map[string]string{"error": fmt.Sprintf("Unknown session_id: %s", sessionID)}
	case errors.Is(err, index.ErrOutOfRange):
		return map[string]string{"error": fmt.Sprintf("turn_number %d out of range for session %s", n, sessionID)}
	default:
		return nil
	}
}
