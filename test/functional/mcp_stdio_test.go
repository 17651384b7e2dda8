package functional_test

import (
	"context"
	"os"
	"os/exec"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// newStdioSession spawns the server binary over stdio. The corpus root points
// at a fixture directory so the run never touches the developer's transcripts.
func newStdioSession(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()

	binaryPath := "./bin/conversation-search"
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		binaryPath = "../../bin/conversation-search"
		if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
			t.Skip("Server binary not found. Run 'make build' first.")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	cmd := exec.CommandContext(ctx, binaryPath)
	cmd.Env = append(os.Environ(),
		"CONVSEARCH_TRANSPORT_MODE=stdio",
		"CONVSEARCH_CLAUDE_ROOT="+writeFixtureCorpus(t),
		"CONVSEARCH_WATCH=false",
	)

	transport := &sdkmcp.CommandTransport{Command: cmd}

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		cancel()
		t.Fatalf("Failed to connect: %v", err)
	}

	t.Cleanup(func() {
		session.Close()
		cancel()
	})
	return session
}

func TestStdioFunctional_SearchAndRead(t *testing.T) {
	session := newStdioSession(t)

	searchResp := callTool(t, session, "search_conversations", map[string]any{"query": "heartbeat"})
	require.Contains(t, string(searchResp), "sess-pay")

	turnResp := callTool(t, session, "get_conversation_turn", map[string]any{
		"session_id":  "sess-pay",
		"turn_number": 0,
	})
	require.Contains(t, string(turnResp), "heartbeat check failed")
}

func TestStdioFunctional_ServerInfo(t *testing.T) {
	session := newStdioSession(t)

	initResult := session.InitializeResult()
	require.NotNil(t, initResult)
	require.Equal(t, "conversation-search", initResult.ServerInfo.Name)
}
