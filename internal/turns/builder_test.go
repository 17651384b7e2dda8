package turns_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gebeer/conversation-search-mcp/internal/adapter"
	"github.com/gebeer/conversation-search-mcp/internal/turns"
)

func user(text string) adapter.NormalizedRecord {
	return adapter.NormalizedRecord{Kind: adapter.KindUser, Text: text}
}

func assistant(text string, tools ...string) adapter.NormalizedRecord {
	rec := adapter.NormalizedRecord{Kind: adapter.KindAssistant, Text: text}
	for _, name := range tools {
		rec.ToolNames = append(rec.ToolNames, name)
		rec.ToolRenderings = append(rec.ToolRenderings, adapter.ToolRendering{Name: name})
	}
	return rec
}

func TestBuild_UserAssistantPairs(t *testing.T) {
	records := []adapter.NormalizedRecord{
		user("fix bug"),
		assistant("done", "edit"),
		user("thanks"),
	}

	built, _ := turns.Build("s1", records)
	require.Len(t, built, 2)

	require.Equal(t, 0, built[0].TurnNumber)
	require.Equal(t, "fix bug", built[0].UserText)
	require.Equal(t, "done", built[0].AssistantText)
	require.Equal(t, []string{"edit"}, built[0].ToolNames)

	require.Equal(t, 1, built[1].TurnNumber)
	require.Equal(t, "thanks", built[1].UserText)
	require.Empty(t, built[1].AssistantText)
}

func TestBuild_TurnNumbersDense(t *testing.T) {
	var records []adapter.NormalizedRecord
	for i := 0; i < 7; i++ {
		records = append(records, user("q"), assistant("a"), adapter.NormalizedRecord{Kind: adapter.KindSkip})
	}

	built, _ := turns.Build("s1", records)
	require.Len(t, built, 7)
	for i, turn := range built {
		require.Equal(t, i, turn.TurnNumber)
		require.Equal(t, "s1", turn.SessionID)
	}
}

func TestBuild_ImplicitTurnZero(t *testing.T) {
	records := []adapter.NormalizedRecord{
		assistant("resuming earlier work"),
		user("continue"),
		assistant("ok"),
	}

	built, _ := turns.Build("s1", records)
	require.Len(t, built, 2)
	require.Equal(t, 0, built[0].TurnNumber)
	require.Empty(t, built[0].UserText)
	require.Equal(t, "resuming earlier work", built[0].AssistantText)
	require.Equal(t, "continue", built[1].UserText)
}

func TestBuild_ToolResultNeverStartsTurn(t *testing.T) {
	records := []adapter.NormalizedRecord{
		user("run the tests"),
		{Kind: adapter.KindSkip, IsToolResult: true},
		assistant("all green"),
	}

	built, _ := turns.Build("s1", records)
	require.Len(t, built, 1)
	require.Equal(t, "run the tests", built[0].UserText)
	require.Equal(t, "all green", built[0].AssistantText)
}

func TestBuild_AssistantAccumulatesAcrossRecords(t *testing.T) {
	records := []adapter.NormalizedRecord{
		user("do it"),
		assistant("step one", "bash"),
		assistant("step two", "edit"),
	}

	built, _ := turns.Build("s1", records)
	require.Len(t, built, 1)
	require.Equal(t, "step one\nstep two", built[0].AssistantText)
	require.Equal(t, []string{"bash", "edit"}, built[0].ToolNames)
	require.Equal(t, []string{"bash", "edit"}, built[0].ToolRenderings)
}

func TestBuild_NoUserRecordsNoTurns(t *testing.T) {
	records := []adapter.NormalizedRecord{
		{Kind: adapter.KindMeta, CWD: "/work"},
		{Kind: adapter.KindSummary, SummaryText: "nothing happened"},
		{Kind: adapter.KindSkip},
	}

	built, info := turns.Build("s1", records)
	require.Empty(t, built)
	require.Equal(t, "/work", info.CWD)
	require.Equal(t, "nothing happened", info.Summary)
}

func TestBuild_SessionInfoTimestamps(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	records := []adapter.NormalizedRecord{
		{Kind: adapter.KindUser, Text: "hi", Timestamp: t0, GitBranch: "main"},
		{Kind: adapter.KindAssistant, Text: "hello", Timestamp: t1},
	}

	built, info := turns.Build("s1", records)
	require.Len(t, built, 1)
	require.Equal(t, t0, info.FirstTimestamp)
	require.Equal(t, t1, info.LastTimestamp)
	require.Equal(t, "main", info.GitBranch)
}

func TestBuild_PropertyNUserRecordsNTurns(t *testing.T) {
	for n := 0; n <= 5; n++ {
		var records []adapter.NormalizedRecord
		for i := 0; i < n; i++ {
			records = append(records, user("q"))
		}
		built, _ := turns.Build("s1", records)
		require.Len(t, built, n)
		for i := range built {
			require.Equal(t, i, built[i].TurnNumber)
		}
	}
}
