package search_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gebeer/conversation-search-mcp/internal/search"
)

func TestTokenize(t *testing.T) {
	tokens := search.Tokenize("The heartbeat-check FAILED at 03:14!")
	require.Equal(t, []string{"heartbeat", "check", "failed", "03", "14"}, tokens)

	require.Nil(t, search.Tokenize(""))
	require.Nil(t, search.Tokenize("a I ?!"))
}

func TestBM25_RanksMatchingDocsOnly(t *testing.T) {
	docs := [][]string{
		search.Tokenize("heartbeat check failed"),
		search.Tokenize("refactor the parser module"),
		search.Tokenize("heartbeat heartbeat heartbeat monitor"),
	}
	engine := search.NewBM25(docs)

	positions, scores := engine.Rank(search.Tokenize("heartbeat"), 10)
	require.Len(t, positions, 2)
	require.Len(t, scores, 2)

	// Higher term frequency ranks first; best match carries score 1.
	require.Equal(t, 2, positions[0])
	require.Equal(t, 1.0, scores[0])
	require.Equal(t, 0, positions[1])
	require.Greater(t, scores[1], 0.0)
	require.LessOrEqual(t, scores[1], 1.0)
}

func TestBM25_LimitAndEmpty(t *testing.T) {
	docs := [][]string{
		{"alpha", "beta"},
		{"alpha", "gamma"},
		{"alpha", "delta"},
	}
	engine := search.NewBM25(docs)

	positions, _ := engine.Rank([]string{"alpha"}, 2)
	require.Len(t, positions, 2)

	positions, scores := engine.Rank([]string{"omega"}, 10)
	require.Nil(t, positions)
	require.Nil(t, scores)

	positions, _ = engine.Rank(nil, 10)
	require.Nil(t, positions)
}

func TestBM25_EmptyCorpus(t *testing.T) {
	engine := search.NewBM25(nil)
	positions, scores := engine.Rank([]string{"anything"}, 5)
	require.Nil(t, positions)
	require.Nil(t, scores)
}

func TestBM25_DeterministicTieBreak(t *testing.T) {
	docs := [][]string{
		{"same", "tokens"},
		{"same", "tokens"},
	}
	engine := search.NewBM25(docs)

	positions, scores := engine.Rank([]string{"same"}, 10)
	require.Equal(t, []int{0, 1}, positions)
	require.Equal(t, scores[0], scores[1])
}
