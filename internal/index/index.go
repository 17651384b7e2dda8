// Package index owns the live corpus generation and serves queries against a
// stable snapshot while rebuilds run concurrently.
package index

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/gebeer/conversation-search-mcp/internal/adapter"
	"github.com/gebeer/conversation-search-mcp/internal/corpus"
	"github.com/gebeer/conversation-search-mcp/internal/search"
	"github.com/gebeer/conversation-search-mcp/internal/source"
	"github.com/gebeer/conversation-search-mcp/internal/turns"
)

const (
	defaultSearchLimit = 10
	defaultListLimit   = 20
	defaultRangeLimit  = 20
	// candidateFactor over-fetches ranked positions so post-ranking filters
	// still fill the requested limit.
	candidateFactor = 3
	snippetRunes    = 240
)

// Engine is the ranked-retrieval collaborator: built once per generation over
// a tokenized corpus, queried with a tokenized query and a result bound.
type Engine interface {
	Rank(query []string, limit int) (positions []int, scores []float64)
}

// EngineFactory builds an engine for one generation's token sequences.
type EngineFactory func(docs [][]string) Engine

// Index is the conversation index. One writer (Build) may run concurrently
// with many readers; the guard is held only to swap or copy generation
// references, never across I/O.
type Index struct {
	sources   []corpus.Source
	newEngine EngineFactory
	tokenize  corpus.Tokenizer
	logger    *slog.Logger

	mu     sync.RWMutex
	gen    *corpus.Generation
	engine Engine
}

// New creates an index over the configured sources. No generation exists
// until the first Build; queries degrade to empty results before that.
func New(sources []corpus.Source, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		sources:   sources,
		newEngine: func(docs [][]string) Engine { return search.NewBM25(docs) },
		tokenize:  search.Tokenize,
		logger:    logger,
	}
}

// Build assembles a complete generation and its engine entirely outside the
// critical section, then swaps both in atomically. In-flight queries keep the
// generation they snapshotted; partial generations are never published.
func (ix *Index) Build() {
	builder := corpus.NewBuilder(ix.sources, ix.tokenize, ix.logger)
	gen := builder.Build()
	engine := ix.newEngine(gen.Tokens)

	ix.mu.Lock()
	ix.gen = gen
	ix.engine = engine
	ix.mu.Unlock()
}

// snapshot copies the current generation references under the read guard.
// Everything afterwards operates lock-free on the immutable snapshot.
func (ix *Index) snapshot() (*corpus.Generation, Engine) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.gen, ix.engine
}

// Search runs a ranked keyword query with optional post-ranking filters.
func (ix *Index) Search(query string, limit int, sessionFilter, projectFilter string) SearchResponse {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	resp := SearchResponse{Query: query, Results: []SearchHit{}}

	gen, engine := ix.snapshot()
	if gen == nil {
		return resp
	}

	tokens := ix.tokenize(query)
	positions, scores := engine.Rank(tokens, limit*candidateFactor)

	for i, pos := range positions {
		if scores[i] <= 0 || pos < 0 || pos >= len(gen.Entries) {
			continue
		}
		entry := gen.Entries[pos]
		if sessionFilter != "" && entry.SessionID != sessionFilter {
			continue
		}
		if projectFilter != "" && entry.Project != projectFilter {
			continue
		}
		resp.Total++
		if len(resp.Results) >= limit {
			continue
		}
		resp.Results = append(resp.Results, SearchHit{
			SessionID:  entry.SessionID,
			Project:    entry.Project,
			TurnNumber: entry.TurnNumber,
			Score:      roundScore(scores[i]),
			Snippet:    makeSnippet(entry.Text, tokens),
			Timestamp:  entry.Timestamp,
		})
	}
	return resp
}

// ListConversations returns session metadata by most recent activity.
func (ix *Index) ListConversations(projectFilter string, limit int) ListResponse {
	if limit <= 0 {
		limit = defaultListLimit
	}
	resp := ListResponse{Conversations: []Conversation{}}

	gen, _ := ix.snapshot()
	if gen == nil {
		return resp
	}

	for _, meta := range gen.Metadata {
		if projectFilter != "" && meta.Project != projectFilter {
			continue
		}
		resp.Conversations = append(resp.Conversations, Conversation{
			SessionID:      meta.SessionID,
			Project:        meta.Project,
			CWD:            meta.CWD,
			GitBranch:      meta.GitBranch,
			FirstTimestamp: meta.FirstTimestamp,
			LastTimestamp:  meta.LastTimestamp,
			TurnCount:      meta.TurnCount,
			Summary:        meta.Summary,
		})
	}
	sort.Slice(resp.Conversations, func(i, j int) bool {
		a, b := resp.Conversations[i], resp.Conversations[j]
		if !a.LastTimestamp.Equal(b.LastTimestamp) {
			return a.LastTimestamp.After(b.LastTimestamp)
		}
		return a.SessionID < b.SessionID
	})

	resp.Total = len(resp.Conversations)
	if len(resp.Conversations) > limit {
		resp.Conversations = resp.Conversations[:limit]
	}
	return resp
}

// ReadTurn re-derives full-fidelity turns from the session's transcript alone
// and returns the requested one.
func (ix *Index) ReadTurn(sessionID string, turnNumber int) (TurnResult, error) {
	sessionTurns, _, err := ix.rederive(sessionID)
	if err != nil {
		return TurnResult{}, err
	}
	if turnNumber < 0 || turnNumber >= len(sessionTurns) {
		return TurnResult{}, fmt.Errorf("%w: turn %d of %d", ErrOutOfRange, turnNumber, len(sessionTurns))
	}
	return toTurnResult(sessionTurns[turnNumber]), nil
}

// ReadRange returns the contiguous slice [offset, offset+limit) of a session's
// turns, clipped to what exists, plus session metadata.
func (ix *Index) ReadRange(sessionID string, offset, limit int) (RangeResult, error) {
	if limit <= 0 {
		limit = defaultRangeLimit
	}
	if offset < 0 {
		offset = 0
	}

	sessionTurns, meta, err := ix.rederive(sessionID)
	if err != nil {
		return RangeResult{}, err
	}

	result := RangeResult{
		SessionID:  sessionID,
		Project:    meta.Project,
		CWD:        meta.CWD,
		GitBranch:  meta.GitBranch,
		TotalTurns: len(sessionTurns),
		Offset:     offset,
		Limit:      limit,
		Turns:      []TurnResult{},
	}

	end := offset + limit
	if end > len(sessionTurns) {
		end = len(sessionTurns)
	}
	for i := offset; i < end; i++ {
		result.Turns = append(result.Turns, toTurnResult(sessionTurns[i]))
	}
	return result, nil
}

// rederive resolves a session to its transcript file and rebuilds its turns.
// Only this resolution step consults the session file table; the returned
// turns come straight from the file for full fidelity.
func (ix *Index) rederive(sessionID string) ([]turns.Turn, corpus.ConversationMetadata, error) {
	gen, _ := ix.snapshot()
	if gen == nil {
		return nil, corpus.ConversationMetadata{}, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	ref, ok := gen.Files[sessionID]
	if !ok {
		return nil, corpus.ConversationMetadata{}, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	meta := gen.Metadata[sessionID]

	ad, ok := adapter.Lookup(ref.Source)
	if !ok {
		return nil, meta, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	reader := source.ForFormat(ref.Source)
	sessions, err := reader.ReadSessions(ref.Path)
	if err != nil {
		// The transcript may have been removed since this generation was
		// built; to the client that is an unknown session, not a fault.
		ix.logger.Warn("session transcript unreadable", "path", ref.Path, "error", err)
		return nil, meta, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}

	for _, raw := range sessions {
		if raw.NativeID != ref.NativeID {
			continue
		}
		records := make([]adapter.NormalizedRecord, 0, len(raw.Records))
		for _, r := range raw.Records {
			records = append(records, ad.Normalize(r))
		}
		sessionTurns, _ := turns.Build(sessionID, records)
		return sessionTurns, meta, nil
	}
	return nil, meta, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
}

func toTurnResult(turn turns.Turn) TurnResult {
	tools := turn.ToolRenderings
	if tools == nil {
		tools = []string{}
	}
	return TurnResult{
		SessionID:     turn.SessionID,
		TurnNumber:    turn.TurnNumber,
		Timestamp:     turn.Timestamp,
		UserText:      turn.UserText,
		AssistantText: turn.AssistantText,
		ToolsUsed:     tools,
	}
}

func roundScore(s float64) float64 {
	return math.Round(s*10000) / 10000
}

// makeSnippet returns a length-bounded excerpt centered on the first query
// token hit, with whitespace collapsed.
func makeSnippet(text string, queryTokens []string) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= snippetRunes {
		return flat
	}

	lower := strings.ToLower(flat)
	hit := -1
	for _, tok := range queryTokens {
		if i := strings.Index(lower, tok); i >= 0 && (hit < 0 || i < hit) {
			hit = i
		}
	}
	if hit < 0 {
		return string(runes[:snippetRunes]) + "…"
	}

	// Center the window on the hit, measured in runes.
	hitRune := len([]rune(flat[:hit]))
	start := hitRune - snippetRunes/2
	if start < 0 {
		start = 0
	}
	end := start + snippetRunes
	if end > len(runes) {
		end = len(runes)
		start = end - snippetRunes
	}

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "…" + snippet
	}
	if end < len(runes) {
		snippet += "…"
	}
	return snippet
}
