// Package corpus builds searchable generations from configured transcript
// sources. A generation is an immutable (corpus, metadata, file-table) triple;
// rebuilds always produce a fresh one and never touch a published generation.
package corpus

import (
	"time"
)

// Source is one configured (format, root directory) transcript source.
type Source struct {
	// Name labels the source in composite session IDs. Defaults to Format.
	Name   string
	Format string
	Root   string
}

// CorpusEntry is the unit indexed for search: one conversation turn.
type CorpusEntry struct {
	SessionID  string
	Project    string
	TurnNumber int
	Timestamp  time.Time
	Text       string
	ToolNames  []string
}

// ConversationMetadata summarizes one session. Rebuilt wholesale every cycle,
// never patched.
type ConversationMetadata struct {
	SessionID      string
	Project        string
	CWD            string
	GitBranch      string
	FirstTimestamp time.Time
	LastTimestamp  time.Time
	TurnCount      int
	Summary        string
}

// FileRef locates the transcript backing a session so read-back can re-derive
// full-fidelity turns from that file alone.
type FileRef struct {
	Source   string // format identifier
	Path     string
	NativeID string
}

// Generation is one complete build result. All fields are owned exclusively by
// this generation and immutable after Build returns.
type Generation struct {
	ID      string
	BuiltAt time.Time
	Entries []CorpusEntry
	// Tokens holds one token sequence per entry, parallel to Entries, built
	// once so the ranking engine never re-tokenizes at query time.
	Tokens   [][]string
	Metadata map[string]ConversationMetadata
	Files    map[string]FileRef
}
