// Package adapter normalizes heterogeneous transcript records into a common shape.
//
// Each supported transcript format gets one Adapter. Adapters are pure: no I/O,
// no shared state, and they never fail — a record the adapter cannot interpret
// comes back as KindSkip so downstream consumers always see a total, ordered
// stream.
package adapter

import (
	"encoding/json"
	"fmt"
	"time"
)

// RecordKind classifies a normalized record. The kind fully determines which
// other fields of NormalizedRecord are meaningful.
type RecordKind string

const (
	KindUser      RecordKind = "user"
	KindAssistant RecordKind = "assistant"
	KindSummary   RecordKind = "summary"
	KindMeta      RecordKind = "meta"
	KindSkip      RecordKind = "skip"
)

// ToolRendering is a human-readable summary of one tool invocation.
type ToolRendering struct {
	Name    string
	Summary string
}

func (r ToolRendering) String() string {
	if r.Summary == "" {
		return r.Name
	}
	return fmt.Sprintf("%s: %s", r.Name, r.Summary)
}

// NormalizedRecord is the uniform representation of one raw transcript record.
type NormalizedRecord struct {
	Kind           RecordKind
	Text           string
	ToolNames      []string
	ToolRenderings []ToolRendering
	Timestamp      time.Time
	CWD            string
	GitBranch      string
	ProjectSlug    string
	SummaryText    string
	IsToolResult   bool
	IsFiltered     bool
	Raw            json.RawMessage
}

// Adapter converts raw records of one transcript format into NormalizedRecords.
type Adapter interface {
	// Name is the format identifier used in configuration and session IDs.
	Name() string
	// Suffix is the transcript file suffix this format uses; files under a
	// configured root that do not match are excluded from indexing.
	Suffix() string
	// Normalize maps one raw record to a NormalizedRecord. Malformed input
	// yields KindSkip, never an error.
	Normalize(raw json.RawMessage) NormalizedRecord
	// RenderTool summarizes one tool invocation block.
	RenderTool(name string, input json.RawMessage) ToolRendering
}

// Registry is the closed format→adapter table.
func Registry() map[string]Adapter {
	return map[string]Adapter{
		"claude": &ClaudeAdapter{},
		"codex":  &CodexAdapter{},
		"gemini": &GeminiAdapter{},
		"cursor": &CursorAdapter{},
	}
}

// Lookup returns the adapter for a format identifier.
func Lookup(format string) (Adapter, bool) {
	a, ok := Registry()[format]
	return a, ok
}

// toolArgCandidates is the ordered list of argument field names tried when
// rendering a tool invocation. Field names vary even within one format.
var toolArgCandidates = []string{
	"file_path",
	"path",
	"pattern",
	"command",
	"query",
	"url",
	"prompt",
	"description",
	"notebook_path",
	"todos",
}

// renderToolArgs extracts a short summary from a tool input object by trying
// candidate field names in order. Falls back to empty rather than failing.
func renderToolArgs(name string, input json.RawMessage) ToolRendering {
	rendering := ToolRendering{Name: name}
	if len(input) == 0 {
		return rendering
	}

	var args map[string]json.RawMessage
	if err := json.Unmarshal(input, &args); err != nil {
		return rendering
	}

	for _, field := range toolArgCandidates {
		raw, ok := args[field]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			rendering.Summary = truncate(s, 120)
			return rendering
		}
	}
	return rendering
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

// parseTimestamp accepts the RFC3339 variants seen across formats.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func skip(raw json.RawMessage) NormalizedRecord {
	return NormalizedRecord{Kind: KindSkip, Raw: raw}
}
