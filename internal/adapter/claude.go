package adapter

import (
	"encoding/json"
	"strings"
)

// ClaudeAdapter normalizes Claude Code project transcripts
// (~/.claude/projects/<slug>/<session>.jsonl).
type ClaudeAdapter struct{}

type claudeLine struct {
	Type      string         `json:"type"`
	UUID      string         `json:"uuid"`
	SessionID string         `json:"sessionId"`
	Timestamp string         `json:"timestamp"`
	CWD       string         `json:"cwd"`
	GitBranch string         `json:"gitBranch"`
	IsMeta    bool           `json:"isMeta"`
	Summary   string         `json:"summary"`
	Message   *claudeMessage `json:"message"`
}

type claudeMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type claudeBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

func (a *ClaudeAdapter) Name() string   { return "claude" }
func (a *ClaudeAdapter) Suffix() string { return ".jsonl" }

func (a *ClaudeAdapter) Normalize(raw json.RawMessage) NormalizedRecord {
	var line claudeLine
	if err := json.Unmarshal(raw, &line); err != nil {
		return skip(raw)
	}

	rec := NormalizedRecord{
		Raw:       raw,
		Timestamp: parseTimestamp(line.Timestamp),
		CWD:       line.CWD,
		GitBranch: line.GitBranch,
	}

	switch line.Type {
	case "summary":
		rec.Kind = KindSummary
		rec.SummaryText = line.Summary
		return rec
	case "user":
		if line.IsMeta {
			rec.Kind = KindSkip
			rec.IsFiltered = true
			return rec
		}
		text, isToolResult := claudeUserText(line.Message)
		if isToolResult {
			rec.Kind = KindSkip
			rec.IsToolResult = true
			return rec
		}
		if isInjectedBanner(text) {
			rec.Kind = KindSkip
			rec.IsFiltered = true
			return rec
		}
		rec.Kind = KindUser
		rec.Text = text
		return rec
	case "assistant":
		rec.Kind = KindAssistant
		a.fillAssistant(&rec, line.Message)
		return rec
	case "system", "file-history-snapshot", "queue-operation":
		rec.Kind = KindSkip
		return rec
	default:
		rec.Kind = KindSkip
		return rec
	}
}

func (a *ClaudeAdapter) RenderTool(name string, input json.RawMessage) ToolRendering {
	return renderToolArgs(name, input)
}

// claudeUserText extracts plain user text whether content is a bare string or
// a block array. Reports whether the record is a tool-result continuation.
func claudeUserText(msg *claudeMessage) (string, bool) {
	if msg == nil || len(msg.Content) == 0 {
		return "", false
	}

	var plain string
	if err := json.Unmarshal(msg.Content, &plain); err == nil {
		return plain, false
	}

	var blocks []claudeBlock
	if err := json.Unmarshal(msg.Content, &blocks); err != nil {
		return "", false
	}

	var parts []string
	for _, b := range blocks {
		switch b.Type {
		case "tool_result":
			return "", true
		case "text":
			if b.Text != "" {
				parts = append(parts, b.Text)
			}
		}
	}
	return strings.Join(parts, "\n"), false
}

// fillAssistant accumulates text across blocks, skipping thinking blocks, and
// collects tool invocations.
func (a *ClaudeAdapter) fillAssistant(rec *NormalizedRecord, msg *claudeMessage) {
	if msg == nil || len(msg.Content) == 0 {
		return
	}

	var blocks []claudeBlock
	if err := json.Unmarshal(msg.Content, &blocks); err != nil {
		return
	}

	var parts []string
	for _, b := range blocks {
		switch b.Type {
		case "text":
			if b.Text != "" {
				parts = append(parts, b.Text)
			}
		case "tool_use":
			rec.ToolNames = append(rec.ToolNames, b.Name)
			rec.ToolRenderings = append(rec.ToolRenderings, a.RenderTool(b.Name, b.Input))
		}
	}
	rec.Text = strings.Join(parts, "\n")
}

// isInjectedBanner reports whether user text is a synthetic message injected
// by the CLI rather than something the user typed.
func isInjectedBanner(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "Caveat:") ||
		strings.HasPrefix(trimmed, "<command-name>") ||
		strings.HasPrefix(trimmed, "<local-command-stdout>")
}
