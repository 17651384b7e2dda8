package adapter

import (
	"encoding/json"
	"strings"
)

// GeminiAdapter normalizes Gemini CLI session transcripts. Lines are typed
// events; only message events carry conversation content.
type GeminiAdapter struct{}

type geminiLine struct {
	Type      string         `json:"type"`
	ID        string         `json:"id"`
	SessionID string         `json:"sessionId"`
	Timestamp string         `json:"timestamp"`
	CWD       string         `json:"cwd"`
	Summary   string         `json:"summary"`
	Message   *geminiMessage `json:"message"`
}

type geminiMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type geminiBlock struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ToolCall *geminiToolCall `json:"toolCall,omitempty"`
	Name     string          `json:"name,omitempty"`
	Args     json.RawMessage `json:"args,omitempty"`
}

type geminiToolCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

func (a *GeminiAdapter) Name() string   { return "gemini" }
func (a *GeminiAdapter) Suffix() string { return ".json" }

func (a *GeminiAdapter) Normalize(raw json.RawMessage) NormalizedRecord {
	var line geminiLine
	if err := json.Unmarshal(raw, &line); err != nil {
		return skip(raw)
	}

	rec := NormalizedRecord{
		Raw:       raw,
		Timestamp: parseTimestamp(line.Timestamp),
		CWD:       line.CWD,
	}

	switch line.Type {
	case "summary":
		rec.Kind = KindSummary
		rec.SummaryText = line.Summary
		return rec
	case "session_start":
		rec.Kind = KindMeta
		return rec
	case "message":
		// handled below
	default:
		rec.Kind = KindSkip
		return rec
	}

	if line.Message == nil {
		rec.Kind = KindSkip
		return rec
	}

	switch line.Message.Role {
	case "toolResult":
		rec.Kind = KindSkip
		rec.IsToolResult = true
		return rec
	case "user":
		rec.Kind = KindUser
		rec.Text, _ = a.extractContent(line.Message.Content, nil)
		return rec
	case "assistant", "model":
		rec.Kind = KindAssistant
		rec.Text, _ = a.extractContent(line.Message.Content, &rec)
		return rec
	default:
		rec.Kind = KindSkip
		return rec
	}
}

func (a *GeminiAdapter) RenderTool(name string, input json.RawMessage) ToolRendering {
	return renderToolArgs(name, input)
}

// extractContent handles both bare-string and block-array content. When rec is
// non-nil, tool calls found in blocks are collected onto it.
func (a *GeminiAdapter) extractContent(content json.RawMessage, rec *NormalizedRecord) (string, bool) {
	if len(content) == 0 {
		return "", false
	}

	var plain string
	if err := json.Unmarshal(content, &plain); err == nil {
		return plain, true
	}

	var blocks []geminiBlock
	if err := json.Unmarshal(content, &blocks); err != nil {
		return "", false
	}

	var parts []string
	for _, b := range blocks {
		switch b.Type {
		case "text":
			if b.Text != "" {
				parts = append(parts, b.Text)
			}
		case "toolCall":
			if rec == nil {
				continue
			}
			name, args := b.Name, b.Args
			if b.ToolCall != nil {
				name, args = b.ToolCall.Name, b.ToolCall.Args
			}
			if name == "" {
				continue
			}
			rec.ToolNames = append(rec.ToolNames, name)
			rec.ToolRenderings = append(rec.ToolRenderings, a.RenderTool(name, args))
		}
	}
	return strings.Join(parts, "\n"), true
}
