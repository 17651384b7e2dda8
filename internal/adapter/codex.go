package adapter

import (
	"encoding/json"
	"strings"
)

// CodexAdapter normalizes Codex CLI rollout transcripts
// (~/.codex/sessions/**/rollout-*.jsonl). Every line wraps a typed payload.
type CodexAdapter struct{}

type codexLine struct {
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

type codexPayload struct {
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	Role      string          `json:"role"`
	Content   json.RawMessage `json:"content"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	CWD       string          `json:"cwd"`
}

func (a *CodexAdapter) Name() string   { return "codex" }
func (a *CodexAdapter) Suffix() string { return ".jsonl" }

func (a *CodexAdapter) Normalize(raw json.RawMessage) NormalizedRecord {
	var line codexLine
	if err := json.Unmarshal(raw, &line); err != nil {
		return skip(raw)
	}

	rec := NormalizedRecord{
		Raw:       raw,
		Timestamp: parseTimestamp(line.Timestamp),
	}

	var payload codexPayload
	if len(line.Payload) > 0 {
		if err := json.Unmarshal(line.Payload, &payload); err != nil {
			return skip(raw)
		}
	}

	switch line.Type {
	case "session_meta":
		rec.Kind = KindMeta
		rec.CWD = payload.CWD
		return rec
	case "event_msg":
		switch payload.Type {
		case "user_message":
			if strings.HasPrefix(strings.TrimSpace(payload.Message), "<environment_context>") {
				rec.Kind = KindSkip
				rec.IsFiltered = true
				return rec
			}
			rec.Kind = KindUser
			rec.Text = payload.Message
			return rec
		case "agent_message":
			rec.Kind = KindAssistant
			rec.Text = payload.Message
			return rec
		}
		rec.Kind = KindSkip
		return rec
	case "response_item":
		switch payload.Type {
		case "function_call":
			rec.Kind = KindAssistant
			rec.ToolNames = append(rec.ToolNames, payload.Name)
			rec.ToolRenderings = append(rec.ToolRenderings, a.RenderTool(payload.Name, payload.Arguments))
			return rec
		case "function_call_output":
			rec.Kind = KindSkip
			rec.IsToolResult = true
			return rec
		case "message":
			// Duplicate of the event_msg stream; prefer the event form to
			// avoid double counting.
			rec.Kind = KindSkip
			return rec
		}
		rec.Kind = KindSkip
		return rec
	case "compacted":
		rec.Kind = KindSummary
		rec.SummaryText = payload.Message
		return rec
	case "turn_context":
		rec.Kind = KindMeta
		rec.CWD = payload.CWD
		return rec
	default:
		rec.Kind = KindSkip
		return rec
	}
}

func (a *CodexAdapter) RenderTool(name string, input json.RawMessage) ToolRendering {
	// Arguments sometimes arrive as a JSON string wrapping the real object.
	var inner string
	if err := json.Unmarshal(input, &inner); err == nil {
		return renderToolArgs(name, json.RawMessage(inner))
	}
	return renderToolArgs(name, input)
}
