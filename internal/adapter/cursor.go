package adapter

import (
	"encoding/json"
	"strings"
	"time"
)

// CursorAdapter normalizes Cursor message bubbles. Bubbles are extracted from
// the editor's sqlite store by the cursor session reader; by the time they
// reach the adapter they are plain JSON values like any other raw record.
type CursorAdapter struct{}

type cursorBubble struct {
	Type           int                `json:"type"` // 1=user, 2=assistant
	Text           string             `json:"text"`
	RichText       string             `json:"richText"`
	CodeBlocks     []cursorCodeBlock  `json:"codeBlocks"`
	Timestamp      int64              `json:"timestamp"` // unix millis
	ToolFormerData *cursorToolInvoked `json:"toolFormerData"`
	IsThought      bool               `json:"isThought"`
}

type cursorCodeBlock struct {
	Language string `json:"language"`
	Content  string `json:"content"`
}

type cursorToolInvoked struct {
	Name    string          `json:"name"`
	RawArgs json.RawMessage `json:"rawArgs"`
}

func (a *CursorAdapter) Name() string   { return "cursor" }
func (a *CursorAdapter) Suffix() string { return ".vscdb" }

func (a *CursorAdapter) Normalize(raw json.RawMessage) NormalizedRecord {
	var bubble cursorBubble
	if err := json.Unmarshal(raw, &bubble); err != nil {
		return skip(raw)
	}

	rec := NormalizedRecord{Raw: raw}
	if bubble.Timestamp > 0 {
		rec.Timestamp = time.Unix(0, bubble.Timestamp*int64(time.Millisecond)).UTC()
	}

	switch bubble.Type {
	case 1:
		rec.Kind = KindUser
	case 2:
		if bubble.IsThought {
			rec.Kind = KindSkip
			rec.IsFiltered = true
			return rec
		}
		rec.Kind = KindAssistant
	default:
		rec.Kind = KindSkip
		return rec
	}

	var parts []string
	if bubble.Text != "" {
		parts = append(parts, bubble.Text)
	}
	for _, cb := range bubble.CodeBlocks {
		if cb.Content != "" {
			parts = append(parts, cb.Content)
		}
	}
	rec.Text = strings.Join(parts, "\n")

	if rec.Kind == KindAssistant && bubble.ToolFormerData != nil && bubble.ToolFormerData.Name != "" {
		rec.ToolNames = append(rec.ToolNames, bubble.ToolFormerData.Name)
		rec.ToolRenderings = append(rec.ToolRenderings,
			a.RenderTool(bubble.ToolFormerData.Name, bubble.ToolFormerData.RawArgs))
	}

	// A user bubble with no extractable text is bookkeeping, not a prompt.
	if rec.Kind == KindUser && rec.Text == "" {
		rec.Kind = KindSkip
		return rec
	}

	return rec
}

func (a *CursorAdapter) RenderTool(name string, input json.RawMessage) ToolRendering {
	// rawArgs is usually a JSON string holding the argument object.
	var inner string
	if err := json.Unmarshal(input, &inner); err == nil {
		return renderToolArgs(name, json.RawMessage(inner))
	}
	return renderToolArgs(name, input)
}
