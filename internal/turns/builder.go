// Package turns folds an ordered stream of normalized records into discrete
// conversation turns.
package turns

import (
	"time"

	"github.com/gebeer/conversation-search-mcp/internal/adapter"
)

// Turn is one user-prompt/assistant-response unit. TurnNumber is 0-based,
// dense, and strictly increasing within a session.
type Turn struct {
	SessionID      string
	TurnNumber     int
	Timestamp      time.Time
	UserText       string
	AssistantText  string
	ToolNames      []string
	ToolRenderings []string
}

// SessionInfo is the session-level metadata accumulated as a side channel
// while turns are built. Fields the source never provides stay empty.
type SessionInfo struct {
	CWD            string
	GitBranch      string
	Summary        string
	FirstTimestamp time.Time
	LastTimestamp  time.Time
}

// Build runs the two-state turn machine over one session's records.
//
// A user record closes any open turn and opens a new one. An assistant record
// appends to the open turn; with no turn open it is attributed to an implicit
// turn 0 with empty user text. Summary, meta, and skip records never change
// turn state, though meta records update session metadata and summary records
// set the session summary. End of stream closes the open turn.
func Build(sessionID string, records []adapter.NormalizedRecord) ([]Turn, SessionInfo) {
	var (
		turns   []Turn
		current *Turn
		info    SessionInfo
	)

	emit := func() {
		if current == nil {
			return
		}
		current.TurnNumber = len(turns)
		turns = append(turns, *current)
		current = nil
	}

	for _, rec := range records {
		info.observe(rec)

		switch rec.Kind {
		case adapter.KindUser:
			emit()
			current = &Turn{
				SessionID: sessionID,
				Timestamp: rec.Timestamp,
				UserText:  rec.Text,
			}
		case adapter.KindAssistant:
			if current == nil {
				// Assistant content before any user record: implicit turn 0.
				current = &Turn{
					SessionID: sessionID,
					Timestamp: rec.Timestamp,
				}
			}
			if rec.Text != "" {
				if current.AssistantText != "" {
					current.AssistantText += "\n"
				}
				current.AssistantText += rec.Text
			}
			current.ToolNames = append(current.ToolNames, rec.ToolNames...)
			for _, rendering := range rec.ToolRenderings {
				current.ToolRenderings = append(current.ToolRenderings, rendering.String())
			}
		case adapter.KindSummary, adapter.KindMeta, adapter.KindSkip:
			// Turn state untouched.
		}
	}
	emit()

	return turns, info
}

// observe rolls record-level metadata into the session info.
func (info *SessionInfo) observe(rec adapter.NormalizedRecord) {
	if rec.CWD != "" {
		info.CWD = rec.CWD
	}
	if rec.GitBranch != "" {
		info.GitBranch = rec.GitBranch
	}
	if rec.Kind == adapter.KindSummary && rec.SummaryText != "" {
		info.Summary = rec.SummaryText
	}
	if rec.Timestamp.IsZero() {
		return
	}
	if info.FirstTimestamp.IsZero() || rec.Timestamp.Before(info.FirstTimestamp) {
		info.FirstTimestamp = rec.Timestamp
	}
	if rec.Timestamp.After(info.LastTimestamp) {
		info.LastTimestamp = rec.Timestamp
	}
}
