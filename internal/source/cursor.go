package source

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// CursorReader extracts conversations from a Cursor sqlite store (.vscdb).
// Each composer row is one session; its bubbles are the raw records, ordered
// by the composer's conversation headers with a timestamp fallback.
type CursorReader struct{}

type cursorComposer struct {
	ComposerID                  string             `json:"composerId"`
	Name                        string             `json:"name"`
	CreatedAt                   int64              `json:"createdAt"`
	LastUpdatedAt               int64              `json:"lastUpdatedAt"`
	FullConversationHeadersOnly []cursorConvHeader `json:"fullConversationHeadersOnly"`
}

type cursorConvHeader struct {
	BubbleID string `json:"bubbleId"`
	Type     int    `json:"type"`
}

func (r *CursorReader) ReadSessions(path string) ([]RawSession, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open cursor store: %w", err)
	}
	defer db.Close()

	composers, err := r.loadComposers(db)
	if err != nil {
		return nil, err
	}
	bubbles, err := r.loadBubbles(db)
	if err != nil {
		return nil, err
	}

	var sessions []RawSession
	for _, comp := range composers {
		session := RawSession{NativeID: comp.ComposerID}

		if len(comp.FullConversationHeadersOnly) > 0 {
			for _, header := range comp.FullConversationHeadersOnly {
				if raw, ok := bubbles[comp.ComposerID][header.BubbleID]; ok {
					session.Records = append(session.Records, raw)
				}
			}
		} else {
			// No headers recorded; fall back to timestamp order.
			ordered := make([]json.RawMessage, 0, len(bubbles[comp.ComposerID]))
			for _, raw := range bubbles[comp.ComposerID] {
				ordered = append(ordered, raw)
			}
			sort.Slice(ordered, func(i, j int) bool {
				return bubbleTimestamp(ordered[i]) < bubbleTimestamp(ordered[j])
			})
			session.Records = ordered
		}

		if len(session.Records) > 0 {
			sessions = append(sessions, session)
		}
	}

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].NativeID < sessions[j].NativeID })
	return sessions, nil
}

func (r *CursorReader) loadComposers(db *sql.DB) ([]cursorComposer, error) {
	rows, err := db.Query(
		`SELECT key, value FROM cursorDiskKV WHERE key LIKE 'composerData:%' AND value IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("query composers: %w", err)
	}
	defer rows.Close()

	var composers []cursorComposer
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan composer: %w", err)
		}
		var comp cursorComposer
		if err := json.Unmarshal([]byte(value), &comp); err != nil {
			continue
		}
		if comp.ComposerID == "" {
			comp.ComposerID = strings.TrimPrefix(key, "composerData:")
		}
		composers = append(composers, comp)
	}
	return composers, rows.Err()
}

// loadBubbles returns raw bubble JSON keyed by composer then bubble ID.
// Bubble keys look like bubbleId:<composerId>:<bubbleId>.
func (r *CursorReader) loadBubbles(db *sql.DB) (map[string]map[string]json.RawMessage, error) {
	rows, err := db.Query(
		`SELECT key, value FROM cursorDiskKV WHERE key LIKE 'bubbleId:%' AND value IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("query bubbles: %w", err)
	}
	defer rows.Close()

	bubbles := make(map[string]map[string]json.RawMessage)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan bubble: %w", err)
		}
		parts := strings.SplitN(key, ":", 3)
		if len(parts) != 3 {
			continue
		}
		composerID, bubbleID := parts[1], parts[2]
		if bubbles[composerID] == nil {
			bubbles[composerID] = make(map[string]json.RawMessage)
		}
		bubbles[composerID][bubbleID] = json.RawMessage(value)
	}
	return bubbles, rows.Err()
}

func bubbleTimestamp(raw json.RawMessage) int64 {
	var probe struct {
		Timestamp int64 `json:"timestamp"`
	}
	_ = json.Unmarshal(raw, &probe)
	return probe.Timestamp
}
