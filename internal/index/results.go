package index

import "time"

// SearchHit is one ranked search result.
type SearchHit struct {
	SessionID  string    `json:"session_id"`
	Project    string    `json:"project"`
	TurnNumber int       `json:"turn_number"`
	Score      float64   `json:"score"`
	Snippet    string    `json:"snippet"`
	Timestamp  time.Time `json:"timestamp"`
}

// SearchResponse is the full search result set. Total counts matches after
// filtering, before truncation to the requested limit.
type SearchResponse struct {
	Results []SearchHit `json:"results"`
	Query   string      `json:"query"`
	Total   int         `json:"total"`
}

// Conversation is one session's metadata in a listing.
type Conversation struct {
	SessionID      string    `json:"session_id"`
	Project        string    `json:"project"`
	CWD            string    `json:"cwd"`
	GitBranch      string    `json:"git_branch"`
	FirstTimestamp time.Time `json:"first_timestamp"`
	LastTimestamp  time.Time `json:"last_timestamp"`
	TurnCount      int       `json:"turn_count"`
	Summary        string    `json:"summary,omitempty"`
}

// ListResponse is the conversation listing, most recent activity first.
type ListResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
}

// TurnResult is one full-fidelity turn read back from its transcript.
type TurnResult struct {
	SessionID     string    `json:"session_id"`
	TurnNumber    int       `json:"turn_number"`
	Timestamp     time.Time `json:"timestamp"`
	UserText      string    `json:"user_text"`
	AssistantText string    `json:"assistant_text"`
	ToolsUsed     []string  `json:"tools_used"`
}

// RangeResult is a contiguous slice of a session's turns plus its metadata.
type RangeResult struct {
	SessionID  string       `json:"session_id"`
	Project    string       `json:"project"`
	CWD        string       `json:"cwd"`
	GitBranch  string       `json:"git_branch"`
	TotalTurns int          `json:"total_turns"`
	Offset     int          `json:"offset"`
	Limit      int          `json:"limit"`
	Turns      []TurnResult `json:"turns"`
}
