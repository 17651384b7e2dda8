// Package source reads raw sessions out of transcript files so adapters can
// stay pure. JSONL formats hold one session per file; the Cursor store holds
// many sessions per sqlite database.
package source

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RawSession is one conversation's ordered raw records plus the identifier the
// source itself uses for it.
type RawSession struct {
	NativeID string
	Records  []json.RawMessage
}

// Reader extracts raw sessions from one transcript file.
type Reader interface {
	ReadSessions(path string) ([]RawSession, error)
}

// ForFormat returns the session reader for a format identifier.
func ForFormat(format string) Reader {
	if format == "cursor" {
		return &CursorReader{}
	}
	return &JSONLReader{}
}

// maxLineSize bounds the scanner buffer. Assistant replies routinely blow past
// bufio's 64KB default.
const maxLineSize = 10 * 1024 * 1024

// JSONLReader reads append-only JSON-lines transcripts: one session per file,
// native ID derived from the file name.
type JSONLReader struct{}

func (r *JSONLReader) ReadSessions(path string) ([]RawSession, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	session := RawSession{NativeID: nativeIDFromPath(path)}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		// Malformed lines stay in the stream; the adapter marks them skip so
		// record ordering is preserved end to end.
		session.Records = append(session.Records, json.RawMessage(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript: %w", err)
	}

	if len(session.Records) == 0 {
		return nil, nil
	}
	return []RawSession{session}, nil
}

func nativeIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
