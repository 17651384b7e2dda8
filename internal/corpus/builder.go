package corpus

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gebeer/conversation-search-mcp/internal/adapter"
	"github.com/gebeer/conversation-search-mcp/internal/source"
	"github.com/gebeer/conversation-search-mcp/internal/turns"
)

// Tokenizer turns entry text into the token sequence handed to the ranking
// engine. Supplied by the engine so the corpus stays agnostic of scoring.
type Tokenizer func(text string) []string

// Builder assembles generations from configured sources.
type Builder struct {
	sources  []Source
	tokenize Tokenizer
	logger   *slog.Logger
}

// NewBuilder creates a corpus builder.
func NewBuilder(sources []Source, tokenize Tokenizer, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	normalized := make([]Source, len(sources))
	copy(normalized, sources)
	for i := range normalized {
		if normalized[i].Name == "" {
			normalized[i].Name = normalized[i].Format
		}
	}
	return &Builder{sources: normalized, tokenize: tokenize, logger: logger}
}

// Build produces a fresh generation. Individual unreadable files are logged
// and skipped; one bad transcript never blocks indexing the rest.
func (b *Builder) Build() *Generation {
	gen := &Generation{
		ID:       uuid.NewString(),
		BuiltAt:  time.Now().UTC(),
		Metadata: make(map[string]ConversationMetadata),
		Files:    make(map[string]FileRef),
	}

	composite := len(b.sources) > 1

	for _, src := range b.sources {
		ad, ok := adapter.Lookup(src.Format)
		if !ok {
			b.logger.Warn("unknown source format", "format", src.Format)
			continue
		}
		files, err := enumerateTranscripts(src.Root, ad.Suffix())
		if err != nil {
			b.logger.Warn("source root not readable", "root", src.Root, "error", err)
			continue
		}
		labels := projectLabels(src.Root, files)
		reader := source.ForFormat(src.Format)

		for _, path := range files {
			sessions, err := reader.ReadSessions(path)
			if err != nil {
				b.logger.Warn("skipping unreadable transcript", "path", path, "error", err)
				continue
			}
			for _, raw := range sessions {
				b.indexSession(gen, src, ad, path, labels[filepath.Dir(path)], raw, composite)
			}
		}
	}

	b.logger.Info("corpus built",
		"generation", gen.ID,
		"entries", len(gen.Entries),
		"sessions", len(gen.Metadata))
	return gen
}

// indexSession runs the turn builder over one raw session and appends its
// entries and metadata to the generation under construction.
func (b *Builder) indexSession(gen *Generation, src Source, ad adapter.Adapter, path, dirLabel string, raw source.RawSession, composite bool) {
	records := make([]adapter.NormalizedRecord, 0, len(raw.Records))
	for _, r := range raw.Records {
		records = append(records, ad.Normalize(r))
	}

	sessionID := raw.NativeID
	if composite {
		sessionID = fmt.Sprintf("%s:%s", src.Name, raw.NativeID)
	}

	sessionTurns, info := turns.Build(sessionID, records)
	if len(sessionTurns) == 0 {
		return
	}

	project := dirLabel
	if project == "" && info.CWD != "" {
		project = filepath.Base(info.CWD)
	}
	if project == "" {
		project = src.Name
	}

	for _, turn := range sessionTurns {
		text := joinTurnText(turn)
		gen.Entries = append(gen.Entries, CorpusEntry{
			SessionID:  sessionID,
			Project:    project,
			TurnNumber: turn.TurnNumber,
			Timestamp:  turn.Timestamp,
			Text:       text,
			ToolNames:  turn.ToolNames,
		})
		gen.Tokens = append(gen.Tokens, b.tokenize(text))
	}

	first, last := info.FirstTimestamp, info.LastTimestamp
	if first.IsZero() {
		first = sessionTurns[0].Timestamp
	}
	if last.IsZero() {
		last = sessionTurns[len(sessionTurns)-1].Timestamp
	}

	gen.Metadata[sessionID] = ConversationMetadata{
		SessionID:      sessionID,
		Project:        project,
		CWD:            info.CWD,
		GitBranch:      info.GitBranch,
		FirstTimestamp: first,
		LastTimestamp:  last,
		TurnCount:      len(sessionTurns),
		Summary:        info.Summary,
	}
	gen.Files[sessionID] = FileRef{Source: src.Format, Path: path, NativeID: raw.NativeID}
}

func joinTurnText(turn turns.Turn) string {
	switch {
	case turn.UserText == "":
		return turn.AssistantText
	case turn.AssistantText == "":
		return turn.UserText
	default:
		return turn.UserText + "\n" + turn.AssistantText
	}
}

// enumerateTranscripts walks a source root collecting files with the format
// suffix. Backups, locks, and index files simply fail the suffix filter.
func enumerateTranscripts(root, suffix string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree: skip it, keep walking the rest.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), suffix) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// projectLabels derives a label per transcript directory. Claude-style slug
// directories ("-Users-me-code-myapp") label as their last path segment;
// when two sibling directories collide the label grows by one segment until
// the collision clears. Files directly under the root get no directory label.
func projectLabels(root string, files []string) map[string]string {
	dirSet := make(map[string]bool)
	for _, f := range files {
		dir := filepath.Dir(f)
		if filepath.Clean(dir) != filepath.Clean(root) {
			dirSet[dir] = true
		}
	}

	segments := make(map[string][]string, len(dirSet))
	depth := make(map[string]int, len(dirSet))
	for dir := range dirSet {
		segs := splitSlug(filepath.Base(dir))
		segments[dir] = segs
		depth[dir] = 1
	}

	labels := make(map[string]string, len(dirSet))
	for {
		byLabel := make(map[string][]string)
		for dir, segs := range segments {
			label := lastSegments(segs, depth[dir])
			labels[dir] = label
			byLabel[label] = append(byLabel[label], dir)
		}

		grown := false
		for _, dirs := range byLabel {
			if len(dirs) < 2 {
				continue
			}
			for _, dir := range dirs {
				if depth[dir] < len(segments[dir]) {
					depth[dir]++
					grown = true
				}
			}
		}
		if !grown {
			return labels
		}
	}
}

func splitSlug(base string) []string {
	var segs []string
	for _, s := range strings.Split(strings.Trim(base, "-"), "-") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	if len(segs) == 0 {
		return []string{base}
	}
	return segs
}

func lastSegments(segs []string, n int) string {
	if n > len(segs) {
		n = len(segs)
	}
	return strings.Join(segs[len(segs)-n:], "-")
}
