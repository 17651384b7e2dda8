// Package search ranks a tokenized corpus against tokenized queries. The
// index treats it as an opaque engine: corpus positions in, positions and
// scores out.
package search

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// stopWords are common English words dropped during tokenization.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true, "not": true, "no": true, "nor": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true, "with": true, "by": true, "from": true,
	"is": true, "am": true, "are": true, "was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "shall": true, "should": true, "may": true, "might": true, "can": true, "could": true,
	"this": true, "that": true, "these": true, "those": true,
	"it": true, "its": true, "he": true, "she": true, "we": true, "they": true, "you": true, "me": true,
	"my": true, "your": true, "his": true, "her": true, "our": true, "their": true,
	"if": true, "then": true, "else": true, "when": true, "where": true, "how": true, "what": true, "which": true,
	"so": true, "as": true, "up": true, "out": true, "about": true, "into": true, "over": true, "after": true,
}

var splitRe = regexp.MustCompile(`[^a-z0-9]+`)

// Tokenize lowercases, splits on non-alphanumeric runs, drops stop words and
// single characters.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	parts := splitRe.Split(strings.ToLower(text), -1)

	var tokens []string
	for _, t := range parts {
		if len(t) >= 2 && !stopWords[t] {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// BM25 scores documents with Okapi BM25. Built once per corpus generation;
// safe for concurrent Rank calls since it is read-only after construction.
type BM25 struct {
	k1    float64
	b     float64
	tf    []map[string]int
	lens  []int
	avgDL float64
	df    map[string]int
	n     int
}

// NewBM25 builds an engine over one token sequence per document.
func NewBM25(docs [][]string) *BM25 {
	e := &BM25{
		k1: 1.5,
		b:  0.75,
		df: make(map[string]int),
		n:  len(docs),
	}
	if e.n == 0 {
		return e
	}

	totalLen := 0
	e.tf = make([]map[string]int, e.n)
	e.lens = make([]int, e.n)
	for i, tokens := range docs {
		freq := make(map[string]int, len(tokens))
		for _, t := range tokens {
			freq[t]++
		}
		e.tf[i] = freq
		e.lens[i] = len(tokens)
		totalLen += len(tokens)
		for term := range freq {
			e.df[term]++
		}
	}
	e.avgDL = float64(totalLen) / float64(e.n)
	return e
}

// Rank returns up to limit corpus positions ordered by descending relevance,
// with scores normalized against the best match into (0, 1]. Documents that
// match no query term are not returned.
func (e *BM25) Rank(query []string, limit int) ([]int, []float64) {
	if e.n == 0 || len(query) == 0 || limit <= 0 {
		return nil, nil
	}

	type hit struct {
		pos   int
		score float64
	}
	var hits []hit
	for i := 0; i < e.n; i++ {
		if s := e.score(i, query); s > 0 {
			hits = append(hits, hit{pos: i, score: s})
		}
	}
	if len(hits) == 0 {
		return nil, nil
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].pos < hits[j].pos
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	best := hits[0].score
	positions := make([]int, len(hits))
	scores := make([]float64, len(hits))
	for i, h := range hits {
		positions[i] = h.pos
		scores[i] = h.score / best
	}
	return positions, scores
}

func (e *BM25) score(doc int, query []string) float64 {
	dl := e.lens[doc]
	if dl == 0 {
		return 0
	}

	score := 0.0
	for _, term := range query {
		tf := e.tf[doc][term]
		if tf == 0 {
			continue
		}
		idf := e.idf(term)
		numerator := float64(tf) * (e.k1 + 1.0)
		denominator := float64(tf) + e.k1*(1.0-e.b+e.b*float64(dl)/e.avgDL)
		score += idf * numerator / denominator
	}
	return score
}

// idf uses the standard BM25 formulation, floored above zero.
func (e *BM25) idf(term string) float64 {
	df := e.df[term]
	if df == 0 {
		return 0
	}
	return math.Log((float64(e.n-df)+0.5)/(float64(df)+0.5) + 1.0)
}
