// Package retrieval provides the passage lookup behind the interview
// document and resume tools.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

const defaultTopK = 4

// Retriever returns passages relevant to a text query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (string, error)
}

// Document is a plain-text backed retriever. The source file is split into
// paragraph passages that are ranked by term overlap with the query. It
// stands in for an embedding-based search engine behind the same interface.
type Document struct {
	name     string
	passages []string
	topK     int
}

// LoadDocument reads the file at path and prepares it for retrieval. The
// name is used in error messages. topK bounds how many passages a single
// query returns; non-positive values fall back to the default.
func LoadDocument(name, path string, topK int) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s document %q: %w", name, path, err)
	}

	passages := splitPassages(string(data))
	if len(passages) == 0 {
		return nil, fmt.Errorf("%s document %q contains no text", name, path)
	}

	if topK <= 0 {
		topK = defaultTopK
	}

	return &Document{name: name, passages: passages, topK: topK}, nil
}

// NewDocument builds a retriever from already-loaded text. Used by tests and
// callers that do not read from disk.
func NewDocument(name, text string, topK int) (*Document, error) {
	passages := splitPassages(text)
	if len(passages) == 0 {
		return nil, fmt.Errorf("%s document contains no text", name)
	}

	if topK <= 0 {
		topK = defaultTopK
	}

	return &Document{name: name, passages: passages, topK: topK}, nil
}

// Retrieve ranks the document's passages against the query and returns the
// best matches joined by blank lines. When nothing overlaps, the leading
// passages are returned so the model always gets some context.
func (d *Document) Retrieve(_ context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New("query must not be empty")
	}

	terms := tokenize(query)

	type scored struct {
		index int
		score int
	}

	ranked := make([]scored, 0, len(d.passages))
	for i, passage := range d.passages {
		ranked = append(ranked, scored{index: i, score: overlap(terms, tokenize(passage))})
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].score > ranked[b].score
	})

	limit := d.topK
	if limit > len(ranked) {
		limit = len(ranked)
	}

	selected := ranked[:limit]
	sort.Slice(selected, func(a, b int) bool {
		return selected[a].index < selected[b].index
	})

	parts := make([]string, 0, len(selected))
	for _, s := range selected {
		parts = append(parts, d.passages[s.index])
	}

	return strings.Join(parts, "\n\n"), nil
}

func splitPassages(text string) []string {
	var passages []string
	for _, block := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			passages = append(passages, block)
		}
	}
	return passages
}

func tokenize(text string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(text)) {
		term := strings.Trim(field, ".,;:!?()[]{}\"'")
		if len(term) > 2 {
			terms[term] = struct{}{}
		}
	}
	return terms
}

func overlap(a, b map[string]struct{}) int {
	count := 0
	for term := range a {
		if _, ok := b[term]; ok {
			count++
		}
	}
	return count
}
