package ranking

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gilchrisn/graph-centrality-service/pkg/centrality"
)

// Annotations used by the console report
const (
	ClosenessAnnotation   = "hub-like or generalist"
	BetweennessAnnotation = "bridge between communities"
)

// Entry is one ranked node
type Entry struct {
	Rank  int     `json:"rank"`
	Node  string  `json:"node"`
	Score float64 `json:"score"`
}

// Sorted returns every entry of scores, highest first. Equal scores are
// ordered by node name so the output is reproducible.
func Sorted(scores map[string]float64) []Entry {
	entries := make([]Entry, 0, len(scores))
	for node, score := range scores {
		entries = append(entries, Entry{Node: node, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Node < entries[j].Node
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// TopN returns the n highest-scoring entries; n <= 0 returns all.
func TopN(scores map[string]float64, n int) []Entry {
	entries := Sorted(scores)
	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// Render writes a titled listing, one "node: score (annotation)" per line.
func Render(w io.Writer, title, annotation string, entries []Entry) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	for _, e := range entries {
		var err error
		if annotation != "" {
			_, err = fmt.Fprintf(w, "%s: %.4f (%s)\n", e.Node, e.Score, annotation)
		} else {
			_, err = fmt.Fprintf(w, "%s: %.4f\n", e.Node, e.Score)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Report is the serialized form of a centrality run
type Report struct {
	Closeness   []Entry               `json:"closeness"`
	Betweenness []Entry               `json:"betweenness"`
	Statistics  centrality.Statistics `json:"statistics"`
}

// NewReport ranks both measures of result, keeping the top n of each.
func NewReport(result *centrality.Result, n int) *Report {
	return &Report{
		Closeness:   TopN(result.Closeness, n),
		Betweenness: TopN(result.Betweenness, n),
		Statistics:  result.Statistics,
	}
}

// RenderReport prints both listings in the console layout.
func RenderReport(w io.Writer, report *Report) error {
	if err := Render(w, "Top-ranked nodes by Closeness Centrality:", ClosenessAnnotation, report.Closeness); err != nil {
		return err
	}
	return Render(w, "Top-ranked nodes by Betweenness Centrality:", BetweennessAnnotation, report.Betweenness)
}

// WriteJSON writes report to path, creating parent directories.
func WriteJSON(report *Report, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
