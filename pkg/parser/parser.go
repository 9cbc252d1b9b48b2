package parser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gilchrisn/graph-centrality-service/pkg/graph"
)

// ErrMalformedRecord is returned for a record that cannot become an edge.
var ErrMalformedRecord = errors.New("malformed record")

// Format names an input layout.
type Format string

const (
	// FormatRedditTSV is the SNAP reddit hyperlink network layout.
	FormatRedditTSV Format = "reddit-tsv"
	// FormatEdgeList is "source target [weight]" per line, '#' comments.
	FormatEdgeList Format = "edgelist"
)

// Reddit hyperlink column names
const (
	ColumnSource     = "SOURCE_SUBREDDIT"
	ColumnTarget     = "TARGET_SUBREDDIT"
	ColumnPostID     = "POST_ID"
	ColumnTimestamp  = "TIMESTAMP"
	ColumnSentiment  = "LINK_SENTIMENT"
	ColumnProperties = "PROPERTIES"
)

// Record is one parsed edge record. Only From, To and Weight feed the graph.
type Record struct {
	From       string
	To         string
	Weight     int
	PostID     string
	Timestamp  string
	Properties string
}

// ParseFormat parses a format name; the empty string means FormatRedditTSV.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatRedditTSV:
		return FormatRedditTSV, nil
	case FormatEdgeList:
		return FormatEdgeList, nil
	default:
		return "", fmt.Errorf("unknown input format %q", s)
	}
}

// Read parses all records from r in the given format.
func Read(r io.Reader, format Format) ([]Record, error) {
	switch format {
	case FormatRedditTSV, "":
		return ReadRedditTSV(r)
	case FormatEdgeList:
		return ReadEdgeList(r)
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
}

// ReadFile opens path and parses it in the given format.
func ReadFile(path string, format Format) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := Read(bufio.NewReaderSize(file, 1<<20), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ReadRedditTSV parses a tab-separated file with a header row. Columns are
// located by name; source, target and sentiment are required.
func ReadRedditTSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("missing header: %w", ErrMalformedRecord)
	}
	if err != nil {
		return nil, err
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{ColumnSource, ColumnTarget, ColumnSentiment} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("header lacks column %s: %w", required, ErrMalformedRecord)
		}
	}
	field := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)

		rec := Record{
			From:       field(row, ColumnSource),
			To:         field(row, ColumnTarget),
			PostID:     field(row, ColumnPostID),
			Timestamp:  field(row, ColumnTimestamp),
			Properties: field(row, ColumnProperties),
		}
		if rec.From == "" || rec.To == "" {
			return nil, fmt.Errorf("line %d: empty endpoint: %w", line, ErrMalformedRecord)
		}
		rec.Weight, err = strconv.Atoi(strings.TrimSpace(field(row, ColumnSentiment)))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad %s: %v: %w", line, ColumnSentiment, err, ErrMalformedRecord)
		}
		records = append(records, rec)
	}

	return records, nil
}

// ReadEdgeList parses whitespace-separated "source target [weight]" lines.
// Blank lines and lines starting with '#' are skipped; weight defaults to 1.
func ReadEdgeList(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("line %d: expected 2 or 3 fields, got %d: %w", lineNo, len(parts), ErrMalformedRecord)
		}

		rec := Record{From: parts[0], To: parts[1], Weight: 1}
		if len(parts) == 3 {
			w, err := strconv.Atoi(parts[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: bad weight %q: %w", lineNo, parts[2], ErrMalformedRecord)
			}
			rec.Weight = w
		}
		records = append(records, rec)
	}

	return records, scanner.Err()
}

// BuildGraph adds records to a new graph in order.
func BuildGraph(records []Record) *graph.Graph {
	b := graph.NewBuilder()
	for _, rec := range records {
		b.AddEdge(rec.From, rec.To, rec.Weight)
	}
	return b.Build()
}

// Load reads r and builds the graph in one step.
func Load(r io.Reader, format Format) (*graph.Graph, error) {
	records, err := Read(r, format)
	if err != nil {
		return nil, err
	}
	return BuildGraph(records), nil
}

// LoadFile reads path and builds the graph in one step.
func LoadFile(path string, format Format) (*graph.Graph, error) {
	records, err := ReadFile(path, format)
	if err != nil {
		return nil, err
	}
	return BuildGraph(records), nil
}
