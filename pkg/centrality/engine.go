package centrality

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gilchrisn/graph-centrality-service/pkg/graph"
)

// Result holds both centrality maps keyed by node identity
type Result struct {
	Closeness   map[string]float64 `json:"closeness"`
	Betweenness map[string]float64 `json:"betweenness"`
	Statistics  Statistics         `json:"statistics"`
}

// Statistics contains run metadata
type Statistics struct {
	NumNodes      int   `json:"num_nodes"`
	NumEdges      int   `json:"num_edges"`
	NumWorkers    int   `json:"num_workers"`
	Mode          Mode  `json:"mode"`
	ClosenessMS   int64 `json:"closeness_ms"`
	BetweennessMS int64 `json:"betweenness_ms"`
	RuntimeMS     int64 `json:"runtime_ms"`
}

// Run validates g and computes closeness and betweenness concurrently.
// Either both maps are returned or an error is.
func Run(ctx context.Context, g *graph.Graph, config *Config) (*Result, error) {
	startTime := time.Now()
	logger := config.CreateLogger()

	mode, err := prepare(g, config)
	if err != nil {
		return nil, err
	}
	workers := config.Workers()

	logger.Info().
		Int("nodes", g.NumNodes()).
		Int("edges", g.NumEdges()).
		Str("mode", string(mode)).
		Int("workers", workers).
		Msg("Starting centrality computation")

	var (
		closeness, betweenness []float64
		closenessTime          time.Duration
		betweennessTime        time.Duration
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		start := time.Now()
		scores, err := closenessScores(egCtx, g, mode, workers, config, logger)
		if err != nil {
			return fmt.Errorf("closeness: %w", err)
		}
		closeness, closenessTime = scores, time.Since(start)
		return nil
	})
	eg.Go(func() error {
		start := time.Now()
		scores, err := betweennessScores(egCtx, g, mode, workers, config, logger)
		if err != nil {
			return fmt.Errorf("betweenness: %w", err)
		}
		betweenness, betweennessTime = scores, time.Since(start)
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		Closeness:   toMap(g, closeness),
		Betweenness: toMap(g, betweenness),
		Statistics: Statistics{
			NumNodes:      g.NumNodes(),
			NumEdges:      g.NumEdges(),
			NumWorkers:    workers,
			Mode:          mode,
			ClosenessMS:   closenessTime.Milliseconds(),
			BetweennessMS: betweennessTime.Milliseconds(),
			RuntimeMS:     time.Since(startTime).Milliseconds(),
		},
	}

	logger.Info().
		Dur("closeness", closenessTime).
		Dur("betweenness", betweennessTime).
		Int64("runtime_ms", result.Statistics.RuntimeMS).
		Msg("Centrality computation completed")

	return result, nil
}

// Closeness computes closeness centrality for every node of g.
func Closeness(ctx context.Context, g *graph.Graph, config *Config) (map[string]float64, error) {
	mode, err := prepare(g, config)
	if err != nil {
		return nil, err
	}
	scores, err := closenessScores(ctx, g, mode, config.Workers(), config, config.CreateLogger())
	if err != nil {
		return nil, err
	}
	return toMap(g, scores), nil
}

// Betweenness computes normalized betweenness centrality for every node of g.
func Betweenness(ctx context.Context, g *graph.Graph, config *Config) (map[string]float64, error) {
	mode, err := prepare(g, config)
	if err != nil {
		return nil, err
	}
	scores, err := betweennessScores(ctx, g, mode, config.Workers(), config, config.CreateLogger())
	if err != nil {
		return nil, err
	}
	return toMap(g, scores), nil
}

// prepare rejects malformed graphs and unusable weights before any traversal.
func prepare(g *graph.Graph, config *Config) (Mode, error) {
	if err := g.Validate(); err != nil {
		return "", fmt.Errorf("invalid graph: %w", err)
	}
	mode, err := ParseMode(config.Mode())
	if err != nil {
		return "", err
	}
	if mode == ModeWeighted {
		if err := checkWeights(g); err != nil {
			return "", fmt.Errorf("invalid graph for weighted mode: %w", err)
		}
	}
	return mode, nil
}

func closenessScores(ctx context.Context, g *graph.Graph, mode Mode, workers int, config *Config, logger zerolog.Logger) ([]float64, error) {
	scores := make([]float64, g.NumNodes())
	p := newProgress(config, logger, "closeness", g.NumNodes())

	// Each source is visited by exactly one worker, which owns scores[source].
	err := sweep(ctx, g, mode, workers, p, func(_ int, t *Traversal) {
		scores[t.Source] = ClosenessOf(t)
	})
	if err != nil {
		return nil, err
	}
	return scores, nil
}

func betweennessScores(ctx context.Context, g *graph.Graph, mode Mode, workers int, config *Config, logger zerolog.Logger) ([]float64, error) {
	n := g.NumNodes()
	workers = clampWorkers(workers, n)
	partials := make([][]float64, workers)
	deltas := make([][]float64, workers)
	for w := range partials {
		partials[w] = make([]float64, n)
		deltas[w] = make([]float64, n)
	}
	p := newProgress(config, logger, "betweenness", n)

	err := sweep(ctx, g, mode, workers, p, func(w int, t *Traversal) {
		AccumulateDependencies(t, deltas[w], partials[w])
	})
	if err != nil {
		return nil, err
	}

	// Fold worker partials in worker order so sums are reproducible.
	raw := make([]float64, n)
	for _, partial := range partials {
		for i, v := range partial {
			raw[i] += v
		}
	}
	return Normalize(raw), nil
}

// sweep explores every node of g as a source. Sources are striped over the
// workers (worker w takes w, w+workers, ...) and each worker owns its
// explorer; visit may only touch state owned by worker.
func sweep(ctx context.Context, g *graph.Graph, mode Mode, workers int, p *progress, visit func(worker int, t *Traversal)) error {
	n := g.NumNodes()
	workers = clampWorkers(workers, n)

	explorers := make([]Explorer, workers)
	for w := range explorers {
		explorer, err := NewExplorer(g, mode)
		if err != nil {
			return err
		}
		explorers[w] = explorer
	}

	eg, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w, explorer := w, explorers[w]
		eg.Go(func() error {
			for s := w; s < n; s += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				visit(w, explorer.Explore(s))
				p.tick()
			}
			return nil
		})
	}
	return eg.Wait()
}

func clampWorkers(workers, n int) int {
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

func toMap(g *graph.Graph, scores []float64) map[string]float64 {
	m := make(map[string]float64, len(scores))
	for i, v := range scores {
		m[g.Name(i)] = v
	}
	return m
}

type progress struct {
	logger   zerolog.Logger
	measure  string
	total    int
	interval int64
	done     atomic.Int64
}

func newProgress(config *Config, logger zerolog.Logger, measure string, total int) *progress {
	p := &progress{logger: logger, measure: measure, total: total}
	if config.EnableProgress() {
		p.interval = int64(config.ProgressInterval())
	}
	return p
}

func (p *progress) tick() {
	done := p.done.Add(1)
	if p.interval <= 0 || done%p.interval != 0 {
		return
	}
	p.logger.Info().
		Str("measure", p.measure).
		Int64("sources", done).
		Int("total", p.total).
		Msg("Traversal progress")
}
