package service

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/graph-centrality-service/pkg/graph"
	"github.com/gilchrisn/graph-centrality-service/pkg/metrics"
	"github.com/gilchrisn/graph-centrality-service/pkg/models"
	"github.com/gilchrisn/graph-centrality-service/pkg/parser"
)

var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrInvalidDataset  = errors.New("invalid dataset")
	ErrUploadTooLarge  = errors.New("upload exceeds size limit")
)

type storedDataset struct {
	info  models.Dataset
	graph *graph.Graph
}

// DatasetService parses uploaded edge lists and keeps the built graphs in memory
type DatasetService struct {
	datasets map[string]*storedDataset
	metrics  *metrics.Collector
	maxBytes int64
	mutex    sync.RWMutex
}

// NewDatasetService creates a new dataset service. maxBytes <= 0 disables
// the upload size limit.
func NewDatasetService(collector *metrics.Collector, maxBytes int64) *DatasetService {
	return &DatasetService{
		datasets: make(map[string]*storedDataset),
		metrics:  collector,
		maxBytes: maxBytes,
	}
}

// Upload parses r in the given format and stores the resulting graph
func (s *DatasetService) Upload(name, format string, r io.Reader) (*models.Dataset, error) {
	f, err := parser.ParseFormat(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	if name == "" {
		name = "Unnamed Dataset"
	}

	counter := &countingReader{r: r}
	var src io.Reader = counter
	if s.maxBytes > 0 {
		src = io.LimitReader(counter, s.maxBytes+1)
	}

	g, err := parser.Load(src, f)
	if s.maxBytes > 0 && counter.n > s.maxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrUploadTooLarge, s.maxBytes)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}

	dataset := models.Dataset{
		ID:     uuid.New().String(),
		Name:   name,
		Format: string(f),
		Metadata: models.DatasetMetadata{
			NodeCount: g.NumNodes(),
			EdgeCount: g.NumEdges(),
			FileSize:  counter.n,
		},
		CreatedAt: time.Now(),
	}

	s.mutex.Lock()
	s.datasets[dataset.ID] = &storedDataset{info: dataset, graph: g}
	count := len(s.datasets)
	s.mutex.Unlock()

	if s.metrics != nil {
		s.metrics.Datasets.Set(float64(count))
		s.metrics.ObserveDataset(g.NumNodes(), g.NumEdges())
	}

	log.Info().
		Str("dataset_id", dataset.ID).
		Str("name", name).
		Int("nodes", g.NumNodes()).
		Int("edges", g.NumEdges()).
		Int64("size_bytes", counter.n).
		Msg("Dataset upload complete")

	return &dataset, nil
}

// Get retrieves dataset metadata by ID
func (s *DatasetService) Get(datasetID string) (*models.Dataset, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stored, exists := s.datasets[datasetID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, datasetID)
	}
	info := stored.info
	return &info, nil
}

// Graph returns the read-only graph of a dataset
func (s *DatasetService) Graph(datasetID string) (*graph.Graph, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stored, exists := s.datasets[datasetID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, datasetID)
	}
	return stored.graph, nil
}

// List returns all datasets, oldest first
func (s *DatasetService) List() []models.Dataset {
	s.mutex.RLock()
	out := make([]models.Dataset, 0, len(s.datasets))
	for _, stored := range s.datasets {
		out = append(out, stored.info)
	}
	s.mutex.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Delete removes a dataset. Jobs already running keep their graph.
func (s *DatasetService) Delete(datasetID string) error {
	s.mutex.Lock()
	if _, exists := s.datasets[datasetID]; !exists {
		s.mutex.Unlock()
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, datasetID)
	}
	delete(s.datasets, datasetID)
	count := len(s.datasets)
	s.mutex.Unlock()

	if s.metrics != nil {
		s.metrics.Datasets.Set(float64(count))
	}
	log.Info().Str("dataset_id", datasetID).Msg("Dataset deleted")
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
