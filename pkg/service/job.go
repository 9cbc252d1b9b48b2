package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/graph-centrality-service/pkg/centrality"
	"github.com/gilchrisn/graph-centrality-service/pkg/metrics"
	"github.com/gilchrisn/graph-centrality-service/pkg/models"
	"github.com/gilchrisn/graph-centrality-service/pkg/ranking"
)

var (
	ErrJobNotFound     = errors.New("job not found")
	ErrJobNotDone      = errors.New("job has no result")
	ErrInvalidJob      = errors.New("invalid job parameters")
	ErrServiceStopping = errors.New("job service is shutting down")
)

type jobEntry struct {
	job    models.Job
	result *centrality.Result
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// JobService runs centrality computations in the background
type JobService struct {
	jobs     map[string]*jobEntry
	workers  chan struct{}
	datasets *DatasetService
	config   *centrality.Config
	metrics  *metrics.Collector
	mutex    sync.RWMutex

	jobTimeout      time.Duration
	resultTTL       time.Duration
	cleanupInterval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewJobService creates a job service whose jobs start from a snapshot of
// config taken now; later changes to config, including file reloads, do not
// reach jobs. It starts a cleanup goroutine; call Close to stop it.
func NewJobService(datasets *DatasetService, config *centrality.Config, collector *metrics.Collector) *JobService {
	config = config.Clone()

	maxWorkers := config.MaxJobWorkers()
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	s := &JobService{
		jobs:            make(map[string]*jobEntry),
		workers:         make(chan struct{}, maxWorkers),
		datasets:        datasets,
		config:          config,
		metrics:         collector,
		jobTimeout:      config.JobTimeout(),
		resultTTL:       config.ResultTTL(),
		cleanupInterval: config.CleanupInterval(),
		stop:            make(chan struct{}),
	}

	if s.cleanupInterval > 0 {
		s.wg.Add(1)
		go s.cleanupLoop()
	}
	return s
}

// Submit creates and queues a new centrality job
func (s *JobService) Submit(datasetID string, params models.JobParameters) (*models.Job, error) {
	if _, err := s.datasets.Get(datasetID); err != nil {
		return nil, err
	}
	if params.Mode == "" {
		params.Mode = s.config.Mode()
	}
	mode, err := centrality.ParseMode(params.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	params.Mode = string(mode)
	if params.TopN < 0 {
		return nil, fmt.Errorf("%w: topN must not be negative", ErrInvalidJob)
	}
	if params.Workers != nil && *params.Workers < 1 {
		return nil, fmt.Errorf("%w: workers must be positive", ErrInvalidJob)
	}

	now := time.Now()
	ctx, cancel := context.WithCancel(context.Background())
	entry := &jobEntry{
		job: models.Job{
			ID:         uuid.New().String(),
			DatasetID:  datasetID,
			Parameters: params,
			Status:     models.JobStatusQueued,
			Message:    "Queued",
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	// Registering under the lock orders this against Close: either the job
	// is refused or Close sees it and cancels it.
	s.mutex.Lock()
	select {
	case <-s.stop:
		s.mutex.Unlock()
		cancel()
		return nil, ErrServiceStopping
	default:
	}
	s.jobs[entry.job.ID] = entry
	s.wg.Add(1)
	job := entry.job
	s.mutex.Unlock()

	log.Info().
		Str("job_id", job.ID).
		Str("dataset_id", datasetID).
		Str("mode", params.Mode).
		Msg("Job submitted")

	go s.processJob(entry)

	return &job, nil
}

// Get retrieves a snapshot of a job by ID
func (s *JobService) Get(jobID string) (*models.Job, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	job := entry.job
	return &job, nil
}

// List returns the jobs of a dataset, or all jobs when datasetID is empty
func (s *JobService) List(datasetID string) []models.Job {
	s.mutex.RLock()
	var jobs []models.Job
	for _, entry := range s.jobs {
		if datasetID == "" || entry.job.DatasetID == datasetID {
			jobs = append(jobs, entry.job)
		}
	}
	s.mutex.RUnlock()

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })
	return jobs
}

// Result returns the full result of a completed job
func (s *JobService) Result(jobID string) (*centrality.Result, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if entry.result == nil {
		return nil, fmt.Errorf("%w: %s is %s", ErrJobNotDone, jobID, entry.job.Status)
	}
	return entry.result, nil
}

// Cancel cancels a queued or running job. Finished jobs are left as they are.
func (s *JobService) Cancel(jobID string) (*models.Job, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	if !entry.job.Status.Done() {
		now := time.Now()
		entry.job.Status = models.JobStatusCancelled
		entry.job.Message = "Cancelled"
		entry.job.CompletedAt = &now
		entry.job.UpdatedAt = now
		entry.cancel()

		log.Info().Str("job_id", jobID).Msg("Job cancelled")
	}

	job := entry.job
	return &job, nil
}

// Wait blocks until the job reaches a terminal status or ctx is done
func (s *JobService) Wait(ctx context.Context, jobID string) (*models.Job, error) {
	s.mutex.RLock()
	entry, exists := s.jobs[jobID]
	s.mutex.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	select {
	case <-entry.done:
		return s.Get(jobID)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close cancels outstanding jobs and waits for background goroutines
func (s *JobService) Close() {
	s.stopOnce.Do(func() {
		s.mutex.Lock()
		close(s.stop)
		for _, entry := range s.jobs {
			entry.cancel()
		}
		s.mutex.Unlock()
	})
	s.wg.Wait()
}

// processJob processes a job in the background
func (s *JobService) processJob(entry *jobEntry) {
	defer s.wg.Done()
	defer close(entry.done)
	defer entry.cancel()

	jobID := entry.job.ID

	// Acquire worker slot
	select {
	case s.workers <- struct{}{}:
		defer func() { <-s.workers }()
	case <-entry.ctx.Done():
		s.finish(entry, nil, entry.ctx.Err(), 0)
		return
	}

	if !s.markRunning(entry) {
		s.finish(entry, nil, context.Canceled, 0)
		return
	}

	g, err := s.datasets.Graph(entry.job.DatasetID)
	if err != nil {
		s.finish(entry, nil, fmt.Errorf("failed to get dataset: %w", err), 0)
		return
	}

	config := s.config.Clone()
	config.Set("algorithm.mode", entry.job.Parameters.Mode)
	if entry.job.Parameters.Workers != nil {
		config.Set("performance.num_workers", *entry.job.Parameters.Workers)
	}

	ctx := entry.ctx
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	log.Info().
		Str("job_id", jobID).
		Int("nodes", g.NumNodes()).
		Int("edges", g.NumEdges()).
		Msg("Job processing started")

	start := time.Now()
	result, err := centrality.Run(ctx, g, config)
	s.finish(entry, result, err, time.Since(start))
}

func (s *JobService) markRunning(entry *jobEntry) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if entry.job.Status != models.JobStatusQueued {
		return false
	}
	now := time.Now()
	entry.job.Status = models.JobStatusRunning
	entry.job.Message = "Computing closeness and betweenness"
	entry.job.StartedAt = &now
	entry.job.UpdatedAt = now
	return true
}

// finish records the outcome unless the job was cancelled in the meantime
func (s *JobService) finish(entry *jobEntry, result *centrality.Result, err error, elapsed time.Duration) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	job := &entry.job
	now := time.Now()
	status := job.Status

	switch {
	case status == models.JobStatusCancelled:
		// Cancel already stamped the job.
	case err != nil && errors.Is(err, context.Canceled):
		job.Status = models.JobStatusCancelled
		job.Message = "Cancelled"
	case err != nil:
		job.Status = models.JobStatusFailed
		job.Message = "Failed"
		job.Error = err.Error()
	default:
		job.Status = models.JobStatusCompleted
		job.Message = "Complete"
		entry.result = result
		job.Summary = summarize(result, elapsed)
	}
	if job.CompletedAt == nil {
		job.CompletedAt = &now
	}
	job.UpdatedAt = now

	if s.metrics != nil {
		s.metrics.ObserveJob(string(job.Status), job.Parameters.Mode, elapsed)
	}

	event := log.Info()
	if job.Status == models.JobStatusFailed {
		event = log.Error().Str("error", job.Error)
	}
	event.
		Str("job_id", job.ID).
		Str("status", string(job.Status)).
		Dur("elapsed", elapsed).
		Msg("Job finished")
}

func summarize(result *centrality.Result, elapsed time.Duration) *models.JobSummary {
	summary := &models.JobSummary{
		Statistics:       result.Statistics,
		ProcessingTimeMS: elapsed.Milliseconds(),
	}
	if top := ranking.TopN(result.Closeness, 1); len(top) > 0 {
		summary.TopCloseness = &top[0]
	}
	if top := ranking.TopN(result.Betweenness, 1); len(top) > 0 {
		summary.TopBetweenness = &top[0]
	}
	return summary
}

// cleanupLoop periodically cleans up old jobs and results
func (s *JobService) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			s.cleanup(now)
		case <-s.stop:
			return
		}
	}
}

// cleanup removes finished jobs not updated within the result TTL
func (s *JobService) cleanup(now time.Time) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := now.Add(-s.resultTTL)
	cleaned := 0
	for jobID, entry := range s.jobs {
		if entry.job.Status.Done() && entry.job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, jobID)
			cleaned++
		}
	}

	if cleaned > 0 {
		log.Info().
			Int("cleaned_jobs", cleaned).
			Msg("Job cleanup completed")
	}
	return cleaned
}
