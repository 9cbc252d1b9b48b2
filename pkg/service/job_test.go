package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/graph-centrality-service/pkg/centrality"
	"github.com/gilchrisn/graph-centrality-service/pkg/metrics"
	"github.com/gilchrisn/graph-centrality-service/pkg/models"
)

func newTestServices(t *testing.T, maxWorkers int) (*DatasetService, *JobService, *metrics.Collector) {
	t.Helper()

	config := centrality.NewConfig()
	config.Set("logging.level", "disabled")
	config.Set("logging.enable_progress", false)
	config.Set("jobs.max_workers", maxWorkers)
	config.Set("jobs.cleanup_interval", 0)

	collector := metrics.NewCollector("centrality")
	datasets := NewDatasetService(collector, 0)
	jobs := NewJobService(datasets, config, collector)
	t.Cleanup(jobs.Close)
	return datasets, jobs, collector
}

func waitFor(t *testing.T, jobs *JobService, id string) *models.Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	job, err := jobs.Wait(ctx, id)
	require.NoError(t, err)
	return job
}

func TestJobCompletes(t *testing.T) {
	datasets, jobs, collector := newTestServices(t, 2)
	dataset, err := datasets.Upload("cycle", "edgelist", strings.NewReader(cycleEdges))
	require.NoError(t, err)

	workers := 3
	job, err := jobs.Submit(dataset.ID, models.JobParameters{Workers: &workers})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, job.Status)
	assert.Equal(t, "unit", job.Parameters.Mode)

	job = waitFor(t, jobs, job.ID)
	require.Equal(t, models.JobStatusCompleted, job.Status, job.Error)
	require.NotNil(t, job.Summary)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.CompletedAt)
	assert.Equal(t, 4, job.Summary.Statistics.NumNodes)
	assert.Equal(t, 3, job.Summary.Statistics.NumWorkers)
	// Every node of the cycle ties, so the name breaks it.
	require.NotNil(t, job.Summary.TopCloseness)
	assert.Equal(t, "a", job.Summary.TopCloseness.Node)
	assert.InDelta(t, 0.5, job.Summary.TopCloseness.Score, 1e-12)

	result, err := jobs.Result(job.ID)
	require.NoError(t, err)
	for _, node := range []string{"a", "b", "c", "d"} {
		assert.InDelta(t, 0.5, result.Closeness[node], 1e-12, node)
		assert.InDelta(t, 0.5, result.Betweenness[node], 1e-12, node)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Jobs.WithLabelValues("completed")))
	assert.Len(t, jobs.List(dataset.ID), 1)
	assert.Empty(t, jobs.List("other"))
}

func TestJobSubmitValidation(t *testing.T) {
	datasets, jobs, _ := newTestServices(t, 1)
	dataset, err := datasets.Upload("cycle", "edgelist", strings.NewReader(cycleEdges))
	require.NoError(t, err)

	zero := 0
	tests := []struct {
		name      string
		datasetID string
		params    models.JobParameters
		want      error
	}{
		{"unknown dataset", "missing", models.JobParameters{}, ErrDatasetNotFound},
		{"unknown mode", dataset.ID, models.JobParameters{Mode: "floyd"}, ErrInvalidJob},
		{"zero workers", dataset.ID, models.JobParameters{Workers: &zero}, ErrInvalidJob},
		{"negative top", dataset.ID, models.JobParameters{TopN: -1}, ErrInvalidJob},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := jobs.Submit(tt.datasetID, tt.params)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
	assert.Empty(t, jobs.List(""))
}

func TestJobFailsOnNegativeWeights(t *testing.T) {
	datasets, jobs, collector := newTestServices(t, 1)
	dataset, err := datasets.Upload("signed", "edgelist", strings.NewReader("a b 1\nb c -1\n"))
	require.NoError(t, err)

	job, err := jobs.Submit(dataset.ID, models.JobParameters{Mode: "weighted"})
	require.NoError(t, err)

	job = waitFor(t, jobs, job.ID)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "negative")
	assert.Nil(t, job.Summary)

	_, err = jobs.Result(job.ID)
	assert.True(t, errors.Is(err, ErrJobNotDone))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Jobs.WithLabelValues("failed")))
}

func TestJobCancelWhileQueued(t *testing.T) {
	datasets, jobs, _ := newTestServices(t, 1)
	dataset, err := datasets.Upload("cycle", "edgelist", strings.NewReader(cycleEdges))
	require.NoError(t, err)

	// Occupy the only worker slot so the job stays queued.
	jobs.workers <- struct{}{}
	defer func() { <-jobs.workers }()

	job, err := jobs.Submit(dataset.ID, models.JobParameters{})
	require.NoError(t, err)

	cancelled, err := jobs.Cancel(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, cancelled.Status)

	job = waitFor(t, jobs, job.ID)
	assert.Equal(t, models.JobStatusCancelled, job.Status)
	assert.Nil(t, job.StartedAt)

	_, err = jobs.Result(job.ID)
	assert.True(t, errors.Is(err, ErrJobNotDone))

	// Cancelling a finished job changes nothing.
	again, err := jobs.Cancel(job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.CompletedAt, again.CompletedAt)
}

func TestJobNotFound(t *testing.T) {
	_, jobs, _ := newTestServices(t, 1)

	_, err := jobs.Get("missing")
	assert.True(t, errors.Is(err, ErrJobNotFound))
	_, err = jobs.Cancel("missing")
	assert.True(t, errors.Is(err, ErrJobNotFound))
	_, err = jobs.Result("missing")
	assert.True(t, errors.Is(err, ErrJobNotFound))
	_, err = jobs.Wait(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrJobNotFound))
}

func TestJobCleanup(t *testing.T) {
	datasets, jobs, _ := newTestServices(t, 1)
	dataset, err := datasets.Upload("cycle", "edgelist", strings.NewReader(cycleEdges))
	require.NoError(t, err)

	job, err := jobs.Submit(dataset.ID, models.JobParameters{})
	require.NoError(t, err)
	waitFor(t, jobs, job.ID)

	assert.Equal(t, 0, jobs.cleanup(time.Now()))
	assert.Equal(t, 1, jobs.cleanup(time.Now().Add(jobs.resultTTL+time.Minute)))

	_, err = jobs.Get(job.ID)
	assert.True(t, errors.Is(err, ErrJobNotFound))
}

func TestJobServiceClose(t *testing.T) {
	datasets, jobs, _ := newTestServices(t, 1)
	dataset, err := datasets.Upload("cycle", "edgelist", strings.NewReader(cycleEdges))
	require.NoError(t, err)

	jobs.Close()
	_, err = jobs.Submit(dataset.ID, models.JobParameters{})
	assert.True(t, errors.Is(err, ErrServiceStopping))
}

func TestJobServiceUsesConfigSnapshot(t *testing.T) {
	config := centrality.NewConfig()
	config.Set("logging.level", "disabled")
	config.Set("logging.enable_progress", false)
	config.Set("jobs.cleanup_interval", 0)
	config.Set("algorithm.mode", "weighted")

	datasets := NewDatasetService(nil, 0)
	jobs := NewJobService(datasets, config, nil)
	t.Cleanup(jobs.Close)

	dataset, err := datasets.Upload("cycle", "edgelist", strings.NewReader(cycleEdges))
	require.NoError(t, err)

	// Writers on the source config run alongside job starts.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			config.Set("algorithm.mode", "unit")
			config.Set("performance.num_workers", i+1)
		}
	}()

	var ids []string
	for i := 0; i < 5; i++ {
		job, err := jobs.Submit(dataset.ID, models.JobParameters{})
		require.NoError(t, err)
		assert.Equal(t, "weighted", job.Parameters.Mode)
		ids = append(ids, job.ID)
	}
	<-done

	for _, id := range ids {
		job := waitFor(t, jobs, id)
		require.Equal(t, models.JobStatusCompleted, job.Status, job.Error)
		assert.Equal(t, centrality.ModeWeighted, job.Summary.Statistics.Mode)
	}
}

func TestJobSubmitRacingClose(t *testing.T) {
	datasets, jobs, _ := newTestServices(t, 2)
	dataset, err := datasets.Upload("cycle", "edgelist", strings.NewReader(cycleEdges))
	require.NoError(t, err)

	accepted := make(chan string, 50)
	submitted := make(chan struct{})
	go func() {
		defer close(submitted)
		for i := 0; i < 50; i++ {
			job, err := jobs.Submit(dataset.ID, models.JobParameters{})
			if err != nil {
				assert.True(t, errors.Is(err, ErrServiceStopping), "got %v", err)
				continue
			}
			accepted <- job.ID
		}
	}()

	jobs.Close()
	<-submitted
	close(accepted)

	// Every job Close could see has finished; later submissions were refused.
	for id := range accepted {
		job, err := jobs.Get(id)
		require.NoError(t, err)
		assert.True(t, job.Status.Done(), "job %s is %s", id, job.Status)
	}
}
