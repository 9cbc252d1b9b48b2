package models

import (
	"time"

	"github.com/gilchrisn/graph-centrality-service/pkg/centrality"
	"github.com/gilchrisn/graph-centrality-service/pkg/ranking"
)

// APIResponse is the envelope of every JSON response
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Dataset represents an uploaded edge list held in memory
type Dataset struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Format    string          `json:"format"`
	Metadata  DatasetMetadata `json:"metadata"`
	CreatedAt time.Time       `json:"createdAt"`
}

type DatasetMetadata struct {
	NodeCount int   `json:"nodeCount"`
	EdgeCount int   `json:"edgeCount"`
	FileSize  int64 `json:"fileSize"`
}

// Job represents a centrality computation over one dataset
type Job struct {
	ID          string        `json:"id"`
	DatasetID   string        `json:"datasetId"`
	Parameters  JobParameters `json:"parameters"`
	Status      JobStatus     `json:"status"`
	Message     string        `json:"message"`
	Summary     *JobSummary   `json:"summary,omitempty"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}

// JobParameters override the service configuration for one job. TopN is
// the default listing size of the result endpoint.
type JobParameters struct {
	Mode    string `json:"mode,omitempty"`
	TopN    int    `json:"topN,omitempty"`
	Workers *int   `json:"workers,omitempty"`
}

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Done reports whether the status is terminal
func (s JobStatus) Done() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// JobSummary is attached to a completed job
type JobSummary struct {
	Statistics       centrality.Statistics `json:"statistics"`
	TopCloseness     *ranking.Entry        `json:"topCloseness,omitempty"`
	TopBetweenness   *ranking.Entry        `json:"topBetweenness,omitempty"`
	ProcessingTimeMS int64                 `json:"processingTimeMS"`
}

// RankingResponse is the payload of the result endpoint
type RankingResponse struct {
	JobID       string          `json:"jobId"`
	DatasetID   string          `json:"datasetId"`
	Closeness   []ranking.Entry `json:"closeness,omitempty"`
	Betweenness []ranking.Entry `json:"betweenness,omitempty"`
}

// UploadResponse is returned after a dataset upload
type UploadResponse struct {
	DatasetID string  `json:"datasetId"`
	Dataset   Dataset `json:"dataset"`
}
