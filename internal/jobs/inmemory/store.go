package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/receiptlog/internal/jobs"
)

// Store keeps job state in memory, safe for concurrent use. State is
// lost on restart; job tracking here exists for observability, not
// durability.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.ProcessReceiptJob
}

// NewStore creates an empty in-memory job store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*jobs.ProcessReceiptJob),
	}
}

// SaveJob saves or updates a job. Jobs are copied on the way in so the
// caller's struct stays detached from stored state.
func (s *Store) SaveJob(ctx context.Context, job *jobs.ProcessReceiptJob) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: job id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobCopy := *job
	s.jobs[job.JobID] = &jobCopy

	return nil
}

// GetJob retrieves a job by id.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.ProcessReceiptJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("GetJob: job not found: %s", jobID)
	}

	jobCopy := *job
	return &jobCopy, nil
}

// ListJobs returns jobs matching the filter.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ProcessReceiptJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*jobs.ProcessReceiptJob

	for _, job := range s.jobs {
		if filter.TelegramUserID != 0 && job.TelegramUserID != filter.TelegramUserID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}

		jobCopy := *job
		result = append(result, &jobCopy)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.ProcessReceiptJob{}, nil
		}
		result = result[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// UpdateJobStatus updates a stored job's lifecycle state.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("UpdateJobStatus: job not found: %s", jobID)
	}

	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}

	return nil
}

var _ jobs.JobStore = (*Store)(nil)
