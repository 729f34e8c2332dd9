package jobs

import (
	"context"
	"time"
)

// JobType identifies what kind of work a job carries.
type JobType string

const (
	// JobTypeProcessReceipt runs one receipt photo through the pipeline.
	JobTypeProcessReceipt JobType = "process_receipt"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// ProcessReceiptJob carries one receipt photo from a webhook or polling
// update to the worker that processes it.
type ProcessReceiptJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// ChatID is the Telegram chat to report results back to.
	ChatID int64 `json:"chat_id"`

	// TelegramUserID is the sender of the photo.
	TelegramUserID int64 `json:"telegram_user_id"`

	// FileID is the Telegram file id of the photo to download.
	FileID string `json:"file_id"`

	// Status is the current lifecycle state.
	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error holds failure details once the job has failed.
	Error string `json:"error,omitempty"`

	// RetryCount and MaxRetries govern re-enqueueing on failure. Receipt
	// jobs run with MaxRetries zero: every failure path already notifies
	// the user, and a retry would double-charge the pipeline.
	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is the generic view the queue machinery needs of any job type.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *ProcessReceiptJob) GetID() string {
	return j.JobID
}

func (j *ProcessReceiptJob) GetType() JobType {
	return JobTypeProcessReceipt
}

func (j *ProcessReceiptJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher enqueues jobs. The abstraction keeps the door open for a
// Cloud Tasks or Pub/Sub implementation behind the same call sites.
type Publisher interface {
	PublishProcessReceipt(ctx context.Context, job *ProcessReceiptJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer drains jobs from a queue and hands them to a handler.
type Consumer interface {
	// Start begins consuming. The handler is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming and waits for in-flight jobs to finish.
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error marks the job failed
// (and retried, if the job allows retries).
type JobHandler func(ctx context.Context, job Job) error

// JobStore tracks job state so execution is observable.
type JobStore interface {
	SaveJob(ctx context.Context, job *ProcessReceiptJob) error
	GetJob(ctx context.Context, jobID string) (*ProcessReceiptJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ProcessReceiptJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter narrows ListJobs results.
type JobFilter struct {
	// TelegramUserID filters jobs by the photo's sender.
	TelegramUserID int64

	// Status filters jobs by lifecycle state.
	Status JobStatus

	Limit  int
	Offset int
}
