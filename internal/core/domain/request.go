package domain

import "time"

type FileType string

const (
	FileImage FileType = "image"
	FilePDF   FileType = "pdf"
)

func (t FileType) Valid() bool {
	return t == FileImage || t == FilePDF
}

// ProcessingStatus transitions are forward-only:
// pending -> processing -> completed | failed. Failed is reachable from any
// non-terminal state.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

func (s ProcessingStatus) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusProcessing:
		return 1
	case StatusCompleted, StatusFailed:
		return 2
	}
	return -1
}

func (s ProcessingStatus) CanTransitionTo(next ProcessingStatus) bool {
	if s == next {
		return false
	}
	if s == StatusCompleted || s == StatusFailed {
		return false
	}
	if next == StatusFailed {
		return true
	}
	return next.rank() > s.rank()
}

// Request is one client-submitted document and the root of all derived
// artifacts. ID is a UUIDv7 string, so lexicographic order of ids equals
// creation order.
type Request struct {
	ID               string           `json:"request_id"`
	OriginalFilename string           `json:"original_filename"`
	FileType         FileType         `json:"file_type"`
	FileSize         int64            `json:"file_size"`
	TotalPages       int              `json:"total_pages"`
	Status           ProcessingStatus `json:"processing_status"`
	Error            string           `json:"error_message,omitempty"`
	Description      string           `json:"description,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
}

// RequestSummary is persisted as summary.json when a request completes.
type RequestSummary struct {
	TotalPages        int       `json:"total_pages"`
	TotalBlocks       int       `json:"total_blocks"`
	AverageConfidence float64   `json:"average_confidence"`
	ProcessingTime    float64   `json:"processing_time"`
	CompletedAt       time.Time `json:"completed_at"`
}
