package response

import (
	"time"

	"github.com/trezcool/formnet/core/form"
)

type Status string

// Response statuses
const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
)

// Orderable fields
const (
	OrderByCreatedAt           = "created_at"
	OrderByUpdatedAt           = "updated_at"
	OrderBySubmissionTimestamp = "submission_timestamp"
	OrderByStatus              = "status"
	OrderByUserID              = "user_id"
)

var OrderableFields = []string{
	OrderByCreatedAt, OrderByUpdatedAt, OrderBySubmissionTimestamp, OrderByStatus, OrderByUserID,
}

// Response holds the answers of one user to one form. There is at most one per (UserID, FormID).
type Response struct {
	ID             string                `json:"id"`
	FormID         string                `json:"form_id"`
	UserID         string                `json:"user_id"`
	AcademicYearID string                `json:"academic_year_id"`
	Values         map[string]form.Value `json:"values"`
	Status         Status                `json:"status"`
	CreatedAt      time.Time             `json:"created_at"` // UTC
	UpdatedAt      time.Time             `json:"updated_at"` // UTC

	// ResponseTimestamp is the time of the first save.
	ResponseTimestamp time.Time `json:"response_timestamp"`
	// LastModifiedTimestamp is the time of the latest save.
	LastModifiedTimestamp time.Time `json:"last_modified_timestamp"`
	// SubmissionTimestamp is the time of the latest submission. Never cleared once set.
	SubmissionTimestamp *time.Time `json:"submission_timestamp,omitempty"`
}

func (r Response) IsSubmitted() bool { return r.Status == StatusSubmitted }

// SaveRequest is the payload of a save: the complete current state of the form plus the draft flag.
type SaveRequest struct {
	Values  map[string]form.Value `json:"values"`
	AsDraft bool                  `json:"as_draft"`
}
