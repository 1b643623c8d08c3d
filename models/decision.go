package models

import "time"

// Decision kinds recorded in the ledger. Reviewer recommendations are not
// decisions; they live on the assignment row.
const (
	DecisionSubmit           = "submit"
	DecisionApproveForReview = "approve_for_review"
	DecisionDeskReject       = "desk_reject"
	DecisionSpecialReview    = "special_review"
	DecisionFinalAccept      = "final_accept"
	DecisionFinalReject      = "final_reject"
	DecisionRequestRevision  = "request_revision"
	DecisionResubmit         = "resubmit"
	DecisionPublish          = "publish"
)

// Decision is an append-only ledger entry recording one editorial action.
// Rows are only ever inserted; there is no update or delete path.
type Decision struct {
	DecisionID        int        `gorm:"primaryKey;column:decision_id" json:"decision_id"`
	SubmissionID      int        `gorm:"column:submission_id;index" json:"submission_id"`
	SubmissionVersion int        `gorm:"column:submission_version" json:"submission_version"`
	ActorID           int        `gorm:"column:actor_id" json:"actor_id"`
	ActorRole         string     `gorm:"column:actor_role" json:"actor_role"`
	DecisionKind      string     `gorm:"column:decision_kind" json:"decision_kind"`
	AssignedEditorID  *int       `gorm:"column:assigned_editor_id" json:"assigned_editor_id,omitempty"`
	Comments          *string    `gorm:"column:comments" json:"comments,omitempty"`
	Priority          *string    `gorm:"column:priority" json:"priority,omitempty"`
	DeadlineHint      *time.Time `gorm:"column:deadline_hint" json:"deadline_hint,omitempty"`
	CreatedAt         time.Time  `gorm:"column:created_at" json:"created_at"`

	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}

// TableName specifies the table for Decision.
func (Decision) TableName() string {
	return "decisions"
}
