package models

import "time"

// Assignment states. invited/accepted/in_progress count toward reviewer
// load; the rest are closed.
const (
	AssignmentInvited    = "invited"
	AssignmentAccepted   = "accepted"
	AssignmentDeclined   = "declined"
	AssignmentInProgress = "in_progress"
	AssignmentCompleted  = "completed"
	AssignmentWithdrawn  = "withdrawn"
	AssignmentOverdue    = "overdue"
)

// Reviewer recommendation values recorded on completion.
const (
	RecommendAccept        = "accept"
	RecommendMinorRevision = "minor_revision"
	RecommendMajorRevision = "major_revision"
	RecommendReject        = "reject"
)

// Assignment links a reviewer to a submission for one review round.
type Assignment struct {
	AssignmentID int    `gorm:"primaryKey;column:assignment_id" json:"assignment_id"`
	SubmissionID int    `gorm:"column:submission_id;index" json:"submission_id"`
	ReviewerID   int    `gorm:"column:reviewer_id;index" json:"reviewer_id"`
	Round        int    `gorm:"column:round" json:"round"`
	State        string `gorm:"column:state" json:"state"`

	InvitedAt   time.Time  `gorm:"column:invited_at" json:"invited_at"`
	DueAt       time.Time  `gorm:"column:due_at" json:"due_at"`
	AcceptedAt  *time.Time `gorm:"column:accepted_at" json:"accepted_at,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	Recommendation       *string `gorm:"column:recommendation" json:"recommendation,omitempty"`
	Rating               *int    `gorm:"column:rating" json:"rating,omitempty"`
	ConfidentialComments *string `gorm:"column:confidential_comments" json:"confidential_comments,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`

	Reviewer   *Reviewer   `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	Submission *Submission `gorm:"foreignKey:SubmissionID" json:"submission,omitempty"`
}

// TableName specifies the table for Assignment.
func (Assignment) TableName() string {
	return "assignments"
}

// ActiveAssignmentStates are the states the deadline sweep may move to
// overdue.
var ActiveAssignmentStates = []string{AssignmentInvited, AssignmentAccepted, AssignmentInProgress}

// OpenAssignmentStates additionally include overdue: these hold reviewer
// load and block a duplicate invitation for the same pair.
var OpenAssignmentStates = []string{AssignmentInvited, AssignmentAccepted, AssignmentInProgress, AssignmentOverdue}

// IsOpen reports whether the assignment still counts toward reviewer load.
// Overdue assignments stay open until completed or withdrawn.
func (a *Assignment) IsOpen() bool {
	switch a.State {
	case AssignmentInvited, AssignmentAccepted, AssignmentInProgress, AssignmentOverdue:
		return true
	}
	return false
}

// IsValidRecommendation checks a reviewer-supplied recommendation value.
func IsValidRecommendation(v string) bool {
	switch v {
	case RecommendAccept, RecommendMinorRevision, RecommendMajorRevision, RecommendReject:
		return true
	}
	return false
}
