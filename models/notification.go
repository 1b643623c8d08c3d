package models

import "time"

// Domain event types persisted as notifications.
const (
	EventStatusChanged       = "submission.status_changed"
	EventAssignmentCreated   = "assignment.created"
	EventAssignmentCompleted = "assignment.completed"
	EventAssignmentOverdue   = "assignment.overdue"
)

type Notification struct {
	NotificationID      uint       `gorm:"primaryKey;column:notification_id" json:"notification_id"`
	UserID              int        `gorm:"column:user_id;index" json:"user_id"`
	Title               string     `gorm:"column:title" json:"title"`
	Message             string     `gorm:"column:message" json:"message"`
	Type                string     `gorm:"column:type" json:"type"` // info|success|warning|error
	EventType           string     `gorm:"column:event_type" json:"event_type"`
	RelatedSubmissionID *int       `gorm:"column:related_submission_id" json:"related_submission_id,omitempty"`
	IsRead              bool       `gorm:"column:is_read" json:"is_read"`
	CreateAt            time.Time  `gorm:"column:create_at" json:"created_at"`
	UpdateAt            *time.Time `gorm:"column:update_at" json:"-"`
}

func (Notification) TableName() string { return "notifications" }
