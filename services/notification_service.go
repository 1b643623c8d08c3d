package services

import (
	"log"
	"time"

	"editorial-workflow-api/config"
	"editorial-workflow-api/models"

	"gorm.io/gorm"
)

// DomainEvent is what the engine emits after a committed mutation. The
// durable half is a notification row per recipient; the email half is
// fire-and-forget.
type DomainEvent struct {
	Type         string
	SubmissionID int
	Title        string
	Message      string
	Level        string // info|success|warning|error
	Recipients   []int  // user ids receiving an inbox notification
	Emails       []string
}

// MailFunc sends one email. Matches config.SendMail.
type MailFunc func(to []string, subject, html string) error

// NotificationService persists domain events as notifications and forwards
// them to the SMTP sink. Emission never fails the calling operation.
type NotificationService struct {
	db   *gorm.DB
	mail MailFunc
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, mail: config.SendMail}
}

// WithMailer overrides the mail sink (nil disables email entirely).
func (s *NotificationService) WithMailer(mail MailFunc) *NotificationService {
	s.mail = mail
	return s
}

// Emit records the event for each recipient and dispatches email in the
// background. Called after the transactional write has committed.
func (s *NotificationService) Emit(event DomainEvent) {
	now := time.Now()
	level := event.Level
	if level == "" {
		level = "info"
	}

	for _, userID := range event.Recipients {
		var relatedID *int
		if event.SubmissionID != 0 {
			id := event.SubmissionID
			relatedID = &id
		}
		n := models.Notification{
			UserID:              userID,
			Title:               event.Title,
			Message:             event.Message,
			Type:                level,
			EventType:           event.Type,
			RelatedSubmissionID: relatedID,
			IsRead:              false,
			CreateAt:            now,
		}
		if err := s.db.Create(&n).Error; err != nil {
			log.Printf("failed to store notification for user %d (%s): %v", userID, event.Type, err)
		}
	}

	if s.mail == nil || len(event.Emails) == 0 {
		return
	}

	emails := make([]string, len(event.Emails))
	copy(emails, event.Emails)
	go func() {
		if err := s.mail(emails, event.Title, "<p>"+event.Message+"</p>"); err != nil {
			log.Printf("failed to send notification email (%s): %v", event.Type, err)
		}
	}()
}
