package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"editorial-workflow-api/config"
	"editorial-workflow-api/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int64

// newTestDB opens a fresh in-memory database with the real schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := fmt.Sprintf("file:workflow_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(name), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.User{},
		&models.Submission{},
		&models.SubmissionAuthor{},
		&models.SupplementaryFile{},
		&models.Decision{},
		&models.Reviewer{},
		&models.Assignment{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	return db
}

func newTestServices(t *testing.T) (*gorm.DB, *WorkflowService, *ReviewerService, *SchedulerService) {
	t.Helper()

	db := newTestDB(t)
	cfg := config.NewWorkflowConfig()
	events := NewNotificationService(db).WithMailer(nil)
	reviewers := NewReviewerService(db, cfg, events)
	scheduler := NewSchedulerService(db, cfg, reviewers, events)
	workflow := NewWorkflowService(db, cfg, events, scheduler)
	return db, workflow, reviewers, scheduler
}

func createTestUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()

	user := models.User{
		FirstName: "Test",
		LastName:  role,
		Email:     fmt.Sprintf("%s-%d@example.org", role, time.Now().UnixNano()),
		Password:  "x",
		Role:      role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create %s user: %v", role, err)
	}
	return &user
}

func createTestSubmission(t *testing.T, db *gorm.DB, ownerID int, status string, version int) *models.Submission {
	t.Helper()

	now := time.Now()
	sub := models.Submission{
		SubmissionNumber: fmt.Sprintf("MS-TEST-%d", time.Now().UnixNano()),
		UserID:           ownerID,
		Title:            "On the Behaviour of Test Manuscripts",
		Abstract:         "A short abstract.",
		ArticleType:      models.ArticleTypeResearch,
		Keywords:         "databases,distributed systems",
		Status:           status,
		Version:          version,
		ReviewRound:      1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := db.Create(&sub).Error; err != nil {
		t.Fatalf("failed to create submission: %v", err)
	}
	author := models.SubmissionAuthor{
		SubmissionID:    sub.SubmissionID,
		Name:            "Test Author",
		Email:           "author@example.org",
		AuthorOrder:     1,
		IsCorresponding: true,
	}
	if err := db.Create(&author).Error; err != nil {
		t.Fatalf("failed to create submission author: %v", err)
	}
	return &sub
}

func createTestReviewer(t *testing.T, db *gorm.DB, name string, currentLoad, maxLoad int) *models.Reviewer {
	t.Helper()

	now := time.Now()
	reviewer := models.Reviewer{
		Name:        name,
		Email:       fmt.Sprintf("%s-%d@example.org", name, time.Now().UnixNano()),
		Expertise:   "databases,networks",
		Status:      models.ReviewerActive,
		CurrentLoad: currentLoad,
		MaxLoad:     maxLoad,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.Create(&reviewer).Error; err != nil {
		t.Fatalf("failed to create reviewer %s: %v", name, err)
	}
	return &reviewer
}
