package services

import (
	"errors"
	"fmt"
	"time"

	"editorial-workflow-api/config"
	"editorial-workflow-api/models"

	"gorm.io/gorm"
)

// ReviewerService owns the reviewer directory: invitations, availability
// status, and the load / rolling-metric accounting tied to assignment
// lifecycle events.
type ReviewerService struct {
	db     *gorm.DB
	cfg    *config.WorkflowConfig
	events *NotificationService
}

func NewReviewerService(db *gorm.DB, cfg *config.WorkflowConfig, events *NotificationService) *ReviewerService {
	return &ReviewerService{db: db, cfg: cfg, events: events}
}

// InviteRequest invites one reviewer to one submission. Override lets an
// editor exceed the load cap deliberately.
type InviteRequest struct {
	SubmissionID int
	ReviewerID   int
	Override     bool
	DueDays      int // 0 means the configured default
}

// Invite creates an assignment in invited state. The load increment is a
// guarded UPDATE, so two concurrent invites against a reviewer with one
// slot left resolve to exactly one winner.
func (s *ReviewerService) Invite(req InviteRequest) (*models.Assignment, error) {
	settings := s.cfg.Snapshot()
	dueDays := req.DueDays
	if dueDays <= 0 {
		dueDays = settings.ReviewDeadlineDays
	}

	var assignment models.Assignment
	var reviewer models.Reviewer

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var sub models.Submission
		if err := tx.Where("submission_id = ?", req.SubmissionID).First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if sub.Status != models.StatusUnderReview {
			return &WorkflowError{
				Err:            ErrInvalidTransition,
				CurrentStatus:  sub.Status,
				CurrentVersion: sub.Version,
			}
		}

		if err := tx.Where("reviewer_id = ? AND deleted_at IS NULL", req.ReviewerID).First(&reviewer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if reviewer.Status != models.ReviewerActive {
			return ErrReviewerUnavailable
		}

		var active int64
		if err := tx.Model(&models.Assignment{}).
			Where("submission_id = ? AND reviewer_id = ? AND state IN ?",
				req.SubmissionID, req.ReviewerID, models.OpenAssignmentStates).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return ErrDuplicateAssignment
		}

		now := time.Now()
		// Atomic check-and-increment: the WHERE clause carries the cap, so
		// a losing concurrent invite touches zero rows.
		query := tx.Model(&models.Reviewer{}).
			Where("reviewer_id = ? AND status = ?", req.ReviewerID, models.ReviewerActive)
		if !req.Override {
			query = query.Where("current_load < max_load")
		}
		res := query.Updates(map[string]interface{}{
			"current_load":  gorm.Expr("current_load + 1"),
			"total_reviews": gorm.Expr("total_reviews + 1"),
			"updated_at":    now,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Re-read to tell a suspended reviewer apart from a full one.
			var current models.Reviewer
			if err := tx.Where("reviewer_id = ?", req.ReviewerID).First(&current).Error; err != nil {
				return ErrNotFound
			}
			if current.Status != models.ReviewerActive {
				return ErrReviewerUnavailable
			}
			return ErrLoadExceeded
		}

		// The first duplicate count ran before the reviewer row was locked;
		// a concurrent invite may have committed in between. Re-check now
		// that the guarded update serializes invites on the reviewer row.
		// A rollback here also undoes the load increment.
		if err := tx.Model(&models.Assignment{}).
			Where("submission_id = ? AND reviewer_id = ? AND state IN ?",
				req.SubmissionID, req.ReviewerID, models.OpenAssignmentStates).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return ErrDuplicateAssignment
		}

		assignment = models.Assignment{
			SubmissionID: req.SubmissionID,
			ReviewerID:   req.ReviewerID,
			Round:        sub.ReviewRound,
			State:        models.AssignmentInvited,
			InvitedAt:    now,
			DueAt:        now.AddDate(0, 0, dueDays),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.Create(&assignment).Error
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.Emit(DomainEvent{
			Type:         models.EventAssignmentCreated,
			SubmissionID: req.SubmissionID,
			Title:        "Review invitation",
			Message:      fmt.Sprintf("You have been invited to review submission %d, due %s.", req.SubmissionID, assignment.DueAt.Format("2006-01-02")),
			Level:        "info",
			Emails:       []string{reviewer.Email},
		})
	}

	return &assignment, nil
}

// SetStatus records an availability decision for a reviewer. Suspension
// blocks new invites immediately but leaves in-flight assignments alone;
// reactivation does not restore any load.
func (s *ReviewerService) SetStatus(reviewerID int, status string) (*models.Reviewer, error) {
	switch status {
	case models.ReviewerActive, models.ReviewerInactive, models.ReviewerSuspended:
	default:
		return nil, fmt.Errorf("unknown reviewer status %q", status)
	}

	var reviewer models.Reviewer
	if err := s.db.Where("reviewer_id = ? AND deleted_at IS NULL", reviewerID).First(&reviewer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	now := time.Now()
	if err := s.db.Model(&models.Reviewer{}).
		Where("reviewer_id = ?", reviewerID).
		Updates(map[string]interface{}{"status": status, "updated_at": now}).Error; err != nil {
		return nil, err
	}
	reviewer.Status = status
	reviewer.UpdatedAt = now
	return &reviewer, nil
}

// Accept moves an invitation into accepted state.
func (s *ReviewerService) Accept(assignmentID, reviewerUserID int) (*models.Assignment, error) {
	return s.reviewerTransition(assignmentID, reviewerUserID, models.AssignmentInvited, func(a *models.Assignment, now time.Time) map[string]interface{} {
		return map[string]interface{}{
			"state":       models.AssignmentAccepted,
			"accepted_at": now,
			"updated_at":  now,
		}
	})
}

// Start moves an accepted assignment into in_progress.
func (s *ReviewerService) Start(assignmentID, reviewerUserID int) (*models.Assignment, error) {
	return s.reviewerTransition(assignmentID, reviewerUserID, models.AssignmentAccepted, func(a *models.Assignment, now time.Time) map[string]interface{} {
		return map[string]interface{}{
			"state":      models.AssignmentInProgress,
			"updated_at": now,
		}
	})
}

// Decline closes an invitation and releases the load slot it held.
func (s *ReviewerService) Decline(assignmentID, reviewerUserID int) (*models.Assignment, error) {
	var result *models.Assignment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		assignment, err := s.ownedAssignment(tx, assignmentID, reviewerUserID)
		if err != nil {
			return err
		}
		if assignment.State != models.AssignmentInvited {
			return s.assignmentStateError(assignment)
		}

		now := time.Now()
		if err := tx.Model(&models.Assignment{}).
			Where("assignment_id = ? AND state = ?", assignmentID, models.AssignmentInvited).
			Updates(map[string]interface{}{"state": models.AssignmentDeclined, "updated_at": now}).Error; err != nil {
			return err
		}
		if err := releaseLoad(tx, assignment.ReviewerID, now); err != nil {
			return err
		}
		assignment.State = models.AssignmentDeclined
		assignment.UpdatedAt = now
		result = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Withdraw is the editor-side cancellation of any still-open assignment.
func (s *ReviewerService) Withdraw(assignmentID int) (*models.Assignment, error) {
	var result *models.Assignment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var assignment models.Assignment
		if err := tx.Where("assignment_id = ?", assignmentID).First(&assignment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !assignment.IsOpen() {
			return s.assignmentStateError(&assignment)
		}

		now := time.Now()
		if err := tx.Model(&models.Assignment{}).
			Where("assignment_id = ?", assignmentID).
			Updates(map[string]interface{}{"state": models.AssignmentWithdrawn, "updated_at": now}).Error; err != nil {
			return err
		}
		if err := releaseLoad(tx, assignment.ReviewerID, now); err != nil {
			return err
		}
		assignment.State = models.AssignmentWithdrawn
		assignment.UpdatedAt = now
		result = &assignment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CompletionRequest records a finished review.
type CompletionRequest struct {
	AssignmentID         int
	ReviewerUserID       int // 0 skips the ownership check (admin path)
	Recommendation       string
	Rating               int
	ConfidentialComments *string
}

// RecordCompletion closes the assignment, releases the load slot and
// recomputes the reviewer's rolling metrics with incremental averaging.
// A second completion on the same assignment fails: terminal states stay
// terminal.
func (s *ReviewerService) RecordCompletion(req CompletionRequest) (*models.Assignment, error) {
	if !models.IsValidRecommendation(req.Recommendation) {
		return nil, fmt.Errorf("unknown recommendation %q", req.Recommendation)
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}

	var result *models.Assignment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		assignment, err := s.ownedAssignment(tx, req.AssignmentID, req.ReviewerUserID)
		if err != nil {
			return err
		}
		switch assignment.State {
		case models.AssignmentAccepted, models.AssignmentInProgress, models.AssignmentOverdue:
		default:
			return s.assignmentStateError(assignment)
		}

		now := time.Now()
		started := assignment.InvitedAt
		if assignment.AcceptedAt != nil {
			started = *assignment.AcceptedAt
		}
		completionDays := now.Sub(started).Hours() / 24
		onTime := !now.After(assignment.DueAt)

		updates := map[string]interface{}{
			"state":          models.AssignmentCompleted,
			"completed_at":   now,
			"recommendation": req.Recommendation,
			"rating":         req.Rating,
			"updated_at":     now,
		}
		if req.ConfidentialComments != nil {
			updates["confidential_comments"] = *req.ConfidentialComments
		}
		if err := tx.Model(&models.Assignment{}).
			Where("assignment_id = ?", req.AssignmentID).
			Updates(updates).Error; err != nil {
			return err
		}

		var reviewer models.Reviewer
		if err := tx.Where("reviewer_id = ?", assignment.ReviewerID).First(&reviewer).Error; err != nil {
			return err
		}

		completed := reviewer.CompletedReviews
		avgRating := reviewer.AvgRating + (float64(req.Rating)-reviewer.AvgRating)/float64(completed+1)
		avgDays := reviewer.AvgCompletionDays + (completionDays-reviewer.AvgCompletionDays)/float64(completed+1)
		onTimeReviews := reviewer.OnTimeReviews
		if onTime {
			onTimeReviews++
		}
		onTimeRate := float64(onTimeReviews) / float64(completed+1) * 100

		metricUpdates := map[string]interface{}{
			"completed_reviews":   completed + 1,
			"on_time_reviews":     onTimeReviews,
			"avg_rating":          avgRating,
			"avg_completion_days": avgDays,
			"on_time_rate":        onTimeRate,
			"last_active_at":      now,
			"updated_at":          now,
		}
		if err := tx.Model(&models.Reviewer{}).
			Where("reviewer_id = ?", assignment.ReviewerID).
			Updates(metricUpdates).Error; err != nil {
			return err
		}
		if err := releaseLoad(tx, assignment.ReviewerID, now); err != nil {
			return err
		}

		assignment.State = models.AssignmentCompleted
		assignment.CompletedAt = &now
		rec := req.Recommendation
		assignment.Recommendation = &rec
		rating := req.Rating
		assignment.Rating = &rating
		result = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.Emit(DomainEvent{
			Type:         models.EventAssignmentCompleted,
			SubmissionID: result.SubmissionID,
			Title:        "Review completed",
			Message:      fmt.Sprintf("Assignment %d completed with recommendation %s.", result.AssignmentID, req.Recommendation),
			Level:        "success",
		})
	}

	return result, nil
}

// List returns directory entries filtered by status and/or expertise tag.
func (s *ReviewerService) List(status, expertise string) ([]models.Reviewer, error) {
	query := s.db.Where("deleted_at IS NULL")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if expertise != "" {
		query = query.Where("expertise LIKE ?", "%"+expertise+"%")
	}

	var reviewers []models.Reviewer
	if err := query.Order("name ASC").Find(&reviewers).Error; err != nil {
		return nil, err
	}
	return reviewers, nil
}

func (s *ReviewerService) reviewerTransition(assignmentID, reviewerUserID int, fromState string, build func(*models.Assignment, time.Time) map[string]interface{}) (*models.Assignment, error) {
	var result *models.Assignment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		assignment, err := s.ownedAssignment(tx, assignmentID, reviewerUserID)
		if err != nil {
			return err
		}
		if assignment.State != fromState {
			return s.assignmentStateError(assignment)
		}

		now := time.Now()
		updates := build(assignment, now)
		res := tx.Model(&models.Assignment{}).
			Where("assignment_id = ? AND state = ?", assignmentID, fromState).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return s.assignmentStateError(assignment)
		}
		if err := tx.Model(&models.Reviewer{}).
			Where("reviewer_id = ?", assignment.ReviewerID).
			Update("last_active_at", now).Error; err != nil {
			return err
		}

		if err := tx.Where("assignment_id = ?", assignmentID).First(assignment).Error; err != nil {
			return err
		}
		result = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ownedAssignment loads an assignment and, when reviewerUserID is set,
// verifies the acting user is the linked reviewer.
func (s *ReviewerService) ownedAssignment(tx *gorm.DB, assignmentID, reviewerUserID int) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := tx.Where("assignment_id = ?", assignmentID).First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if reviewerUserID != 0 {
		var reviewer models.Reviewer
		if err := tx.Where("reviewer_id = ?", assignment.ReviewerID).First(&reviewer).Error; err != nil {
			return nil, err
		}
		if reviewer.UserID == nil || *reviewer.UserID != reviewerUserID {
			return nil, ErrNotFound
		}
	}
	return &assignment, nil
}

func (s *ReviewerService) assignmentStateError(assignment *models.Assignment) error {
	if assignment.State == models.AssignmentCompleted ||
		assignment.State == models.AssignmentDeclined ||
		assignment.State == models.AssignmentWithdrawn {
		return ErrAssignmentClosed
	}
	return &WorkflowError{Err: ErrInvalidTransition, CurrentStatus: assignment.State}
}

// releaseLoad decrements the open-assignment counter, guarded so a stray
// double release can never push the load negative.
func releaseLoad(tx *gorm.DB, reviewerID int, now time.Time) error {
	return tx.Model(&models.Reviewer{}).
		Where("reviewer_id = ? AND current_load > 0", reviewerID).
		Updates(map[string]interface{}{
			"current_load": gorm.Expr("current_load - 1"),
			"updated_at":   now,
		}).Error
}
