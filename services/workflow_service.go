package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"editorial-workflow-api/config"
	"editorial-workflow-api/models"

	"gorm.io/gorm"
)

type transitionKey struct {
	status   string
	decision string
}

type transitionRule struct {
	to             string
	roles          []string
	ownerOnly      bool // submit/resubmit must come from the submitting author
	requiresEditor bool // approve_for_review carries the associate editor
	requiresQuorum bool // final decisions out of under_review
	flagSpecial    bool
}

// transitionTable is the whole state machine. A (status, decision, role)
// triple not reachable through it fails with ErrInvalidTransition and no
// state change.
var transitionTable = map[transitionKey]transitionRule{
	{models.StatusDraft, models.DecisionSubmit}: {
		to:        models.StatusSubmitted,
		roles:     []string{models.RoleAuthor},
		ownerOnly: true,
	},
	{models.StatusSubmitted, models.DecisionApproveForReview}: {
		to:             models.StatusUnderReview,
		roles:          []string{models.RoleEditorInChief},
		requiresEditor: true,
	},
	{models.StatusSubmitted, models.DecisionDeskReject}: {
		to:    models.StatusRejected,
		roles: []string{models.RoleEditorInChief},
	},
	{models.StatusSubmitted, models.DecisionSpecialReview}: {
		to:          models.StatusUnderReview,
		roles:       []string{models.RoleEditorInChief},
		flagSpecial: true,
	},
	{models.StatusUnderReview, models.DecisionFinalAccept}: {
		to:             models.StatusAccepted,
		roles:          []string{models.RoleAssociateEditor, models.RoleEditorInChief},
		requiresQuorum: true,
	},
	{models.StatusUnderReview, models.DecisionFinalReject}: {
		to:             models.StatusRejected,
		roles:          []string{models.RoleAssociateEditor, models.RoleEditorInChief},
		requiresQuorum: true,
	},
	{models.StatusUnderReview, models.DecisionRequestRevision}: {
		to:             models.StatusRevisionRequested,
		roles:          []string{models.RoleAssociateEditor, models.RoleEditorInChief},
		requiresQuorum: true,
	},
	{models.StatusRevisionRequested, models.DecisionResubmit}: {
		to:        models.StatusSubmitted,
		roles:     []string{models.RoleAuthor},
		ownerOnly: true,
	},
	{models.StatusAccepted, models.DecisionPublish}: {
		to:    models.StatusPublished,
		roles: []string{models.RoleAdmin},
	},
}

// AllowedDecisions lists the decision kinds legal from a status for a role.
// Returned in error payloads so dashboards can self-correct.
func AllowedDecisions(status, role string) []string {
	var allowed []string
	for key, rule := range transitionTable {
		if key.status != status {
			continue
		}
		for _, r := range rule.roles {
			if r == role {
				allowed = append(allowed, key.decision)
				break
			}
		}
	}
	return allowed
}

// TransitionRequest carries one editorial action. ActorRole comes from the
// verified identity context, never from the request body.
type TransitionRequest struct {
	SubmissionID     int
	ActorID          int
	ActorRole        string
	Decision         string
	Version          int
	AssignedEditorID *int
	Comments         *string
	Priority         *string
	Deadline         *time.Time
	Volume           *string
	Override         bool
}

// TransitionResult is the committed outcome plus non-blocking warnings
// (currently only the understaffed flag from auto-assignment).
type TransitionResult struct {
	Submission models.Submission
	Decision   models.Decision
	Warnings   []string
}

// WorkflowService executes the submission state machine: per call it
// validates the transition, appends exactly one Decision, bumps the
// version and emits a domain event, all in one transaction.
type WorkflowService struct {
	db        *gorm.DB
	cfg       *config.WorkflowConfig
	events    *NotificationService
	scheduler *SchedulerService
}

func NewWorkflowService(db *gorm.DB, cfg *config.WorkflowConfig, events *NotificationService, scheduler *SchedulerService) *WorkflowService {
	return &WorkflowService{db: db, cfg: cfg, events: events, scheduler: scheduler}
}

// Transition applies one editorial decision under optimistic concurrency.
// A stale version loses with ErrStaleVersion and must re-read and retry.
func (s *WorkflowService) Transition(req TransitionRequest) (*TransitionResult, error) {
	result := &TransitionResult{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var sub models.Submission
		if err := tx.Where("submission_id = ?", req.SubmissionID).First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		rule, ok := transitionTable[transitionKey{sub.Status, req.Decision}]
		if ok {
			roleAllowed := false
			for _, role := range rule.roles {
				if role == req.ActorRole {
					roleAllowed = true
					break
				}
			}
			if !roleAllowed {
				ok = false
			}
		}
		if ok && rule.ownerOnly && sub.UserID != req.ActorID {
			ok = false
		}
		if !ok {
			return &WorkflowError{
				Err:              ErrInvalidTransition,
				CurrentStatus:    sub.Status,
				CurrentVersion:   sub.Version,
				AllowedDecisions: AllowedDecisions(sub.Status, req.ActorRole),
			}
		}

		if req.Version != sub.Version {
			return &WorkflowError{
				Err:              ErrStaleVersion,
				CurrentStatus:    sub.Status,
				CurrentVersion:   sub.Version,
				AllowedDecisions: AllowedDecisions(sub.Status, req.ActorRole),
			}
		}

		if rule.requiresEditor {
			if req.AssignedEditorID == nil {
				return ErrMissingAssignment
			}
			var editor models.User
			if err := tx.Where("user_id = ? AND role = ? AND delete_at IS NULL",
				*req.AssignedEditorID, models.RoleAssociateEditor).First(&editor).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrMissingAssignment
				}
				return err
			}
		}

		if rule.requiresQuorum && !req.Override {
			tally, err := TallyForSubmission(tx, &sub)
			if err != nil {
				return err
			}
			if !tally.QuorumMet {
				return &WorkflowError{
					Err:              ErrQuorumNotReached,
					CurrentStatus:    sub.Status,
					CurrentVersion:   sub.Version,
					AllowedDecisions: AllowedDecisions(sub.Status, req.ActorRole),
				}
			}
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":     rule.to,
			"version":    sub.Version + 1,
			"updated_at": now,
		}

		switch req.Decision {
		case models.DecisionSubmit:
			updates["submitted_at"] = now
		case models.DecisionResubmit:
			updates["submitted_at"] = now
			updates["review_round"] = sub.ReviewRound + 1
		case models.DecisionApproveForReview:
			updates["assigned_editor_id"] = *req.AssignedEditorID
		case models.DecisionSpecialReview:
			updates["special_review"] = true
		case models.DecisionPublish:
			updates["published_at"] = now
			if sub.ArticleNumber == nil {
				updates["article_number"] = fmt.Sprintf("ART-%d-%04d", now.Year(), sub.SubmissionID)
			}
			if req.Volume != nil {
				updates["volume"] = *req.Volume
			}
		}

		// The guarded update is the concurrency gate: a concurrent winner
		// already bumped the version, so this touches zero rows.
		res := tx.Model(&models.Submission{}).
			Where("submission_id = ? AND version = ?", sub.SubmissionID, req.Version).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &WorkflowError{
				Err:            ErrStaleVersion,
				CurrentStatus:  sub.Status,
				CurrentVersion: sub.Version,
			}
		}

		decision := models.Decision{
			SubmissionID:      sub.SubmissionID,
			SubmissionVersion: req.Version,
			ActorID:           req.ActorID,
			ActorRole:         req.ActorRole,
			DecisionKind:      req.Decision,
			AssignedEditorID:  req.AssignedEditorID,
			Comments:          req.Comments,
			Priority:          req.Priority,
			DeadlineHint:      req.Deadline,
			CreatedAt:         now,
		}
		if err := tx.Create(&decision).Error; err != nil {
			return err
		}
		result.Decision = decision

		var updated models.Submission
		if err := tx.Preload("Authors").Where("submission_id = ?", sub.SubmissionID).First(&updated).Error; err != nil {
			return err
		}
		result.Submission = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitStatusChanged(&result.Submission, &result.Decision)

	// Entering review triggers the scheduler outside the transaction; its
	// failures surface as warnings, never as a rolled-back transition.
	if result.Submission.Status == models.StatusUnderReview && s.scheduler != nil {
		assignResult, err := s.scheduler.AutoAssign(result.Submission.SubmissionID)
		if err != nil {
			log.Printf("auto-assignment failed for submission %d: %v", result.Submission.SubmissionID, err)
			result.Warnings = append(result.Warnings, "automatic reviewer assignment failed")
		} else if assignResult.Understaffed {
			result.Warnings = append(result.Warnings, "understaffed: fewer eligible reviewers than required, invite manually")
		}
	}

	return result, nil
}

func (s *WorkflowService) emitStatusChanged(sub *models.Submission, decision *models.Decision) {
	if s.events == nil {
		return
	}

	recipients := []int{sub.UserID}
	if sub.AssignedEditorID != nil && *sub.AssignedEditorID != sub.UserID {
		recipients = append(recipients, *sub.AssignedEditorID)
	}

	var emails []string
	var owner models.User
	if err := s.db.Where("user_id = ?", sub.UserID).First(&owner).Error; err == nil {
		emails = append(emails, owner.Email)
	}

	s.events.Emit(DomainEvent{
		Type:         models.EventStatusChanged,
		SubmissionID: sub.SubmissionID,
		Title:        fmt.Sprintf("Submission %s is now %s", sub.SubmissionNumber, sub.Status),
		Message:      fmt.Sprintf("Decision %q moved submission %q to status %s.", decision.DecisionKind, sub.Title, sub.Status),
		Level:        "info",
		Recipients:   recipients,
		Emails:       emails,
	})
}

// LedgerForSubmission replays the decision history, oldest first.
func (s *WorkflowService) LedgerForSubmission(submissionID int) ([]models.Decision, error) {
	var decisions []models.Decision
	if err := s.db.Preload("Actor").
		Where("submission_id = ?", submissionID).
		Order("decision_id ASC").
		Find(&decisions).Error; err != nil {
		return nil, err
	}
	return decisions, nil
}
