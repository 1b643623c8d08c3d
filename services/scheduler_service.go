package services

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"editorial-workflow-api/config"
	"editorial-workflow-api/models"

	"gorm.io/gorm"
)

// SchedulerService matches submissions entering review to eligible
// reviewers, surfaces the recommendation tally, and runs the deadline
// sweep.
type SchedulerService struct {
	db        *gorm.DB
	cfg       *config.WorkflowConfig
	reviewers *ReviewerService
	events    *NotificationService
}

func NewSchedulerService(db *gorm.DB, cfg *config.WorkflowConfig, reviewers *ReviewerService, events *NotificationService) *SchedulerService {
	return &SchedulerService{db: db, cfg: cfg, reviewers: reviewers, events: events}
}

// AssignResult reports one auto-assignment pass.
type AssignResult struct {
	Invited      []models.Assignment `json:"invited"`
	Candidates   int                 `json:"candidates"`
	Required     int                 `json:"required"`
	Understaffed bool                `json:"understaffed"`
}

type scoredCandidate struct {
	reviewer models.Reviewer
	score    float64
}

// Score computes the composite candidate score for the given settings:
// load headroom, average rating and on-time rate, each weighted.
func Score(r *models.Reviewer, s config.WorkflowSettings) float64 {
	headroom := 0.0
	if r.MaxLoad > 0 && r.CurrentLoad < r.MaxLoad {
		headroom = 1 - float64(r.CurrentLoad)/float64(r.MaxLoad)
	}
	return s.WeightLoad*headroom + s.WeightRating*r.AvgRating/5 + s.WeightOnTime*r.OnTimeRate/100
}

// AutoAssign invites the top-scored eligible reviewers for a submission in
// review. When fewer candidates exist than required it invites everyone
// available and flags the submission understaffed — a warning, not an
// error, so an editor can invite externally.
func (s *SchedulerService) AutoAssign(submissionID int) (*AssignResult, error) {
	var sub models.Submission
	if err := s.db.Where("submission_id = ?", submissionID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if sub.Status != models.StatusUnderReview {
		return nil, &WorkflowError{
			Err:            ErrInvalidTransition,
			CurrentStatus:  sub.Status,
			CurrentVersion: sub.Version,
		}
	}

	settings := s.cfg.Snapshot()
	required := settings.MinReviewersFor(sub.ArticleType)

	// Count invitations already open for this round so a manual re-run
	// tops up instead of doubling the panel.
	var open int64
	if err := s.db.Model(&models.Assignment{}).
		Where("submission_id = ? AND round = ? AND state IN ?",
			sub.SubmissionID, sub.ReviewRound, models.OpenAssignmentStates).
		Count(&open).Error; err != nil {
		return nil, err
	}

	candidates, err := s.rankedCandidates(&sub, settings)
	if err != nil {
		return nil, err
	}

	result := &AssignResult{
		Candidates: len(candidates),
		Required:   required,
	}

	needed := required - int(open)
	for _, candidate := range candidates {
		if needed <= 0 {
			break
		}
		assignment, err := s.reviewers.Invite(InviteRequest{
			SubmissionID: sub.SubmissionID,
			ReviewerID:   candidate.reviewer.ReviewerID,
		})
		if err != nil {
			// A concurrent invite filled the reviewer's last slot, or a
			// duplicate slipped in; fall through to the next candidate.
			if errors.Is(err, ErrLoadExceeded) || errors.Is(err, ErrDuplicateAssignment) || errors.Is(err, ErrReviewerUnavailable) {
				continue
			}
			return nil, err
		}
		result.Invited = append(result.Invited, *assignment)
		needed--
	}

	if needed > 0 {
		result.Understaffed = true
		if err := s.db.Model(&models.Submission{}).
			Where("submission_id = ?", sub.SubmissionID).
			Update("understaffed", true).Error; err != nil {
			log.Printf("failed to flag submission %d understaffed: %v", sub.SubmissionID, err)
		}
	}

	return result, nil
}

// rankedCandidates returns active reviewers with overlapping expertise and
// no active assignment for the submission, best score first. Ties break on
// earliest last activity to spread load across the roster.
func (s *SchedulerService) rankedCandidates(sub *models.Submission, settings config.WorkflowSettings) ([]scoredCandidate, error) {
	var active []models.Reviewer
	if err := s.db.Where("status = ? AND deleted_at IS NULL", models.ReviewerActive).Find(&active).Error; err != nil {
		return nil, err
	}

	var busy []models.Assignment
	if err := s.db.Where("submission_id = ? AND state IN ?", sub.SubmissionID, models.OpenAssignmentStates).
		Find(&busy).Error; err != nil {
		return nil, err
	}
	busyIDs := make(map[int]bool, len(busy))
	for _, a := range busy {
		busyIDs[a.ReviewerID] = true
	}

	keywords := sub.KeywordSet()
	var candidates []scoredCandidate
	for _, r := range active {
		if busyIDs[r.ReviewerID] || !r.MatchesAny(keywords) {
			continue
		}
		candidates = append(candidates, scoredCandidate{reviewer: r, score: Score(&r, settings)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return lastActive(&candidates[i].reviewer).Before(lastActive(&candidates[j].reviewer))
	})
	return candidates, nil
}

func lastActive(r *models.Reviewer) time.Time {
	if r.LastActiveAt == nil {
		return time.Time{}
	}
	return *r.LastActiveAt
}

// Tally summarises the reviewer recommendations for a submission's current
// round. It is advisory input to the human decision: the engine surfaces
// it but never transitions on it.
type Tally struct {
	Round          int            `json:"round"`
	Completed      int            `json:"completed"`
	Pending        int            `json:"pending"`
	Counts         map[string]int `json:"counts"`
	Positive       int            `json:"positive"`
	QuorumMet      bool           `json:"quorum_met"`
	SuggestedKind  string         `json:"suggested_decision,omitempty"`
	Recommendation string         `json:"aggregate,omitempty"`
}

// TallyForSubmission computes the tally inside the caller's transaction or
// session. Quorum default: every non-declined invitation of the round is
// completed, and at least one review exists.
func TallyForSubmission(db *gorm.DB, sub *models.Submission) (*Tally, error) {
	var assignments []models.Assignment
	if err := db.Where("submission_id = ? AND round = ?", sub.SubmissionID, sub.ReviewRound).
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	tally := &Tally{
		Round:  sub.ReviewRound,
		Counts: map[string]int{},
	}
	for _, a := range assignments {
		switch a.State {
		case models.AssignmentCompleted:
			tally.Completed++
			if a.Recommendation != nil {
				tally.Counts[*a.Recommendation]++
			}
		case models.AssignmentInvited, models.AssignmentAccepted, models.AssignmentInProgress, models.AssignmentOverdue:
			tally.Pending++
		}
	}

	tally.Positive = tally.Counts[models.RecommendAccept] + tally.Counts[models.RecommendMinorRevision]
	tally.QuorumMet = tally.Completed > 0 && tally.Pending == 0

	// Accept and minor revision count together as positive; majority wins,
	// anything contested suggests revision.
	if tally.Completed > 0 {
		switch {
		case tally.Positive*2 > tally.Completed:
			tally.SuggestedKind = models.DecisionFinalAccept
			tally.Recommendation = "accept"
		case tally.Counts[models.RecommendReject]*2 > tally.Completed:
			tally.SuggestedKind = models.DecisionFinalReject
			tally.Recommendation = "reject"
		default:
			tally.SuggestedKind = models.DecisionRequestRevision
			tally.Recommendation = "revise"
		}
	}

	return tally, nil
}

// TallyForSubmissionID is the request-path wrapper around TallyForSubmission.
func (s *SchedulerService) TallyForSubmissionID(submissionID int) (*Tally, error) {
	var sub models.Submission
	if err := s.db.Where("submission_id = ?", submissionID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return TallyForSubmission(s.db, &sub)
}

// SweepResult reports one overdue pass.
type SweepResult struct {
	Checked int
	Overdue int
	Failed  int
}

// SweepOverdue marks every open assignment past its deadline as overdue
// and emits a reminder. Failures are isolated per assignment: one bad row
// never halts the sweep.
func (s *SchedulerService) SweepOverdue(now time.Time) SweepResult {
	var result SweepResult

	var due []models.Assignment
	if err := s.db.Where("state IN ? AND due_at < ?", models.ActiveAssignmentStates, now).
		Find(&due).Error; err != nil {
		log.Printf("overdue sweep query failed: %v", err)
		result.Failed++
		return result
	}

	for _, assignment := range due {
		result.Checked++
		res := s.db.Model(&models.Assignment{}).
			Where("assignment_id = ? AND state = ?", assignment.AssignmentID, assignment.State).
			Updates(map[string]interface{}{"state": models.AssignmentOverdue, "updated_at": now})
		if res.Error != nil {
			log.Printf("overdue sweep failed for assignment %d: %v", assignment.AssignmentID, res.Error)
			result.Failed++
			continue
		}
		if res.RowsAffected == 0 {
			// The reviewer finished or declined while the sweep ran.
			continue
		}
		result.Overdue++

		if s.events != nil {
			var reviewer models.Reviewer
			emails := []string{}
			if err := s.db.Where("reviewer_id = ?", assignment.ReviewerID).First(&reviewer).Error; err == nil {
				emails = append(emails, reviewer.Email)
			}
			s.events.Emit(DomainEvent{
				Type:         models.EventAssignmentOverdue,
				SubmissionID: assignment.SubmissionID,
				Title:        "Review overdue",
				Message:      fmt.Sprintf("Assignment %d was due %s and is now overdue.", assignment.AssignmentID, assignment.DueAt.Format("2006-01-02")),
				Level:        "warning",
				Emails:       emails,
			})
		}
	}

	return result
}

// sweepInterval resolves the current sweep interval from the live policy.
func (s *SchedulerService) sweepInterval() time.Duration {
	interval := time.Duration(s.cfg.Snapshot().SweepIntervalHours) * time.Hour
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return interval
}

// RunSweepLoop runs the deadline sweep on the configured interval until
// stop is closed. The interval is re-read each pass so a runtime policy
// update takes effect without a restart. cmd/api starts this alongside
// the server.
func (s *SchedulerService) RunSweepLoop(stop <-chan struct{}) {
	interval := s.sweepInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			result := s.SweepOverdue(time.Now())
			if result.Checked > 0 || result.Failed > 0 {
				log.Printf("overdue sweep: %d checked, %d marked overdue, %d failed",
					result.Checked, result.Overdue, result.Failed)
			}
			if next := s.sweepInterval(); next != interval {
				log.Printf("overdue sweep interval changed from %s to %s", interval, next)
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}
