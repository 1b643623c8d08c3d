package services

import (
	"testing"
	"time"

	"editorial-workflow-api/config"
	"editorial-workflow-api/models"
)

func TestScoreWeighsHeadroomRatingAndPunctuality(t *testing.T) {
	settings := config.NewWorkflowConfig().Snapshot()

	idle := &models.Reviewer{CurrentLoad: 0, MaxLoad: 5, AvgRating: 5, OnTimeRate: 100}
	if got := Score(idle, settings); got < 0.99 || got > 1.01 {
		t.Fatalf("expected near-perfect score for an idle top reviewer, got %f", got)
	}

	saturated := &models.Reviewer{CurrentLoad: 5, MaxLoad: 5, AvgRating: 5, OnTimeRate: 100}
	if Score(saturated, settings) >= Score(idle, settings) {
		t.Fatal("a saturated reviewer must score below an idle one")
	}

	slacker := &models.Reviewer{CurrentLoad: 0, MaxLoad: 5, AvgRating: 2, OnTimeRate: 20}
	if Score(slacker, settings) >= Score(idle, settings) {
		t.Fatal("a low-rated reviewer must score below a top one")
	}
}

func TestAutoAssignInvitesTopScoredCandidates(t *testing.T) {
	db, _, _, scheduler := newTestServices(t)
	author := createTestUser(t, db, models.RoleAuthor)
	sub := createTestSubmission(t, db, author.UserID, models.StatusUnderReview, 2)

	best := createTestReviewer(t, db, "best", 0, 5)
	db.Model(best).Updates(map[string]interface{}{"avg_rating": 5.0, "on_time_rate": 100.0})
	good := createTestReviewer(t, db, "good", 1, 5)
	db.Model(good).Updates(map[string]interface{}{"avg_rating": 4.0, "on_time_rate": 90.0})
	worst := createTestReviewer(t, db, "worst", 4, 5)
	db.Model(worst).Updates(map[string]interface{}{"avg_rating": 2.0, "on_time_rate": 30.0})

	// A reviewer without overlapping expertise is never a candidate.
	stranger := createTestReviewer(t, db, "stranger", 0, 5)
	db.Model(stranger).Update("expertise", "medieval poetry")

	result, err := scheduler.AutoAssign(sub.SubmissionID)
	if err != nil {
		t.Fatalf("auto-assign failed: %v", err)
	}
	if result.Understaffed {
		t.Fatal("three eligible candidates for two slots is not understaffed")
	}
	if len(result.Invited) != 2 {
		t.Fatalf("expected 2 invitations, got %d", len(result.Invited))
	}

	invited := map[int]bool{}
	for _, a := range result.Invited {
		invited[a.ReviewerID] = true
	}
	if !invited[best.ReviewerID] || !invited[good.ReviewerID] {
		t.Fatalf("expected the two top-scored reviewers, got %v", invited)
	}
	if invited[worst.ReviewerID] || invited[stranger.ReviewerID] {
		t.Fatalf("low-ranked or mismatched reviewer invited: %v", invited)
	}
}

func TestAutoAssignFlagsUnderstaffed(t *testing.T) {
	db, _, _, scheduler := newTestServices(t)
	author := createTestUser(t, db, models.RoleAuthor)
	sub := createTestSubmission(t, db, author.UserID, models.StatusUnderReview, 2)

	createTestReviewer(t, db, "lone-reviewer", 0, 5)

	result, err := scheduler.AutoAssign(sub.SubmissionID)
	if err != nil {
		t.Fatalf("auto-assign failed: %v", err)
	}
	if !result.Understaffed {
		t.Fatal("one candidate for two slots must flag understaffed")
	}
	if len(result.Invited) != 1 {
		t.Fatalf("expected the lone candidate invited, got %d", len(result.Invited))
	}

	var stored models.Submission
	db.First(&stored, "submission_id = ?", sub.SubmissionID)
	if !stored.Understaffed {
		t.Fatal("understaffed flag not persisted")
	}
}

func TestAutoAssignSkipsSaturatedCandidates(t *testing.T) {
	db, _, _, scheduler := newTestServices(t)
	author := createTestUser(t, db, models.RoleAuthor)
	sub := createTestSubmission(t, db, author.UserID, models.StatusUnderReview, 2)

	// Saturated but highly rated: ranked, then skipped at invite time.
	full := createTestReviewer(t, db, "full", 5, 5)
	db.Model(full).Updates(map[string]interface{}{"avg_rating": 5.0, "on_time_rate": 100.0})
	spare1 := createTestReviewer(t, db, "spare-one", 0, 5)
	spare2 := createTestReviewer(t, db, "spare-two", 0, 5)

	result, err := scheduler.AutoAssign(sub.SubmissionID)
	if err != nil {
		t.Fatalf("auto-assign failed: %v", err)
	}
	if len(result.Invited) != 2 {
		t.Fatalf("expected 2 invitations, got %d", len(result.Invited))
	}
	for _, a := range result.Invited {
		if a.ReviewerID == full.ReviewerID {
			t.Fatal("saturated reviewer must be skipped")
		}
		if a.ReviewerID != spare1.ReviewerID && a.ReviewerID != spare2.ReviewerID {
			t.Fatalf("unexpected reviewer %d invited", a.ReviewerID)
		}
	}
}

func TestAutoAssignTopsUpExistingPanel(t *testing.T) {
	db, _, reviewers, scheduler := newTestServices(t)
	author := createTestUser(t, db, models.RoleAuthor)
	sub := createTestSubmission(t, db, author.UserID, models.StatusUnderReview, 2)

	first := createTestReviewer(t, db, "already-invited", 0, 5)
	createTestReviewer(t, db, "second-choice", 0, 5)

	if _, err := reviewers.Invite(InviteRequest{SubmissionID: sub.SubmissionID, ReviewerID: first.ReviewerID}); err != nil {
		t.Fatalf("manual invite failed: %v", err)
	}

	result, err := scheduler.AutoAssign(sub.SubmissionID)
	if err != nil {
		t.Fatalf("auto-assign failed: %v", err)
	}
	if len(result.Invited) != 1 {
		t.Fatalf("expected a single top-up invitation, got %d", len(result.Invited))
	}
	if result.Invited[0].ReviewerID == first.ReviewerID {
		t.Fatal("already-invited reviewer must not be re-invited")
	}
}

func TestTallyRules(t *testing.T) {
	db, _, reviewers, scheduler := newTestServices(t)
	author := createTestUser(t, db, models.RoleAuthor)
	sub := createTestSubmission(t, db, author.UserID, models.StatusUnderReview, 2)

	recommend := func(name, recommendation string) {
		t.Helper()
		reviewer := createTestReviewer(t, db, name, 0, 5)
		assignment, err := reviewers.Invite(InviteRequest{SubmissionID: sub.SubmissionID, ReviewerID: reviewer.ReviewerID})
		if err != nil {
			t.Fatalf("invite failed: %v", err)
		}
		if _, err := reviewers.Accept(assignment.AssignmentID, 0); err != nil {
			t.Fatalf("accept failed: %v", err)
		}
		if _, err := reviewers.RecordCompletion(CompletionRequest{
			AssignmentID:   assignment.AssignmentID,
			Recommendation: recommendation,
			Rating:         4,
		}); err != nil {
			t.Fatalf("completion failed: %v", err)
		}
	}

	recommend("tally-one", models.RecommendAccept)
	recommend("tally-two", models.RecommendMinorRevision)
	recommend("tally-three", models.RecommendReject)

	tally, err := scheduler.TallyForSubmissionID(sub.SubmissionID)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if tally.Completed != 3 || tally.Pending != 0 {
		t.Fatalf("unexpected tally counts: %+v", tally)
	}
	if tally.Positive != 2 {
		t.Fatalf("accept + minor revision should count as positive, got %d", tally.Positive)
	}
	if !tally.QuorumMet {
		t.Fatal("all invitations completed, quorum should be met")
	}
	// 2 of 3 positive is a majority.
	if tally.Recommendation != "accept" {
		t.Fatalf("expected aggregate accept, got %s", tally.Recommendation)
	}
}

func TestSweepMarksOverdueAndIsIdempotent(t *testing.T) {
	db, _, reviewers, scheduler := newTestServices(t)
	author := createTestUser(t, db, models.RoleAuthor)
	sub := createTestSubmission(t, db, author.UserID, models.StatusUnderReview, 2)

	late := createTestReviewer(t, db, "late-reviewer", 0, 5)
	punctual := createTestReviewer(t, db, "punctual-reviewer", 0, 5)

	lateAssignment, err := reviewers.Invite(InviteRequest{SubmissionID: sub.SubmissionID, ReviewerID: late.ReviewerID, DueDays: 7})
	if err != nil {
		t.Fatalf("invite failed: %v", err)
	}
	punctualAssignment, err := reviewers.Invite(InviteRequest{SubmissionID: sub.SubmissionID, ReviewerID: punctual.ReviewerID, DueDays: 30})
	if err != nil {
		t.Fatalf("invite failed: %v", err)
	}

	// Backdate one deadline so only that assignment is past due.
	db.Model(&models.Assignment{}).
		Where("assignment_id = ?", lateAssignment.AssignmentID).
		Update("due_at", time.Now().AddDate(0, 0, -3))

	result := scheduler.SweepOverdue(time.Now())
	if result.Overdue != 1 {
		t.Fatalf("expected 1 assignment marked overdue, got %d", result.Overdue)
	}
	if result.Failed != 0 {
		t.Fatalf("expected no sweep failures, got %d", result.Failed)
	}

	var stored models.Assignment
	db.First(&stored, "assignment_id = ?", lateAssignment.AssignmentID)
	if stored.State != models.AssignmentOverdue {
		t.Fatalf("expected overdue, got %s", stored.State)
	}

	var untouched models.Assignment
	db.First(&untouched, "assignment_id = ?", punctualAssignment.AssignmentID)
	if untouched.State != models.AssignmentInvited {
		t.Fatalf("punctual assignment should stay invited, got %s", untouched.State)
	}

	// A repeat pass finds nothing new.
	again := scheduler.SweepOverdue(time.Now())
	if again.Overdue != 0 {
		t.Fatalf("repeat sweep re-marked %d assignments", again.Overdue)
	}

	// Overdue assignments stay open: the reviewer can still complete.
	if _, err := reviewers.RecordCompletion(CompletionRequest{
		AssignmentID:   lateAssignment.AssignmentID,
		Recommendation: models.RecommendAccept,
		Rating:         3,
	}); err != nil {
		t.Fatalf("completion of overdue assignment failed: %v", err)
	}

	var reviewerRow models.Reviewer
	db.First(&reviewerRow, "reviewer_id = ?", late.ReviewerID)
	if reviewerRow.OnTimeRate != 0 {
		t.Fatalf("an overdue completion is not on time, rate is %f", reviewerRow.OnTimeRate)
	}
}

func TestSweepIntervalFollowsPolicyUpdates(t *testing.T) {
	_, _, _, scheduler := newTestServices(t)

	if got := scheduler.sweepInterval(); got != 24*time.Hour {
		t.Fatalf("expected default 24h interval, got %s", got)
	}

	settings := scheduler.cfg.Snapshot()
	settings.SweepIntervalHours = 1
	if err := scheduler.cfg.Update(settings); err != nil {
		t.Fatalf("policy update failed: %v", err)
	}
	if got := scheduler.sweepInterval(); got != time.Hour {
		t.Fatalf("interval did not follow the policy update, got %s", got)
	}

	// A zero interval falls back to the daily default.
	settings.SweepIntervalHours = 0
	if err := scheduler.cfg.Update(settings); err != nil {
		t.Fatalf("policy update failed: %v", err)
	}
	if got := scheduler.sweepInterval(); got != 24*time.Hour {
		t.Fatalf("expected fallback 24h interval, got %s", got)
	}
}

func TestSweepEmitsReminderNotifications(t *testing.T) {
	db, _, reviewers, scheduler := newTestServices(t)
	author := createTestUser(t, db, models.RoleAuthor)
	sub := createTestSubmission(t, db, author.UserID, models.StatusUnderReview, 2)
	reviewer := createTestReviewer(t, db, "reminded-reviewer", 0, 5)

	if _, err := reviewers.Invite(InviteRequest{SubmissionID: sub.SubmissionID, ReviewerID: reviewer.ReviewerID, DueDays: 1}); err != nil {
		t.Fatalf("invite failed: %v", err)
	}

	scheduler.SweepOverdue(time.Now().AddDate(0, 0, 2))

	// The overdue event has no inbox recipient (reviewers get email), so
	// only assert the swept state here; the email path is covered by the
	// notification service tests.
	var stored models.Assignment
	db.Where("submission_id = ?", sub.SubmissionID).First(&stored)
	if stored.State != models.AssignmentOverdue {
		t.Fatalf("expected overdue after sweep, got %s", stored.State)
	}
}
