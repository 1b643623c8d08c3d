package services

import (
	"reflect"
	"testing"
	"time"

	"editorial-workflow-api/models"
)

// TestStoredModelsRoundTrip writes fully populated rows for each engine
// model and reads them back, checking field-for-field equality. Time
// columns are compared by instant and everything else structurally.
func TestStoredModelsRoundTrip(t *testing.T) {
	db := newTestDB(t)

	now := time.Now().Truncate(time.Second)
	later := now.AddDate(0, 0, 21)

	sameInstant := func(name string, want, got time.Time) {
		t.Helper()
		if !want.Equal(got) {
			t.Fatalf("%s: stored %s, loaded %s", name, want, got)
		}
	}
	samePtrInstant := func(name string, want, got *time.Time) {
		t.Helper()
		if (want == nil) != (got == nil) {
			t.Fatalf("%s: stored %v, loaded %v", name, want, got)
		}
		if want != nil && !want.Equal(*got) {
			t.Fatalf("%s: stored %s, loaded %s", name, want, got)
		}
	}

	editorID := 7
	articleNumber := "ART-2026-0001"
	volume := "12"
	manuscript := "manuscript-v3.pdf"
	sub := models.Submission{
		SubmissionNumber: "MS-2026-ROUNDTRIP",
		UserID:           3,
		Title:            "On Durable Manuscripts",
		Abstract:         "Everything written must read back unchanged.",
		ArticleType:      models.ArticleTypeResearch,
		Keywords:         "databases,storage",
		ManuscriptFile:   &manuscript,
		Status:           models.StatusPublished,
		Version:          5,
		SpecialReview:    true,
		Understaffed:     true,
		ReviewRound:      2,
		AssignedEditorID: &editorID,
		ArticleNumber:    &articleNumber,
		Volume:           &volume,
		SubmittedAt:      &now,
		PublishedAt:      &later,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := db.Create(&sub).Error; err != nil {
		t.Fatalf("failed to store submission: %v", err)
	}
	var loadedSub models.Submission
	if err := db.First(&loadedSub, "submission_id = ?", sub.SubmissionID).Error; err != nil {
		t.Fatalf("failed to load submission: %v", err)
	}
	sameInstant("submission created_at", sub.CreatedAt, loadedSub.CreatedAt)
	sameInstant("submission updated_at", sub.UpdatedAt, loadedSub.UpdatedAt)
	samePtrInstant("submitted_at", sub.SubmittedAt, loadedSub.SubmittedAt)
	samePtrInstant("published_at", sub.PublishedAt, loadedSub.PublishedAt)
	subA, subB := sub, loadedSub
	subA.CreatedAt, subB.CreatedAt = time.Time{}, time.Time{}
	subA.UpdatedAt, subB.UpdatedAt = time.Time{}, time.Time{}
	subA.SubmittedAt, subB.SubmittedAt = nil, nil
	subA.PublishedAt, subB.PublishedAt = nil, nil
	if !reflect.DeepEqual(subA, subB) {
		t.Fatalf("submission changed through storage:\nstored %+v\nloaded %+v", subA, subB)
	}

	comments := "well argued"
	priority := "high"
	decision := models.Decision{
		SubmissionID:      sub.SubmissionID,
		SubmissionVersion: 4,
		ActorID:           9,
		ActorRole:         models.RoleEditorInChief,
		DecisionKind:      models.DecisionFinalAccept,
		AssignedEditorID:  &editorID,
		Comments:          &comments,
		Priority:          &priority,
		DeadlineHint:      &later,
		CreatedAt:         now,
	}
	if err := db.Create(&decision).Error; err != nil {
		t.Fatalf("failed to store decision: %v", err)
	}
	var loadedDecision models.Decision
	if err := db.First(&loadedDecision, "decision_id = ?", decision.DecisionID).Error; err != nil {
		t.Fatalf("failed to load decision: %v", err)
	}
	sameInstant("decision created_at", decision.CreatedAt, loadedDecision.CreatedAt)
	samePtrInstant("deadline_hint", decision.DeadlineHint, loadedDecision.DeadlineHint)
	decA, decB := decision, loadedDecision
	decA.CreatedAt, decB.CreatedAt = time.Time{}, time.Time{}
	decA.DeadlineHint, decB.DeadlineHint = nil, nil
	if !reflect.DeepEqual(decA, decB) {
		t.Fatalf("decision changed through storage:\nstored %+v\nloaded %+v", decA, decB)
	}

	userID := 11
	affiliation := "Institute of Storage"
	reviewer := models.Reviewer{
		UserID:            &userID,
		Name:              "Rita Roundtrip",
		Email:             "rita-roundtrip@example.org",
		Affiliation:       &affiliation,
		Expertise:         "databases,storage",
		Status:            models.ReviewerActive,
		CurrentLoad:       2,
		MaxLoad:           5,
		CompletedReviews:  8,
		TotalReviews:      10,
		OnTimeReviews:     6,
		AvgCompletionDays: 12.5,
		AvgRating:         4.25,
		OnTimeRate:        75,
		LastActiveAt:      &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := db.Create(&reviewer).Error; err != nil {
		t.Fatalf("failed to store reviewer: %v", err)
	}
	var loadedReviewer models.Reviewer
	if err := db.First(&loadedReviewer, "reviewer_id = ?", reviewer.ReviewerID).Error; err != nil {
		t.Fatalf("failed to load reviewer: %v", err)
	}
	sameInstant("reviewer created_at", reviewer.CreatedAt, loadedReviewer.CreatedAt)
	sameInstant("reviewer updated_at", reviewer.UpdatedAt, loadedReviewer.UpdatedAt)
	samePtrInstant("last_active_at", reviewer.LastActiveAt, loadedReviewer.LastActiveAt)
	revA, revB := reviewer, loadedReviewer
	revA.CreatedAt, revB.CreatedAt = time.Time{}, time.Time{}
	revA.UpdatedAt, revB.UpdatedAt = time.Time{}, time.Time{}
	revA.LastActiveAt, revB.LastActiveAt = nil, nil
	if !reflect.DeepEqual(revA, revB) {
		t.Fatalf("reviewer changed through storage:\nstored %+v\nloaded %+v", revA, revB)
	}

	recommendation := models.RecommendMinorRevision
	rating := 4
	confidential := "solid work, tighten section 3"
	assignment := models.Assignment{
		SubmissionID:         sub.SubmissionID,
		ReviewerID:           reviewer.ReviewerID,
		Round:                2,
		State:                models.AssignmentCompleted,
		InvitedAt:            now,
		DueAt:                later,
		AcceptedAt:           &now,
		CompletedAt:          &later,
		Recommendation:       &recommendation,
		Rating:               &rating,
		ConfidentialComments: &confidential,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := db.Create(&assignment).Error; err != nil {
		t.Fatalf("failed to store assignment: %v", err)
	}
	var loadedAssignment models.Assignment
	if err := db.First(&loadedAssignment, "assignment_id = ?", assignment.AssignmentID).Error; err != nil {
		t.Fatalf("failed to load assignment: %v", err)
	}
	sameInstant("invited_at", assignment.InvitedAt, loadedAssignment.InvitedAt)
	sameInstant("due_at", assignment.DueAt, loadedAssignment.DueAt)
	samePtrInstant("accepted_at", assignment.AcceptedAt, loadedAssignment.AcceptedAt)
	samePtrInstant("completed_at", assignment.CompletedAt, loadedAssignment.CompletedAt)
	sameInstant("assignment created_at", assignment.CreatedAt, loadedAssignment.CreatedAt)
	sameInstant("assignment updated_at", assignment.UpdatedAt, loadedAssignment.UpdatedAt)
	asgA, asgB := assignment, loadedAssignment
	asgA.InvitedAt, asgB.InvitedAt = time.Time{}, time.Time{}
	asgA.DueAt, asgB.DueAt = time.Time{}, time.Time{}
	asgA.AcceptedAt, asgB.AcceptedAt = nil, nil
	asgA.CompletedAt, asgB.CompletedAt = nil, nil
	asgA.CreatedAt, asgB.CreatedAt = time.Time{}, time.Time{}
	asgA.UpdatedAt, asgB.UpdatedAt = time.Time{}, time.Time{}
	if !reflect.DeepEqual(asgA, asgB) {
		t.Fatalf("assignment changed through storage:\nstored %+v\nloaded %+v", asgA, asgB)
	}
}
