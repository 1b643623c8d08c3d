package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"editorial-workflow-api/services"

	"github.com/gin-gonic/gin"
)

type TransitionPayload struct {
	Decision         string  `json:"decision" binding:"required"`
	Version          int     `json:"version"`
	AssignedEditorID *int    `json:"assigned_editor_id"`
	Comments         *string `json:"comments"`
	Priority         *string `json:"priority"`
	Deadline         *string `json:"deadline"` // RFC 3339
	Volume           *string `json:"volume"`
	Override         bool    `json:"override"`
}

// TransitionSubmission applies one editorial decision. The acting role is
// taken from the verified identity context; a role in the body is ignored.
func TransitionSubmission(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}

	submissionID, err := strconv.Atoi(c.Param("id"))
	if err != nil || submissionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	var req TransitionPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var deadline *time.Time
	if req.Deadline != nil && strings.TrimSpace(*req.Deadline) != "" {
		parsed, err := time.Parse(time.RFC3339, *req.Deadline)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Deadline must be RFC 3339"})
			return
		}
		deadline = &parsed
	}

	result, err := workflowSvc().Transition(services.TransitionRequest{
		SubmissionID:     submissionID,
		ActorID:          userID,
		ActorRole:        role,
		Decision:         strings.TrimSpace(req.Decision),
		Version:          req.Version,
		AssignedEditorID: req.AssignedEditorID,
		Comments:         req.Comments,
		Priority:         req.Priority,
		Deadline:         deadline,
		Volume:           req.Volume,
		Override:         req.Override,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": result.Submission,
		"decision":   result.Decision,
		"warnings":   result.Warnings,
	})
}

// AutoAssignReviewers re-runs the scheduler for a submission in review.
func AutoAssignReviewers(c *gin.Context) {
	submissionID, err := strconv.Atoi(c.Param("id"))
	if err != nil || submissionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	result, err := schedulerSvc().AutoAssign(submissionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var warnings []string
	if result.Understaffed {
		warnings = append(warnings, "understaffed: fewer eligible reviewers than required, invite manually")
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"assignment": result,
		"warnings":   warnings,
	})
}
