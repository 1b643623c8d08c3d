package controllers

import (
	"net/http"
	"strconv"

	"editorial-workflow-api/config"
	"editorial-workflow-api/models"
	"editorial-workflow-api/services"

	"github.com/gin-gonic/gin"
)

func assignmentID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return 0, false
	}
	return id, true
}

// AcceptAssignment lets the invited reviewer take the assignment.
func AcceptAssignment(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := assignmentID(c)
	if !ok {
		return
	}

	assignment, err := reviewerSvc().Accept(id, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "assignment": assignment})
}

// DeclineAssignment closes an invitation and frees the load slot.
func DeclineAssignment(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := assignmentID(c)
	if !ok {
		return
	}

	assignment, err := reviewerSvc().Decline(id, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "assignment": assignment})
}

// StartAssignment marks an accepted assignment as in progress.
func StartAssignment(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := assignmentID(c)
	if !ok {
		return
	}

	assignment, err := reviewerSvc().Start(id, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "assignment": assignment})
}

// CompleteAssignment records the finished review and its recommendation.
func CompleteAssignment(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := assignmentID(c)
	if !ok {
		return
	}

	var req struct {
		Recommendation       string  `json:"recommendation" binding:"required"`
		Rating               int     `json:"rating" binding:"required"`
		ConfidentialComments *string `json:"confidential_comments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Admins may close out an assignment on a reviewer's behalf.
	reviewerUserID := userID
	if role == models.RoleAdmin {
		reviewerUserID = 0
	}

	assignment, err := reviewerSvc().RecordCompletion(services.CompletionRequest{
		AssignmentID:         id,
		ReviewerUserID:       reviewerUserID,
		Recommendation:       req.Recommendation,
		Rating:               req.Rating,
		ConfidentialComments: req.ConfidentialComments,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "assignment": assignment})
}

// WithdrawAssignment is the editorial cancellation of an open assignment.
func WithdrawAssignment(c *gin.Context) {
	id, ok := assignmentID(c)
	if !ok {
		return
	}

	assignment, err := reviewerSvc().Withdraw(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "assignment": assignment})
}

// GetSubmissionAssignments lists the assignments for one submission.
// Editorial roles see the full panel; the owning author gets a state-only
// view with the reviewer identity and the review content redacted.
func GetSubmissionAssignments(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}

	submissionID, err := strconv.Atoi(c.Param("id"))
	if err != nil || submissionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	var submission models.Submission
	if err := config.DB.Where("submission_id = ?", submissionID).First(&submission).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}
	editorial := models.IsEditorialRole(role)
	if !editorial && submission.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}

	query := config.DB.Where("submission_id = ?", submissionID).Order("assignment_id ASC")
	if editorial {
		query = query.Preload("Reviewer")
	}

	var assignments []models.Assignment
	if err := query.Find(&assignments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch assignments"})
		return
	}

	if !editorial {
		for i := range assignments {
			assignments[i].Reviewer = nil
			assignments[i].Recommendation = nil
			assignments[i].Rating = nil
			assignments[i].ConfidentialComments = nil
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"assignments": assignments,
		"total":       len(assignments),
	})
}

// GetMyAssignments lists the calling reviewer's assignments.
func GetMyAssignments(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var reviewer models.Reviewer
	if err := config.DB.Where("user_id = ? AND deleted_at IS NULL", userID).First(&reviewer).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "assignments": []models.Assignment{}, "total": 0})
		return
	}

	query := config.DB.Preload("Submission").Where("reviewer_id = ?", reviewer.ReviewerID)
	if state := c.Query("state"); state != "" {
		query = query.Where("state = ?", state)
	}

	var assignments []models.Assignment
	if err := query.Order("due_at ASC").Find(&assignments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch assignments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"assignments": assignments,
		"total":       len(assignments),
	})
}
