package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"editorial-workflow-api/config"
	"editorial-workflow-api/models"
	"editorial-workflow-api/services"
	"editorial-workflow-api/utils"

	"github.com/gin-gonic/gin"
)

type ReviewerRequest struct {
	UserID      *int     `json:"user_id"`
	Name        string   `json:"name" binding:"required"`
	Email       string   `json:"email" binding:"required"`
	Affiliation *string  `json:"affiliation"`
	Expertise   []string `json:"expertise" binding:"required"`
	MaxLoad     int      `json:"max_load"`
}

// CreateReviewer adds a roster entry to the directory.
func CreateReviewer(c *gin.Context) {
	var req ReviewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !utils.ValidateEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reviewer email"})
		return
	}

	maxLoad := req.MaxLoad
	if maxLoad <= 0 {
		maxLoad = config.Workflow.Snapshot().DefaultMaxLoad
	}

	now := time.Now()
	reviewer := models.Reviewer{
		UserID:      req.UserID,
		Name:        utils.SanitizeInput(req.Name),
		Email:       strings.TrimSpace(req.Email),
		Affiliation: req.Affiliation,
		Expertise:   strings.Join(req.Expertise, ","),
		Status:      models.ReviewerActive,
		MaxLoad:     maxLoad,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := config.DB.Create(&reviewer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reviewer"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"reviewer": reviewer,
	})
}

// GetReviewers lists the directory for assignment UIs, filterable by
// status and expertise tag.
func GetReviewers(c *gin.Context) {
	reviewers, err := reviewerSvc().List(
		strings.TrimSpace(c.Query("status")),
		strings.ToLower(strings.TrimSpace(c.Query("expertise"))),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviewers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"reviewers": reviewers,
		"total":     len(reviewers),
	})
}

// SetReviewerStatus records an active/inactive/suspended decision.
func SetReviewerStatus(c *gin.Context) {
	reviewerID, err := strconv.Atoi(c.Param("id"))
	if err != nil || reviewerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reviewer ID"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reviewer, err := reviewerSvc().SetStatus(reviewerID, strings.TrimSpace(req.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"reviewer": reviewer,
	})
}

// InviteReviewer creates an invitation for a submission in review.
// Override lets an editor exceed the reviewer's load cap deliberately.
func InviteReviewer(c *gin.Context) {
	reviewerID, err := strconv.Atoi(c.Param("id"))
	if err != nil || reviewerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reviewer ID"})
		return
	}

	var req struct {
		SubmissionID int  `json:"submission_id" binding:"required"`
		Override     bool `json:"override"`
		DueDays      int  `json:"due_days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assignment, err := reviewerSvc().Invite(services.InviteRequest{
		SubmissionID: req.SubmissionID,
		ReviewerID:   reviewerID,
		Override:     req.Override,
		DueDays:      req.DueDays,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"assignment": assignment,
	})
}
