package controllers

import (
	"net/http"
	"time"

	"editorial-workflow-api/config"
	"editorial-workflow-api/models"

	"github.com/gin-gonic/gin"
)

// GetDashboardStats feeds the editorial dashboard: submission counts by
// status, assignment pressure and reviewer capacity.
func GetDashboardStats(c *gin.Context) {
	statusCounts := map[string]int64{}
	for _, status := range []string{
		models.StatusDraft,
		models.StatusSubmitted,
		models.StatusUnderReview,
		models.StatusRevisionRequested,
		models.StatusAccepted,
		models.StatusPublished,
		models.StatusRejected,
	} {
		var count int64
		if err := config.DB.Model(&models.Submission{}).
			Where("status = ?", status).Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
			return
		}
		statusCounts[status] = count
	}

	var understaffed int64
	config.DB.Model(&models.Submission{}).
		Where("understaffed = ? AND status = ?", true, models.StatusUnderReview).
		Count(&understaffed)

	var openAssignments int64
	config.DB.Model(&models.Assignment{}).
		Where("state IN ?", models.ActiveAssignmentStates).
		Count(&openAssignments)

	var overdueAssignments int64
	config.DB.Model(&models.Assignment{}).
		Where("state = ?", models.AssignmentOverdue).
		Count(&overdueAssignments)

	var dueSoon int64
	config.DB.Model(&models.Assignment{}).
		Where("state IN ? AND due_at < ?", models.ActiveAssignmentStates, time.Now().AddDate(0, 0, 3)).
		Count(&dueSoon)

	var activeReviewers int64
	config.DB.Model(&models.Reviewer{}).
		Where("status = ? AND deleted_at IS NULL", models.ReviewerActive).
		Count(&activeReviewers)

	var saturatedReviewers int64
	config.DB.Model(&models.Reviewer{}).
		Where("status = ? AND current_load >= max_load AND deleted_at IS NULL", models.ReviewerActive).
		Count(&saturatedReviewers)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"submissions_by_status": statusCounts,
			"understaffed":          understaffed,
			"open_assignments":      openAssignments,
			"overdue_assignments":   overdueAssignments,
			"due_within_3_days":     dueSoon,
			"active_reviewers":      activeReviewers,
			"saturated_reviewers":   saturatedReviewers,
		},
	})
}
