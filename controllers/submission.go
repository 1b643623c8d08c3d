package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"editorial-workflow-api/config"
	"editorial-workflow-api/models"
	"editorial-workflow-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthorPayload struct {
	Name            string  `json:"name" binding:"required"`
	Email           string  `json:"email" binding:"required"`
	Affiliation     *string `json:"affiliation"`
	IsCorresponding bool    `json:"is_corresponding"`
}

type SubmissionRequest struct {
	Title              string          `json:"title" binding:"required"`
	Abstract           string          `json:"abstract" binding:"required"`
	ArticleType        string          `json:"article_type" binding:"required"`
	Keywords           []string        `json:"keywords" binding:"required"`
	Authors            []AuthorPayload `json:"authors" binding:"required"`
	ManuscriptFile     *string         `json:"manuscript_file"`
	SupplementaryFiles []struct {
		Label   string `json:"label"`
		FileRef string `json:"file_ref" binding:"required"`
	} `json:"supplementary_files"`
}

func (r *SubmissionRequest) toAuthors(submissionID int) []models.SubmissionAuthor {
	authors := make([]models.SubmissionAuthor, 0, len(r.Authors))
	for i, a := range r.Authors {
		authors = append(authors, models.SubmissionAuthor{
			SubmissionID:    submissionID,
			Name:            utils.SanitizeInput(a.Name),
			Email:           strings.TrimSpace(a.Email),
			Affiliation:     a.Affiliation,
			AuthorOrder:     i + 1,
			IsCorresponding: a.IsCorresponding,
		})
	}
	return authors
}

// CreateSubmission creates a new draft owned by the calling author.
func CreateSubmission(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	authors := req.toAuthors(0)
	if err := utils.ValidateAuthors(authors); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	submission := models.Submission{
		SubmissionNumber: fmt.Sprintf("MS-%d-%s", now.Year(), strings.ToUpper(uuid.NewString()[:8])),
		UserID:           userID,
		Title:            utils.SanitizeInput(req.Title),
		Abstract:         req.Abstract,
		ArticleType:      req.ArticleType,
		Keywords:         strings.Join(req.Keywords, ","),
		ManuscriptFile:   req.ManuscriptFile,
		Status:           models.StatusDraft,
		Version:          0,
		ReviewRound:      1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&submission).Error; err != nil {
			return err
		}
		for i := range authors {
			authors[i].SubmissionID = submission.SubmissionID
		}
		if err := tx.Create(&authors).Error; err != nil {
			return err
		}
		for i, f := range req.SupplementaryFiles {
			file := models.SupplementaryFile{
				SubmissionID: submission.SubmissionID,
				Label:        f.Label,
				FileRef:      f.FileRef,
				DisplayOrder: i + 1,
			}
			if err := tx.Create(&file).Error; err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create submission"})
		return
	}

	submission.Authors = authors
	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"submission": submission,
	})
}

// GetSubmissions lists submissions: authors see their own, editorial roles
// see everything, filterable by status.
func GetSubmissions(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}

	query := config.DB.Preload("Authors").Preload("AssignedEditor")
	if !models.IsEditorialRole(role) {
		query = query.Where("user_id = ?", userID)
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}
	if c.Query("understaffed") == "true" {
		query = query.Where("understaffed = ?", true)
	}

	var submissions []models.Submission
	if err := query.Order("updated_at DESC").Find(&submissions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch submissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"submissions": submissions,
		"total":       len(submissions),
	})
}

// GetSubmission returns one submission with its current version, which is
// the token callers echo back on the next transition.
func GetSubmission(c *gin.Context) {
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
	query := config.DB.Preload("Authors").Preload("SupplementaryFiles").Preload("AssignedEditor")
	if err := query.Where("submission_id = ?", submissionID).First(&submission).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}

	if !models.IsEditorialRole(role) && submission.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": submission,
	})
}

// UpdateSubmission lets the owning author edit manuscript metadata while
// the submission is still a draft. Later changes go through transitions.
func UpdateSubmission(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	submissionID, err := strconv.Atoi(c.Param("id"))
	if err != nil || submissionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	var req SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	authors := req.toAuthors(submissionID)
	if err := utils.ValidateAuthors(authors); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var submission models.Submission
	if err := config.DB.Where("submission_id = ? AND user_id = ?", submissionID, userID).
		First(&submission).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}

	if !submission.CanBeEdited() {
		c.JSON(http.StatusConflict, gin.H{
			"error":          "Only draft submissions can be edited",
			"error_kind":     "InvalidTransition",
			"current_status": submission.Status,
		})
		return
	}

	if err := config.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"title":        utils.SanitizeInput(req.Title),
			"abstract":     req.Abstract,
			"article_type": req.ArticleType,
			"keywords":     strings.Join(req.Keywords, ","),
			"updated_at":   time.Now(),
		}
		if req.ManuscriptFile != nil {
			updates["manuscript_file"] = *req.ManuscriptFile
		}
		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", submissionID).
			Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Where("submission_id = ?", submissionID).Delete(&models.SubmissionAuthor{}).Error; err != nil {
			return err
		}
		return tx.Create(&authors).Error
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update submission"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Submission updated"})
}

// GetSubmissionDecisions replays the decision ledger for a submission.
func GetSubmissionDecisions(c *gin.Context) {
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
	if !models.IsEditorialRole(role) && submission.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}

	decisions, err := workflowSvc().LedgerForSubmission(submissionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch decisions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"decisions": decisions,
		"total":     len(decisions),
	})
}

// GetSubmissionTally surfaces the advisory recommendation tally.
func GetSubmissionTally(c *gin.Context) {
	submissionID, err := strconv.Atoi(c.Param("id"))
	if err != nil || submissionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	tally, err := schedulerSvc().TallyForSubmissionID(submissionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tally":   tally,
	})
}
