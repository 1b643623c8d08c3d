package controllers

import (
	"errors"
	"net/http"

	"editorial-workflow-api/config"
	"editorial-workflow-api/services"

	"github.com/gin-gonic/gin"
)

// Per-request service constructors over the shared DB handle. The services
// are stateless beyond their dependencies, so building them per call is
// cheap and keeps the controllers free of globals besides config.DB.

func notificationSvc() *services.NotificationService {
	return services.NewNotificationService(config.DB)
}

func reviewerSvc() *services.ReviewerService {
	return services.NewReviewerService(config.DB, config.Workflow, notificationSvc())
}

func schedulerSvc() *services.SchedulerService {
	return services.NewSchedulerService(config.DB, config.Workflow, reviewerSvc(), notificationSvc())
}

func workflowSvc() *services.WorkflowService {
	return services.NewWorkflowService(config.DB, config.Workflow, notificationSvc(), schedulerSvc())
}

// currentUser pulls the verified identity out of the gin context.
func currentUser(c *gin.Context) (int, string, bool) {
	userIDValue, hasID := c.Get("userID")
	roleValue, hasRole := c.Get("role")
	if !hasID || !hasRole {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return 0, "", false
	}
	userID, okID := userIDValue.(int)
	role, okRole := roleValue.(string)
	if !okID || !okRole {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user context"})
		return 0, "", false
	}
	return userID, role, true
}

// errorKind maps a service error to its wire name.
func errorKind(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidTransition):
		return "InvalidTransition"
	case errors.Is(err, services.ErrMissingAssignment):
		return "MissingAssignment"
	case errors.Is(err, services.ErrStaleVersion):
		return "StaleVersion"
	case errors.Is(err, services.ErrReviewerUnavailable):
		return "ReviewerUnavailable"
	case errors.Is(err, services.ErrLoadExceeded):
		return "LoadExceeded"
	case errors.Is(err, services.ErrNotFound):
		return "NotFound"
	case errors.Is(err, services.ErrQuorumNotReached):
		return "QuorumNotReached"
	case errors.Is(err, services.ErrDuplicateAssignment):
		return "DuplicateAssignment"
	case errors.Is(err, services.ErrAssignmentClosed):
		return "AssignmentClosed"
	}
	return ""
}

// respondServiceError translates engine errors into HTTP responses. The
// payload carries enough context for the caller to self-correct:
// StaleVersion and LoadExceeded are retryable, InvalidTransition lists the
// decisions legal from the current status.
func respondServiceError(c *gin.Context, err error) {
	kind := errorKind(err)
	if kind == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusConflict
	switch kind {
	case "NotFound":
		status = http.StatusNotFound
	case "MissingAssignment":
		status = http.StatusBadRequest
	}

	payload := gin.H{
		"success":    false,
		"error":      err.Error(),
		"error_kind": kind,
	}

	var wfErr *services.WorkflowError
	if errors.As(err, &wfErr) {
		if wfErr.CurrentStatus != "" {
			payload["current_status"] = wfErr.CurrentStatus
			payload["current_version"] = wfErr.CurrentVersion
		}
		if wfErr.AllowedDecisions != nil {
			payload["allowed_decisions"] = wfErr.AllowedDecisions
		}
	}

	c.JSON(status, payload)
}
