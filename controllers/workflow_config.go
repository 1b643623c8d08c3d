package controllers

import (
	"net/http"

	"editorial-workflow-api/config"

	"github.com/gin-gonic/gin"
)

// GetWorkflowConfig returns the live engine policy.
func GetWorkflowConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"config":  config.Workflow.Snapshot(),
	})
}

// UpdateWorkflowConfig replaces the engine policy without a restart.
// Admin-only; validation happens inside the config.
func UpdateWorkflowConfig(c *gin.Context) {
	var settings config.WorkflowSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := config.Workflow.Update(settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"config":  config.Workflow.Snapshot(),
	})
}
