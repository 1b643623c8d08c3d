// sweep-overdue runs one overdue-detection pass and exits. Meant for cron
// setups that prefer an external scheduler over the in-process ticker.
package main

import (
	"log"
	"time"

	"editorial-workflow-api/config"
	"editorial-workflow-api/services"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.InitDB()
	config.InitWorkflowConfig()

	events := services.NewNotificationService(config.DB)
	reviewers := services.NewReviewerService(config.DB, config.Workflow, events)
	scheduler := services.NewSchedulerService(config.DB, config.Workflow, reviewers, events)

	result := scheduler.SweepOverdue(time.Now())
	log.Printf("overdue sweep: %d checked, %d marked overdue, %d failed",
		result.Checked, result.Overdue, result.Failed)
}
