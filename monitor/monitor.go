package monitor

import (
	"time"

	"editorial-workflow-api/config"
	"editorial-workflow-api/models"

	"github.com/gin-gonic/gin"
)

// RegisterMonitorPage mounts a small operator page showing the editorial
// queue depths, plus the JSON endpoint backing it.
func RegisterMonitorPage(router *gin.Engine) {
	router.GET("/monitor/stats", func(c *gin.Context) {
		var submitted, underReview, understaffed, open, overdue int64

		config.DB.Model(&models.Submission{}).Where("status = ?", models.StatusSubmitted).Count(&submitted)
		config.DB.Model(&models.Submission{}).Where("status = ?", models.StatusUnderReview).Count(&underReview)
		config.DB.Model(&models.Submission{}).Where("understaffed = ?", true).Count(&understaffed)
		config.DB.Model(&models.Assignment{}).Where("state IN ?", models.ActiveAssignmentStates).Count(&open)
		config.DB.Model(&models.Assignment{}).Where("state = ?", models.AssignmentOverdue).Count(&overdue)

		c.JSON(200, gin.H{
			"time":                time.Now().Format(time.RFC3339),
			"submitted_queue":     submitted,
			"under_review":        underReview,
			"understaffed":        understaffed,
			"open_assignments":    open,
			"overdue_assignments": overdue,
		})
	})

	router.GET("/monitor", func(c *gin.Context) {
		c.Data(200, "text/html; charset=utf-8", []byte(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>Editorial Monitor</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body {
      background: linear-gradient(135deg, #0f0f0f 0%, #1a1a2e 100%);
      color: #e0e0e0;
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
      min-height: 100vh;
      padding: 20px;
    }
    .container { max-width: 900px; margin: 0 auto; }
    h1 {
      font-size: 2rem;
      font-weight: 700;
      background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
      -webkit-background-clip: text;
      -webkit-text-fill-color: transparent;
      margin-bottom: 24px;
    }
    .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 16px; }
    .card {
      background: rgba(255, 255, 255, 0.05);
      border: 1px solid rgba(255, 255, 255, 0.1);
      border-radius: 12px;
      padding: 20px;
    }
    .card .label { font-size: 0.85rem; color: #9ca3af; text-transform: uppercase; }
    .card .value { font-size: 2.2rem; font-weight: 700; margin-top: 8px; }
    .overdue .value { color: #f87171; }
    .footer { margin-top: 24px; color: #6b7280; font-size: 0.8rem; }
  </style>
</head>
<body>
  <div class="container">
    <h1>Editorial Workflow Monitor</h1>
    <div class="grid">
      <div class="card"><div class="label">Submitted queue</div><div class="value" id="submitted_queue">-</div></div>
      <div class="card"><div class="label">Under review</div><div class="value" id="under_review">-</div></div>
      <div class="card"><div class="label">Understaffed</div><div class="value" id="understaffed">-</div></div>
      <div class="card"><div class="label">Open assignments</div><div class="value" id="open_assignments">-</div></div>
      <div class="card overdue"><div class="label">Overdue</div><div class="value" id="overdue_assignments">-</div></div>
    </div>
    <div class="footer">Refreshes every 15 seconds. <span id="time"></span></div>
  </div>
  <script>
    async function refresh() {
      try {
        const res = await fetch('/monitor/stats');
        const data = await res.json();
        for (const key of ['submitted_queue', 'under_review', 'understaffed', 'open_assignments', 'overdue_assignments']) {
          document.getElementById(key).textContent = data[key];
        }
        document.getElementById('time').textContent = 'Last updated ' + data.time;
      } catch (e) { /* keep previous values */ }
    }
    refresh();
    setInterval(refresh, 15000);
  </script>
</body>
</html>`))
	})
}
