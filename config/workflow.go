package config

import (
	"errors"
	"os"
	"strconv"
	"sync"
)

// WorkflowSettings is the engine policy: reviewer minimums, scheduler score
// weights, deadlines and load caps. It is plain data so callers always work
// on a snapshot, never on shared state.
type WorkflowSettings struct {
	// Minimum reviewers to invite per article type; DefaultMinReviewers
	// applies to types not listed.
	MinReviewers        map[string]int `json:"min_reviewers"`
	DefaultMinReviewers int            `json:"default_min_reviewers"`

	// Composite score weights: load headroom, rating, on-time rate.
	WeightLoad   float64 `json:"weight_load"`
	WeightRating float64 `json:"weight_rating"`
	WeightOnTime float64 `json:"weight_on_time"`

	ReviewDeadlineDays int `json:"review_deadline_days"`
	DefaultMaxLoad     int `json:"default_max_load"`
	SweepIntervalHours int `json:"sweep_interval_hours"`
}

// WorkflowConfig holds the live settings behind a read lock so they can be
// updated at runtime without a restart.
type WorkflowConfig struct {
	mu       sync.RWMutex
	settings WorkflowSettings
}

// Workflow is the process-wide engine policy, seeded by InitWorkflowConfig.
var Workflow = NewWorkflowConfig()

func defaultWorkflowSettings() WorkflowSettings {
	return WorkflowSettings{
		MinReviewers: map[string]int{
			"research":    2,
			"review":      2,
			"case_report": 1,
			"editorial":   1,
		},
		DefaultMinReviewers: 2,
		WeightLoad:          1.0 / 3.0,
		WeightRating:        1.0 / 3.0,
		WeightOnTime:        1.0 / 3.0,
		ReviewDeadlineDays:  21,
		DefaultMaxLoad:      5,
		SweepIntervalHours:  24,
	}
}

// NewWorkflowConfig returns a config carrying the built-in defaults.
func NewWorkflowConfig() *WorkflowConfig {
	return &WorkflowConfig{settings: defaultWorkflowSettings()}
}

// InitWorkflowConfig overlays environment overrides onto the defaults.
func InitWorkflowConfig() {
	s := defaultWorkflowSettings()

	if v, err := strconv.Atoi(os.Getenv("REVIEW_DEADLINE_DAYS")); err == nil && v > 0 {
		s.ReviewDeadlineDays = v
	}
	if v, err := strconv.Atoi(os.Getenv("DEFAULT_MIN_REVIEWERS")); err == nil && v > 0 {
		s.DefaultMinReviewers = v
	}
	if v, err := strconv.Atoi(os.Getenv("DEFAULT_MAX_LOAD")); err == nil && v > 0 {
		s.DefaultMaxLoad = v
	}
	if v, err := strconv.Atoi(os.Getenv("SWEEP_INTERVAL_HOURS")); err == nil && v > 0 {
		s.SweepIntervalHours = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("SCORE_WEIGHT_LOAD"), 64); err == nil && v >= 0 {
		s.WeightLoad = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("SCORE_WEIGHT_RATING"), 64); err == nil && v >= 0 {
		s.WeightRating = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("SCORE_WEIGHT_ONTIME"), 64); err == nil && v >= 0 {
		s.WeightOnTime = v
	}

	Workflow.Update(s)
}

// Snapshot returns a copy of the current settings.
func (c *WorkflowConfig) Snapshot() WorkflowSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.settings
	s.MinReviewers = make(map[string]int, len(c.settings.MinReviewers))
	for k, v := range c.settings.MinReviewers {
		s.MinReviewers[k] = v
	}
	return s
}

// Update validates and replaces the settings atomically.
func (c *WorkflowConfig) Update(s WorkflowSettings) error {
	if s.DefaultMinReviewers < 1 {
		return errors.New("default_min_reviewers must be at least 1")
	}
	if s.ReviewDeadlineDays < 1 {
		return errors.New("review_deadline_days must be at least 1")
	}
	if s.DefaultMaxLoad < 1 {
		return errors.New("default_max_load must be at least 1")
	}
	if s.WeightLoad < 0 || s.WeightRating < 0 || s.WeightOnTime < 0 {
		return errors.New("score weights must not be negative")
	}
	if s.WeightLoad+s.WeightRating+s.WeightOnTime == 0 {
		return errors.New("at least one score weight must be positive")
	}
	for articleType, min := range s.MinReviewers {
		if min < 1 {
			return errors.New("min_reviewers for " + articleType + " must be at least 1")
		}
	}
	if s.MinReviewers == nil {
		s.MinReviewers = map[string]int{}
	}

	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()
	return nil
}

// MinReviewersFor resolves the invitation minimum for an article type.
func (s WorkflowSettings) MinReviewersFor(articleType string) int {
	if n, ok := s.MinReviewers[articleType]; ok {
		return n
	}
	return s.DefaultMinReviewers
}
