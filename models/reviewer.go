package models

import (
	"strings"
	"time"
)

// Reviewer directory statuses.
const (
	ReviewerActive    = "active"
	ReviewerInactive  = "inactive"
	ReviewerSuspended = "suspended"
)

// Reviewer represents the reviewers table: the directory roster with load
// counters and rolling performance metrics.
type Reviewer struct {
	ReviewerID  int     `gorm:"primaryKey;column:reviewer_id" json:"reviewer_id"`
	UserID      *int    `gorm:"column:user_id;index" json:"user_id,omitempty"`
	Name        string  `gorm:"column:name" json:"name"`
	Email       string  `gorm:"column:email;unique" json:"email"`
	Affiliation *string `gorm:"column:affiliation" json:"affiliation,omitempty"`
	Expertise   string  `gorm:"column:expertise" json:"expertise"`
	Status      string  `gorm:"column:status" json:"status"`

	CurrentLoad int `gorm:"column:current_load" json:"current_load"`
	MaxLoad     int `gorm:"column:max_load" json:"max_load"`

	CompletedReviews  int     `gorm:"column:completed_reviews" json:"completed_reviews"`
	TotalReviews      int     `gorm:"column:total_reviews" json:"total_reviews"`
	OnTimeReviews     int     `gorm:"column:on_time_reviews" json:"on_time_reviews"`
	AvgCompletionDays float64 `gorm:"column:avg_completion_days" json:"avg_completion_days"`
	AvgRating         float64 `gorm:"column:avg_rating" json:"avg_rating"`
	OnTimeRate        float64 `gorm:"column:on_time_rate" json:"on_time_rate"`

	LastActiveAt *time.Time `gorm:"column:last_active_at" json:"last_active_at,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt    *time.Time `gorm:"column:deleted_at" json:"deleted_at,omitempty"`
}

// TableName specifies the table for Reviewer.
func (Reviewer) TableName() string {
	return "reviewers"
}

// ExpertiseSet splits the comma-joined expertise column into trimmed,
// lowercased tags.
func (r *Reviewer) ExpertiseSet() []string {
	if r.Expertise == "" {
		return nil
	}
	parts := strings.Split(r.Expertise, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, strings.ToLower(t))
		}
	}
	return tags
}

// MatchesAny reports whether the reviewer's expertise intersects the given
// keyword set.
func (r *Reviewer) MatchesAny(keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	owned := r.ExpertiseSet()
	for _, k := range keywords {
		for _, tag := range owned {
			if tag == k {
				return true
			}
		}
	}
	return false
}
