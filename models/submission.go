package models

import (
	"strings"
	"time"
)

// Submission statuses. Transitions between them go through the
// transition table in services; nothing else may change a status.
const (
	StatusDraft             = "draft"
	StatusSubmitted         = "submitted"
	StatusUnderReview       = "under_review"
	StatusRevisionRequested = "revision_requested"
	StatusAccepted          = "accepted"
	StatusPublished         = "published"
	StatusRejected          = "rejected"
)

// Article types recognised by the scheduler's per-type reviewer minimums.
const (
	ArticleTypeResearch   = "research"
	ArticleTypeReview     = "review"
	ArticleTypeCaseReport = "case_report"
	ArticleTypeEditorial  = "editorial"
)

// Submission represents the submissions table.
type Submission struct {
	SubmissionID     int     `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	SubmissionNumber string  `gorm:"column:submission_number;unique" json:"submission_number"`
	UserID           int     `gorm:"column:user_id;index" json:"user_id"`
	Title            string  `gorm:"column:title" json:"title"`
	Abstract         string  `gorm:"column:abstract" json:"abstract"`
	ArticleType      string  `gorm:"column:article_type" json:"article_type"`
	Keywords         string  `gorm:"column:keywords" json:"keywords"`
	ManuscriptFile   *string `gorm:"column:manuscript_file" json:"manuscript_file,omitempty"`

	Status  string `gorm:"column:status" json:"status"`
	Version int    `gorm:"column:version" json:"version"`

	SpecialReview bool `gorm:"column:special_review" json:"special_review"`
	Understaffed  bool `gorm:"column:understaffed" json:"understaffed"`
	ReviewRound   int  `gorm:"column:review_round" json:"review_round"`

	AssignedEditorID *int    `gorm:"column:assigned_editor_id" json:"assigned_editor_id,omitempty"`
	ArticleNumber    *string `gorm:"column:article_number;unique" json:"article_number,omitempty"`
	Volume           *string `gorm:"column:volume" json:"volume,omitempty"`

	SubmittedAt *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	PublishedAt *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updated_at"`

	// Relations
	User               *User               `gorm:"foreignKey:UserID" json:"user,omitempty"`
	AssignedEditor     *User               `gorm:"foreignKey:AssignedEditorID" json:"assigned_editor,omitempty"`
	Authors            []SubmissionAuthor  `gorm:"foreignKey:SubmissionID" json:"authors,omitempty"`
	SupplementaryFiles []SupplementaryFile `gorm:"foreignKey:SubmissionID" json:"supplementary_files,omitempty"`
}

// SubmissionAuthor represents the submission_authors table. Ordered;
// exactly one row per submission carries is_corresponding.
type SubmissionAuthor struct {
	AuthorID        int     `gorm:"primaryKey;column:author_id" json:"author_id"`
	SubmissionID    int     `gorm:"column:submission_id;index" json:"submission_id"`
	Name            string  `gorm:"column:name" json:"name"`
	Email           string  `gorm:"column:email" json:"email"`
	Affiliation     *string `gorm:"column:affiliation" json:"affiliation,omitempty"`
	AuthorOrder     int     `gorm:"column:author_order" json:"author_order"`
	IsCorresponding bool    `gorm:"column:is_corresponding" json:"is_corresponding"`
}

// SupplementaryFile represents the supplementary_files table.
type SupplementaryFile struct {
	FileID       int    `gorm:"primaryKey;column:file_id" json:"file_id"`
	SubmissionID int    `gorm:"column:submission_id;index" json:"submission_id"`
	Label        string `gorm:"column:label" json:"label"`
	FileRef      string `gorm:"column:file_ref" json:"file_ref"`
	DisplayOrder int    `gorm:"column:display_order" json:"display_order"`
}

// TableName overrides
func (Submission) TableName() string {
	return "submissions"
}

func (SubmissionAuthor) TableName() string {
	return "submission_authors"
}

func (SupplementaryFile) TableName() string {
	return "supplementary_files"
}

// IsTerminal reports whether the status admits no further transitions.
func IsTerminalStatus(status string) bool {
	return status == StatusPublished || status == StatusRejected
}

// KeywordSet splits the comma-joined keywords column into trimmed tags.
func (s *Submission) KeywordSet() []string {
	if s.Keywords == "" {
		return nil
	}
	parts := strings.Split(s.Keywords, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, strings.ToLower(t))
		}
	}
	return tags
}

// CanBeEdited reports whether the author may still change the manuscript
// metadata directly (anything later goes through the transition protocol).
func (s *Submission) CanBeEdited() bool {
	return s.Status == StatusDraft
}
