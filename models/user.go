package models

import (
	"time"
)

// Role names as supplied by the identity context. Stored on the user row;
// the engine never reads a role from a request body.
const (
	RoleAuthor             = "author"
	RoleReviewer           = "reviewer"
	RoleEditorialAssistant = "editorial_assistant"
	RoleAssociateEditor    = "associate_editor"
	RoleEditorInChief      = "editor_in_chief"
	RoleAdmin              = "admin"
)

type User struct {
	UserID      int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	FirstName   string     `gorm:"column:first_name" json:"first_name"`
	LastName    string     `gorm:"column:last_name" json:"last_name"`
	Email       string     `gorm:"column:email;unique" json:"email"`
	Password    string     `gorm:"column:password" json:"-"`
	Role        string     `gorm:"column:role" json:"role"`
	Affiliation *string    `gorm:"column:affiliation" json:"affiliation,omitempty"`
	CreateAt    *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt    *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt    *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}

// FullName joins first and last name for display and email subjects.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsEditorialRole reports whether the role can act on the editorial side
// (listings, reviewer directory, assignment management).
func IsEditorialRole(role string) bool {
	switch role {
	case RoleEditorialAssistant, RoleAssociateEditor, RoleEditorInChief, RoleAdmin:
		return true
	}
	return false
}
