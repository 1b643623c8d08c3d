// utils/validator.go - Input validation
package utils

import (
	"errors"
	"regexp"
	"strings"

	"editorial-workflow-api/models"
)

// ValidateEmail checks if email is valid
func ValidateEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	// Remove leading/trailing spaces
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	return input
}

// ValidateAuthors enforces the author-list invariants: at least one author
// and exactly one marked corresponding, each with a usable name and email.
func ValidateAuthors(authors []models.SubmissionAuthor) error {
	if len(authors) == 0 {
		return errors.New("at least one author is required")
	}

	corresponding := 0
	for _, a := range authors {
		if strings.TrimSpace(a.Name) == "" {
			return errors.New("author name is required")
		}
		if !ValidateEmail(a.Email) {
			return errors.New("author email is invalid: " + a.Email)
		}
		if a.IsCorresponding {
			corresponding++
		}
	}
	if corresponding != 1 {
		return errors.New("exactly one author must be marked corresponding")
	}
	return nil
}
