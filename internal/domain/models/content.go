// internal/domain/models/content.go
package models

// Content statuses shared by blog posts, courses, and soul-care catalog entries.
const (
	ContentDraft     = "draft"
	ContentPublished = "published"
	ContentArchived  = "archived"
)

// AllContentStatuses returns all valid content statuses.
func AllContentStatuses() []string {
	return []string{
		ContentDraft,
		ContentPublished,
		ContentArchived,
	}
}

// IsValidContentStatus checks if a status is valid for content documents.
func IsValidContentStatus(s string) bool {
	for _, v := range AllContentStatuses() {
		if v == s {
			return true
		}
	}
	return false
}
