package blog

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nerrad567/inkwell-core/internal/auth"
)

const (
	maxTitleLength   = 180
	maxCommentLength = 1000
	maxSlugBase      = 60
	slugSuffixLength = 6
	fallbackSlugBase = "post"
)

// ValidateTitle checks that a title is present and at most 180 characters.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTitle)
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return fmt.Errorf("%w: title must be less than %d characters", ErrInvalidTitle, maxTitleLength)
	}
	return nil
}

// ValidateContent checks that post content is present.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidContent)
	}
	return nil
}

// ParseStatus returns the status named by s. An empty string means draft.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return StatusDraft, nil
	}
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q is not supported", ErrInvalidStatus, s)
	}
	return status, nil
}

// ValidateComment checks that comment content is present and at most 1000 characters.
func ValidateComment(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidComment)
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return fmt.Errorf("%w: content must be less than %d characters", ErrInvalidComment, maxCommentLength)
	}
	return nil
}

// GenerateSlug creates a URL-safe slug from a title.
func GenerateSlug(title string) string {
	slug := strings.ToLower(title)

	var result strings.Builder
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			result.WriteRune(r)
		} else {
			result.WriteRune('-')
		}
	}
	slug = result.String()

	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")

	if len(slug) > maxSlugBase {
		slug = strings.TrimRight(slug[:maxSlugBase], "-")
	}
	return slug
}

// NewSlug returns GenerateSlug(title) with a random base36 suffix, so two
// posts with the same title still get distinct slugs.
func NewSlug(title string) (string, error) {
	base := GenerateSlug(title)
	if base == "" {
		base = fallbackSlugBase
	}
	suffix, err := auth.RandomBase36(slugSuffixLength)
	if err != nil {
		return "", err
	}
	return base + "-" + suffix, nil
}
