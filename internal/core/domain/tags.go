package domain

import (
	"fmt"
	"strings"
)

const (
	MaxTags      = 10
	MaxTagLength = 50
)

// NormalizeTags trims and de-duplicates tags, keeping first-seen order.
// Blank entries are dropped.
func NormalizeTags(tags []string) ([]string, error) {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if len(t) > MaxTagLength {
			return nil, NewValidationError("tags", fmt.Sprintf("Each tag must be between 1 and %d characters", MaxTagLength))
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) > MaxTags {
		return nil, NewValidationError("tags", fmt.Sprintf("Maximum %d tags allowed", MaxTags))
	}
	return out, nil
}
