package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultGroupColor is used when a group is created without a color.
const DefaultGroupColor = "neutral"

// Group is a colored label. Reminders reference it by id; it owns nothing.
type Group struct {
	ID        uuid.UUID `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var namedColors = map[string]bool{
	"neutral": true, "red": true, "orange": true, "yellow": true,
	"green": true, "teal": true, "blue": true, "purple": true, "pink": true,
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// NormalizeColor returns the canonical form of a hex (#abc, #aabbcc) or
// named color, and false when c is neither.
func NormalizeColor(c string) (string, bool) {
	c = strings.TrimSpace(c)
	if c == "" {
		return DefaultGroupColor, true
	}
	if hexColor.MatchString(c) {
		return strings.ToLower(c), true
	}
	if lc := strings.ToLower(c); namedColors[lc] {
		return lc, true
	}
	return "", false
}
