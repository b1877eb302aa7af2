package util

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns a client-generated id: base36 millisecond timestamp plus a random suffix.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return strconv.FormatInt(now.UnixMilli(), 36) + suffix
}

// CollapseWhitespace joins all whitespace-separated fields with a single space.
func CollapseWhitespace(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// RemoveString returns s without any occurrence of v, and whether something was removed.
func RemoveString(s []string, v string) ([]string, bool) {
	out := make([]string, 0, len(s))
	removed := false
	for _, str := range s {
		if str == v {
			removed = true
			continue
		}
		out = append(out, str)
	}
	return out, removed
}

func ContainsString(s []string, v string) bool {
	for _, str := range s {
		if str == v {
			return true
		}
	}
	return false
}
