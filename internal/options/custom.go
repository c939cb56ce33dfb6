package options

import (
	"net/url"
	"strconv"
	"strings"
)

// CustomStudy is a session-scoped relaxation of today's limits and/or extra
// candidate lanes. It never alters the deck's stored configuration.
type CustomStudy struct {
	AddNewCards        int
	AddReviewCards     int
	IncludeForgotten   bool
	IncludeReviewAhead bool
}

// IsZero reports whether the custom study options request nothing.
func (c CustomStudy) IsZero() bool {
	return c == CustomStudy{}
}

// ParseCustomStudy reads custom-study options from query-style values
// (deck=...&new=5&review=10&forgotten=1&ahead=1). Malformed values silently
// become the zero default.
func ParseCustomStudy(values url.Values) CustomStudy {
	return CustomStudy{
		AddNewCards:        parsePositiveInt(values.Get("new")),
		AddReviewCards:     parsePositiveInt(values.Get("review")),
		IncludeForgotten:   parseFlag(values.Get("forgotten")),
		IncludeReviewAhead: parseFlag(values.Get("ahead")),
	}
}

func parsePositiveInt(value string) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0
	}
	return parsed
}

func parseFlag(value string) bool {
	switch strings.TrimSpace(value) {
	case "1", "true", "yes":
		return true
	}
	return false
}
