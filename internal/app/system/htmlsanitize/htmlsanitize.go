// Package htmlsanitize cleans user-supplied text before it is stored on a
// dashboard. Descriptions may carry a small amount of formatting; titles and
// names are reduced to plain text.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy  *bluemonday.Policy
	plainPolicy *bluemonday.Policy
	policyOnce  sync.Once
)

func policies() (*bluemonday.Policy, *bluemonday.Policy) {
	policyOnce.Do(func() {
		richPolicy = bluemonday.UGCPolicy()
		richPolicy.AllowElements("u", "s", "mark")
		plainPolicy = bluemonday.StrictPolicy()
	})
	return richPolicy, plainPolicy
}

// Sanitize removes dangerous markup from a description while keeping safe
// inline formatting and links.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	rich, _ := policies()
	return strings.TrimSpace(rich.Sanitize(s))
}

// PlainText strips every tag from s and returns the remaining text with
// entities decoded. Script and style contents are dropped entirely.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	_, plain := policies()
	return strings.TrimSpace(html.UnescapeString(plain.Sanitize(s)))
}

// IsPlainText reports whether content contains no markup.
func IsPlainText(content string) bool {
	if content == "" {
		return true
	}
	return !strings.Contains(content, "<") || !strings.Contains(content, ">")
}
