// Package sanitize neutralizes user-authored rich text before it is stored.
package sanitize

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// RichText returns the allow-list policy applied to article and comment bodies.
func RichText() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements(
			"p", "b", "i", "em", "strong", "u",
			"ul", "ol", "li",
			"h1", "h2", "h3", "h4",
			"blockquote", "code", "pre",
			"span", "br",
		)
		p.AllowNoAttrs().OnElements("a")
		p.AllowAttrs("href", "title", "target", "rel").OnElements("a")
		p.AllowURLSchemes("http", "https", "mailto")
		p.RequireParseableURLs(true)
		p.AllowRelativeURLs(true)
		p.AllowAttrs("class").Globally()
		policy = p
	})
	return policy
}

// Sanitize strips every element, attribute and URL scheme outside the
// allow-list. It never fails and Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(raw string) string {
	return RichText().Sanitize(raw)
}
