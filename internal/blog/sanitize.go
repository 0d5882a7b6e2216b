package blog

import "github.com/microcosm-cc/bluemonday"

// ugcPolicy allows the formatting a rich text editor produces and strips
// scripts, event handlers and unsafe URLs. Policies are safe for concurrent
// use once built.
var ugcPolicy = bluemonday.UGCPolicy()

// SanitizeHTML strips unsafe markup from user supplied post or comment HTML.
func SanitizeHTML(s string) string {
	return ugcPolicy.Sanitize(s)
}
