// Package reply renders generated answers into Slack mrkdwn, including
// source citations reconciled against the retrieval context.
package reply

import "regexp"

var (
	boldStars   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	boldUnders  = regexp.MustCompile(`__(.*?)__`)
	strikeTwice = regexp.MustCompile(`~~(.*?)~~`)
)

// ConvertMarkdown rewrites common markdown markers into Slack mrkdwn.
// Single-underscore italics and inline code pass through unchanged;
// Slack already uses compatible syntax for those. The three patterns
// are disjoint, so no rewrite can match the output of another.
func ConvertMarkdown(text string) string {
	text = boldStars.ReplaceAllString(text, "*$1*")
	text = boldUnders.ReplaceAllString(text, "*$1*")
	text = strikeTwice.ReplaceAllString(text, "~$1~")
	return text
}
