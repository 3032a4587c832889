package reply

import (
	"fmt"
	"strings"
)

// Formatter renders generated replies for posting to Slack.
type Formatter struct {
	baseURL string
}

// NewFormatter returns a Formatter. baseURL is the public URL of this
// deployment, used for tenant-scoped document links.
func NewFormatter(baseURL string) *Formatter {
	return &Formatter{baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Format converts the generated message to mrkdwn and, when the model
// cited sources, appends a Sources section with one bullet per
// reconciled citation. Output is deterministic for identical inputs.
func (f *Formatter) Format(gen Generated, sources []Source, tenantSlug string) string {
	var b strings.Builder
	b.WriteString(ConvertMarkdown(gen.Message))

	if len(gen.UsedSourceIndexes) == 0 || len(sources) == 0 {
		return b.String()
	}

	b.WriteString("\n\n:books: *Sources:*")
	citations := f.Reconcile(gen.UsedSourceIndexes, sources, tenantSlug)
	if len(citations) == 0 {
		b.WriteString("\n• _No sources available_")
		return b.String()
	}
	for _, c := range citations {
		fmt.Fprintf(&b, "\n• <%s|%s>", c.URL, c.DisplayName)
	}
	return b.String()
}
