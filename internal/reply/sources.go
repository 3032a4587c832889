package reply

import (
	"log/slog"
	"net/url"
	"strings"
)

// Source is one retrieval candidate that was available to the model
// when a reply was generated.
type Source struct {
	DocumentName   string `json:"documentName,omitempty"`
	SourceURL      string `json:"source_url,omitempty"`
	RagieSourceURL string `json:"ragieSourceUrl,omitempty"`
}

// Generated is the structured output of the generation collaborator.
// UsedSourceIndexes are positions into the source slice passed to the
// same generation call; they are meaningless against any other slice.
type Generated struct {
	Message           string `json:"message"`
	UsedSourceIndexes []int  `json:"usedSourceIndexes"`
}

// Citation is one rendered source reference.
type Citation struct {
	DisplayName string
	URL         string
}

// Reconcile resolves the model's cited source indexes against the
// sources the reply was generated from. If every index is in range,
// one citation is emitted per index in model order. If any index is
// out of range the whole citation set is untrustworthy (the source
// list was likely deduplicated or reordered after the model saw it),
// so every source is cited in sequence order instead; dropping sources
// the model plausibly drew from would be worse than over-citing.
func (f *Formatter) Reconcile(usedIndexes []int, sources []Source, tenantSlug string) []Citation {
	if len(usedIndexes) == 0 || len(sources) == 0 {
		return nil
	}

	indexes := usedIndexes
	for _, idx := range usedIndexes {
		if idx < 0 || idx >= len(sources) {
			slog.Warn("cited source index out of range, citing all sources",
				"index", idx, "sources", len(sources))
			indexes = make([]int, len(sources))
			for i := range sources {
				indexes[i] = i
			}
			break
		}
	}

	citations := make([]Citation, 0, len(indexes))
	for _, idx := range indexes {
		src := sources[idx]
		citations = append(citations, Citation{
			DisplayName: displayName(src),
			URL:         f.citationURL(src, tenantSlug),
		})
	}
	return citations
}

func displayName(src Source) string {
	if src.DocumentName != "" {
		return src.DocumentName
	}
	if src.SourceURL != "" {
		parts := strings.Split(src.SourceURL, "/")
		if last := parts[len(parts)-1]; last != "" {
			return last
		}
	}
	return "Document"
}

// citationURL prefers a direct source URL. A source known only by its
// internal Ragie reference is linked through the tenant-scoped public
// document route, which attaches tenant credentials on fetch.
func (f *Formatter) citationURL(src Source, tenantSlug string) string {
	if src.SourceURL != "" {
		return src.SourceURL
	}
	if src.RagieSourceURL != "" && tenantSlug != "" {
		return f.baseURL + "/api/public/documents/" + url.PathEscape(tenantSlug) +
			"/source?url=" + url.QueryEscape(src.RagieSourceURL)
	}
	return "#"
}
