package retrieval

import (
	"regexp"
	"strings"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/domain/model"
)

// NoDocuments is returned by Assemble when nothing was retrieved. The
// generation step must treat it as the "no answer" branch instead of
// prompting with an empty context.
const NoDocuments = "no documents"

const (
	// DefaultMaxTotalChars bounds the assembled context as a whole
	DefaultMaxTotalChars = 3000

	// docBodyBudget is the per-document body budget, reduced to
	// docBodyBudgetTight when the full block would not fit the remaining
	// total budget
	docBodyBudget      = 800
	docBodyBudgetTight = 400

	// sentenceCutRatio is how far into the budget a sentence boundary must
	// be for the cut to use it
	sentenceCutRatio = 0.7
)

var (
	markdownLinkRe = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	rawURLRe       = regexp.MustCompile(`https?://\S+`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// cleanBody strips hyperlink markup and raw URLs from body text and
// collapses runs of whitespace. URLs belong in the source line of the
// block, not inside the prose handed to the generator.
func cleanBody(body string) string {
	body = markdownLinkRe.ReplaceAllString(body, "$1")
	body = rawURLRe.ReplaceAllString(body, "")
	body = whitespaceRe.ReplaceAllString(body, " ")
	return strings.TrimSpace(body)
}

// truncateBody cuts body to at most limit runes, preferring the last
// sentence boundary past sentenceCutRatio of the limit, else appending an
// ellipsis.
func truncateBody(body string, limit int) string {
	runes := []rune(body)
	if len(runes) <= limit {
		return body
	}

	cut := string(runes[:limit])
	if idx := strings.LastIndex(cut, "."); idx >= int(float64(limit)*sentenceCutRatio) {
		return cut[:idx+1]
	}
	return strings.TrimSpace(cut) + "..."
}

// Assemble renders ranked documents into a bounded textual context. Each
// document contributes a block of title, source URL and cleaned body; blocks
// stop once maxTotalChars is reached.
func Assemble(docs []model.ScoredDocument, maxTotalChars int) string {
	if len(docs) == 0 {
		return NoDocuments
	}
	if maxTotalChars <= 0 {
		maxTotalChars = DefaultMaxTotalChars
	}

	var sb strings.Builder
	for _, doc := range docs {
		remaining := maxTotalChars - sb.Len()
		if remaining <= 0 {
			break
		}

		budget := docBodyBudget
		body := cleanBody(doc.Body)

		header := "## " + strings.TrimSpace(doc.Title) + "\n"
		if doc.SourceURL != "" {
			header += "Source: " + doc.SourceURL + "\n"
		}

		if len(header)+budget > remaining {
			budget = docBodyBudgetTight
		}
		if len(header) >= remaining {
			break
		}

		block := header + truncateBody(body, budget) + "\n\n"
		if sb.Len()+len(block) > maxTotalChars {
			// Last block may overshoot slightly after truncation; stop
			// instead of emitting a clipped block.
			if sb.Len() == 0 {
				sb.WriteString(block)
			}
			break
		}

		sb.WriteString(block)
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return NoDocuments
	}
	return out
}
