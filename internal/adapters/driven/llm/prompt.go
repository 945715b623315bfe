// Package llm holds pieces shared by the generation provider adapters.
package llm

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/docq/internal/core/domain"
)

// GroundingPrompt builds the system instructions with the evidence
// excerpts and their provenance headers. Every generation provider sends
// the same grounding contract so answers cite pages the same way.
func GroundingPrompt(evidence []domain.Evidence) string {
	var b strings.Builder
	b.WriteString("You are a document question answering assistant. ")
	b.WriteString("Answer using only the excerpts below. ")
	b.WriteString("Cite the source of each claim as [Document, p.N] using the ")
	b.WriteString("document and page given in the excerpt header. ")
	b.WriteString("Never cite a page that does not appear below. ")
	b.WriteString("If the excerpts do not contain the answer, say so.\n")

	for _, ev := range evidence {
		b.WriteString("\n---\n")
		if ev.Citation.PageNumber > 0 {
			fmt.Fprintf(&b, "Document: %s, Page: %d\n", ev.Citation.DocumentName, ev.Citation.PageNumber)
		} else {
			fmt.Fprintf(&b, "Document: %s\n", ev.Citation.DocumentName)
		}
		b.WriteString(ev.Segment.Text)
		b.WriteString("\n")
	}
	return b.String()
}
