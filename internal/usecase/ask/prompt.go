package ask

import (
	"strings"

	"github.com/groundline-ai/groundline/internal/domain/section"
)

// buildPrompt assembles the synthesis prompt from the loaded sections.
// Each section is prefixed with its citable ID so the provider can emit
// [[id]] citation spans the verifier resolves afterwards.
func buildPrompt(question string, sections []section.Section) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the sections below. ")
	b.WriteString("Cite every claim with the section marker in the form [[section-id]].\n\n")
	for i := range sections {
		b.WriteString("[[")
		b.WriteString(sections[i].ID())
		b.WriteString("]]\n")
		b.WriteString(sections[i].Text())
		b.WriteString("\n\n")
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
