package verifier

import "regexp"

// citationRegex matches [[<section-id>]] spans in answer text.
var citationRegex = regexp.MustCompile(`\[\[([0-9a-f]{16})\]\]`)

// ExtractCitations pulls the cited section IDs out of answer text, in
// first-occurrence order, deduplicated.
func ExtractCitations(answer string) []string {
	matches := citationRegex.FindAllStringSubmatch(answer, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}
