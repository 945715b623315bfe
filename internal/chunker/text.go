package chunker

import (
	"regexp"
	"strings"
)

// sentenceRe matches a sentence ending in terminal punctuation.
var sentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?]+)`)

// headingRe matches structural section boundaries: markdown headings and
// "Section N" / "Chapter N" style lines.
var headingRe = regexp.MustCompile(`(?m)^(#{1,6}\s+.+|(?:Section|Chapter|Part)\s+\d+:?\s*.*)$`)

// countTokens returns the whitespace-delimited token count of s.
func countTokens(s string) int {
	return len(strings.Fields(s))
}

// splitParagraphs splits text on blank lines, dropping empty parts.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSections splits text at heading boundaries. The heading line stays
// attached to the section it opens. Text before the first heading is its
// own section.
func splitSections(text string) []string {
	locs := headingRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var sections []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			if s := strings.TrimSpace(text[prev:loc[0]]); s != "" {
				sections = append(sections, s)
			}
		}
		prev = loc[0]
	}
	if s := strings.TrimSpace(text[prev:]); s != "" {
		sections = append(sections, s)
	}
	return sections
}

// splitSentences splits text into sentences on terminal punctuation.
// Trailing text without terminal punctuation becomes the final sentence.
func splitSentences(text string) []string {
	matches := sentenceRe.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var sentences []string
	end := 0
	for _, loc := range matches {
		if s := strings.TrimSpace(text[loc[0]:loc[1]]); s != "" {
			sentences = append(sentences, s)
		}
		end = loc[1]
	}
	if end < len(text) {
		if s := strings.TrimSpace(text[end:]); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// mergeUnits greedily joins consecutive units with sep while the merged
// token count stays within maxTokens. A single unit larger than maxTokens
// is passed through untouched; no input is ever dropped.
func mergeUnits(units []string, maxTokens int, sep string) []string {
	var merged []string
	var current string
	currentTokens := 0

	for _, unit := range units {
		unitTokens := countTokens(unit)
		if current != "" && currentTokens+unitTokens > maxTokens {
			merged = append(merged, current)
			current = ""
			currentTokens = 0
		}
		if current == "" {
			current = unit
		} else {
			current += sep + unit
		}
		currentTokens += unitTokens
	}
	if current != "" {
		merged = append(merged, current)
	}
	return merged
}

// lastTokens returns the trailing n tokens of s joined by spaces.
func lastTokens(s string, n int) string {
	fields := strings.Fields(s)
	if n <= 0 || len(fields) == 0 {
		return ""
	}
	if n > len(fields) {
		n = len(fields)
	}
	return strings.Join(fields[len(fields)-n:], " ")
}
