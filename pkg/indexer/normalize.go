package indexer

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Blog bodies come from a rich-text editor and are usually stored as HTML.
// Flattening them before token counting keeps markup out of the embeddings
// while block-level closing tags become paragraph breaks, so the chunker
// still sees paragraph structure.

var (
	htmlProbe  = regexp.MustCompile(`(?i)<\s*(p|div|br|h[1-6]|li|ul|ol|blockquote|article|section|pre|a|em|strong|span|code|img|figure)\b`)
	blockClose = regexp.MustCompile(`(?i)</\s*(p|div|h[1-6]|li|blockquote|pre|section|article|figure)\s*>`)
	lineBreak  = regexp.MustCompile(`(?i)<\s*br\s*/?\s*>`)
	manyBlank  = regexp.MustCompile(`\n{3,}`)
	spaceRun   = regexp.MustCompile(`[ \t]{2,}`)
)

func looksLikeHTML(content string) bool {
	return strings.Contains(content, "<") && htmlProbe.MatchString(content)
}

// normalizeContent returns plain text for HTML bodies and leaves anything
// else untouched.
func normalizeContent(content string) string {
	if !looksLikeHTML(content) {
		return content
	}

	marked := blockClose.ReplaceAllString(content, "$0\n\n")
	marked = lineBreak.ReplaceAllString(marked, "\n")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(marked))
	if err != nil {
		return content
	}

	text := doc.Text()
	text = spaceRun.ReplaceAllString(text, " ")
	text = manyBlank.ReplaceAllString(text, "\n\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		lines = append(lines, strings.TrimSpace(line))
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
