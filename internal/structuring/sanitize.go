package structuring

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SanitizeContent strips HTML markup from article bodies before chunking.
// Block-level elements become blank-line separated paragraphs so the chunker
// sees the same boundaries a reader would. Plain-text input passes through
// unchanged.
func SanitizeContent(content string) string {
	if !strings.Contains(content, "<") {
		return content
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}

	doc.Find("script, style, noscript, iframe").Remove()

	var paragraphs []string
	doc.Find("p, h1, h2, h3, h4, h5, h6, li, blockquote").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	if len(paragraphs) == 0 {
		text := strings.TrimSpace(doc.Text())
		if text == "" {
			return content
		}
		return text
	}

	return strings.Join(paragraphs, "\n\n")
}
