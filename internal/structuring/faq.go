package structuring

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/models"
)

type faqTemplate struct {
	questionType string
	pattern      *regexp.Regexp
	question     string
}

var faqTemplates = []faqTemplate{
	{"what", regexp.MustCompile(`(?i)what is|what are`), "What is %s?"},
	{"how", regexp.MustCompile(`(?i)how to|how does|how can`), "How does %s work?"},
	{"why", regexp.MustCompile(`(?i)why|reason|purpose`), "Why use %s?"},
	{"when", regexp.MustCompile(`(?i)when|timeline|date`), "When should you consider %s?"},
	{"where", regexp.MustCompile(`(?i)where|platform|exchange`), "Where can you access %s?"},
}

var titlePrefixRe = regexp.MustCompile(`(?i)^(What is|How to|Why|Understanding|Guide to|Introduction to)\s+`)

// GenerateFAQs produces one FAQ per matched question template. Relevance,
// search volume and difficulty are pseudo-random within the original ranges
// but seeded on the article id and question type, so reprocessing the same
// article yields identical scores.
func GenerateFAQs(articleID, title, content string) []models.FAQ {
	topic := extractMainTopic(title)
	sentences := SplitSentences(content)

	var faqs []models.FAQ
	for _, tpl := range faqTemplates {
		var relevant []string
		for _, s := range sentences {
			if tpl.pattern.MatchString(s) {
				relevant = append(relevant, s)
				if len(relevant) == 2 {
					break
				}
			}
		}
		if len(relevant) == 0 {
			continue
		}

		seed := scoreSeed(articleID, tpl.questionType)

		faqs = append(faqs, models.FAQ{
			ID:             uuid.New().String(),
			ArticleID:      articleID,
			Question:       fmt.Sprintf(tpl.question, topic),
			Answer:         strings.Join(relevant, ". ") + ".",
			QuestionType:   tpl.questionType,
			RelevanceScore: 75 + seedFraction(seed)*20,
			SearchVolume:   100 + int(seedFraction(seed>>8)*500),
			Difficulty:     40 + seedFraction(seed>>16)*30,
			Position:       len(faqs),
		})
	}

	return faqs
}

func extractMainTopic(title string) string {
	cleaned := titlePrefixRe.ReplaceAllString(title, "")
	return strings.NewReplacer("?", "", "!", "", ".", "").Replace(cleaned)
}

func scoreSeed(articleID, questionType string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(articleID))
	h.Write([]byte(":"))
	h.Write([]byte(questionType))
	return h.Sum64()
}

// seedFraction maps a seed to [0, 1).
func seedFraction(seed uint64) float64 {
	return float64(seed%10000) / 10000
}
