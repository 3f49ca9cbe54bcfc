package structuring

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/models"
)

const (
	AnswerTypeFact        = "fact"
	AnswerTypeExplanation = "explanation"
	AnswerTypeHowTo       = "how_to"
)

var (
	statisticFactRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(%|percent|million|billion|trillion|dollars?|\$)`)
	sourcedFactRe   = regexp.MustCompile(`(?i)(according to|reported by|stated by|via|source:)\s+([^.,]+)`)
)

type answerTemplate struct {
	pattern    *regexp.Regexp
	answerType string
	question   string
}

var answerTemplates = []answerTemplate{
	{regexp.MustCompile(`(?i)price|cost|value`), AnswerTypeFact, "What is the current price?"},
	{regexp.MustCompile(`(?i)how to buy|purchase`), AnswerTypeHowTo, "How to buy?"},
	{regexp.MustCompile(`(?i)risk|safe|secure`), AnswerTypeExplanation, "Is it safe?"},
	{regexp.MustCompile(`(?i)future|forecast|prediction`), AnswerTypeExplanation, "What is the future outlook?"},
}

// GenerateCanonicalAnswers builds the primary title-derived answer plus one
// answer per matched crypto question template. The primary answer is the
// first three sentences of the article at confidence 85, template answers
// quote up to two matching sentences at confidence 75.
func GenerateCanonicalAnswers(articleID, title, content string) []models.CanonicalAnswer {
	var answers []models.CanonicalAnswer

	mainQuestion := title
	if !strings.Contains(title, "?") {
		mainQuestion = fmt.Sprintf("What is %s?", title)
	}

	sentences := SplitSentences(content)

	primary := joinSentences(sentences, 3)
	answers = append(answers, newAnswer(articleID, mainQuestion, primary, AnswerTypeExplanation, 85))

	for _, tpl := range answerTemplates {
		if !tpl.pattern.MatchString(content) {
			continue
		}

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

		answer := strings.Join(relevant, ". ") + "."
		answers = append(answers, newAnswer(articleID, tpl.question, answer, tpl.answerType, 75))
	}

	return answers
}

func newAnswer(articleID, question, answer, answerType string, confidence float64) models.CanonicalAnswer {
	return models.CanonicalAnswer{
		ID:         uuid.New().String(),
		ArticleID:  articleID,
		Question:   question,
		Answer:     answer,
		AnswerType: answerType,
		Confidence: confidence,
		FactClaims: ExtractFactClaims(answer),
		Keywords:   ExtractKeywords(answer),
		LLMFormat:  fmt.Sprintf("Q: %s\nA: %s", question, answer),
	}
}

func joinSentences(sentences []string, n int) string {
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	if len(sentences) == 0 {
		return ""
	}
	return strings.Join(sentences, ". ") + "."
}

// ExtractFactClaims pulls typed factual statements out of answer text.
// Statistics are numbers with a magnitude or currency suffix, sourced facts
// are attribution phrases. Each claim carries a context window spanning 50
// characters before and 100 after the match.
func ExtractFactClaims(text string) []models.FactClaim {
	var facts []models.FactClaim

	for _, loc := range statisticFactRe.FindAllStringIndex(text, -1) {
		facts = append(facts, models.FactClaim{
			Type:    "statistic",
			Value:   text[loc[0]:loc[1]],
			Context: contextWindow(text, loc[0]),
		})
	}

	for _, m := range sourcedFactRe.FindAllStringSubmatchIndex(text, -1) {
		source := strings.TrimSpace(text[m[4]:m[5]])
		if source == "" {
			continue
		}
		facts = append(facts, models.FactClaim{
			Type:    "sourced_fact",
			Source:  source,
			Context: contextWindow(text, m[0]),
		})
	}

	return facts
}

func contextWindow(text string, matchStart int) string {
	start := matchStart - 50
	if start < 0 {
		start = 0
	}
	end := matchStart + 100
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}
