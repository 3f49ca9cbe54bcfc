package structuring

import (
	"math"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/models"
)

// QualityScores holds the article-level quality summary computed from a
// structuring run.
type QualityScores struct {
	Overall           float64
	LLMReadability    float64
	SemanticCoherence float64
	EntityDensity     float64
	FactDensity       float64
}

// ComputeQualityScores derives all five quality figures. Empty artifact
// families contribute zero to the weighted overall score rather than
// poisoning it.
func ComputeQualityScores(
	content string,
	chunks []models.ContentChunk,
	answers []models.CanonicalAnswer,
	faqs []models.FAQ,
	glossary []models.GlossaryEntry,
) QualityScores {
	return QualityScores{
		Overall:           overallQuality(chunks, answers, faqs, glossary),
		LLMReadability:    llmReadability(chunks),
		SemanticCoherence: semanticCoherence(chunks),
		EntityDensity:     entityDensity(chunks, content),
		FactDensity:       factDensity(answers, content),
	}
}

// overallQuality weights chunk scores 40%, answer confidence 30%, FAQ
// relevance 20% and glossary completeness 10%.
func overallQuality(
	chunks []models.ContentChunk,
	answers []models.CanonicalAnswer,
	faqs []models.FAQ,
	glossary []models.GlossaryEntry,
) float64 {
	var score float64

	if len(chunks) > 0 {
		var sum float64
		for _, c := range chunks {
			sum += c.SemanticScore
		}
		score += sum / float64(len(chunks)) * 0.4
	}

	if len(answers) > 0 {
		var sum float64
		for _, a := range answers {
			sum += a.Confidence
		}
		score += sum / float64(len(answers)) * 0.3
	}

	if len(faqs) > 0 {
		var sum float64
		for _, f := range faqs {
			sum += f.RelevanceScore
		}
		score += sum / float64(len(faqs)) * 0.2
	}

	glossaryScore := math.Min(100, float64(len(glossary))*10)
	score += glossaryScore * 0.1

	return math.Round(score)
}

func llmReadability(chunks []models.ContentChunk) float64 {
	score := 50.0

	if len(chunks) >= 5 && len(chunks) <= 15 {
		score += 15
	}

	if len(chunks) > 0 {
		var totalWords int
		for _, c := range chunks {
			totalWords += c.WordCount
		}
		avg := float64(totalWords) / float64(len(chunks))
		if avg >= minChunkWords && avg <= maxChunkWords {
			score += 15
		}
	}

	for _, c := range chunks {
		if len(c.Entities) > 0 {
			score += 10
			break
		}
	}

	for _, c := range chunks {
		if len(c.Keywords) > 0 {
			score += 10
			break
		}
	}

	return math.Min(100, score)
}

func semanticCoherence(chunks []models.ContentChunk) float64 {
	if len(chunks) == 0 {
		return 0
	}

	var sum float64
	for _, c := range chunks {
		sum += c.SemanticScore
	}
	return math.Round(sum / float64(len(chunks)))
}

// entityDensity is entities per 100 words, rounded to two decimals.
func entityDensity(chunks []models.ContentChunk, content string) float64 {
	totalWords := countWords(content)
	if totalWords == 0 {
		return 0
	}

	var totalEntities int
	for _, c := range chunks {
		totalEntities += len(c.Entities)
	}

	return math.Round(float64(totalEntities)/float64(totalWords)*100*100) / 100
}

// factDensity is fact claims per 100 words, rounded to two decimals.
func factDensity(answers []models.CanonicalAnswer, content string) float64 {
	totalWords := countWords(content)
	if totalWords == 0 {
		return 0
	}

	var totalFacts int
	for _, a := range answers {
		totalFacts += len(a.FactClaims)
	}

	return math.Round(float64(totalFacts)/float64(totalWords)*100*100) / 100
}
