package schema

import (
	"time"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/models"
)

const (
	contextURL     = "https://schema.org"
	publisherName  = "CoinDaily"
	defaultLogoURL = "https://coindaily.com/logo.png"
)

// JSONLD is a schema.org object ready for serialization.
type JSONLD map[string]interface{}

// NewsArticle builds the NewsArticle markup embedded in article metadata.
func NewsArticle(article *models.Article, logoURL string) JSONLD {
	if logoURL == "" {
		logoURL = defaultLogoURL
	}

	markup := JSONLD{
		"@context":     contextURL,
		"@type":        "NewsArticle",
		"headline":     article.Title,
		"description":  article.Excerpt,
		"image":        article.ImageURL,
		"dateModified": article.UpdatedAt.Format(time.RFC3339),
		"author": JSONLD{
			"@type": "Person",
			"name":  article.AuthorName,
		},
		"publisher": JSONLD{
			"@type": "Organization",
			"name":  publisherName,
			"logo": JSONLD{
				"@type": "ImageObject",
				"url":   logoURL,
			},
		},
	}

	if article.PublishedAt != nil {
		markup["datePublished"] = article.PublishedAt.Format(time.RFC3339)
	}

	return markup
}

// FAQPage builds FAQPage markup from generated FAQs.
func FAQPage(faqs []models.FAQ) JSONLD {
	entities := make([]JSONLD, 0, len(faqs))
	for _, faq := range faqs {
		entities = append(entities, JSONLD{
			"@type": "Question",
			"name":  faq.Question,
			"acceptedAnswer": JSONLD{
				"@type": "Answer",
				"text":  faq.Answer,
			},
		})
	}

	return JSONLD{
		"@context":   contextURL,
		"@type":      "FAQPage",
		"mainEntity": entities,
	}
}

// DefinedTermSet builds glossary markup.
func DefinedTermSet(articleID string, entries []models.GlossaryEntry) JSONLD {
	terms := make([]JSONLD, 0, len(entries))
	for _, entry := range entries {
		terms = append(terms, JSONLD{
			"@type":       "DefinedTerm",
			"name":        entry.Term,
			"description": entry.Definition,
			"inDefinedTermSet": JSONLD{
				"@type": "DefinedTermSet",
				"name":  "Crypto Glossary",
			},
		})
	}

	return JSONLD{
		"@context":       contextURL,
		"@type":          "DefinedTermSet",
		"name":           "Crypto Glossary",
		"identifier":     articleID,
		"hasDefinedTerm": terms,
	}
}

// Quotations builds Quotation markup from canonical answers so AI systems
// can quote them directly.
func Quotations(answers []models.CanonicalAnswer) []JSONLD {
	quotations := make([]JSONLD, 0, len(answers))
	for _, answer := range answers {
		quotations = append(quotations, JSONLD{
			"@context": contextURL,
			"@type":    "Quotation",
			"text":     answer.Answer,
			"about":    answer.Question,
			"creator": JSONLD{
				"@type": "Organization",
				"name":  publisherName,
			},
		})
	}
	return quotations
}

// Claims builds Claim markup for extracted fact claims, attributing sourced
// facts to their source.
func Claims(answers []models.CanonicalAnswer) []JSONLD {
	var claims []JSONLD
	for _, answer := range answers {
		for _, fact := range answer.FactClaims {
			claim := JSONLD{
				"@context": contextURL,
				"@type":    "Claim",
				"text":     fact.Context,
			}
			if fact.Source != "" {
				claim["claimInterpreter"] = JSONLD{
					"@type": "Organization",
					"name":  fact.Source,
				}
			}
			claims = append(claims, claim)
		}
	}
	return claims
}
