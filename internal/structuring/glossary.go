package structuring

import (
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/models"
)

// glossaryDefinitions is the curated crypto dictionary scanned against every
// article.
var glossaryDefinitions = map[string]string{
	"blockchain":     "A distributed ledger technology that records transactions across multiple computers.",
	"cryptocurrency": "A digital or virtual currency secured by cryptography.",
	"bitcoin":        "The first and most well-known cryptocurrency, created in 2009.",
	"ethereum":       "A blockchain platform enabling smart contracts and decentralized applications.",
	"defi":           "Decentralized Finance - financial services without traditional intermediaries.",
	"nft":            "Non-Fungible Token - a unique digital asset on a blockchain.",
	"smart contract": "Self-executing contracts with terms directly written into code.",
	"wallet":         "A digital tool for storing and managing cryptocurrency.",
	"mining":         "The process of validating blockchain transactions and creating new coins.",
	"staking":        "Locking up cryptocurrency to support network operations and earn rewards.",
	"gas fee":        "Transaction fee paid to process operations on a blockchain.",
	"dao":            "Decentralized Autonomous Organization - community-led entity.",
	"token":          "A digital asset created on an existing blockchain.",
	"altcoin":        "Any cryptocurrency other than Bitcoin.",
	"memecoin":       "Cryptocurrency inspired by internet memes or jokes.",
	"hodl":           "Hold On for Dear Life - long-term cryptocurrency holding strategy.",
	"fomo":           "Fear Of Missing Out - anxiety about missing investment opportunities.",
	"dapp":           "Decentralized Application running on a blockchain network.",
	"web3":           "The next generation of the internet built on blockchain technology.",
	"metaverse":      "A virtual reality space where users can interact with a computer-generated environment.",
}

var termCategories = map[string][]string{
	"crypto":     {"bitcoin", "ethereum", "cryptocurrency", "altcoin", "memecoin", "token"},
	"blockchain": {"blockchain", "smart contract", "mining", "staking", "dao"},
	"defi":       {"defi", "dapp", "gas fee", "wallet"},
	"trading":    {"hodl", "fomo"},
	"technical":  {"nft", "web3", "metaverse"},
}

var (
	beginnerTerms = map[string]struct{}{"bitcoin": {}, "cryptocurrency": {}, "wallet": {}, "token": {}}
	advancedTerms = map[string]struct{}{"smart contract": {}, "dao": {}, "dapp": {}, "gas fee": {}, "staking": {}}
)

var relatedTermMap = map[string][]string{
	"blockchain": {"bitcoin", "ethereum", "mining", "smart contract"},
	"bitcoin":    {"blockchain", "cryptocurrency", "mining", "wallet"},
	"ethereum":   {"blockchain", "smart contract", "defi", "gas fee"},
	"defi":       {"ethereum", "dapp", "smart contract", "dao"},
	"nft":        {"ethereum", "blockchain", "token", "metaverse"},
}

// GenerateGlossary scans the article for dictionary terms and returns entries
// for every term that appears at least once, sorted by usage count with
// alphabetical tie-breaking. Position reflects the sorted order.
func GenerateGlossary(articleID, content string) []models.GlossaryEntry {
	var entries []models.GlossaryEntry

	for term, definition := range glossaryDefinitions {
		count := countTermUsage(content, term)
		if count == 0 {
			continue
		}

		entries = append(entries, models.GlossaryEntry{
			ID:           uuid.New().String(),
			ArticleID:    articleID,
			Term:         capitalize(term),
			Definition:   definition,
			Category:     categorizeTerm(term),
			Complexity:   termComplexity(term),
			UsageCount:   count,
			RelatedTerms: relatedTermMap[term],
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].UsageCount != entries[j].UsageCount {
			return entries[i].UsageCount > entries[j].UsageCount
		}
		return entries[i].Term < entries[j].Term
	})

	for i := range entries {
		entries[i].Position = i
	}

	return entries
}

func countTermUsage(content, term string) int {
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
	return len(re.FindAllStringIndex(content, -1))
}

func categorizeTerm(term string) string {
	for _, category := range []string{"crypto", "blockchain", "defi", "trading", "technical"} {
		for _, t := range termCategories[category] {
			if t == term {
				return category
			}
		}
	}
	return "crypto"
}

func termComplexity(term string) string {
	if _, ok := beginnerTerms[term]; ok {
		return "beginner"
	}
	if _, ok := advancedTerms[term]; ok {
		return "advanced"
	}
	return "intermediate"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
