package structuring

import (
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Seedline-Foundation/Coindailynow-sub013/internal/storage/models"
)

// Chunk size bounds in words. Chunks flush once they reach the lower bound
// and never absorb a paragraph that would push them past the upper bound.
const (
	minChunkWords = 200
	maxChunkWords = 400
)

// Chunk type labels in detection priority order.
const (
	ChunkTypeQuestion        = "question"
	ChunkTypeContext         = "context"
	ChunkTypeFacts           = "facts"
	ChunkTypeCanonicalAnswer = "canonical_answer"
	ChunkTypeSemantic        = "semantic"
)

var (
	paragraphSplitRe = regexp.MustCompile(`\n\n+`)
	sentenceSplitRe  = regexp.MustCompile(`[.!?]+`)
	wordSplitRe      = regexp.MustCompile(`\s+`)
	nonWordRe        = regexp.MustCompile(`[^\w\s]`)

	questionStartRe = regexp.MustCompile(`(?i)^(what|why|how|when|where|who|can|is|are|does|do)\s+`)
	factsRe         = regexp.MustCompile(`(?i)\d+%|\$\d+|statistics|data shows|according to|research indicates`)
	citationRe      = regexp.MustCompile(`(?i)according to|source:|via|reports?|stated?`)

	entityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?i:Bitcoin|BTC)\b`),
		regexp.MustCompile(`\b(?i:Ethereum|ETH)\b`),
		regexp.MustCompile(`\b(?i:Cardano|ADA)\b`),
		regexp.MustCompile(`\b(?i:Solana|SOL)\b`),
		regexp.MustCompile(`\b(?i:Polkadot|DOT)\b`),
		regexp.MustCompile(`\b(?i:Dogecoin|DOGE)\b`),
		regexp.MustCompile(`\b(?i:Shiba Inu|SHIB)\b`),
		regexp.MustCompile(`\b(?i:Ripple|XRP)\b`),
		regexp.MustCompile(`\b(?i:Uniswap|DeFi|NFT|DAO|Web3)\b`),
		regexp.MustCompile(`\b(?i:Binance|Coinbase|Kraken|FTX)\b`),
	}

	transitionWords = []string{"however", "therefore", "additionally", "furthermore", "moreover", "consequently"}
	cryptoTerms     = []string{"bitcoin", "ethereum", "crypto", "blockchain", "defi", "token", "coin"}

	stopWords = map[string]struct{}{
		"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
		"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
		"from": {}, "as": {}, "is": {}, "are": {}, "was": {}, "were": {},
	}
)

// ChunkContent splits article text on blank lines and packs consecutive
// paragraphs into 200-400 word chunks. A paragraph that would overflow the
// current chunk flushes it and starts the next one; leftover paragraphs at
// the end form a final undersized chunk.
func ChunkContent(articleID, content string) []models.ContentChunk {
	var paragraphs []string
	for _, p := range paragraphSplitRe.Split(content, -1) {
		if strings.TrimSpace(p) != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	var chunks []models.ContentChunk
	var current []string
	currentWords := 0
	startPara := 0
	chunkIndex := 0

	flush := func(endPara int) {
		text := strings.Join(current, "\n\n")
		chunks = append(chunks, models.ContentChunk{
			ID:            uuid.New().String(),
			ArticleID:     articleID,
			ChunkIndex:    chunkIndex,
			ChunkType:     detectChunkType(text),
			Content:       text,
			WordCount:     currentWords,
			SemanticScore: semanticScore(text),
			Entities:      ExtractEntities(text),
			Keywords:      ExtractKeywords(text),
			Context:       chunkContext(paragraphs, startPara, endPara),
		})
		chunkIndex++
	}

	for i, paragraph := range paragraphs {
		paraWords := countWords(paragraph)

		switch {
		case currentWords+paraWords > maxChunkWords && len(current) > 0:
			flush(i - 1)
			current = []string{paragraph}
			currentWords = paraWords
			startPara = i
		case currentWords+paraWords >= minChunkWords:
			current = append(current, paragraph)
			currentWords += paraWords
			flush(i)
			current = nil
			currentWords = 0
			startPara = i + 1
		default:
			if len(current) == 0 {
				startPara = i
			}
			current = append(current, paragraph)
			currentWords += paraWords
		}
	}

	if len(current) > 0 {
		flush(len(paragraphs) - 1)
	}

	return chunks
}

func countWords(s string) int {
	return len(wordSplitRe.Split(strings.TrimSpace(s), -1))
}

func detectChunkType(content string) string {
	lower := strings.ToLower(content)

	if questionStartRe.MatchString(content) || strings.Contains(content, "?") {
		return ChunkTypeQuestion
	}

	if strings.Contains(lower, "in this article") ||
		strings.Contains(lower, "background") ||
		strings.Contains(lower, "introduction") ||
		strings.Contains(lower, "context") {
		return ChunkTypeContext
	}

	if factsRe.MatchString(content) {
		return ChunkTypeFacts
	}

	if strings.Contains(lower, "in summary") ||
		strings.Contains(lower, "in conclusion") ||
		strings.Contains(lower, "the answer is") ||
		strings.Contains(lower, "essentially") {
		return ChunkTypeCanonicalAnswer
	}

	return ChunkTypeSemantic
}

// semanticScore rates a chunk 0-100 from a base of 50 with five independent
// +10 bonuses.
func semanticScore(content string) float64 {
	score := 50.0
	lower := strings.ToLower(content)

	sentences := SplitSentences(content)
	if len(sentences) >= 3 && len(sentences) <= 8 {
		score += 10
	}

	words := wordSplitRe.Split(lower, -1)
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}
	if len(words) > 0 && float64(len(unique))/float64(len(words)) > 0.5 {
		score += 10
	}

	for _, term := range cryptoTerms {
		if strings.Contains(lower, term) {
			score += 10
			break
		}
	}

	for _, t := range transitionWords {
		if strings.Contains(lower, t) {
			score += 10
			break
		}
	}

	if citationRe.MatchString(content) {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}

// ExtractEntities finds crypto coins, protocols, platforms and exchanges.
// Matches keep their original casing and are deduplicated in order of first
// appearance.
func ExtractEntities(content string) []string {
	seen := make(map[string]struct{})
	var entities []string

	for _, pattern := range entityPatterns {
		for _, m := range pattern.FindAllString(content, -1) {
			if _, ok := seen[m]; !ok {
				seen[m] = struct{}{}
				entities = append(entities, m)
			}
		}
	}

	return entities
}

// ExtractKeywords returns up to ten words longer than three characters ranked
// by frequency. Ties break by order of first appearance so output is stable.
func ExtractKeywords(content string) []string {
	cleaned := nonWordRe.ReplaceAllString(strings.ToLower(content), " ")

	frequency := make(map[string]int)
	var keywords []string
	for _, w := range wordSplitRe.Split(cleaned, -1) {
		if len(w) <= 3 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if frequency[w] == 0 {
			keywords = append(keywords, w)
		}
		frequency[w]++
	}

	sort.SliceStable(keywords, func(i, j int) bool {
		return frequency[keywords[i]] > frequency[keywords[j]]
	})

	if len(keywords) > 10 {
		keywords = keywords[:10]
	}
	return keywords
}

// chunkContext returns 100-char windows from the paragraphs adjacent to the
// chunk's span.
func chunkContext(paragraphs []string, startPara, endPara int) models.ChunkContext {
	var ctx models.ChunkContext
	if startPara > 0 && startPara-1 < len(paragraphs) {
		ctx.Before = prefix(paragraphs[startPara-1], 100)
	}
	if endPara+1 < len(paragraphs) && endPara >= 0 {
		ctx.After = prefix(paragraphs[endPara+1], 100)
	}
	return ctx
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// SplitSentences splits on terminal punctuation and drops blank fragments.
func SplitSentences(content string) []string {
	var sentences []string
	for _, s := range sentenceSplitRe.Split(content, -1) {
		if strings.TrimSpace(s) != "" {
			sentences = append(sentences, strings.TrimSpace(s))
		}
	}
	return sentences
}
