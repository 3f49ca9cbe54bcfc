package performance

import (
	"context"
	"regexp"
	"sort"
	"time"
)

// RetrievalPattern aggregates retrieval behavior for one content type over a
// timeframe.
type RetrievalPattern struct {
	ContentType   string   `json:"contentType"`
	StructureType string   `json:"structureType"`
	RetrievalRate float64  `json:"retrievalRate"`
	AvgPosition   float64  `json:"avgPosition"`
	TopQueries    []string `json:"topQueries"`
}

var queryContextRe = regexp.MustCompile(`(?i)query[:\s]+["']([^"']+)["']`)

// TimeframeDays maps the public timeframe labels to day counts. Unknown
// labels default to a month.
func TimeframeDays(timeframe string) int {
	switch timeframe {
	case "day":
		return 1
	case "week":
		return 7
	default:
		return 30
	}
}

// AnalyzeRetrievalPatterns groups recent performance records by content type
// and derives retrieval rate, average overview position and the queries that
// led to citations. Results sort by retrieval rate descending.
func (t *Tracker) AnalyzeRetrievalPatterns(ctx context.Context, timeframe string) ([]RetrievalPattern, error) {
	since := time.Now().AddDate(0, 0, -TimeframeDays(timeframe))

	records, err := t.store.ListPerformanceSince(ctx, since)
	if err != nil {
		return nil, err
	}

	type patternData struct {
		totalRetrievals int
		totalContent    int
		positions       []int
		queries         []string
		querySeen       map[string]struct{}
	}

	grouped := make(map[string]*patternData)
	var order []string

	for _, rec := range records {
		data, ok := grouped[rec.ContentType]
		if !ok {
			data = &patternData{querySeen: make(map[string]struct{})}
			grouped[rec.ContentType] = data
			order = append(order, rec.ContentType)
		}

		data.totalRetrievals += rec.Citations + rec.Overviews
		data.totalContent++

		for _, ctx := range rec.CitationContexts {
			if m := queryContextRe.FindStringSubmatch(ctx); m != nil {
				if _, seen := data.querySeen[m[1]]; !seen {
					data.querySeen[m[1]] = struct{}{}
					data.queries = append(data.queries, m[1])
				}
			}
		}

		for _, ev := range rec.OverviewEvents {
			if ev.Position != nil && *ev.Position > 0 {
				data.positions = append(data.positions, *ev.Position)
			}
		}
	}

	patterns := make([]RetrievalPattern, 0, len(grouped))
	for _, contentType := range order {
		data := grouped[contentType]

		avgPosition := 0.0
		if len(data.positions) > 0 {
			sum := 0
			for _, p := range data.positions {
				sum += p
			}
			avgPosition = float64(sum) / float64(len(data.positions))
		}

		queries := data.queries
		if len(queries) > 10 {
			queries = queries[:10]
		}

		total := data.totalContent
		if total == 0 {
			total = 1
		}

		patterns = append(patterns, RetrievalPattern{
			ContentType:   contentType,
			StructureType: "semantic",
			RetrievalRate: float64(data.totalRetrievals) / float64(total),
			AvgPosition:   avgPosition,
			TopQueries:    queries,
		})
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].RetrievalRate > patterns[j].RetrievalRate
	})

	return patterns, nil
}
