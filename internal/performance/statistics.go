package performance

import (
	"context"
	"sort"
	"time"
)

// Statistics is the aggregate performance view over a timeframe.
type Statistics struct {
	Timeframe              string             `json:"timeframe"`
	TotalContent           int                `json:"totalContent"`
	TotalCitations         int                `json:"totalCitations"`
	TotalOverviews         int                `json:"totalOverviews"`
	AvgCitationsPerContent float64            `json:"avgCitationsPerContent"`
	AvgOverviewsPerContent float64            `json:"avgOverviewsPerContent"`
	AvgSemanticRelevance   float64            `json:"avgSemanticRelevance"`
	CitationsBySource      []SourceCount      `json:"citationsBySource"`
	Distribution           TierDistribution   `json:"distribution"`
	TopPerformers          []PerformerSummary `json:"topPerformers"`
}

type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// TierDistribution buckets content by citation and overview volume.
type TierDistribution struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Fair      int `json:"fair"`
	Poor      int `json:"poor"`
}

type PerformerSummary struct {
	ContentID         string  `json:"contentId"`
	URL               string  `json:"url"`
	Citations         int     `json:"citations"`
	Overviews         int     `json:"overviews"`
	SemanticRelevance float64 `json:"semanticRelevance"`
}

// GetStatistics aggregates all performance records tracked within the
// timeframe.
func (t *Tracker) GetStatistics(ctx context.Context, timeframe string) (*Statistics, error) {
	since := time.Now().AddDate(0, 0, -TimeframeDays(timeframe))

	records, err := t.store.ListPerformanceSince(ctx, since)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{Timeframe: timeframe, TotalContent: len(records)}

	sourceCounts := make(map[string]int)
	var sourceOrder []string

	for _, rec := range records {
		stats.TotalCitations += rec.Citations
		stats.TotalOverviews += rec.Overviews
		stats.AvgSemanticRelevance += rec.SemanticRelevance

		for _, s := range rec.CitationSources {
			if _, ok := sourceCounts[s.Source]; !ok {
				sourceOrder = append(sourceOrder, s.Source)
			}
			sourceCounts[s.Source] += s.Count
		}

		switch {
		case rec.Citations >= 10 || rec.Overviews >= 5:
			stats.Distribution.Excellent++
		case (rec.Citations >= 5 && rec.Citations < 10) || (rec.Overviews >= 2 && rec.Overviews < 5):
			stats.Distribution.Good++
		case (rec.Citations >= 1 && rec.Citations < 5) || rec.Overviews == 1:
			stats.Distribution.Fair++
		case rec.Citations == 0 && rec.Overviews == 0:
			stats.Distribution.Poor++
		}
	}

	if len(records) > 0 {
		n := float64(len(records))
		stats.AvgCitationsPerContent = float64(stats.TotalCitations) / n
		stats.AvgOverviewsPerContent = float64(stats.TotalOverviews) / n
		stats.AvgSemanticRelevance /= n
	}

	for _, source := range sourceOrder {
		stats.CitationsBySource = append(stats.CitationsBySource, SourceCount{
			Source: source,
			Count:  sourceCounts[source],
		})
	}
	sort.SliceStable(stats.CitationsBySource, func(i, j int) bool {
		return stats.CitationsBySource[i].Count > stats.CitationsBySource[j].Count
	})

	// Top performers rank citations plus double-weighted overviews.
	ranked := make([]PerformerSummary, 0, len(records))
	for _, rec := range records {
		ranked = append(ranked, PerformerSummary{
			ContentID:         rec.ContentID,
			URL:               rec.URL,
			Citations:         rec.Citations,
			Overviews:         rec.Overviews,
			SemanticRelevance: rec.SemanticRelevance,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Citations+ranked[i].Overviews*2 > ranked[j].Citations+ranked[j].Overviews*2
	})
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}
	stats.TopPerformers = ranked

	return stats, nil
}
