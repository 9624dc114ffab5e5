package leaderboardservice

import (
	"math"
	"sort"
	"time"

	leaderboarddomain "github.com/msnews/mind-leaderboard/app/modules/leaderboard/domain"
)

// Combine merges the per-source snapshots into one leaderboard sorted by
// (AUC, MRR, nDCG@5, nDCG@10, team) descending and assigns 1-based ranks.
// A missing metric sorts below every present value. Sources that contributed
// no rows are left out of the metadata list.
func Combine(payloads []*leaderboarddomain.Snapshot, generatedAt time.Time) *leaderboarddomain.Combined {
	var rows []leaderboarddomain.Row
	var meta []leaderboarddomain.SourceMeta

	for _, p := range payloads {
		if p == nil {
			continue
		}
		if len(p.Rows) > 0 {
			meta = append(meta, leaderboarddomain.SourceMeta{
				Source:        p.Source,
				CompetitionID: p.CompetitionID,
				ResultsURL:    p.ResultsURL,
				FetchedAt:     p.FetchedAt,
			})
		}
		for _, r := range p.Rows {
			r.Source = p.Source
			r.CompetitionID = p.CompetitionID
			r.ResultsURL = p.ResultsURL
			rows = append(rows, r)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return metricKeyLess(rows[j], rows[i])
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}

	return &leaderboarddomain.Combined{
		GeneratedAt: generatedAt.UTC().Truncate(time.Second).Format(time.RFC3339),
		Sources:     meta,
		Rows:        rows,
	}
}

// metricKeyLess orders rows ascending by the metric tuple; Combine reverses
// it for the leaderboard's descending order.
func metricKeyLess(a, b leaderboarddomain.Row) bool {
	av := func(v *float64) float64 {
		if v == nil {
			return math.Inf(-1)
		}
		return *v
	}
	for _, pair := range [][2]*float64{
		{a.AUC, b.AUC},
		{a.MRR, b.MRR},
		{a.NDCG5, b.NDCG5},
		{a.NDCG10, b.NDCG10},
	} {
		if av(pair[0]) != av(pair[1]) {
			return av(pair[0]) < av(pair[1])
		}
	}
	return a.Team < b.Team
}
