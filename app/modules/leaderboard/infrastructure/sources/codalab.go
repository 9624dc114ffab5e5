package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	leaderboarddomain "github.com/msnews/mind-leaderboard/app/modules/leaderboard/domain"
)

// CodaLabSource talks to one CodaLab instance. The two instances hosting the
// MIND competition differ slightly in API paths, so every endpoint is tried
// under both /api/competition/ and /api/competitions/.
type CodaLabSource struct {
	Name          string
	BaseURL       string
	CompetitionID int

	client *Client
}

// NewCodaLabSource creates a source for one CodaLab competition.
func NewCodaLabSource(name, baseURL string, competitionID int, client *Client) *CodaLabSource {
	return &CodaLabSource{
		Name:          name,
		BaseURL:       strings.TrimRight(baseURL, "/"),
		CompetitionID: competitionID,
		client:        client,
	}
}

// Phase is one competition phase as returned by the phases API. Field names
// vary across CodaLab versions, so several aliases are kept.
type Phase struct {
	ID          int    `json:"id"`
	PK          int    `json:"pk"`
	PhaseID     int    `json:"phase_id"`
	Label       string `json:"label"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// EffectiveID returns the first populated id field.
func (p Phase) EffectiveID() int {
	for _, id := range []int{p.ID, p.PK, p.PhaseID} {
		if id != 0 {
			return id
		}
	}
	return 0
}

// FetchPhases lists the competition's phases.
func (s *CodaLabSource) FetchPhases(ctx context.Context) ([]Phase, error) {
	var lastErr error
	for _, path := range []string{"api/competition", "api/competitions"} {
		url := fmt.Sprintf("%s/%s/%d/phases/", s.BaseURL, path, s.CompetitionID)
		body, err := s.client.Get(ctx, url, nil)
		if err != nil {
			lastErr = err
			continue
		}

		// Either a bare list or an object with a results/phases list.
		var list []Phase
		if err := json.Unmarshal(body, &list); err == nil {
			return list, nil
		}
		var wrapped struct {
			Results []Phase `json:"results"`
			Phases  []Phase `json:"phases"`
		}
		if err := json.Unmarshal(body, &wrapped); err == nil {
			if len(wrapped.Results) > 0 {
				return wrapped.Results, nil
			}
			if len(wrapped.Phases) > 0 {
				return wrapped.Phases, nil
			}
		}
		lastErr = fmt.Errorf("unrecognized phases payload from %s", url)
	}
	return nil, fmt.Errorf("failed to fetch phases for competition %d: %w", s.CompetitionID, lastErr)
}

// PickPhase selects the phase whose label matches re, falling back to the
// last phase, which is conventionally the official/final one.
func PickPhase(phases []Phase, re *regexp.Regexp) (Phase, bool) {
	for _, p := range phases {
		name := strings.TrimSpace(strings.Join([]string{p.Label, p.Name, p.Title, p.Description}, " "))
		if re.MatchString(name) {
			return p, true
		}
	}
	if len(phases) == 0 {
		return Phase{}, false
	}
	return phases[len(phases)-1], true
}

// FetchLeaderboard retrieves the leaderboard/data document for a phase.
func (s *CodaLabSource) FetchLeaderboard(ctx context.Context, phaseID int) (*leaderboarddomain.Document, error) {
	var lastErr error
	for _, path := range []string{"api/competition", "api/competitions"} {
		url := fmt.Sprintf("%s/%s/%d/phases/%d/leaderboard/data", s.BaseURL, path, s.CompetitionID, phaseID)
		body, err := s.client.Get(ctx, url, nil)
		if err != nil {
			lastErr = err
			continue
		}
		doc, err := leaderboarddomain.DecodeDocument(body)
		if err != nil {
			lastErr = err
			continue
		}
		return doc, nil
	}
	return nil, fmt.Errorf("failed to fetch leaderboard data: %w", lastErr)
}

// FetchDocument retrieves and decodes a leaderboard document from an
// explicit endpoint URL. This is the single-shot render path: one GET, one
// decode, no retries and no fallbacks.
func FetchDocument(ctx context.Context, client *Client, endpointURL string) (*leaderboarddomain.Document, error) {
	body, err := client.Get(ctx, endpointURL, nil)
	if err != nil {
		return nil, err
	}
	return leaderboarddomain.DecodeDocument(body)
}

// FetchResultsCSV downloads the frozen results export
// (/competitions/<id>/results/<resultsID>/data). The body may be raw CSV or
// a ZIP; callers hand it to ParseLeaderboardCSV either way.
func (s *CodaLabSource) FetchResultsCSV(ctx context.Context, resultsID int) ([]byte, error) {
	url := fmt.Sprintf("%s/competitions/%d/results/%d/data", s.BaseURL, s.CompetitionID, resultsID)
	return s.client.Get(ctx, url, nil)
}

// ExtractRows reduces a leaderboard document to metric rows. Metric columns
// are located by fuzzy label match; value cells are read as {"val": ...}.
// Entries without any team identity are dropped.
func ExtractRows(doc *leaderboarddomain.Document) []leaderboarddomain.Row {
	labels := make([]string, len(doc.Headers))
	for i, h := range doc.Headers {
		labels[i] = h.Label
	}

	idx := func(candidates []string) int {
		col := findColumn(labels, candidates)
		if col == "" {
			return -1
		}
		for i, l := range labels {
			if l == col {
				return i
			}
		}
		return -1
	}

	aucIdx := idx(aucColumns)
	mrrIdx := idx(mrrColumns)
	ndcg5Idx := idx(ndcg5Columns)
	ndcg10Idx := idx(ndcg10Columns)

	valAt := func(values []leaderboarddomain.ScoreValue, i int) *float64 {
		if i < 0 || i >= len(values) {
			return nil
		}
		return parseFloat(values[i].Val)
	}

	rows := make([]leaderboarddomain.Row, 0, len(doc.Scores))
	for _, rec := range doc.Scores {
		team := strings.TrimSpace(rec.Entry.Participant())
		if team == "" {
			continue
		}

		row := leaderboarddomain.Row{
			Team:   team,
			AUC:    valAt(rec.Entry.Values, aucIdx),
			MRR:    valAt(rec.Entry.Values, mrrIdx),
			NDCG5:  valAt(rec.Entry.Values, ndcg5Idx),
			NDCG10: valAt(rec.Entry.Values, ndcg10Idx),
		}
		if t, ok := parseDate(rec.Entry.SubmissionTime()); ok {
			iso := dateISO(t)
			display := formatDisplayDate(t)
			row.DateISO = &iso
			row.DateDisplay = &display
		}
		rows = append(rows, row)
	}
	return rows
}
