package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// CodaBenchSource talks to the CodaBench results export endpoint. The export
// may require authentication on public competitions (it is known to 403
// anonymously); tokens come from config or environment.
type CodaBenchSource struct {
	Name          string
	BaseURL       string
	CompetitionID int
	ResultsURL    string

	// At most one of BearerToken/Token is used; Cookie rides along either way.
	BearerToken string
	Token       string
	Cookie      string

	client *Client
}

// NewCodaBenchSource creates a CodaBench source.
func NewCodaBenchSource(name, baseURL string, competitionID int, resultsURL string, client *Client) *CodaBenchSource {
	return &CodaBenchSource{
		Name:          name,
		BaseURL:       strings.TrimRight(baseURL, "/"),
		CompetitionID: competitionID,
		ResultsURL:    resultsURL,
		client:        client,
	}
}

// FetchResultsCSV downloads the results.csv export for a phase. The endpoint
// is tried under both known path spellings: the deployed route contains a
// "comptitions" typo, and the corrected spelling is kept as a fallback in
// case it is ever fixed.
func (s *CodaBenchSource) FetchResultsCSV(ctx context.Context, phaseID int) ([]byte, error) {
	headers := http.Header{}
	headers.Set("Accept", "text/csv,*/*;q=0.8")
	if s.ResultsURL != "" {
		headers.Set("Referer", s.ResultsURL)
	}
	switch {
	case s.BearerToken != "":
		headers.Set("Authorization", "Bearer "+s.BearerToken)
	case s.Token != "":
		headers.Set("Authorization", "Token "+s.Token)
	}
	if s.Cookie != "" {
		headers.Set("Cookie", s.Cookie)
	}

	var lastErr error
	for _, path := range []string{"api/comptitions", "api/competitions"} {
		url := fmt.Sprintf("%s/%s/%d/results.csv?phase=%d", s.BaseURL, path, s.CompetitionID, phaseID)
		body, err := s.client.Get(ctx, url, headers)
		if err == nil {
			return body, nil
		}
		lastErr = err

		// Only a 404 justifies trying the other spelling; a 403 means auth
		// is required and retrying the alternate path will not help.
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			continue
		}
		break
	}
	return nil, fmt.Errorf("codabench results.csv fetch failed: %w", lastErr)
}
