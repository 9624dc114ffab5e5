package sources

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	leaderboarddomain "github.com/msnews/mind-leaderboard/app/modules/leaderboard/domain"
)

var (
	teamColumns   = []string{"team", "team name", "participant", "user", "username"}
	dateColumns   = []string{"date of last entry", "last entry", "submission date", "submitted", "date"}
	aucColumns    = []string{"auc"}
	mrrColumns    = []string{"mrr"}
	ndcg5Columns  = []string{"ndcg@5", "ndcg5", "ndcg 5"}
	ndcg10Columns = []string{"ndcg@10", "ndcg10", "ndcg 10"}
)

// unwrapCSV turns a results export into CSV text. CodaLab's /results/<id>/data
// endpoint sometimes serves a ZIP wrapping the CSV; in that case the first
// .csv member wins, falling back to the first member of any name. Bodies that
// are not valid UTF-8 are decoded as Latin-1.
func unwrapCSV(data []byte) (string, error) {
	if r, err := zip.NewReader(bytes.NewReader(data), int64(len(data))); err == nil {
		if len(r.File) == 0 {
			return "", fmt.Errorf("results ZIP is empty")
		}
		pick := r.File[0]
		for _, f := range r.File {
			if strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
				pick = f
				break
			}
		}
		rc, err := pick.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open ZIP member %s: %w", pick.Name, err)
		}
		defer rc.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			return "", fmt.Errorf("failed to read ZIP member %s: %w", pick.Name, err)
		}
		return decodeText(buf.Bytes()), nil
	}
	return decodeText(data), nil
}

func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	// Latin-1: each byte maps to the same code point.
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

// sniffDelimiter picks the delimiter (comma, tab or semicolon) that occurs
// most often in the header line.
func sniffDelimiter(text string) rune {
	head := text
	if i := strings.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	best, bestCount := ',', strings.Count(head, ",")
	for _, d := range []rune{'\t', ';'} {
		if n := strings.Count(head, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// ParseLeaderboardCSV parses a generic leaderboard export into rows. Column
// positions are resolved fuzzily so the parser survives the naming drift
// between CodaLab generations and CodaBench. Records without a team name are
// dropped.
func ParseLeaderboardCSV(data []byte) ([]leaderboarddomain.Row, error) {
	text, err := unwrapCSV(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sniffDelimiter(text)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := records[0]
	index := func(candidates []string) int {
		col := findColumn(headers, candidates)
		if col == "" {
			return -1
		}
		for i, h := range headers {
			if h == col {
				return i
			}
		}
		return -1
	}

	teamIdx := index(teamColumns)
	dateIdx := index(dateColumns)
	aucIdx := index(aucColumns)
	mrrIdx := index(mrrColumns)
	ndcg5Idx := index(ndcg5Columns)
	ndcg10Idx := index(ndcg10Columns)

	cell := func(record []string, i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return record[i]
	}

	rows := make([]leaderboarddomain.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		team := strings.TrimSpace(cell(record, teamIdx))
		if team == "" {
			continue
		}

		row := leaderboarddomain.Row{
			Team:   team,
			AUC:    parseFloat(cell(record, aucIdx)),
			MRR:    parseFloat(cell(record, mrrIdx)),
			NDCG5:  parseFloat(cell(record, ndcg5Idx)),
			NDCG10: parseFloat(cell(record, ndcg10Idx)),
		}

		if raw := strings.TrimSpace(cell(record, dateIdx)); raw != "" {
			row.DateRaw = &raw
			if t, ok := parseDate(raw); ok {
				iso := dateISO(t)
				display := formatDisplayDate(t)
				row.DateISO = &iso
				row.DateDisplay = &display
			} else {
				display := raw
				row.DateDisplay = &display
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
