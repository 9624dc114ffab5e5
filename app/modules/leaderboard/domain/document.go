package leaderboarddomain

import (
	"encoding/json"
	"fmt"
)

// ColumnDescriptor is the metadata for one leaderboard column as returned by
// the CodaLab leaderboard/data API. Only the label is consumed; other fields
// in the upstream payload are ignored.
type ColumnDescriptor struct {
	Label string `json:"label"`
}

// ScoreValue is one metric cell in a score entry. Upstream encodes it as
// {"val": ...} where val may be a JSON string or a number.
type ScoreValue struct {
	Val string
}

// UnmarshalJSON accepts both {"val":"0.68"} and {"val":0.68}, and a bare
// scalar as a fallback for older payloads.
func (v *ScoreValue) UnmarshalJSON(data []byte) error {
	var obj struct {
		Val json.RawMessage `json:"val"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && obj.Val != nil {
		v.Val = scalarToString(obj.Val)
		return nil
	}
	v.Val = scalarToString(data)
	return nil
}

func scalarToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// ScoreEntry is one participant's entry in the scores list.
type ScoreEntry struct {
	Username       string       `json:"username"`
	TeamName       string       `json:"team_name"`
	UserName       string       `json:"user_name"`
	Team           string       `json:"team"`
	SubmittedAt    string       `json:"submitted_at"`
	SubmissionDate string       `json:"submission_date"`
	Date           string       `json:"date"`
	Values         []ScoreValue `json:"values"`
}

// Participant returns the display identity for the entry, preferring the
// team-style fields the way the upstream UI does.
func (e ScoreEntry) Participant() string {
	for _, s := range []string{e.TeamName, e.Team, e.Username, e.UserName} {
		if s != "" {
			return s
		}
	}
	return ""
}

// SubmissionTime returns the first populated date-ish field, unparsed.
func (e ScoreEntry) SubmissionTime() string {
	for _, s := range []string{e.SubmittedAt, e.SubmissionDate, e.Date} {
		if s != "" {
			return s
		}
	}
	return ""
}

// ScoreRecord is one element of the document's scores array. Upstream shape
// is a two-element array [id, entry]; some deployments return the entry
// object directly.
type ScoreRecord struct {
	ID    string
	Entry ScoreEntry
}

// UnmarshalJSON handles both the [id, entry] pair and a bare entry object.
func (r *ScoreRecord) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) < 2 {
			return fmt.Errorf("score record has %d elements, want 2", len(pair))
		}
		r.ID = scalarToString(pair[0])
		return json.Unmarshal(pair[1], &r.Entry)
	}
	return json.Unmarshal(data, &r.Entry)
}

// Document is one snapshot of a remote leaderboard, as served by the CodaLab
// leaderboard/data endpoint.
type Document struct {
	Headers []ColumnDescriptor
	Scores  []ScoreRecord
}

// DecodeDocument parses a leaderboard response body. A body that is not
// JSON, or that lacks the headers or scores lists, fails with a *ParseError;
// nothing is salvaged from a partially valid document.
func DecodeDocument(data []byte) (*Document, error) {
	var raw struct {
		Headers *[]ColumnDescriptor `json:"headers"`
		Scores  *[]ScoreRecord      `json:"scores"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Field: "body", Reason: err.Error()}
	}
	if raw.Headers == nil {
		return nil, &ParseError{Field: "headers", Reason: "missing or null"}
	}
	if raw.Scores == nil {
		return nil, &ParseError{Field: "scores", Reason: "missing or null"}
	}
	return &Document{Headers: *raw.Headers, Scores: *raw.Scores}, nil
}
