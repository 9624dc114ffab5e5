package leaderboarddomain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeDoc(labels []string, entries ...ScoreEntry) *Document {
	doc := &Document{}
	for _, l := range labels {
		doc.Headers = append(doc.Headers, ColumnDescriptor{Label: l})
	}
	doc.Scores = make([]ScoreRecord, 0, len(entries))
	for i, e := range entries {
		doc.Scores = append(doc.Scores, ScoreRecord{ID: fmt.Sprint(i), Entry: e})
	}
	return doc
}

func values(vals ...string) []ScoreValue {
	out := make([]ScoreValue, len(vals))
	for i, v := range vals {
		out[i] = ScoreValue{Val: v}
	}
	return out
}

func TestProject_Shape(t *testing.T) {
	tests := []struct {
		name    string
		labels  []string
		entries []ScoreEntry
	}{
		{name: "no columns no rows"},
		{name: "columns no rows", labels: []string{"AUC", "MRR"}},
		{
			name:   "full grid",
			labels: []string{"AUC", "MRR", "nDCG@5"},
			entries: []ScoreEntry{
				{Username: "alice", Values: values("0.68", "0.33", "0.36")},
				{Username: "bob", Values: values("0.67", "0.32", "0.35")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := Project(makeDoc(tt.labels, tt.entries...))

			require.Len(t, table.Headers, len(tt.labels)+1)
			require.Equal(t, ParticipantHeader, table.Headers[0])
			require.Len(t, table.Rows, len(tt.entries))
			for _, row := range table.Rows {
				require.Len(t, row, len(tt.labels)+1)
			}
			require.NoError(t, table.Validate())
		})
	}
}

func TestProject_Scenario(t *testing.T) {
	doc, err := DecodeDocument([]byte(`{"headers":[{"label":"Accuracy"}],"scores":[[0,{"username":"alice","values":[{"val":"0.87"}]}]]}`))
	require.NoError(t, err)

	table := Project(doc)
	require.Equal(t, []string{"participant", "Accuracy"}, table.Headers)
	require.Equal(t, [][]string{{"alice", "0.87"}}, table.Rows)
}

func TestProject_PreservesOrder(t *testing.T) {
	doc := makeDoc([]string{"AUC"},
		ScoreEntry{Username: "zeta", Values: values("0.1")},
		ScoreEntry{Username: "alpha", Values: values("0.9")},
		ScoreEntry{Username: "mid", Values: values("0.5")},
	)

	table := Project(doc)
	require.Equal(t, "zeta", table.Rows[0][0])
	require.Equal(t, "alpha", table.Rows[1][0])
	require.Equal(t, "mid", table.Rows[2][0])
}

func TestProject_RaggedRows(t *testing.T) {
	doc := makeDoc([]string{"AUC", "MRR"},
		ScoreEntry{Username: "short", Values: values("0.68")},
		ScoreEntry{Username: "long", Values: values("0.68", "0.33", "0.99")},
	)

	table := Project(doc)
	require.Equal(t, []string{"short", "0.68", ""}, table.Rows[0])
	require.Equal(t, []string{"long", "0.68", "0.33"}, table.Rows[1])
	require.NoError(t, table.Validate())
}

func TestProjectRaw_KeepsRaggedRows(t *testing.T) {
	doc := makeDoc([]string{"AUC", "MRR"},
		ScoreEntry{Username: "short", Values: values("0.68")},
	)

	table := ProjectRaw(doc)
	require.Equal(t, []string{"short", "0.68"}, table.Rows[0])

	err := table.Validate()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, 0, verr.Row)
	require.Equal(t, 2, verr.Got)
	require.Equal(t, 3, verr.Want)
}
