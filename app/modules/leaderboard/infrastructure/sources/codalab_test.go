package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	leaderboarddomain "github.com/msnews/mind-leaderboard/app/modules/leaderboard/domain"
)

func testClient() *Client {
	return NewClient(WithRateLimit(1000, 1000))
}

func TestCodaLabSource_FetchPhases(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantIDs []int
		wantErr bool
	}{
		{
			name: "bare list on singular path",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/competition/24122/phases/" {
					http.NotFound(w, r)
					return
				}
				w.Write([]byte(`[{"id":1,"label":"Dev"},{"id":2,"label":"Official Test"}]`))
			},
			wantIDs: []int{1, 2},
		},
		{
			name: "wrapped results on plural path",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/competitions/24122/phases/" {
					http.NotFound(w, r)
					return
				}
				w.Write([]byte(`{"results":[{"pk":40019,"name":"Official"}]}`))
			},
			wantIDs: []int{40019},
		},
		{
			name: "phases wrapper",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"phases":[{"phase_id":7,"title":"Final"}]}`))
			},
			wantIDs: []int{7},
		},
		{
			name: "both paths fail",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			src := NewCodaLabSource("codalab", srv.URL, 24122, testClient())
			phases, err := src.FetchPhases(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, phases, len(tt.wantIDs))
			for i, want := range tt.wantIDs {
				require.Equal(t, want, phases[i].EffectiveID())
			}
		})
	}
}

func TestPickPhase(t *testing.T) {
	re := regexp.MustCompile(`(?i)official\s*test|official`)
	phases := []Phase{
		{ID: 1, Label: "Dev"},
		{ID: 2, Label: "Official Test"},
		{ID: 3, Label: "Post-competition"},
	}

	picked, ok := PickPhase(phases, re)
	require.True(t, ok)
	require.Equal(t, 2, picked.ID)

	// No label matches: fall back to the last phase.
	picked, ok = PickPhase([]Phase{{ID: 1, Label: "Dev"}, {ID: 2, Label: "Warmup"}}, re)
	require.True(t, ok)
	require.Equal(t, 2, picked.ID)

	_, ok = PickPhase(nil, re)
	require.False(t, ok)
}

func TestCodaLabSource_FetchLeaderboard_PathFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only the plural spelling is served; the singular one 404s and the
		// source falls through to the alternate path.
		if r.URL.Path != "/api/competitions/420/phases/563/leaderboard/data" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"headers":[{"label":"AUC"}],"scores":[[1,{"username":"alice","values":[{"val":"0.68"}]}]]}`))
	}))
	defer srv.Close()

	src := NewCodaLabSource("codalab-new", srv.URL, 420, testClient())
	doc, err := src.FetchLeaderboard(context.Background(), 563)
	require.NoError(t, err)
	require.Equal(t, "AUC", doc.Headers[0].Label)
	require.Equal(t, "alice", doc.Scores[0].Entry.Username)
}

func TestCodaLabSource_FetchResultsCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/competitions/24122/results/40019/data", r.URL.Path)
		w.Write([]byte("Team,AUC\nUNBERT,0.7004\n"))
	}))
	defer srv.Close()

	src := NewCodaLabSource("codalab", srv.URL, 24122, testClient())
	body, err := src.FetchResultsCSV(context.Background(), 40019)
	require.NoError(t, err)

	rows, err := ParseLeaderboardCSV(body)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "UNBERT", rows[0].Team)
}

func TestFetchDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"headers":[{"label":"Accuracy"}],"scores":[]}`))
	}))
	defer srv.Close()

	doc, err := FetchDocument(context.Background(), testClient(), srv.URL+"/data")
	require.NoError(t, err)
	require.Equal(t, "Accuracy", doc.Headers[0].Label)
}

func TestFetchDocument_BadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>login required</html>"))
	}))
	defer srv.Close()

	_, err := FetchDocument(context.Background(), testClient(), srv.URL+"/data")
	require.Error(t, err)
	var parseErr *leaderboarddomain.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestExtractRows(t *testing.T) {
	doc, err := leaderboarddomain.DecodeDocument([]byte(`{
		"headers":[{"label":"Rank"},{"label":"AUC (test)"},{"label":"MRR"},{"label":"nDCG@5"},{"label":"nDCG@10"}],
		"scores":[
			[1,{"team_name":"UNBERT","date":"2021-10-05","values":[{"val":"1"},{"val":"0.7004"},{"val":"0.3498"},{"val":"0.3867"},{"val":"0.4451"}]}],
			[2,{"username":"gnod","values":[{"val":"2"},{"val":"0.6920"},{"val":"N/A"},{"val":"0.3778"},{"val":"0.4369"}]}],
			[3,{"username":"  ","values":[{"val":"3"}]}]
		]}`))
	require.NoError(t, err)

	rows := ExtractRows(doc)
	require.Len(t, rows, 2)

	require.Equal(t, "UNBERT", rows[0].Team)
	require.NotNil(t, rows[0].AUC)
	require.InDelta(t, 0.7004, *rows[0].AUC, 1e-9)
	require.NotNil(t, rows[0].DateISO)
	require.Equal(t, "2021-10-05", *rows[0].DateISO)
	require.Equal(t, "Oct. 05, 2021", *rows[0].DateDisplay)

	require.Equal(t, "gnod", rows[1].Team)
	require.Nil(t, rows[1].MRR)
	require.NotNil(t, rows[1].NDCG10)
	require.InDelta(t, 0.4369, *rows[1].NDCG10, 1e-9)
	require.Nil(t, rows[1].DateISO)
}
