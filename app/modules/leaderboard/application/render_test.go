package leaderboardservice

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	leaderboarddomain "github.com/msnews/mind-leaderboard/app/modules/leaderboard/domain"
	"github.com/msnews/mind-leaderboard/app/modules/leaderboard/infrastructure/sources"
)

func testRenderer() *Renderer {
	client := sources.NewClient(sources.WithRateLimit(1000, 1000))
	return NewRenderer(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRenderLeaderboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"headers":[{"label":"Accuracy"}],"scores":[[0,{"username":"alice","values":[{"val":"0.87"}]}]]}`))
	}))
	defer srv.Close()

	var sb strings.Builder
	err := testRenderer().RenderLeaderboard(context.Background(), srv.URL, &sb)
	require.NoError(t, err)

	want := "<table>\n" +
		"  <tr><th>participant</th><th>Accuracy</th></tr>\n" +
		"  <tr><td>alice</td><td>0.87</td></tr>\n" +
		"</table>\n"
	require.Equal(t, want, sb.String())
}

func TestRenderLeaderboard_SecondRenderReplaces(t *testing.T) {
	bodies := []string{
		`{"headers":[{"label":"AUC"}],"scores":[[0,{"username":"alice","values":[{"val":"0.68"}]}],[1,{"username":"bob","values":[{"val":"0.67"}]}]]}`,
		`{"headers":[{"label":"AUC"}],"scores":[[0,{"username":"carol","values":[{"val":"0.71"}]}]]}`,
	}
	var call int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(bodies[call]))
		call++
	}))
	defer srv.Close()

	renderer := testRenderer()

	var first strings.Builder
	require.NoError(t, renderer.RenderLeaderboard(context.Background(), srv.URL, &first))
	require.Contains(t, first.String(), "alice")
	require.Contains(t, first.String(), "bob")

	// Each render produces one complete table; the caller replaces the old
	// content with the new output rather than appending to it.
	var second strings.Builder
	require.NoError(t, renderer.RenderLeaderboard(context.Background(), srv.URL, &second))
	require.Contains(t, second.String(), "carol")
	require.NotContains(t, second.String(), "alice")
	require.Equal(t, 1, strings.Count(second.String(), "<table>"))
}

func TestRenderLeaderboard_TransportFailureLeavesWriterUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var sb strings.Builder
	err := testRenderer().RenderLeaderboard(context.Background(), srv.URL, &sb)
	require.Error(t, err)
	require.Empty(t, sb.String())

	var se *sources.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusInternalServerError, se.Code)
}

func TestRenderLeaderboard_ParseFailureLeavesWriterUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"scores":[]}`))
	}))
	defer srv.Close()

	var sb strings.Builder
	err := testRenderer().RenderLeaderboard(context.Background(), srv.URL, &sb)
	require.Error(t, err)
	require.Empty(t, sb.String())

	var parseErr *leaderboarddomain.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "headers", parseErr.Field)
}

func TestWriteTableHTML_EscapesCells(t *testing.T) {
	table := leaderboarddomain.Table{
		Headers: []string{"participant", `<b>AUC</b>`},
		Rows:    [][]string{{`a&b`, `"0.5"`}},
	}

	var sb strings.Builder
	require.NoError(t, WriteTableHTML(&sb, table))
	out := sb.String()
	require.Contains(t, out, "&lt;b&gt;AUC&lt;/b&gt;")
	require.Contains(t, out, "a&amp;b")
	require.NotContains(t, out, "<b>")
}

func TestWriteTableHTML_EmptyTable(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, WriteTableHTML(&sb, leaderboarddomain.Table{Headers: []string{"participant"}}))
	require.Equal(t, "<table>\n  <tr><th>participant</th></tr>\n</table>\n", sb.String())
}
