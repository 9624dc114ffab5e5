package leaderboardservice

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"strings"

	leaderboarddomain "github.com/msnews/mind-leaderboard/app/modules/leaderboard/domain"
	"github.com/msnews/mind-leaderboard/app/modules/leaderboard/infrastructure/sources"
)

// Renderer is the single-shot leaderboard table renderer: fetch one document
// from an endpoint, project it, and write a complete HTML table to the
// target writer. The target is passed explicitly rather than located in any
// ambient document, and it is only written to after the response has been
// fully received and parsed. A transport or parse failure leaves it
// untouched and surfaces to the caller.
type Renderer struct {
	client *sources.Client
	logger *slog.Logger
}

// NewRenderer creates a Renderer.
func NewRenderer(client *sources.Client, logger *slog.Logger) *Renderer {
	return &Renderer{client: client, logger: logger}
}

// RenderLeaderboard fetches endpointURL, projects the document into a table
// and writes it to w. Each call writes one complete table; rendering twice
// to the same destination is a full replacement, never an accumulation.
func (r *Renderer) RenderLeaderboard(ctx context.Context, endpointURL string, w io.Writer) error {
	doc, err := sources.FetchDocument(ctx, r.client, endpointURL)
	if err != nil {
		r.logger.Error("leaderboard fetch failed", "url", endpointURL, "error", err)
		return err
	}

	table := leaderboarddomain.Project(doc)
	if err := WriteTableHTML(w, table); err != nil {
		return fmt.Errorf("failed to render leaderboard table: %w", err)
	}
	return nil
}

// WriteTableHTML writes a projected table as an HTML <table>: one <th>
// header row, one <td> row per entry, cells escaped, response order
// preserved.
func WriteTableHTML(w io.Writer, t leaderboarddomain.Table) error {
	var sb strings.Builder
	sb.WriteString("<table>\n")

	sb.WriteString("  <tr>")
	for _, h := range t.Headers {
		sb.WriteString("<th>")
		sb.WriteString(html.EscapeString(h))
		sb.WriteString("</th>")
	}
	sb.WriteString("</tr>\n")

	for _, row := range t.Rows {
		sb.WriteString("  <tr>")
		for _, cell := range row {
			sb.WriteString("<td>")
			sb.WriteString(html.EscapeString(cell))
			sb.WriteString("</td>")
		}
		sb.WriteString("</tr>\n")
	}

	sb.WriteString("</table>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
