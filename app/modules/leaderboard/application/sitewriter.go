package leaderboardservice

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	leaderboarddomain "github.com/msnews/mind-leaderboard/app/modules/leaderboard/domain"
)

// JSGlobalName is the window global the JS output assigns, so index.html
// keeps working when opened over file:// where fetch() is unavailable.
const JSGlobalName = "MIND_LEADERBOARD"

// WriteCombinedJSON writes the combined leaderboard to path, pretty-printed
// with sorted keys and a trailing newline.
func WriteCombinedJSON(path string, combined *leaderboarddomain.Combined) error {
	data, err := leaderboarddomain.MarshalSorted(combined, "  ")
	if err != nil {
		return fmt.Errorf("failed to encode combined leaderboard: %w", err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteJSGlobal writes a script that assigns the combined payload to
// window.MIND_LEADERBOARD.
func WriteJSGlobal(path string, combined *leaderboarddomain.Combined) error {
	payload, err := leaderboarddomain.MarshalSorted(combined, "")
	if err != nil {
		return fmt.Errorf("failed to encode combined leaderboard: %w", err)
	}
	js := fmt.Sprintf("window.%s = %s;\n", JSGlobalName, payload)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(js), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// fmtMetric renders a metric to the site's 4-decimal style; missing metrics
// render empty.
func fmtMetric(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.4f", *v)
}

func rowDate(r leaderboarddomain.Row) string {
	if r.DateDisplay != nil && *r.DateDisplay != "" {
		return *r.DateDisplay
	}
	if r.DateRaw != nil {
		return *r.DateRaw
	}
	return ""
}

// RenderSiteRowsHTML renders the combined rows as the legacy index.html
// markup: alternating leaderboardline/leaderboardlinemask classes, a rank
// cell carrying the date badge, and bold metric cells.
func RenderSiteRowsHTML(rows []leaderboarddomain.Row) string {
	var out []string
	for i, r := range rows {
		class := "leaderboardline"
		if (i+1)%2 == 0 {
			class = "leaderboardlinemask"
		}
		rank := r.Rank
		if rank == 0 {
			rank = i + 1
		}

		out = append(out,
			fmt.Sprintf("                            <tr class='%s'>", class),
			"                                <td>",
			"                                    <p class=\"word-break2\">",
			fmt.Sprintf("                                        %d", rank),
			fmt.Sprintf("                                    </p><span class=\"date label label-default\">%s</span>", html.EscapeString(rowDate(r))),
			"                                </td>",
			"                                <td class=\"word-break\">",
			fmt.Sprintf("                                    %s", html.EscapeString(r.Team)),
			"                                </td>",
		)
		for _, m := range []*float64{r.AUC, r.MRR, r.NDCG5, r.NDCG10} {
			out = append(out,
				"                                <td class=\"word-break\">",
				fmt.Sprintf("                                    <b>%s</b>", fmtMetric(m)),
				"                                </td>",
			)
		}
		out = append(out, "                            </tr>")
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "\n") + "\n"
}

var siteTableHeader = strings.Join([]string{
	"                        <table class=\"table performanceTable\">",
	"                            <tr class='leaderboardhead'>",
	"                                <th>",
	"                                    Rank",
	"                                </th>",
	"                                <th>",
	"                                    Team",
	"                                </th>",
	"                                <th>",
	"                                    AUC",
	"                                </th>",
	"                                <th>",
	"                                    MRR",
	"                                </th>",
	"                                <th>",
	"                                    nDCG@5",
	"                                </th>",
	"                                <th>",
	"                                    nDCG@10",
	"                                </th>",
	"                            </tr>",
}, "\n")

var legacyScriptRe = regexp.MustCompile(`\s*<script\s+src="\./assets/data/leaderboard\.js"></script>\s*<script[\s\S]*?</script>`)

// UpdateIndexHTML splices the combined leaderboard into the site's
// index.html, replacing the performanceTable inside the leaderboard section
// and stripping the legacy injected renderer script if still present.
func UpdateIndexHTML(path string, combined *leaderboarddomain.Combined) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	page := string(raw)

	anchor := strings.Index(page, `<h1 id="leaderboard">`)
	if anchor == -1 {
		return fmt.Errorf("could not find leaderboard section in %s", path)
	}

	tableStart := strings.Index(page[anchor:], `<table class="table performanceTable"`)
	if tableStart == -1 {
		return fmt.Errorf("could not find leaderboard table in %s", path)
	}
	tableStart += anchor

	// Replace from the beginning of the line so indentation is not doubled.
	replaceStart := tableStart
	if lineStart := strings.LastIndexByte(page[:tableStart], '\n'); lineStart != -1 {
		replaceStart = lineStart + 1
	}

	tableEnd := strings.Index(page[tableStart:], "</table>")
	if tableEnd == -1 {
		return fmt.Errorf("could not find end of leaderboard table in %s", path)
	}
	tableEnd += tableStart + len("</table>")

	newTable := siteTableHeader + "\n" + RenderSiteRowsHTML(combined.Rows) + "                        </table>"
	page = page[:replaceStart] + newTable + page[tableEnd:]
	// Strip the first legacy renderer block only; any later script is not ours.
	if loc := legacyScriptRe.FindStringIndex(page); loc != nil {
		page = page[:loc[0]] + page[loc[1]:]
	}

	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
