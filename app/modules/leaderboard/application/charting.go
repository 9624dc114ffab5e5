package leaderboardservice

import (
	"bytes"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	leaderboarddomain "github.com/msnews/mind-leaderboard/app/modules/leaderboard/domain"
)

// DefaultChartTopN bounds the bar chart to the leading teams so labels stay
// legible.
const DefaultChartTopN = 20

// GenerateAUCChart produces a PNG bar chart of the top-N teams by AUC from
// an already-sorted combined leaderboard. Rows without an AUC are skipped.
func GenerateAUCChart(combined *leaderboarddomain.Combined, topN int) ([]byte, error) {
	if topN <= 0 {
		topN = DefaultChartTopN
	}

	var bars []chart.Value
	for _, r := range combined.Rows {
		if r.AUC == nil {
			continue
		}
		bars = append(bars, chart.Value{Label: r.Team, Value: *r.AUC})
		if len(bars) == topN {
			break
		}
	}
	if len(bars) == 0 {
		return renderNoDataPlaceholder()
	}

	graph := chart.BarChart{
		Title:    "MIND Leaderboard AUC",
		Width:    1024,
		Height:   512,
		BarWidth: 30,
		XAxis: chart.Style{
			TextRotationDegrees: 45,
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func renderNoDataPlaceholder() ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No leaderboard rows"
	)

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, chartDefaults chart.Style) {
				r.SetFontColor(drawing.ColorBlack)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
