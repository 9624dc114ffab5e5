package sources

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFindColumn(t *testing.T) {
	headers := []string{"Rank", "Team Name", "AUC (Official)", "nDCG@10"}

	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{name: "exact", candidates: []string{"rank"}, want: "Rank"},
		{name: "substring", candidates: []string{"auc"}, want: "AUC (Official)"},
		{name: "team candidates", candidates: teamColumns, want: "Team Name"},
		{name: "at sign", candidates: []string{"ndcg@10", "ndcg10"}, want: "nDCG@10"},
		{name: "no match", candidates: []string{"mrr"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, findColumn(headers, tt.candidates))
		})
	}
}

func TestParseFloat(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		in   string
		want *float64
	}{
		{in: "0.6845", want: f(0.6845)},
		{in: " 0.68 (1) ", want: f(0.68)},
		{in: "1,234.5", want: f(1234.5)},
		{in: "-12", want: f(-12)},
		{in: "N/A", want: nil},
		{in: "none", want: nil},
		{in: "-", want: nil},
		{in: "", want: nil},
		{in: "no digits", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseFloat(tt.in)
			if tt.want == nil {
				require.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			require.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in     string
		wantOK bool
		want   string
	}{
		{in: "2021-10-05", wantOK: true, want: "2021-10-05"},
		{in: "2021-10-05 14:30:00", wantOK: true, want: "2021-10-05"},
		{in: "2021-10-05T14:30:00Z", wantOK: true, want: "2021-10-05"},
		{in: "Oct 5, 2021", wantOK: true, want: "2021-10-05"},
		{in: "Oct. 5, 2021", wantOK: true, want: "2021-10-05"},
		{in: "October 5, 2021", wantOK: true, want: "2021-10-05"},
		{in: "yesterday", wantOK: false},
		{in: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseDate(tt.in)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				require.Equal(t, tt.want, dateISO(got))
			}
		})
	}
}

func TestFormatDisplayDate(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{name: "october", in: time.Date(2021, 10, 5, 0, 0, 0, 0, time.UTC), want: "Oct. 05, 2021"},
		{name: "september uses Sept", in: time.Date(2020, 9, 14, 0, 0, 0, 0, time.UTC), want: "Sept. 14, 2020"},
		{name: "single digit day padded", in: time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC), want: "Jan. 03, 2022"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, formatDisplayDate(tt.in))
		})
	}
}
