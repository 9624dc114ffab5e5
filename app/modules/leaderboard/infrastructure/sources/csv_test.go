package sources

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	leaderboarddomain "github.com/msnews/mind-leaderboard/app/modules/leaderboard/domain"
)

func TestParseLeaderboardCSV(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantRows int
		check    func(t *testing.T, rows []leaderboarddomain.Row)
	}{
		{
			name: "codalab style export",
			data: "Rank,Team Name,AUC,MRR,nDCG@5,nDCG@10,Date of Last Entry\n" +
				"1,UNBERT,0.7004,0.3498,0.3867,0.4451,Oct. 13 2021\n" +
				"2,Gnod,0.6920,0.3413,0.3778,0.4369,2021-08-01\n",
			wantRows: 2,
			check: func(t *testing.T, rows []leaderboarddomain.Row) {
				require.Equal(t, "UNBERT", rows[0].Team)
				require.NotNil(t, rows[0].AUC)
				require.InDelta(t, 0.7004, *rows[0].AUC, 1e-9)
				require.NotNil(t, rows[1].DateISO)
				require.Equal(t, "2021-08-01", *rows[1].DateISO)
				require.Equal(t, "Aug. 01, 2021", *rows[1].DateDisplay)
			},
		},
		{
			name:     "tab separated",
			data:     "Team\tAUC\tMRR\nalpha\t0.68\t0.33\n",
			wantRows: 1,
			check: func(t *testing.T, rows []leaderboarddomain.Row) {
				require.Equal(t, "alpha", rows[0].Team)
				require.NotNil(t, rows[0].MRR)
				require.InDelta(t, 0.33, *rows[0].MRR, 1e-9)
			},
		},
		{
			name:     "semicolon separated",
			data:     "Team;AUC\nbeta;0.65\n",
			wantRows: 1,
			check: func(t *testing.T, rows []leaderboarddomain.Row) {
				require.Equal(t, "beta", rows[0].Team)
			},
		},
		{
			name: "rows without a team are dropped",
			data: "Team,AUC\n,0.6\ngamma,0.7\n",
			wantRows: 1,
			check: func(t *testing.T, rows []leaderboarddomain.Row) {
				require.Equal(t, "gamma", rows[0].Team)
			},
		},
		{
			name:     "NA metrics are nil",
			data:     "Team,AUC,MRR\ndelta,N/A,-\n",
			wantRows: 1,
			check: func(t *testing.T, rows []leaderboarddomain.Row) {
				require.Nil(t, rows[0].AUC)
				require.Nil(t, rows[0].MRR)
			},
		},
		{
			name:     "header only",
			data:     "Team,AUC\n",
			wantRows: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ParseLeaderboardCSV([]byte(tt.data))
			require.NoError(t, err)
			require.Len(t, rows, tt.wantRows)
			if tt.check != nil {
				tt.check(t, rows)
			}
		})
	}
}

func TestParseLeaderboardCSV_Zip(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	readme, err := zw.Create("README.txt")
	require.NoError(t, err)
	_, err = readme.Write([]byte("not the data"))
	require.NoError(t, err)

	csvFile, err := zw.Create("results.csv")
	require.NoError(t, err)
	_, err = csvFile.Write([]byte("Team,AUC\nzipped,0.69\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	rows, err := ParseLeaderboardCSV(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "zipped", rows[0].Team)
}

func TestSniffDelimiter(t *testing.T) {
	require.Equal(t, ',', sniffDelimiter("a,b,c\n1,2,3"))
	require.Equal(t, '\t', sniffDelimiter("a\tb\tc\n"))
	require.Equal(t, ';', sniffDelimiter("a;b;c"))
	require.Equal(t, ',', sniffDelimiter("single"))
}

func TestDecodeText_Latin1Fallback(t *testing.T) {
	// 0xE9 is "é" in Latin-1 and invalid on its own in UTF-8.
	got := decodeText([]byte{'c', 'a', 'f', 0xE9})
	require.Equal(t, "café", got)
}
