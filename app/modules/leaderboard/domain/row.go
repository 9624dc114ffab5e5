package leaderboarddomain

// Row is one team's entry in a source leaderboard, reduced to the metrics
// the MIND competition tracks. Missing metrics are nil, not zero; zero is a
// legitimate (terrible) score.
type Row struct {
	Team        string   `json:"team"`
	AUC         *float64 `json:"auc"`
	MRR         *float64 `json:"mrr"`
	NDCG5       *float64 `json:"ndcg5"`
	NDCG10      *float64 `json:"ndcg10"`
	DateISO     *string  `json:"date_iso"`
	DateRaw     *string  `json:"date_raw,omitempty"`
	DateDisplay *string  `json:"date_display"`

	// Set when the row is merged into a combined leaderboard.
	Source        string `json:"source,omitempty"`
	CompetitionID int    `json:"competition_id,omitempty"`
	ResultsURL    string `json:"results_url,omitempty"`
	Rank          int    `json:"rank,omitempty"`
}

// Snapshot is one cached fetch of a single source, in the layout committed
// to the site repository under assets/data/leaderboard_sources/.
type Snapshot struct {
	Source        string `json:"source"`
	CompetitionID int    `json:"competition_id"`
	BaseURL       string `json:"base_url"`
	ResultsURL    string `json:"results_url"`
	ResultsID     int    `json:"results_id,omitempty"`
	PhaseID       int    `json:"phase_id,omitempty"`
	Method        string `json:"method,omitempty"`
	Note          string `json:"note,omitempty"`
	SnapshotID    string `json:"snapshot_id,omitempty"`
	FetchedAt     string `json:"fetched_at"`
	Rows          []Row  `json:"rows"`
}

// SourceMeta describes one source that contributed rows to a combined
// leaderboard.
type SourceMeta struct {
	Source        string `json:"source"`
	CompetitionID int    `json:"competition_id"`
	ResultsURL    string `json:"results_url"`
	FetchedAt     string `json:"fetched_at"`
}

// Combined is the merged, sorted, rank-annotated leaderboard consumed by
// index.html.
type Combined struct {
	GeneratedAt string       `json:"generated_at"`
	Sources     []SourceMeta `json:"sources"`
	Rows        []Row        `json:"rows"`
}
