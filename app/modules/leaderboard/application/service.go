package leaderboardservice

import (
	"log/slog"
	"regexp"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/msnews/mind-leaderboard/config"

	leaderboardmetrics "github.com/msnews/mind-leaderboard/app/modules/leaderboard/infrastructure/metrics"
	"github.com/msnews/mind-leaderboard/app/modules/leaderboard/infrastructure/sources"
	snapshotstore "github.com/msnews/mind-leaderboard/app/modules/leaderboard/infrastructure/store"
)

// Service runs the updater pipeline: load or fetch the per-source snapshots,
// combine them, and write the site artifacts.
type Service struct {
	cfg        *config.Config
	store      *snapshotstore.Store
	client     *sources.Client
	codalabOld *sources.CodaLabSource
	codalabNew *sources.CodaLabSource
	codabench  *sources.CodaBenchSource
	logger     *slog.Logger
	metrics    *leaderboardmetrics.Metrics
	tracer     trace.Tracer
	phaseRe    *regexp.Regexp
	now        func() time.Time
}

// NewService wires a Service from configuration.
func NewService(cfg *config.Config, store *snapshotstore.Store, client *sources.Client, logger *slog.Logger, metrics *leaderboardmetrics.Metrics) *Service {
	oldCfg := cfg.Sources.CodaLabOld
	newCfg := cfg.Sources.CodaLabNew
	cbCfg := cfg.Sources.CodaBench

	codabench := sources.NewCodaBenchSource("codabench", cbCfg.BaseURL, cbCfg.CompetitionID, cbCfg.ResultsURL, client)
	codabench.BearerToken = cbCfg.BearerToken
	codabench.Token = cbCfg.Token
	codabench.Cookie = cbCfg.Cookie

	phaseRe, err := regexp.Compile(cfg.PhaseRegex)
	if err != nil || cfg.PhaseRegex == "" {
		if err != nil {
			logger.Warn("invalid phase_regex; using default", "error", err)
		}
		phaseRe = regexp.MustCompile(config.DefaultPhaseRegex)
	}

	return &Service{
		cfg:        cfg,
		store:      store,
		client:     client,
		codalabOld: sources.NewCodaLabSource("codalab-old", oldCfg.BaseURL, oldCfg.CompetitionID, client),
		codalabNew: sources.NewCodaLabSource("codalab-new", newCfg.BaseURL, newCfg.CompetitionID, client),
		codabench:  codabench,
		logger:     logger,
		metrics:    metrics,
		tracer:     otel.Tracer("mind-leaderboard"),
		phaseRe:    phaseRe,
		now:        time.Now,
	}
}

// utcNow returns the service clock in the snapshot timestamp format: UTC,
// RFC3339, second precision.
func (s *Service) utcNow() string {
	return s.now().UTC().Truncate(time.Second).Format(time.RFC3339)
}
