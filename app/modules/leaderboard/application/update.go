package leaderboardservice

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/msnews/mind-leaderboard/config"

	leaderboarddomain "github.com/msnews/mind-leaderboard/app/modules/leaderboard/domain"
	"github.com/msnews/mind-leaderboard/app/modules/leaderboard/infrastructure/sources"
	snapshotstore "github.com/msnews/mind-leaderboard/app/modules/leaderboard/infrastructure/store"
)

// UpdateOptions control one update pass. The zero value is cache-first for
// every source.
type UpdateOptions struct {
	RefreshCodaLabOld bool
	RefreshCodaLabNew bool
	RefreshCodaBench  bool

	// Local CSV paths bypass the network for the CodaLab sources (useful on
	// networks where the legacy instance's TLS is unreachable).
	CodaLabOldCSV string
	CodaLabNewCSV string

	// Overrides the configured CodaBench phase when non-zero.
	CodaBenchPhaseID int
}

// Update runs one full pass: resolve every source snapshot (cache-first),
// combine, and return the merged leaderboard. The two CodaLab sources are
// best-effort: they are frozen archives and a miss only costs their rows.
// CodaBench is the one live source, so its failure fails the pass.
func (s *Service) Update(ctx context.Context, opts UpdateOptions) (*leaderboarddomain.Combined, error) {
	ctx, span := s.tracer.Start(ctx, "leaderboard.update")
	defer span.End()

	var payloads []*leaderboarddomain.Snapshot

	oldSnap, err := s.resolveCodaLab(ctx, s.codalabOld, s.cfg.Sources.CodaLabOld, opts.RefreshCodaLabOld, opts.CodaLabOldCSV)
	if err != nil {
		s.logger.Warn("codalab-old unavailable", "error", err)
	} else {
		payloads = append(payloads, oldSnap)
	}

	newSnap, err := s.resolveCodaLab(ctx, s.codalabNew, s.cfg.Sources.CodaLabNew, opts.RefreshCodaLabNew, opts.CodaLabNewCSV)
	if err != nil {
		s.logger.Warn("codalab-new unavailable", "error", err)
	} else {
		payloads = append(payloads, newSnap)
	}

	cbSnap, err := s.resolveCodaBench(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("codabench unavailable: %w", err)
	}
	payloads = append(payloads, cbSnap)

	combined := Combine(payloads, s.now())
	s.metrics.CombinedRows.Set(float64(len(combined.Rows)))
	s.metrics.UpdatesTotal.Inc()
	s.logger.Info("combined leaderboard built", "sources", len(combined.Sources), "rows", len(combined.Rows))
	return combined, nil
}

func (s *Service) snapshotName(src *sources.CodaLabSource) string {
	return fmt.Sprintf("%s_%d_official-test", src.Name, src.CompetitionID)
}

func (s *Service) resolveCodaLab(ctx context.Context, src *sources.CodaLabSource, cfg config.CodaLabConfig, refresh bool, localCSV string) (*leaderboarddomain.Snapshot, error) {
	name := s.snapshotName(src)

	if localCSV != "" {
		data, err := os.ReadFile(localCSV)
		if err != nil {
			return nil, fmt.Errorf("failed to read local CSV: %w", err)
		}
		rows, err := sources.ParseLeaderboardCSV(data)
		if err != nil {
			return nil, err
		}
		snap := &leaderboarddomain.Snapshot{
			Source:        src.Name,
			CompetitionID: src.CompetitionID,
			BaseURL:       src.BaseURL,
			ResultsURL:    cfg.ResultsURL,
			Note:          fmt.Sprintf("Loaded from local CSV: %s", localCSV),
			SnapshotID:    uuid.NewString(),
			FetchedAt:     s.utcNow(),
			Rows:          rows,
		}
		if err := s.store.Save(name, snap); err != nil {
			return nil, err
		}
		return snap, nil
	}

	return s.store.LoadOrFetch(ctx, name, refresh, func(ctx context.Context) (*leaderboarddomain.Snapshot, error) {
		rows, err := s.fetchCodaLabRows(ctx, src, cfg.ResultsID)
		if err != nil {
			return nil, err
		}
		return &leaderboarddomain.Snapshot{
			Source:        src.Name,
			CompetitionID: src.CompetitionID,
			BaseURL:       src.BaseURL,
			ResultsURL:    cfg.ResultsURL,
			ResultsID:     cfg.ResultsID,
			SnapshotID:    uuid.NewString(),
			FetchedAt:     s.utcNow(),
			Rows:          rows,
		}, nil
	})
}

func (s *Service) fetchCodaLabRows(ctx context.Context, src *sources.CodaLabSource, resultsID int) ([]leaderboarddomain.Row, error) {
	s.metrics.FetchAttempts.WithLabelValues(src.Name).Inc()
	start := time.Now()
	rows, err := s.codaLabRows(ctx, src, resultsID)
	s.metrics.FetchDuration.WithLabelValues(src.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.FetchFailures.WithLabelValues(src.Name).Inc()
		return nil, err
	}
	return rows, nil
}

// codaLabRows downloads the frozen results export, falling back to the live
// leaderboard JSON API (phases list, phase matching the configured regex,
// leaderboard/data) when the export is unavailable.
func (s *Service) codaLabRows(ctx context.Context, src *sources.CodaLabSource, resultsID int) ([]leaderboarddomain.Row, error) {
	data, csvErr := src.FetchResultsCSV(ctx, resultsID)
	if csvErr == nil {
		return sources.ParseLeaderboardCSV(data)
	}

	phases, err := src.FetchPhases(ctx)
	if err != nil {
		return nil, fmt.Errorf("results export failed (%v); phases fallback failed: %w", csvErr, err)
	}
	phase, ok := sources.PickPhase(phases, s.phaseRe)
	if !ok {
		return nil, fmt.Errorf("results export failed (%v); competition lists no phases", csvErr)
	}
	doc, err := src.FetchLeaderboard(ctx, phase.EffectiveID())
	if err != nil {
		return nil, fmt.Errorf("results export failed (%v); leaderboard fallback failed: %w", csvErr, err)
	}
	s.logger.Info("results export unavailable; used leaderboard API", "source", src.Name, "phase", phase.EffectiveID())
	return sources.ExtractRows(doc), nil
}

func (s *Service) resolveCodaBench(ctx context.Context, opts UpdateOptions) (*leaderboarddomain.Snapshot, error) {
	cfg := s.cfg.Sources.CodaBench
	phaseID := cfg.PhaseID
	if opts.CodaBenchPhaseID != 0 {
		phaseID = opts.CodaBenchPhaseID
	}
	name := fmt.Sprintf("codabench_%d.csv-export", cfg.CompetitionID)

	snap, err := s.store.LoadOrFetch(ctx, name, opts.RefreshCodaBench, func(ctx context.Context) (*leaderboarddomain.Snapshot, error) {
		s.metrics.FetchAttempts.WithLabelValues(s.codabench.Name).Inc()
		start := time.Now()
		data, err := s.codabench.FetchResultsCSV(ctx, phaseID)
		s.metrics.FetchDuration.WithLabelValues(s.codabench.Name).Observe(time.Since(start).Seconds())
		if err != nil {
			s.metrics.FetchFailures.WithLabelValues(s.codabench.Name).Inc()
			return nil, err
		}
		rows, err := sources.ParseLeaderboardCSV(data)
		if err != nil {
			return nil, err
		}
		return &leaderboarddomain.Snapshot{
			Source:        s.codabench.Name,
			CompetitionID: cfg.CompetitionID,
			BaseURL:       cfg.BaseURL,
			ResultsURL:    cfg.ResultsURL,
			PhaseID:       phaseID,
			Method:        "csv",
			SnapshotID:    uuid.NewString(),
			FetchedAt:     s.utcNow(),
			Rows:          rows,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	if snapshotstore.IsPlaceholder(snap) {
		s.logger.Warn("codabench snapshot is placeholder/empty", "snapshot", name)
	}
	return snap, nil
}
