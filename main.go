package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/msnews/mind-leaderboard/config"

	leaderboardservice "github.com/msnews/mind-leaderboard/app/modules/leaderboard/application"
	leaderboarddomain "github.com/msnews/mind-leaderboard/app/modules/leaderboard/domain"
	leaderboardhandlers "github.com/msnews/mind-leaderboard/app/modules/leaderboard/infrastructure/handlers"
	leaderboardmetrics "github.com/msnews/mind-leaderboard/app/modules/leaderboard/infrastructure/metrics"
	"github.com/msnews/mind-leaderboard/app/modules/leaderboard/infrastructure/sources"
	snapshotstore "github.com/msnews/mind-leaderboard/app/modules/leaderboard/infrastructure/store"
)

func main() {
	app := &cli.App{
		Name:  "mind-leaderboard",
		Usage: "MIND competition leaderboard updater for msnews.github.io",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to the configuration file"},
		},
		Commands: []*cli.Command{
			updateCommand(),
			serveCommand(),
			exportCommand(),
			renderCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type runtimeDeps struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	client   *sources.Client
	store    *snapshotstore.Store
	service  *leaderboardservice.Service
}

func buildDeps(c *cli.Context) (*runtimeDeps, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if c.IsSet("cache-dir") {
		cfg.CacheDir = c.String("cache-dir")
	}
	if c.Bool("insecure") {
		cfg.Fetch.Insecure = true
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var opts []sources.ClientOption
	opts = append(opts, sources.WithTimeout(cfg.Fetch.Timeout))
	opts = append(opts, sources.WithRateLimit(rate.Limit(cfg.Fetch.RateLimit), cfg.Fetch.RateBurst))
	if cfg.Fetch.Insecure {
		opts = append(opts, sources.WithInsecureTLS())
	}
	client := sources.NewClient(opts...)

	registry := prometheus.NewRegistry()
	metrics := leaderboardmetrics.New(registry)
	store := snapshotstore.New(cfg.CacheDir, logger)
	service := leaderboardservice.NewService(cfg, store, client, logger, metrics)

	return &runtimeDeps{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		client:   client,
		store:    store,
		service:  service,
	}, nil
}

func updateOptions(c *cli.Context) leaderboardservice.UpdateOptions {
	return leaderboardservice.UpdateOptions{
		RefreshCodaLabOld: c.Bool("refresh-codalab-old"),
		RefreshCodaLabNew: c.Bool("refresh-codalab"),
		RefreshCodaBench:  c.Bool("refresh-codabench"),
		CodaLabOldCSV:     c.String("codalab-old-csv"),
		CodaLabNewCSV:     c.String("codalab-new-csv"),
		CodaBenchPhaseID:  c.Int("codabench-phase"),
	}
}

func writeArtifacts(cfg *config.Config, combined *leaderboarddomain.Combined, logger *slog.Logger) error {
	if err := leaderboardservice.WriteCombinedJSON(cfg.Output, combined); err != nil {
		return err
	}
	logger.Info("wrote combined leaderboard", "path", cfg.Output)

	if cfg.OutputJS != "" {
		if err := leaderboardservice.WriteJSGlobal(cfg.OutputJS, combined); err != nil {
			return err
		}
	}
	if cfg.IndexHTML != "" {
		if err := leaderboardservice.UpdateIndexHTML(cfg.IndexHTML, combined); err != nil {
			return err
		}
		logger.Info("rewrote leaderboard table", "path", cfg.IndexHTML)
	}
	return nil
}

func updateCommand() *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "fetch or load the source snapshots and write the site artifacts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Usage: "combined leaderboard JSON output path"},
			&cli.StringFlag{Name: "output-js", Usage: "JS output assigning the payload to window.MIND_LEADERBOARD"},
			&cli.StringFlag{Name: "write-index", Usage: "index.html to rewrite with the combined table"},
			&cli.StringFlag{Name: "cache-dir", Usage: "directory for per-source cached snapshots"},
			&cli.StringFlag{Name: "codalab-old-csv", Usage: "local CodaLab legacy results CSV (skips network)"},
			&cli.StringFlag{Name: "codalab-new-csv", Usage: "local CodaLab new-site results CSV (skips network)"},
			&cli.IntFlag{Name: "codabench-phase", Usage: "CodaBench phase id for the results.csv export"},
			&cli.BoolFlag{Name: "refresh-codalab", Usage: "refetch the CodaLab new-site leaderboard"},
			&cli.BoolFlag{Name: "refresh-codalab-old", Usage: "refetch the archived CodaLab legacy leaderboard"},
			&cli.BoolFlag{Name: "refresh-codabench", Usage: "refetch the CodaBench leaderboard"},
			&cli.BoolFlag{Name: "insecure", Usage: "disable TLS certificate verification"},
		},
		Action: func(c *cli.Context) error {
			deps, err := buildDeps(c)
			if err != nil {
				return err
			}
			if v := c.String("output"); v != "" {
				deps.cfg.Output = v
			}
			if v := c.String("output-js"); v != "" {
				deps.cfg.OutputJS = v
			}
			if v := c.String("write-index"); v != "" {
				deps.cfg.IndexHTML = v
			}

			combined, err := deps.service.Update(c.Context, updateOptions(c))
			if err != nil {
				return err
			}
			return writeArtifacts(deps.cfg, combined, deps.logger)
		},
	}
}

type refresher struct {
	deps *runtimeDeps
}

// Refresh refetches the one live source and rewrites the site artifacts.
func (r *refresher) Refresh(ctx context.Context) (*leaderboarddomain.Combined, error) {
	combined, err := r.deps.service.Update(ctx, leaderboardservice.UpdateOptions{RefreshCodaBench: true})
	if err != nil {
		return nil, err
	}
	if err := writeArtifacts(r.deps.cfg, combined, r.deps.logger); err != nil {
		return nil, err
	}
	return combined, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the combined leaderboard over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address (overrides config)"},
			&cli.StringFlag{Name: "cache-dir", Usage: "directory for per-source cached snapshots"},
			&cli.BoolFlag{Name: "insecure", Usage: "disable TLS certificate verification"},
		},
		Action: func(c *cli.Context) error {
			deps, err := buildDeps(c)
			if err != nil {
				return err
			}
			addr := deps.cfg.HTTP.Addr
			if v := c.String("addr"); v != "" {
				addr = v
			}

			combined, err := deps.service.Update(c.Context, leaderboardservice.UpdateOptions{})
			if err != nil {
				return err
			}

			metricsHandler := promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{})
			handlers := leaderboardhandlers.New(&refresher{deps: deps}, combined, deps.cfg.JWT.Secret, deps.logger)

			server := &http.Server{
				Addr:    addr,
				Handler: handlers.Routes(metricsHandler),
			}

			errCh := make(chan error, 1)
			go func() {
				deps.logger.Info("listening", "addr", addr)
				errCh <- server.ListenAndServe()
			}()

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-interrupt:
				deps.logger.Info("shutting down")
			case <-c.Context.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write XLSX and chart exports from the cached snapshots",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "xlsx", Value: "leaderboard.xlsx", Usage: "XLSX output path"},
			&cli.StringFlag{Name: "chart", Value: "leaderboard.png", Usage: "chart PNG output path"},
			&cli.IntFlag{Name: "top", Value: leaderboardservice.DefaultChartTopN, Usage: "teams to include in the chart"},
			&cli.StringFlag{Name: "cache-dir", Usage: "directory for per-source cached snapshots"},
		},
		Action: func(c *cli.Context) error {
			deps, err := buildDeps(c)
			if err != nil {
				return err
			}

			combined, err := deps.service.Update(c.Context, leaderboardservice.UpdateOptions{})
			if err != nil {
				return err
			}

			xlsxFile, err := os.Create(c.String("xlsx"))
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", c.String("xlsx"), err)
			}
			defer xlsxFile.Close()
			if err := leaderboardservice.WriteXLSX(xlsxFile, combined); err != nil {
				return err
			}

			png, err := leaderboardservice.GenerateAUCChart(combined, c.Int("top"))
			if err != nil {
				return err
			}
			if err := os.WriteFile(c.String("chart"), png, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", c.String("chart"), err)
			}

			deps.logger.Info("exports written", "xlsx", c.String("xlsx"), "chart", c.String("chart"))
			return nil
		},
	}
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "fetch one leaderboard endpoint and render it as an HTML table",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "endpoint", Required: true, Usage: "leaderboard data endpoint URL"},
			&cli.StringFlag{Name: "output", Usage: "output file (default stdout)"},
			&cli.BoolFlag{Name: "insecure", Usage: "disable TLS certificate verification"},
		},
		Action: func(c *cli.Context) error {
			deps, err := buildDeps(c)
			if err != nil {
				return err
			}

			out := os.Stdout
			if path := c.String("output"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", path, err)
				}
				defer f.Close()
				out = f
			}

			renderer := leaderboardservice.NewRenderer(deps.client, deps.logger)
			return renderer.RenderLeaderboard(c.Context, c.String("endpoint"), out)
		},
	}
}
