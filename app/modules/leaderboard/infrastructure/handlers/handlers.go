package leaderboardhandlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	leaderboardservice "github.com/msnews/mind-leaderboard/app/modules/leaderboard/application"
	leaderboarddomain "github.com/msnews/mind-leaderboard/app/modules/leaderboard/domain"
)

// Updater refreshes the combined leaderboard from upstream and returns the
// new state.
type Updater interface {
	Refresh(ctx context.Context) (*leaderboarddomain.Combined, error)
}

// Handlers serves the rendered leaderboard artifacts. The combined
// leaderboard is held in memory and swapped atomically on refresh.
type Handlers struct {
	updater   Updater
	logger    *slog.Logger
	jwtSecret string

	mu       sync.RWMutex
	combined *leaderboarddomain.Combined
}

// New creates the handler set with an initial combined leaderboard.
func New(updater Updater, initial *leaderboarddomain.Combined, jwtSecret string, logger *slog.Logger) *Handlers {
	return &Handlers{
		updater:   updater,
		logger:    logger,
		jwtSecret: jwtSecret,
		combined:  initial,
	}
}

// Combined returns the current combined leaderboard.
func (h *Handlers) Combined() *leaderboarddomain.Combined {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.combined
}

func (h *Handlers) setCombined(c *leaderboarddomain.Combined) {
	h.mu.Lock()
	h.combined = c
	h.mu.Unlock()
}

// Routes builds the router. metricsHandler serves /metrics and is supplied
// by the caller so the handler set stays decoupled from the registry.
func (h *Handlers) Routes(metricsHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(RateLimitMiddleware(NewIPRateLimiter(10, 20)))

	r.Get("/healthz", h.Healthz)
	r.Get("/leaderboard", h.GetLeaderboard)
	r.Get("/leaderboard/table", h.GetLeaderboardTable)
	r.Get("/leaderboard/chart.png", h.GetLeaderboardChart)
	r.Get("/leaderboard.xlsx", h.GetLeaderboardXLSX)
	r.Handle("/metrics", metricsHandler)

	r.Group(func(r chi.Router) {
		r.Use(JWTAuthMiddleware(h.jwtSecret))
		r.Post("/admin/refresh", h.AdminRefresh)
	})

	return r
}

// Healthz reports liveness.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// GetLeaderboard returns the combined leaderboard as JSON.
func (h *Handlers) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.Combined()); err != nil {
		http.Error(w, fmt.Sprintf("Failed to encode response: %v", err), http.StatusInternalServerError)
	}
}

// GetLeaderboardTable returns the combined leaderboard as an HTML table
// fragment in the site's legacy markup.
func (h *Handlers) GetLeaderboardTable(w http.ResponseWriter, r *http.Request) {
	combined := h.Combined()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, leaderboardservice.RenderSiteRowsHTML(combined.Rows))
}

// GetLeaderboardChart returns a PNG bar chart of the top teams by AUC.
func (h *Handlers) GetLeaderboardChart(w http.ResponseWriter, r *http.Request) {
	png, err := leaderboardservice.GenerateAUCChart(h.Combined(), leaderboardservice.DefaultChartTopN)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to render chart: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// GetLeaderboardXLSX returns the combined leaderboard as an XLSX workbook.
func (h *Handlers) GetLeaderboardXLSX(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="leaderboard.xlsx"`)
	if err := leaderboardservice.WriteXLSX(w, h.Combined()); err != nil {
		h.logger.Error("xlsx export failed", "error", err)
	}
}

// AdminRefresh refetches the refreshable sources and swaps in the new
// combined leaderboard.
func (h *Handlers) AdminRefresh(w http.ResponseWriter, r *http.Request) {
	combined, err := h.updater.Refresh(r.Context())
	if err != nil {
		h.logger.Error("refresh failed", "error", err)
		http.Error(w, fmt.Sprintf("Failed to refresh leaderboard: %v", err), http.StatusBadGateway)
		return
	}
	h.setCombined(combined)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"generated_at": combined.GeneratedAt,
		"rows":         len(combined.Rows),
	})
}
