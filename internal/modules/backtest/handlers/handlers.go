// Package handlers provides HTTP handlers for sector backtest operations.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/Soham1117/StockApp/internal/domain"
	"github.com/Soham1117/StockApp/internal/modules/backtest"
)

// Handler handles backtest HTTP requests.
type Handler struct {
	service  *backtest.Service
	progress *backtest.ProgressBroker
	exporter ReportExporter
	log      zerolog.Logger
}

// ReportExporter archives finished reports out of band. Optional; a nil
// exporter disables archiving.
type ReportExporter interface {
	Export(report *backtest.Report)
}

// NewHandler creates a new backtest handler.
func NewHandler(service *backtest.Service, progress *backtest.ProgressBroker, exporter ReportExporter, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		progress: progress,
		exporter: exporter,
		log:      log.With().Str("handler", "backtest").Logger(),
	}
}

// HandleRunBacktest handles POST /api/backtest/sector
func (h *Handler) HandleRunBacktest(w http.ResponseWriter, r *http.Request) {
	var req backtest.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	report, err := h.service.Run(r.Context(), req)
	if err != nil {
		h.writeRunError(w, req, err)
		return
	}

	if h.exporter != nil {
		h.exporter.Export(report)
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) writeRunError(w http.ResponseWriter, req backtest.Request, err error) {
	switch {
	case errors.Is(err, backtest.ErrInvalidRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, backtest.ErrUnknownSector), errors.Is(err, backtest.ErrUnknownBenchmark):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrRateLimited):
		h.log.Warn().Str("sector", req.Sector).Msg("Backtest aborted by upstream rate limit")
		http.Error(w, "Upstream data provider rate limited, retry later", http.StatusTooManyRequests)
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	default:
		h.log.Error().Err(err).Str("sector", req.Sector).Msg("Backtest failed")
		http.Error(w, "Backtest failed", http.StatusInternalServerError)
	}
}

// HandleListSectors handles GET /api/backtest/sectors
func (h *Handler) HandleListSectors(w http.ResponseWriter, r *http.Request) {
	sectors, err := h.service.Sectors()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list sectors")
		http.Error(w, "Failed to list sectors", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"sectors": sectors})
}

// HandleProgress handles GET /api/backtest/progress?run_id=...
// Streams progress updates for a running backtest over a websocket until the
// run finishes or the client disconnects.
func (h *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		http.Error(w, "run_id query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("Websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	updates, cancel := h.progress.Subscribe(runID)
	defer cancel()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-updates:
			writeCtx, done := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, update)
			done()
			if err != nil {
				return
			}
			if update.Done {
				return
			}
		}
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
