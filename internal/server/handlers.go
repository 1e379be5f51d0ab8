package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/go-chi/chi/v5"

	"portfolioTracker/internal/market"
	"portfolioTracker/internal/report"
	"portfolioTracker/internal/storage"
	"portfolioTracker/internal/valuation"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "portfolio-tracker",
	})
}

func (s *Server) handleListPortfolios(w http.ResponseWriter, r *http.Request) {
	portfolios, err := s.repo.ListPortfolios()
	if err != nil {
		s.log.Error().Err(err).Msg("list portfolios")
		s.writeError(w, http.StatusInternalServerError, "failed to list portfolios")
		return
	}
	if portfolios == nil {
		portfolios = []storage.Portfolio{}
	}
	s.writeJSON(w, http.StatusOK, portfolios)
}

func (s *Server) handleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		s.writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	p, err := s.repo.CreatePortfolio(strings.TrimSpace(req.Title))
	if err != nil {
		s.log.Error().Err(err).Msg("create portfolio")
		s.writeError(w, http.StatusInternalServerError, "failed to create portfolio")
		return
	}
	s.writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := s.repo.GetPortfolio(id)
	if errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "portfolio not found")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Int64("portfolio_id", id).Msg("get portfolio")
		s.writeError(w, http.StatusInternalServerError, "failed to load portfolio")
		return
	}
	items, err := s.repo.ListItems(id)
	if err != nil {
		s.log.Error().Err(err).Int64("portfolio_id", id).Msg("list items")
		s.writeError(w, http.StatusInternalServerError, "failed to load items")
		return
	}
	if items == nil {
		items = []storage.Item{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"portfolio": p, "items": items})
}

func (s *Server) handleRenamePortfolio(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		s.writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if err := s.repo.RenamePortfolio(id, strings.TrimSpace(req.Title)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "portfolio not found")
			return
		}
		s.log.Error().Err(err).Int64("portfolio_id", id).Msg("rename portfolio")
		s.writeError(w, http.StatusInternalServerError, "failed to rename portfolio")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

func (s *Server) handleDeletePortfolio(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.repo.DeletePortfolio(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "portfolio not found")
			return
		}
		s.log.Error().Err(err).Int64("portfolio_id", id).Msg("delete portfolio")
		s.writeError(w, http.StatusInternalServerError, "failed to delete portfolio")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Ticker   string `json:"ticker"`
		Quantity int64  `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" || req.Quantity < 0 {
		s.writeError(w, http.StatusBadRequest, "ticker and a non-negative quantity are required")
		return
	}
	if _, err := s.repo.GetPortfolio(id); errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "portfolio not found")
		return
	}

	// Unknown tickers are rejected at add time, not silently zeroed later.
	if _, err := s.market.GetCurrentPrice(r.Context(), ticker); err != nil {
		if errors.Is(err, market.ErrTickerNotFound) {
			s.writeError(w, http.StatusBadRequest, "ticker "+ticker+" does not exist")
			return
		}
		s.log.Error().Err(err).Str("ticker", ticker).Msg("ticker check")
		s.writeError(w, http.StatusBadGateway, "market data unavailable")
		return
	}

	item, err := s.repo.AddItem(id, ticker, req.Quantity)
	if errors.Is(err, storage.ErrDuplicateTicker) {
		s.writeError(w, http.StatusConflict, "item with this ticker already exists in the portfolio")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("add item")
		s.writeError(w, http.StatusInternalServerError, "failed to add item")
		return
	}
	s.writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Quantity int64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity < 0 {
		s.writeError(w, http.StatusBadRequest, "a non-negative quantity is required")
		return
	}
	if err := s.repo.UpdateItem(id, req.Quantity); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "item not found")
			return
		}
		s.log.Error().Err(err).Int64("item_id", id).Msg("update item")
		s.writeError(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.repo.DeleteItem(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "item not found")
			return
		}
		s.log.Error().Err(err).Int64("item_id", id).Msg("delete item")
		s.writeError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleCompute runs one tagged computation over a portfolio snapshot and
// emits its artifacts. The numeric tables are returned even when artifact
// writes fail; such failures come back as warnings.
func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Kind         string `json:"kind"`
		BaseCurrency string `json:"base_currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	base := strings.ToUpper(strings.TrimSpace(req.BaseCurrency))
	if base == "" {
		base = s.cfg.BaseCurrency
	}
	if money.GetCurrency(base) == nil {
		s.writeError(w, http.StatusBadRequest, "unknown base currency "+base)
		return
	}

	kind := valuation.Kind(strings.ToLower(strings.TrimSpace(req.Kind)))
	switch kind {
	case valuation.KindCurrentValue, valuation.KindHistory, valuation.KindGain:
	default:
		s.writeError(w, http.StatusBadRequest, "kind must be one of current, history, gain")
		return
	}

	holdings, err := s.repo.GetHoldings(id)
	if err != nil {
		s.log.Error().Err(err).Int64("portfolio_id", id).Msg("load holdings")
		s.writeError(w, http.StatusInternalServerError, "failed to load holdings")
		return
	}

	outcome, err := s.engine.Run(r.Context(), valuation.Request{
		Kind:         kind,
		Holdings:     holdings,
		BaseCurrency: base,
	})
	if err != nil {
		s.computeError(w, err)
		return
	}

	var artifacts report.Artifacts
	switch {
	case outcome.Current != nil:
		artifacts = s.emitter.EmitCurrentValue(outcome.Current)
	case outcome.History != nil:
		artifacts = s.emitter.EmitHistory(outcome.History)
	case outcome.Gain != nil:
		artifacts = s.emitter.EmitGain(outcome.Gain)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"result":    outcome,
		"artifacts": artifacts,
	})
}

func (s *Server) computeError(w http.ResponseWriter, err error) {
	var divZero *valuation.DivisionByZeroError
	var rateGap *valuation.RateLookupError
	switch {
	case errors.Is(err, market.ErrTickerNotFound):
		s.writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &divZero), errors.As(err, &rateGap):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.log.Error().Err(err).Msg("computation failed")
		s.writeError(w, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
