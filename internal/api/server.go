package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillm/solana-trade-bot/internal/domain"
	"github.com/kirillm/solana-trade-bot/internal/executor"
	"github.com/kirillm/solana-trade-bot/internal/ledger"
	"github.com/kirillm/solana-trade-bot/internal/manager"
	"github.com/kirillm/solana-trade-bot/internal/strategy"
	"github.com/kirillm/solana-trade-bot/pkg/utils"
)

// SnapshotStore история периодических снапшотов прибыли
type SnapshotStore interface {
	GetRecent(mint string, limit int) ([]domain.PnLSnapshot, error)
}

// Server read-only HTTP статус-API и экспорт метрик
type Server struct {
	logger     *utils.Logger
	dispatcher *manager.Dispatcher
	exec       *executor.Executor
	ledger     *ledger.Ledger
	prices     strategy.PriceSource
	snapshots  SnapshotStore
	port       int
}

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func NewServer(
	logger *utils.Logger,
	dispatcher *manager.Dispatcher,
	exec *executor.Executor,
	ldg *ledger.Ledger,
	prices strategy.PriceSource,
	snapshots SnapshotStore,
	port int,
) *Server {
	return &Server{
		logger:     logger,
		dispatcher: dispatcher,
		exec:       exec,
		ledger:     ldg,
		prices:     prices,
		snapshots:  snapshots,
		port:       port,
	}
}

// Start поднимает HTTP сервер; блокирует до остановки
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/profit", s.handleProfit)
	mux.HandleFunc("/api/trades", s.handleTrades)
	mux.HandleFunc("/api/balance", s.handleBalance)
	mux.HandleFunc("/api/pnl", s.handlePnL)
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("API server listening on :%d", s.port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := make(map[string][]string)
	for _, mint := range s.dispatcher.Active() {
		status[mint] = s.dispatcher.ActiveKinds(mint)
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: status})
}

func (s *Server) handleProfit(w http.ResponseWriter, r *http.Request) {
	mint := r.URL.Query().Get("mint")
	if mint == "" {
		writeJSON(w, http.StatusBadRequest, Response{Error: "mint is required"})
		return
	}

	currentPrice, err := s.prices.GetPrice(r.Context(), mint, domain.QuoteMintSOL)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, Response{Error: err.Error()})
		return
	}

	profit, percentage, err := s.ledger.Profit(mint, currentPrice)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: map[string]float64{
		"profit":         profit,
		"profit_percent": percentage,
		"current_price":  currentPrice,
	}})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	mint := r.URL.Query().Get("mint")
	if mint == "" {
		writeJSON(w, http.StatusBadRequest, Response{Error: "mint is required"})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, Response{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	trades, err := s.ledger.Recent(mint, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: trades})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	mint := r.URL.Query().Get("mint")
	if mint == "" {
		writeJSON(w, http.StatusBadRequest, Response{Error: "mint is required"})
		return
	}

	balance, err := s.exec.Balance(r.Context(), mint)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, Response{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: map[string]float64{"balance": balance}})
}

func (s *Server) handlePnL(w http.ResponseWriter, r *http.Request) {
	mint := r.URL.Query().Get("mint")
	if mint == "" {
		writeJSON(w, http.StatusBadRequest, Response{Error: "mint is required"})
		return
	}

	limit := 24
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, Response{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	snapshots, err := s.snapshots.GetRecent(mint, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Data: snapshots})
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
