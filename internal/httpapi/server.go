// Package httpapi exposes reports over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"walletclinic/internal/model"
	"walletclinic/internal/report"
	"walletclinic/internal/telemetry"
)

// Reporter builds summary reports and detail patches.
type Reporter interface {
	Summary(ctx context.Context, input string, opts report.Options) (model.SummaryReport, error)
	Details(ctx context.Context, input string, opts report.Options) (model.DetailsPatch, error)
}

// RPCStatus reports whether the chain node answers and which chain it serves.
type RPCStatus interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	GetChainID(ctx context.Context) (*big.Int, error)
}

// BuildInfo is served on /version.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
}

// Options tunes the server.
type Options struct {
	RequestTimeout time.Duration
	BuildInfo      BuildInfo
	// ChainID is checked against the node on /readyz when non-zero.
	ChainID        uint64
}

type Server struct {
	reports Reporter
	rpc     RPCStatus
	metrics *telemetry.Metrics
	logger  *zap.Logger
	opts    Options
}

// NewServer wires the handlers. rpc may be nil, in which case /readyz only
// reports the process as up.
func NewServer(reports Reporter, rpc RPCStatus, metrics *telemetry.Metrics, logger *zap.Logger, opts Options) (*Server, error) {
	if reports == nil {
		return nil, errors.New("http server needs a reporter")
	}
	if metrics == nil {
		metrics = telemetry.NewMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	return &Server{reports: reports, rpc: rpc, metrics: metrics, logger: logger, opts: opts}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/healthz", s.route("/healthz", s.handleHealth))
	mux.Handle("/readyz", s.route("/readyz", s.handleReady))
	mux.Handle("/summary", s.route("/summary", s.withTimeout(s.handleSummary)))
	mux.Handle("/summary/details", s.route("/summary/details", s.withTimeout(s.handleDetails)))
	mux.Handle("/metrics", s.metrics.Handler())
	mux.Handle("/version", s.route("/version", s.handleVersion))
	return mux
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http server listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.rpc != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if _, err := s.rpc.LatestBlockNumber(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, "rpc not ready")
			return
		}
		if s.opts.ChainID != 0 {
			id, err := s.rpc.GetChainID(ctx)
			if err != nil {
				respondError(w, http.StatusServiceUnavailable, "rpc not ready")
				return
			}
			if !id.IsUint64() || id.Uint64() != s.opts.ChainID {
				s.logger.Warn("rpc chain id mismatch", zap.String("node", id.String()), zap.Uint64("expected", s.opts.ChainID))
				respondError(w, http.StatusServiceUnavailable, "rpc chain id mismatch")
				return
			}
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	debug := query.Get("debug")
	if debug == "ping" {
		respondJSON(w, http.StatusOK, map[string]any{"ok": true, "note": "alive"})
		return
	}

	input := strings.TrimSpace(query.Get("address"))
	if input == "" {
		respondError(w, http.StatusBadRequest, "Invalid address or name")
		return
	}
	rep, err := s.reports.Summary(r.Context(), input, report.Options{Diagnostics: debug == "diag"})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	input := strings.TrimSpace(query.Get("address"))
	if input == "" {
		respondError(w, http.StatusBadRequest, "Invalid address or name")
		return
	}
	patch, err := s.reports.Details(r.Context(), input, report.Options{Diagnostics: query.Get("debug") == "diag"})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, patch)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.opts.BuildInfo)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, report.ErrInvalidInput) {
		respondError(w, http.StatusBadRequest, "Invalid address or name")
		return
	}
	s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	respondError(w, http.StatusInternalServerError, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
