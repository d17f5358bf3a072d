// Package server assembles the HTTP surface and owns its lifecycle.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/afraa786/wichain/internal/adapters/web/handlers"
	"github.com/afraa786/wichain/internal/adapters/web/middleware"
	"github.com/afraa786/wichain/internal/adapters/web/websocket"
	"github.com/afraa786/wichain/internal/core/ports"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 60 * time.Second
	idleTimeout     = 120 * time.Second
	shutdownTimeout = 10 * time.Second

	rateLimit       = 120
	rateLimitWindow = time.Minute
)

// Config carries the server wiring.
type Config struct {
	Addr         string
	APITokenHash string

	Detection ports.DetectionService
	Ledger    ports.LedgerService
	Reporter  handlers.ReportWriter
	WS        *websocket.Manager
	Logger    *slog.Logger
}

// Server is the HTTP front of the service.
type Server struct {
	http   *http.Server
	ws     *websocket.Manager
	logger *slog.Logger
}

// New builds the router and server.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	router := newRouter(cfg)

	return &Server{
		http: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
		ws:     cfg.WS,
		logger: cfg.Logger,
	}
}

func newRouter(cfg Config) http.Handler {
	detect := handlers.NewDetectHandler(cfg.Detection, cfg.Logger)
	chain := handlers.NewChainHandler(cfg.Ledger, cfg.Logger)
	train := handlers.NewTrainHandler(cfg.Detection, cfg.Logger)

	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.BearerAuth(cfg.APITokenHash))
	api.Use(middleware.NewRateLimiter(rateLimit, rateLimitWindow).Middleware)

	api.HandleFunc("/detect", detect.HandleDetect).Methods(http.MethodPost)
	api.HandleFunc("/scan", detect.HandleScanBatch).Methods(http.MethodPost)
	api.HandleFunc("/networks", detect.HandleNetworks).Methods(http.MethodGet)
	api.HandleFunc("/stats", detect.HandleStats).Methods(http.MethodGet)
	api.HandleFunc("/train", train.HandleTrain).Methods(http.MethodPost)

	api.HandleFunc("/blockchain", chain.HandleChain).Methods(http.MethodGet)
	api.HandleFunc("/blockchain/latest", chain.HandleLatest).Methods(http.MethodGet)
	api.HandleFunc("/blockchain/verify", chain.HandleVerify).Methods(http.MethodGet)

	if cfg.Reporter != nil {
		report := handlers.NewReportHandler(cfg.Reporter, cfg.Logger)
		api.HandleFunc("/reports/chain", report.HandleReport).Methods(http.MethodGet)
	}

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	if cfg.WS != nil {
		r.HandleFunc("/ws", cfg.WS.HandleWS)
	}

	return otelhttp.NewHandler(r, "wichain.http")
}

// Run serves until ctx is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	if s.ws != nil {
		s.ws.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
