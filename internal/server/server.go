// Package server wires storage, the API, the alert sweep and event
// publishing into one running service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shopfloor/internal/alerts"
	"shopfloor/internal/config"
	"shopfloor/internal/handlers"
	"shopfloor/internal/kafka"
	"shopfloor/internal/kpi"
	"shopfloor/internal/logger"
	"shopfloor/internal/middleware"
	"shopfloor/internal/models"
	"shopfloor/internal/realtime"
	"shopfloor/internal/report"
	"shopfloor/internal/storage"
	"shopfloor/internal/worker"
)

// eventQueueSize buffers alert events waiting for Kafka.
const eventQueueSize = 1000

// Server is the high-level coordinator of the SFM service.
type Server struct {
	cfg    *config.Config
	nodeID string

	store      *storage.Store
	producer   *kafka.Producer
	workerPool *worker.Pool
	events     chan *models.AlertEvent
	hub        *realtime.Hub
	sweeper    *alerts.Sweeper
	httpServer *http.Server

	ready chan struct{}
	addr  string
	wg    sync.WaitGroup
}

// New constructs a Server with the given config.
func New(cfg *config.Config) *Server {
	nodeID := cfg.NodeID
	if nodeID == "" {
		nodeID, _ = os.Hostname()
		if nodeID == "" {
			nodeID = "unknown"
		}
	}
	return &Server{
		cfg:    cfg,
		nodeID: nodeID,
		events: make(chan *models.AlertEvent, eventQueueSize),
		ready:  make(chan struct{}),
	}
}

// Ready is closed once the HTTP listener is bound.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the bound listen address; valid after Ready.
func (s *Server) Addr() string { return s.addr }

// Run starts every component and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	log := logger.WithComponent("server")
	log.Info().Str("node_id", s.nodeID).Msg("server starting")

	loc, err := s.cfg.Location()
	if err != nil {
		return err
	}

	store, err := storage.Open(s.cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	s.store = store
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return fmt.Errorf("migrating database: %w", err)
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	s.hub = realtime.NewHub(s.cfg.Server.AllowedOrigins)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run(hubCtx)
	}()

	notifiers := []alerts.Notifier{s.hub}
	if s.cfg.Kafka.Enabled() {
		if err := s.initPublishing(); err != nil {
			store.Close()
			return fmt.Errorf("initializing kafka publishing: %w", err)
		}
		notifiers = append(notifiers, worker.NewSink(s.events, s.nodeID))
	} else {
		log.Info().Msg("kafka brokers not configured, alert events stay local")
	}

	s.sweeper = alerts.NewSweeper(store,
		alerts.WithRetention(s.cfg.Sweep.Retention),
		alerts.WithLocation(loc),
		alerts.WithNotifiers(notifiers...),
	)

	api := handlers.New(handlers.Config{
		Store:    store,
		Recorder: kpi.NewRecorder(store, s.hub),
		Sweeper:  s.sweeper,
		Reports:  report.NewBuilder(store, loc),
	})

	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		s.stopPublishing()
		store.Close()
		return fmt.Errorf("listening on %s: %w", s.cfg.Server.Addr, err)
	}
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:      s.routes(api),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info().Str("addr", s.addr).Msg("starting HTTP server")
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()
	close(s.ready)

	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	if s.cfg.Sweep.Interval > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runSchedule(bgCtx, s.cfg.Sweep.Interval)
		}()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.reportStats(bgCtx)
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	return s.shutdown(stopHub)
}

func (s *Server) initPublishing() error {
	producer, err := kafka.NewProducer(s.cfg.Kafka)
	if err != nil {
		return err
	}
	s.producer = producer

	pc := s.cfg.Kafka.Producer
	s.workerPool = worker.NewPool(worker.Config{
		Publisher:      producer,
		Events:         s.events,
		Workers:        pc.PoolSize,
		BatchSize:      pc.BatchSize,
		BatchTimeout:   pc.BatchTimeout,
		PublishTimeout: pc.WriteTimeout,
	})
	s.workerPool.Start()

	log := logger.WithComponent("server")

	log.Info().
		Strs("brokers", s.cfg.Kafka.Brokers).
		Str("topic", s.cfg.Kafka.Topic).
		Msg("kafka publishing initialized")
	return nil
}

func (s *Server) stopPublishing() {
	if s.workerPool != nil {
		s.workerPool.Stop()
	}
	if s.producer != nil {
		if err := s.producer.Close(); err != nil {
			log := logger.WithComponent("server")
			log.Error().Err(err).Msg("producer close error")
		}
	}
}

// routes builds the handler tree. The websocket endpoint sits outside the
// logging middleware, which would hold the hijacked connection's writer.
func (s *Server) routes(api *handlers.API) http.Handler {
	mux := http.NewServeMux()
	api.Register(mux)
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	root := http.NewServeMux()
	root.Handle("/api/ws", middleware.Recovery(http.HandlerFunc(s.hub.HandleWS)))
	root.Handle("/", middleware.Chain(mux, middleware.Recovery, middleware.Logging))
	return root
}

// runSchedule sweeps every interval until ctx is done.
func (s *Server) runSchedule(ctx context.Context, interval time.Duration) {
	log := logger.WithComponent("sweep_schedule")
	log.Info().Dur("interval", interval).Msg("scheduled sweeps enabled")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.sweeper.Run(ctx); err != nil {
				log.Error().Err(err).Msg("scheduled sweep failed")
			}
		}
	}
}

func (s *Server) shutdown(stopHub context.CancelFunc) error {
	log := logger.WithComponent("server")
	log.Info().Msg("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	stopHub()

	// Background goroutines stop with the parent context.
	s.wg.Wait()

	done := make(chan struct{})
	go func() {
		s.stopPublishing()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(15 * time.Second):
		log.Warn().Msg("publisher shutdown timeout - forcing exit")
	}

	if err := s.store.Close(); err != nil {
		log.Error().Err(err).Msg("database close error")
	}

	log.Info().Msg("server stopped gracefully")
	return nil
}

func (s *Server) reportStats(ctx context.Context) {
	log := logger.WithComponent("server")
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := s.stats()
			log.Info().
				Uint64("alerts_published", st.Worker.Published).
				Uint64("worker_failed", st.Worker.Failed).
				Uint64("producer_sent", st.Producer.MessagesSent).
				Uint64("producer_failed", st.Producer.MessagesFailed).
				Int("queue_size", st.Queue.Buffered).
				Int("ws_clients", st.RealtimeClients).
				Msg("stats")
		}
	}
}

// Stats is the body of GET /stats.
type Stats struct {
	Node     string              `json:"node"`
	Worker   worker.Stats        `json:"worker"`
	Producer kafka.ProducerStats `json:"producer"`
	Queue    struct {
		Buffered int `json:"buffered"`
		Capacity int `json:"capacity"`
	} `json:"queue"`
	RealtimeClients int `json:"realtime_clients"`
}

func (s *Server) stats() Stats {
	st := Stats{Node: s.nodeID, RealtimeClients: s.hub.Clients()}
	if s.workerPool != nil {
		st.Worker = s.workerPool.Stats()
	}
	if s.producer != nil {
		st.Producer = s.producer.Stats()
	}
	st.Queue.Buffered = len(s.events)
	st.Queue.Capacity = cap(s.events)
	return st
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.store.Ping(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.stats())
}
