package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"blasesim/classifier"
	"blasesim/data"
	"blasesim/simerr"
	"blasesim/simulation"
)

// Config is the resolved runtime configuration. Every key can be set
// in blasesim.yaml or overridden with a BLASESIM_ environment
// variable.
type Config struct {
	Port       string
	DataDir    string
	OutputDir  string
	ModelDir   string
	StlatsURL  string
	Iterations int
	Workers    int
	LogLevel   string
	LogJSON    bool
}

func loadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("blasesim")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/blasesim")
	v.SetEnvPrefix("blasesim")
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("data_dir", "season_data")
	v.SetDefault("output_dir", "season_sim_output")
	v.SetDefault("model_dir", "classifiers")
	v.SetDefault("stlats_url", "")
	v.SetDefault("iterations", simulation.DefaultIterations)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, simerr.Config("reading config: %v", err)
		}
	}

	return &Config{
		Port:       v.GetString("port"),
		DataDir:    v.GetString("data_dir"),
		OutputDir:  v.GetString("output_dir"),
		ModelDir:   v.GetString("model_dir"),
		StlatsURL:  v.GetString("stlats_url"),
		Iterations: v.GetInt("iterations"),
		Workers:    v.GetInt("workers"),
		LogLevel:   v.GetString("log_level"),
		LogJSON:    v.GetBool("log_json"),
	}, nil
}

func newLogger(cfg *Config) *logrus.Entry {
	log := logrus.New()
	if cfg.LogJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log.WithField("service", "blasesim")
}

// Server wires the simulation engine behind the HTTP surface.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	config     *Config
	engine     *simulation.Engine
	loader     *simulation.Loader
	log        *logrus.Entry
}

func NewServer(cfg *Config, log *logrus.Entry) (*Server, error) {
	registry, err := classifier.LoadRegistry(cfg.ModelDir)
	if err != nil {
		return nil, err
	}
	ballparks, err := data.LoadBallparks(filepath.Join(cfg.DataDir, "ballparks.json"))
	if err != nil {
		return nil, err
	}

	var fetcher *data.Fetcher
	if cfg.StlatsURL != "" {
		fetcher = data.NewFetcher(cfg.StlatsURL, cfg.DataDir, log)
	}

	s := &Server{
		router: mux.NewRouter(),
		config: cfg,
		engine: simulation.NewEngine(cfg.Workers, cfg.Iterations, log),
		loader: &simulation.Loader{
			DataDir:   cfg.DataDir,
			Fetcher:   fetcher,
			Ballparks: ballparks,
			Registry:  registry,
		},
		log: log,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.healthHandler).Methods("GET")

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/dailysim", s.dailySimHandler).Methods("GET")
	v1.HandleFunc("/seasonsim", s.seasonSimHandler).Methods("GET")
	v1.HandleFunc("/powerrankings", s.powerRankingsHandler).Methods("GET")
	v1.HandleFunc("/sumseason", s.sumSeasonHandler).Methods("GET")

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	s.log.WithFields(logrus.Fields{
		"port":       s.config.Port,
		"workers":    s.config.Workers,
		"iterations": s.config.Iterations,
	}).Info("starting simulation server")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":      "healthy",
		"time":        time.Now().UTC(),
		"workers":     s.config.Workers,
		"active_runs": len(s.engine.ActiveRuns()),
	})
}

// seasonDayParams parses the season and, optionally, day query
// parameters shared by the sim endpoints.
func seasonDayParams(r *http.Request, needDay bool) (season, day int, err error) {
	season, err = strconv.Atoi(r.URL.Query().Get("season"))
	if err != nil {
		return 0, 0, simerr.Config("season query parameter is required")
	}
	if !needDay {
		return season, 0, nil
	}
	day, err = strconv.Atoi(r.URL.Query().Get("day"))
	if err != nil {
		return 0, 0, simerr.Config("day query parameter is required")
	}
	return season, day, nil
}

func seedParam(r *http.Request) int64 {
	if raw := r.URL.Query().Get("seed"); raw != "" {
		if seed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

func (s *Server) dailySimHandler(w http.ResponseWriter, r *http.Request) {
	season, day, err := seasonDayParams(r, true)
	if err != nil {
		s.writeError(w, err)
		return
	}
	result, err := simulation.RunDailySim(r.Context(), s.engine, s.loader, season, day, seedParam(r), s.log)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.config.OutputDir != "" {
		if err := simulation.WriteDayResults(s.config.OutputDir, result); err != nil {
			s.writeError(w, err)
			return
		}
	}
	s.writeJSON(w, result)
}

func (s *Server) seasonSimHandler(w http.ResponseWriter, r *http.Request) {
	season, _, err := seasonDayParams(r, false)
	if err != nil {
		s.writeError(w, err)
		return
	}
	result, err := simulation.RunSeasonSim(r.Context(), s.engine, s.loader, season,
		seedParam(r), s.config.OutputDir, s.log)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, result)
}

func (s *Server) powerRankingsHandler(w http.ResponseWriter, r *http.Request) {
	season, day, err := seasonDayParams(r, true)
	if err != nil {
		s.writeError(w, err)
		return
	}
	rankings, err := simulation.PowerRankings(r.Context(), s.engine, s.loader, season, day, seedParam(r), s.log)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, rankings)
}

func (s *Server) sumSeasonHandler(w http.ResponseWriter, r *http.Request) {
	season, _, err := seasonDayParams(r, false)
	if err != nil {
		s.writeError(w, err)
		return
	}
	summary, err := simulation.SumSeason(s.config.OutputDir, season)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, summary)
}

// writeError maps the error taxonomy onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, simerr.ErrConfig):
		status = http.StatusBadRequest
	case errors.Is(err, simerr.ErrTransient):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusRequestTimeout
	}
	s.log.WithError(err).Warn("request failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Error("encoding response")
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.RequestURI,
			"status":   lrw.statusCode,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.WithField("panic", rec).Error("panic recovered")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		logrus.WithError(err).Error("invalid configuration")
		os.Exit(1)
	}
	log := newLogger(cfg)

	server, err := NewServer(cfg, log)
	if err != nil {
		log.WithError(err).Error("failed to start")
		os.Exit(1)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.WithError(err).Error("shutdown failed")
		}
	}()

	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Error("server failed")
		os.Exit(1)
	}
}
