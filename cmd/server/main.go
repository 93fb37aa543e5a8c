package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/geotrack/visibility-tracker/internal/archive"
	"github.com/geotrack/visibility-tracker/internal/config"
	"github.com/geotrack/visibility-tracker/internal/engines"
	"github.com/geotrack/visibility-tracker/internal/models"
	"github.com/geotrack/visibility-tracker/internal/notifications"
	"github.com/geotrack/visibility-tracker/internal/reporting"
	"github.com/geotrack/visibility-tracker/internal/scheduler"
	"github.com/geotrack/visibility-tracker/internal/store"
	"github.com/geotrack/visibility-tracker/internal/tracking"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting AI Visibility Tracker")

	ctx := context.Background()

	// Initialize persistence
	pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer pgStore.Close()

	if err := pgStore.EnsureSchema(ctx); err != nil {
		logrus.Fatalf("Failed to ensure schema: %v", err)
	}

	// Initialize raw-response archive
	var responseArchive archive.Archive = archive.Noop{}
	if cfg.StorageAccount != "" {
		blobArchive, err := archive.NewAzureBlobArchive(ctx, cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			logrus.Fatalf("Failed to initialize response archive: %v", err)
		}
		responseArchive = blobArchive
	}

	// Initialize AI engines. Only engines with credentials get a client;
	// the rest of the known identifiers fail fast per tracking unit.
	registry := engines.Registry{}
	if cfg.OpenAIAPIKey != "" {
		chatgpt, err := engines.NewChatGPTEngine(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			logrus.Fatalf("Failed to initialize ChatGPT engine: %v", err)
		}
		registry[chatgpt.Name()] = chatgpt
	} else {
		logrus.Warn("OPENAI_API_KEY not set; chatgpt tracking units will fail")
	}

	// Initialize services
	trackingService := tracking.NewService(pgStore, registry, responseArchive, tracking.Options{
		RequestDelay: cfg.RequestDelay,
		QueryTimeout: cfg.QueryTimeout,
	})
	reportBuilder := reporting.NewBuilder(trackingService, cfg.TargetScore)
	notificationService := notifications.NewService(cfg)
	schedulerService := scheduler.NewService(cfg, pgStore, trackingService, reportBuilder, notificationService)

	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	// Set up HTTP server
	router := mux.NewRouter()

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/metrics", metricsHandler(trackingService)).Methods("GET")
	router.HandleFunc("/trigger", triggerHandler(schedulerService)).Methods("POST")

	router.HandleFunc("/api/tracking/track", trackHandler(trackingService)).Methods("POST")
	router.HandleFunc("/api/tracking/stats/{brandID}", statsHandler(trackingService)).Methods("GET")
	router.HandleFunc("/api/tracking/competitors/{brandID}", competitorsHandler(trackingService)).Methods("GET")
	router.HandleFunc("/api/tracking/responses/{sessionID}", responseHandler(responseArchive)).Methods("GET")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // tracking runs are synchronous and slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

type trackRequest struct {
	BrandID   string   `json:"brand_id"`
	PromptIDs []string `json:"prompt_ids,omitempty"`
	AIEngines []string `json:"ai_engines,omitempty"`
}

type trackSummary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Mentioned int `json:"mentioned"`
}

type trackResponse struct {
	Results []models.TrackingResult `json:"results"`
	Summary trackSummary            `json:"summary"`
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

func metricsHandler(trackingService *tracking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(trackingService.GetMetrics()))
	}
}

func triggerHandler(schedulerService *scheduler.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go schedulerService.RunScheduledTracking(context.Background())

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"Tracking run triggered"}`))
	}
}

// trackHandler runs one tracking batch synchronously within the request.
func trackHandler(trackingService *tracking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req trackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		// Validation happens before any persistence side effect.
		if req.BrandID == "" {
			writeError(w, http.StatusBadRequest, "brand_id is required")
			return
		}
		if err := tracking.ValidateEngines(req.AIEngines); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		results, err := trackingService.TrackBrandPrompts(r.Context(), req.BrandID, req.PromptIDs, req.AIEngines)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}

		summary := trackSummary{Total: len(results)}
		for _, result := range results {
			switch result.Status {
			case models.StatusCompleted:
				summary.Completed++
			case models.StatusFailed:
				summary.Failed++
			}
			if result.BrandMentioned {
				summary.Mentioned++
			}
		}

		writeJSON(w, http.StatusOK, trackResponse{Results: results, Summary: summary})
	}
}

func statsHandler(trackingService *tracking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		brandID := mux.Vars(r)["brandID"]
		days := queryInt(r, "days", 7)

		stats, err := trackingService.GetBrandTrackingStats(r.Context(), brandID, days)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		breakdown, err := trackingService.GetVisibilityBreakdown(r.Context(), brandID, days)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"stats":           stats,
			"score_breakdown": breakdown,
		})
	}
}

func competitorsHandler(trackingService *tracking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		brandID := mux.Vars(r)["brandID"]
		days := queryInt(r, "days", 7)
		limit := queryInt(r, "limit", 10)

		competitors, err := trackingService.GetTopCompetitors(r.Context(), brandID, days, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"competitors": competitors})
	}
}

// responseHandler serves the archived raw model response for a session.
func responseHandler(responseArchive archive.Archive) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["sessionID"]

		data, err := responseArchive.Retrieve(r.Context(), sessionID+".txt")
		if err != nil {
			writeError(w, http.StatusNotFound, "response not archived")
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	if value := r.URL.Query().Get(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
