// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"telehealth-agent/internal/bootstrap"
	"telehealth-agent/internal/common/camunda"
	"telehealth-agent/internal/common/config"
	"telehealth-agent/internal/common/logger"

	// Telehealth Workers (10)
	er "telehealth-agent/internal/workers/telehealth/evaluate-response"
	eq "telehealth-agent/internal/workers/telehealth/extract-queries"
	fr "telehealth-agent/internal/workers/telehealth/filter-relevance"
	nqa "telehealth-agent/internal/workers/telehealth/notify-quality-alert"
	pp "telehealth-agent/internal/workers/telehealth/parse-profile"
	pt "telehealth-agent/internal/workers/telehealth/process-turn"
	re "telehealth-agent/internal/workers/telehealth/retrieve-evidence"
	sf "telehealth-agent/internal/workers/telehealth/search-faq"
	scf "telehealth-agent/internal/workers/telehealth/sync-curated-faqs"
	sr "telehealth-agent/internal/workers/telehealth/synthesize-response"
)

const healthAddr = ":8080"

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("service", cfg.App.Name),
		zap.String("environment", cfg.App.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	components := bootstrap.New(ctx, cfg, log, bootstrap.WithConnectRetries(10, 2*time.Second))
	defer components.Close()

	// --- Register telehealth workers ---
	workers := []*camunda.CamundaWorker{}
	register := func(taskType string, handler camunda.JobHandler) {
		wcfg, ok := cfg.Workers[taskType]
		if !ok || !wcfg.Enabled {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), taskType, camunda.WorkerOptions{
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
			Recorder:      components.Obs,
		}, handler, zapLog))
		zapLog.Info("worker started",
			zap.String("taskType", taskType),
			zap.Int("maxJobsActive", wcfg.MaxJobsActive),
			zap.Int("timeout_ms", wcfg.Timeout),
		)
	}

	c := components
	register(pp.TaskType, c.ParseProfile.Handle)
	register(eq.TaskType, c.ExtractQueries.Handle)
	register(re.TaskType, c.RetrieveEvidence.Handle)
	register(fr.TaskType, c.FilterRelevance.Handle)
	register(sr.TaskType, c.SynthesizeResponse.Handle)
	register(er.TaskType, c.EvaluateResponse.Handle)
	register(pt.TaskType, c.ProcessTurn.Handle)
	register(sf.TaskType, c.SearchFAQ.Handle)
	register(nqa.TaskType, c.NotifyQualityAlert.Handle)
	if c.SyncCuratedFAQs != nil {
		register(scf.TaskType, c.SyncCuratedFAQs.Handle)
	} else {
		zapLog.Info("worker disabled, elasticsearch unavailable", zap.String("taskType", scf.TaskType))
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	srv := &http.Server{
		Addr:              healthAddr,
		Handler:           healthMux(zeebe),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", healthAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutdown signal received, stopping workers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for _, w := range workers {
			w.Stop()
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("worker manager stopped with error", zap.Error(err))
	}

	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	zapLog.Info("Worker manager stopped gracefully")
}

func healthMux(zeebe *camunda.Client) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
