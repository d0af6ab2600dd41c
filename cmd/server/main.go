// Package main implements the store monitoring service: a trigger/poll HTTP
// API over the uptime report generator.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"store-monitor/services/arrowexport"
	"store-monitor/services/clickhouse"
	"store-monitor/services/config"
	"store-monitor/services/jobs"
	"store-monitor/services/report"
)

// MonitorService wires storage, the report generator and the job registry
// behind the HTTP surface.
type MonitorService struct {
	clickhouse *clickhouse.Client
	generator  *report.Generator
	jobs       *jobs.Registry
	logger     *zap.Logger
	config     *config.Config
	// baseCtx bounds background report jobs; cancelled on shutdown.
	baseCtx context.Context
}

func NewMonitorService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*MonitorService, error) {
	chClient, err := clickhouse.Open(cfg.ClickHouse)
	if err != nil {
		return nil, fmt.Errorf("failed to create ClickHouse client: %w", err)
	}

	schemaCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := chClient.EnsureSchema(schemaCtx); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	generator := report.NewGenerator(chClient, cfg.Compute.DefaultTimezone, cfg.Compute.Workers, logger)

	return &MonitorService{
		clickhouse: chClient,
		generator:  generator,
		jobs:       jobs.NewRegistry(),
		logger:     logger,
		config:     cfg,
		baseCtx:    ctx,
	}, nil
}

func (s *MonitorService) setupHTTPRoutes(r *gin.Engine) {
	r.POST("/trigger_report", s.handleTriggerReport)
	r.GET("/get_report", s.handleGetReport)
	r.GET("/healthz", s.handleHealthCheck)
}

func (s *MonitorService) handleTriggerReport(c *gin.Context) {
	reportID := uuid.New().String()
	s.jobs.Create(reportID)

	s.logger.Info("Report triggered", zap.String("report_id", reportID))
	go s.runReportJob(reportID)

	c.JSON(http.StatusOK, gin.H{"report_id": reportID})
}

// runReportJob computes a report and marks the job Complete only after the
// CSV artifact is fully written. Any failure, including shutdown
// cancellation, leaves the job Failed rather than partially complete.
func (s *MonitorService) runReportJob(reportID string) {
	startTime := time.Now()

	rows, err := s.generator.Run(s.baseCtx)
	if err != nil {
		s.logger.Error("Report computation failed",
			zap.String("report_id", reportID),
			zap.Error(err),
		)
		s.jobs.Fail(reportID, err)
		return
	}

	if err := os.MkdirAll(s.config.Server.ReportDir, 0o755); err != nil {
		s.jobs.Fail(reportID, err)
		return
	}
	csvPath := filepath.Join(s.config.Server.ReportDir, reportID+".csv")
	f, err := os.Create(csvPath)
	if err != nil {
		s.jobs.Fail(reportID, err)
		return
	}
	if err := report.WriteCSV(f, rows); err != nil {
		f.Close()
		s.jobs.Fail(reportID, err)
		return
	}
	if err := f.Close(); err != nil {
		s.jobs.Fail(reportID, err)
		return
	}

	s.jobs.Complete(reportID, csvPath, rows)
	s.logger.Info("Report completed",
		zap.String("report_id", reportID),
		zap.Int("rows", len(rows)),
		zap.Duration("execution_time", time.Since(startTime)),
	)
}

func (s *MonitorService) handleGetReport(c *gin.Context) {
	reportID := c.Query("report_id")
	if reportID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "report_id is required"})
		return
	}

	job, ok := s.jobs.Get(reportID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "report_id not found"})
		return
	}

	switch job.State {
	case jobs.StateRunning:
		c.String(http.StatusOK, "Running")
	case jobs.StateFailed:
		c.String(http.StatusOK, "Failed")
	case jobs.StateComplete:
		if c.Query("status_only") == "true" {
			c.String(http.StatusOK, "Complete")
			return
		}
		if c.Query("format") == "arrow" {
			data, err := arrowexport.Encode(job.Rows)
			if err != nil {
				s.logger.Error("Arrow export failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.Data(http.StatusOK, "application/vnd.apache.arrow.stream", data)
			return
		}
		c.FileAttachment(job.CSVPath, "store_uptime_report.csv")
	}
}

func (s *MonitorService) handleHealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := s.clickhouse.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().Unix()})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting store monitoring service",
		zap.String("environment", cfg.Environment),
		zap.Int("port", cfg.Server.HTTPPort),
	)

	baseCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	service, err := NewMonitorService(baseCtx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create monitor service", zap.Error(err))
	}
	defer service.clickhouse.Close()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	service.setupHTTPRoutes(router)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.Int("port", cfg.Server.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancelJobs()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}
	logger.Info("Server stopped")
}
