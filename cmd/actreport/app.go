package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/vbonduro/actreport/internal/caption"
	"github.com/vbonduro/actreport/internal/caption/claude"
	"github.com/vbonduro/actreport/internal/caption/ollama"
	"github.com/vbonduro/actreport/internal/config"
	"github.com/vbonduro/actreport/internal/db"
	"github.com/vbonduro/actreport/internal/draft"
	"github.com/vbonduro/actreport/internal/filestore/local"
	"github.com/vbonduro/actreport/internal/logging"
	"github.com/vbonduro/actreport/internal/report"
	"github.com/vbonduro/actreport/internal/report/chromium"
	"github.com/vbonduro/actreport/internal/report/fpdf"
	"github.com/vbonduro/actreport/internal/service"
	"github.com/vbonduro/actreport/internal/store"
)

// app holds the wired dependencies shared by the commands.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	database  *sql.DB
	collector *draft.Collector
	service   *service.ReportService
	cleanup   func()
}

func newApp(cfg *config.Config) (*app, error) {
	logger, cleanupLog, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		cleanupLog()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	files, err := local.NewLocalFileStore(cfg.UploadPath)
	if err != nil {
		_ = database.Close()
		cleanupLog()
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}

	collector := draft.NewCollector()
	svc := service.NewReportService(
		store.NewReportStore(database),
		collector,
		files,
		newRenderer(cfg, logger),
		newCaptioner(cfg, logger),
		service.Settings{
			OutputDir: cfg.OutputDir,
			Header: report.Header{
				Institution: cfg.Institution,
				School:      cfg.School,
				Department:  cfg.Department,
			},
			WatermarkText: cfg.WatermarkText,
		},
		logger,
	)

	return &app{
		cfg:       cfg,
		logger:    logger,
		database:  database,
		collector: collector,
		service:   svc,
		cleanup: func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
			cleanupLog()
		},
	}, nil
}

// newRenderer picks the PDF renderer. Chromium prints the HTML layout; when no
// browser is available the fpdf layout is used instead.
func newRenderer(cfg *config.Config, logger *slog.Logger) report.Renderer {
	switch cfg.Renderer {
	case "fpdf":
		logger.Info("using fpdf renderer")
		return fpdf.New(logger)
	default:
		if cfg.ChromeBin == "" {
			if _, ok := launcher.LookPath(); !ok {
				logger.Warn("no Chromium browser found, falling back to fpdf renderer")
				return fpdf.New(logger)
			}
		}
		logger.Info("using Chromium renderer", "bin", cfg.ChromeBin)
		return chromium.New(cfg.ChromeBin, cfg.ChromeNoSandbox, logger)
	}
}

// newCaptioner returns nil when caption suggestions are turned off.
func newCaptioner(cfg *config.Config, logger *slog.Logger) caption.Suggester {
	switch cfg.CaptionBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			logger.Error("CLAUDE_API_KEY is required when CAPTION_BACKEND=claude, captions disabled")
			return nil
		}
		logger.Info("using Claude caption backend", "model", cfg.ClaudeModel)
		return claude.NewClaudeCaptioner(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	case "ollama":
		logger.Info("using Ollama caption backend", "model", cfg.OllamaModel)
		return ollama.NewOllamaCaptioner(cfg.OllamaHost, cfg.OllamaModel)
	default:
		return nil
	}
}
