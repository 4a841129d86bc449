// Package app wires configuration into the services shared by the HTTP
// server and the CLI.
package app

import (
	"fmt"

	bbolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"docanalyst/internal/analyzer"
	_ "docanalyst/internal/analyzer/claude" // registers claude
	_ "docanalyst/internal/analyzer/gemini" // registers gemini
	_ "docanalyst/internal/analyzer/openai" // registers openai and deepseek
	"docanalyst/internal/combiner"
	"docanalyst/internal/config"
	"docanalyst/internal/domain"
	"docanalyst/internal/logging"
	"docanalyst/internal/port"
	"docanalyst/internal/processor"
	"docanalyst/internal/prompt"
	"docanalyst/internal/repository/bolt"
	"docanalyst/internal/service"
	"docanalyst/internal/speech/whisper"
	"docanalyst/internal/storage/local"
	s3storage "docanalyst/internal/storage/s3"
)

// App holds the wired services. Close releases the history store.
type App struct {
	Config    *config.Config
	Log       *zap.Logger
	Registry  *processor.Registry
	Prompts   *prompt.Resolver
	Analyzers *analyzer.Set
	Analysis  service.AnalysisService
	History   service.HistoryService
	Export    service.ExportService

	db *bbolt.DB
}

// New builds every service from cfg. The OCR engine is passed in so callers
// choose the tesseract binding or a stand-in.
func New(cfg *config.Config, ocr port.OCREngine, log *zap.Logger) (*App, error) {
	log = logging.OrNop(log)

	prompts := prompt.NewResolver()
	if path := cfg.Prompts.CustomTypesPath; path != "" {
		if err := prompts.LoadFile(path); err != nil {
			return nil, fmt.Errorf("loading custom analysis types: %w", err)
		}
		log.Info("app.New: custom analysis types loaded", zap.String("path", path))
	}

	analyzers, err := analyzer.NewSet(&cfg.AI, log)
	if err != nil {
		return nil, fmt.Errorf("initializing AI providers: %w", err)
	}
	if len(analyzers.Names()) == 0 {
		log.Warn("app.New: no AI provider has an API key; analysis requests will fail")
	}

	sink, err := NewExportSink(cfg)
	if err != nil {
		return nil, err
	}

	db, err := bolt.NewDB(&cfg.History)
	if err != nil {
		return nil, err
	}
	historyRepo := bolt.NewHistoryRepo(db)

	registry := processor.NewDefaultRegistry(ocr, whisper.NewTranscriber(&cfg.Speech))
	comb := combiner.New(log)

	return &App{
		Config:    cfg,
		Log:       log,
		Registry:  registry,
		Prompts:   prompts,
		Analyzers: analyzers,
		Analysis:  service.NewAnalysisService(registry, analyzers, prompts, comb, historyRepo, &cfg.Processing, log),
		History:   service.NewHistoryService(historyRepo, comb, log),
		Export:    service.NewExportService(historyRepo, sink, cfg, log),
		db:        db,
	}, nil
}

// NewExportSink returns the object storage selected by cfg.Export.Sink.
func NewExportSink(cfg *config.Config) (port.ObjectStorage, error) {
	switch cfg.Export.Sink {
	case "s3":
		store, err := s3storage.NewExportStore(&cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("initializing S3 export sink: %w", err)
		}
		return store, nil
	case "local", "":
		store, err := local.NewDirStore(cfg.Export.Dir)
		if err != nil {
			return nil, fmt.Errorf("initializing local export sink: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown export sink %q", cfg.Export.Sink)
	}
}

// DefaultStrategy returns the configured combine strategy.
func (a *App) DefaultStrategy() domain.CombineStrategy {
	return domain.CombineStrategy(a.Config.Processing.CombineStrategy)
}

// Close releases the history store.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	if err != nil {
		return fmt.Errorf("closing history database: %w", err)
	}
	return nil
}
