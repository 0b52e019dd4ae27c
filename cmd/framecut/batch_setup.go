package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"framecut/internal/batch"
	"framecut/internal/checkpoint"
	"framecut/internal/config"
	"framecut/internal/framecache"
	"framecut/internal/logging"
	"framecut/internal/media"
	"framecut/internal/pipeline"
	"framecut/internal/prefetch"
)

// cacheFileName is the prepared-data cache stored next to the outputs.
const cacheFileName = ".framecut_cache.db"

// batchSession holds everything one run or auto invocation needs.
type batchSession struct {
	cfg        *config.Config
	logger     *slog.Logger
	inputDir   string
	outputDir  string
	lock       *pipeline.Session
	store      *batch.Store
	cache      *framecache.Cache
	prefetcher *prefetch.Prefetcher
	controller *pipeline.Controller
	progress   *progressPrinter
	resumed    bool
}

// openBatchSession wires the pipeline for the given directories. A matching
// checkpoint resumes the previous batch; otherwise the input directory is
// listed fresh.
func openBatchSession(cmdCtx *commandContext, inputDir, outputDir string, policy pipeline.DispositionPolicy) (*batchSession, error) {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := cmdCtx.ensureLogger()
	if err != nil {
		return nil, err
	}

	if inputDir, err = config.ExpandPath(inputDir); err != nil {
		return nil, fmt.Errorf("resolve input directory: %w", err)
	}
	if outputDir, err = config.ExpandPath(outputDir); err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	lock := pipeline.NewSession(outputDir)
	if err := lock.Acquire(); err != nil {
		return nil, err
	}

	s := &batchSession{
		cfg:       cfg,
		logger:    logger,
		inputDir:  inputDir,
		outputDir: outputDir,
		lock:      lock,
		progress:  newProgressPrinter(os.Stdout),
	}
	if err := s.wire(policy); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *batchSession) wire(policy pipeline.DispositionPolicy) error {
	persister := checkpoint.NewPersister(s.outputDir, s.logger)
	s.store = batch.NewStore(s.inputDir, s.outputDir, persister, s.logger)

	processor := media.NewProcessor(s.cfg, s.logger)

	snapshot, found, err := checkpoint.Load(s.outputDir, s.logger)
	if err != nil {
		return err
	}
	if found && snapshot.InputRoot == s.inputDir && snapshot.OutputRoot == s.outputDir {
		if err := s.store.Restore(snapshot); err != nil {
			return err
		}
		s.resumed = true
	} else {
		files, err := processor.ListMediaFiles(s.inputDir)
		if err != nil {
			return err
		}
		if err := s.store.Initialize(files); err != nil {
			return err
		}
	}

	if s.cfg.Prefetch.CacheEnabled {
		cache, err := framecache.Open(filepath.Join(s.outputDir, cacheFileName), s.logger)
		if err != nil {
			// The cache is an accelerator, not a requirement.
			s.logger.Warn("prepared-data cache unavailable", logging.Error(err))
		} else {
			s.cache = cache
		}
	}

	s.prefetcher = prefetch.New(s.store,
		framecache.NewCachingPreparer(s.cache, processor, s.logger),
		s.progress.handle, s.logger)

	deps := pipeline.Deps{
		Store:      s.store,
		Prefetcher: s.prefetcher,
		Generator:  processor,
		Remover:    processor,
		Checkpoint: persister,
		Policy:     policy,
		Generate: media.GenerateOptions{
			CRF:          s.cfg.Generate.CRF,
			Preset:       s.cfg.Generate.Preset,
			AudioBitrate: s.cfg.Generate.AudioBitrate,
		},
		OutputDir: s.outputDir,
		Window:    s.cfg.Prefetch.Window,
		Logger:    s.logger,
	}
	if s.cache != nil {
		deps.Cache = s.cache
	}

	controller, err := pipeline.NewController(deps)
	if err != nil {
		return err
	}
	s.controller = controller
	return nil
}

// Close releases the session lock and the cache.
func (s *batchSession) Close() {
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.lock != nil {
		if err := s.lock.Release(); err != nil && s.logger != nil {
			s.logger.Warn("failed to release session lock", logging.Error(err))
		}
	}
}
