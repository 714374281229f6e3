package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pjoubert/linkvigil/internal/config"
	"github.com/pjoubert/linkvigil/internal/domain"
	"github.com/pjoubert/linkvigil/internal/fetch"
	"github.com/pjoubert/linkvigil/internal/logger"
	"github.com/pjoubert/linkvigil/internal/probe"
	"github.com/pjoubert/linkvigil/internal/progress"
	"github.com/pjoubert/linkvigil/internal/scheduler"
	"github.com/pjoubert/linkvigil/internal/sources/state"
)

// App drives the two-phase pipeline: probe every bookmark, then fetch
// content for the accessible ones once the whole batch is probed.
type App struct {
	cfg        *config.Config
	logger     logger.Logger
	checker    *probe.Checker
	downloader *fetch.Downloader
	loader     *state.Loader
	saver      *state.Saver
	display    *progress.Display
}

// New wires the pipeline for one batch read from inputFile.
func New(cfg *config.Config, inputFile string) *App {
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	store := fetch.NewStore(cfg.OutputDir)

	return &App{
		cfg:        cfg,
		logger:     loggerClient,
		checker:    probe.NewChecker(cfg.Timeout, cfg.UserAgent, loggerClient.Named("probe")),
		downloader: fetch.NewDownloader(cfg.Timeout, cfg.UserAgent, store, loggerClient.Named("fetch")),
		loader:     state.NewLoader(inputFile),
		saver:      state.NewSaver(cfg.OutputDir),
		display:    progress.New(os.Stderr),
	}
}

// Run executes the batch. Per-bookmark failures never surface here;
// only batch-level setup problems (unreadable input, output directories
// that cannot be created) return an error.
func (a *App) Run() error {
	defer func() { _ = a.logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := state.EnsureLayout(a.cfg.OutputDir); err != nil {
		return err
	}

	records, err := a.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load bookmarks: %w", err)
	}
	if a.cfg.MaxURLs > 0 && len(records) > a.cfg.MaxURLs {
		a.logger.Infof("limiting batch to the first %d of %d bookmarks", a.cfg.MaxURLs, len(records))
		records = records[:a.cfg.MaxURLs]
	}

	defer a.display.Wait()

	records, err = a.probePhase(ctx, records)
	if err != nil {
		return err
	}
	if _, err := a.saver.Save(records, "checked"); err != nil {
		return err
	}

	if a.cfg.NoDownload {
		a.logger.Info("content download disabled, stopping after URL check")
		return nil
	}

	// Hard barrier: every probe above has finished before the first
	// download is scheduled.
	records, err = a.fetchPhase(ctx, records)
	if err != nil {
		return err
	}
	if _, err := a.saver.Save(records, "downloaded"); err != nil {
		return err
	}

	a.logger.Info("batch complete", logger.Int("bookmarks", len(records)))
	return nil
}

func (a *App) probePhase(ctx context.Context, records []*domain.BookmarkRecord) ([]*domain.BookmarkRecord, error) {
	a.logger.Info("checking URLs",
		logger.Int("count", len(records)),
		logger.Duration("timeout", a.cfg.Timeout))

	tasks := scheduler.Plan(records, a.cfg.Delay/2)
	bar := a.display.Bar("Checking URLs", len(tasks))

	runner := scheduler.NewRunner(a.logger.Named("scheduler"), a.cfg.MaxInFlight)
	checked, err := runner.Run(ctx, tasks, func(ctx context.Context, rec *domain.BookmarkRecord) {
		a.checker.Check(ctx, rec)
		bar.Increment()
	})
	if err != nil {
		bar.Abort()
		return nil, fmt.Errorf("URL check interrupted: %w", err)
	}

	accessible, redirected := 0, 0
	for _, rec := range checked {
		if rec.Status.Accessible {
			accessible++
		}
		if rec.Status.Redirect {
			redirected++
		}
	}
	a.logger.Info("URL check finished",
		logger.Int("accessible", accessible),
		logger.Int("redirected", redirected),
		logger.Int("inaccessible", len(checked)-accessible))

	return checked, nil
}

func (a *App) fetchPhase(ctx context.Context, records []*domain.BookmarkRecord) ([]*domain.BookmarkRecord, error) {
	// Batch-level setup: unlike per-bookmark failures, a content root
	// that cannot be created aborts the phase.
	if err := a.downloader.EnsureStorage(); err != nil {
		return nil, err
	}

	var fetchable, skipped []*domain.BookmarkRecord
	for _, rec := range records {
		if rec.Status != nil && rec.Status.Accessible {
			fetchable = append(fetchable, rec)
			continue
		}
		a.downloader.ShortCircuit(rec)
		skipped = append(skipped, rec)
	}

	a.logger.Info("downloading content",
		logger.Int("count", len(fetchable)),
		logger.Int("skipped", len(skipped)))

	tasks := scheduler.Plan(fetchable, a.cfg.Delay)
	bar := a.display.Bar("Downloading", len(tasks))

	runner := scheduler.NewRunner(a.logger.Named("scheduler"), a.cfg.MaxInFlight)
	fetched, err := runner.Run(ctx, tasks, func(ctx context.Context, rec *domain.BookmarkRecord) {
		a.downloader.Download(ctx, rec)
		bar.Increment()
	})
	if err != nil {
		bar.Abort()
		return nil, fmt.Errorf("content download interrupted: %w", err)
	}

	downloaded := 0
	for _, rec := range fetched {
		if rec.Content != nil && rec.Content.Downloaded {
			downloaded++
		}
	}
	a.logger.Info("content download finished",
		logger.Int("downloaded", downloaded),
		logger.Int("attempted", len(fetched)))

	merged := append(fetched, skipped...)
	domain.SortByID(merged)
	return merged, nil
}
