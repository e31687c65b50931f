package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/wingman/internal/capture"
	"github.com/mj1618/wingman/internal/config"
	"github.com/mj1618/wingman/internal/input"
	"github.com/mj1618/wingman/internal/llm"
	"github.com/mj1618/wingman/internal/logging"
	"github.com/mj1618/wingman/internal/ocr"
	"github.com/mj1618/wingman/internal/orchestrator"
	"github.com/mj1618/wingman/internal/platform"
	"github.com/mj1618/wingman/internal/scrape"
	"github.com/mj1618/wingman/internal/store"
	"github.com/mj1618/wingman/internal/vision"
	"github.com/mj1618/wingman/internal/window"
)

// app is everything one command needs, wired from the config file and the
// platform provider.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider *platform.Provider
	resolver *window.Resolver
	reader   *scrape.Reader
	store    *store.Store
	svc      *orchestrator.Service
	closers  []func() error
}

type appOptions struct {
	// wrapTree decorates the accessibility reader (serve adds its cache).
	wrapTree func(platform.TreeReader, *config.Config) platform.TreeReader
}

// loadConfig reads the file named by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, func() error, error) {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	return logging.New(logging.Options{
		Dir:     cfg.Logging.Dir,
		Level:   cfg.Logging.Level,
		Verbose: verbose,
	})
}

func newApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, closers: []func() error{closeLog}}

	provider, err := platform.NewProvider()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.provider = provider
	a.resolver = window.NewResolver(provider.Windows, cfg, logger)

	tree := provider.Tree
	if tree != nil && opts.wrapTree != nil {
		tree = opts.wrapTree(tree, cfg)
	}
	a.reader = scrape.NewReader(tree, scrape.ThresholdsFrom(cfg.Scraping.Accessibility), logger)

	capCfg := cfg.Scraping.Capture
	override := capCfg.OutputIndexOverride
	if override == nil {
		override = capCfg.LastWorkingOutputIndex
	}
	chain := capture.NewChain(logger,
		capture.NewOutputStrategy(provider.Output, provider.Displays, capture.OutputOptions{
			Override:       override,
			TryAll:         capCfg.TryAllOutputs,
			BlackThreshold: capCfg.BlackThreshold,
			OnSuccess:      a.rememberOutput,
		}, logger),
		capture.NewScreenStrategy(provider.Screen),
	)
	capturer := capture.NewCapturer(chain, provider.Displays, capCfg.ForceFullWindow, logger)

	injector := input.NewInjector(provider.Focus, provider.Input, cfg.Input, logger)
	deps := orchestrator.Deps{
		Config:    cfg,
		Windows:   a.resolver,
		Reader:    a.reader,
		Capturer:  capturer,
		OCR:       ocr.NewTesseract(cfg.Scraping.TesseractPath, time.Duration(cfg.Scraping.OCRTimeoutSec)*time.Second, logger),
		Model:     llm.New(llm.OptionsFrom(cfg.Model), logger),
		Locator:   vision.NewLocator(llm.New(visionOptions(cfg), logger), capturer, cfg.Vision.Enabled, cfg.Vision.Prompt, logger),
		Injector:  injector,
		Tools:     input.NewDesktopTools(injector, a.resolver, cfg.Tools.DefaultTitleRegex, logger),
		Artifacts: store.NewArtifacts(cfg.Storage.PeopleDir),
		Displays:  provider.Displays,
		Pointer:   provider.Pointer,
		Logger:    logger,
	}
	if m := input.NewMacroDelegate(cfg.AHK, cfg.Storage.BaseDir, logger); m != nil {
		deps.Macro = m
	}
	if st, err := store.Open(cfg.Storage.SQLitePath); err != nil {
		logger.Warn("database unavailable, suggestions will not be recorded", "path", cfg.Storage.SQLitePath, "error", err)
	} else {
		a.store = st
		deps.Store = st
		a.closers = append(a.closers, st.Close)
	}
	a.svc = orchestrator.New(deps)
	return a, nil
}

// visionOptions derives the vision client from the chat model settings.
func visionOptions(cfg *config.Config) llm.Options {
	opts := llm.OptionsFrom(cfg.Model)
	if cfg.Vision.BaseURL != "" {
		opts.BaseURL = cfg.Vision.BaseURL
	}
	if cfg.Vision.ModelName != "" {
		opts.Model = cfg.Vision.ModelName
	}
	if cfg.Vision.RequestTimeoutSec > 0 {
		opts.Timeout = time.Duration(cfg.Vision.RequestTimeoutSec) * time.Second
	}
	opts.Backoff = nil
	return opts
}

// rememberOutput records the output index that last produced a usable frame
// so the next run tries it first.
func (a *app) rememberOutput(idx int) {
	c := &a.cfg.Scraping.Capture
	if c.LastWorkingOutputIndex != nil && *c.LastWorkingOutputIndex == idx {
		return
	}
	c.LastWorkingOutputIndex = &idx
	if err := a.cfg.Save(); err != nil {
		a.logger.Warn("could not save working output index", "output", idx, "error", err)
	}
}

// Close releases the database and log file.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.Debug("close failed", "error", err)
		}
	}
}
