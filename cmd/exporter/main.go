package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pfinch/bankexport/internal/browser"
	"github.com/pfinch/bankexport/internal/config"
	"github.com/pfinch/bankexport/internal/engine"
	"github.com/pfinch/bankexport/internal/history"
	"github.com/pfinch/bankexport/internal/models"
	"github.com/pfinch/bankexport/internal/vision"
	"github.com/pfinch/bankexport/pkg/database"
	"github.com/pfinch/bankexport/pkg/utils"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
)

func main() {
	lastMonth := time.Now().AddDate(0, -1, 0)

	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	accountsPath := flag.String("accounts", "creds/bank_accts.json", "path to the account list JSON")
	month := flag.Int("month", int(lastMonth.Month()), "statement month (1-12)")
	year := flag.Int("year", lastMonth.Year(), "statement year")
	flag.Parse()

	// Optional .env for local development; credentials land in the process
	// environment either way.
	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	period := models.Period{Month: time.Month(*month), Year: *year}
	if err := period.Validate(); err != nil {
		logger.Fatal("Invalid period", zap.Error(err))
	}

	accounts, err := models.LoadAccounts(*accountsPath)
	if err != nil {
		logger.Fatal("Failed to load account list", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		logger.Fatal("Failed to create output directory", zap.Error(err))
	}

	logger.Info("Starting statement export",
		zap.String("period", period.String()),
		zap.Int("accounts", len(accounts)),
		zap.String("output_dir", cfg.Output.Dir))

	session, err := browser.NewSession(browser.SessionConfig{
		UserDataDir:    cfg.Browser.UserDataDir,
		Headless:       cfg.Browser.Headless,
		SlowMo:         cfg.Browser.SlowMo,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to start browser session", zap.Error(err))
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Error("Failed to close browser session", zap.Error(err))
		}
	}()

	page := session.Page()
	resolver := browser.NewResolver(page, logger)
	matcher := vision.NewMatcher(vision.Desktop{}, logger)
	library := vision.NewLibrary(cfg.Templates.Dir)

	auth := engine.NewAuthenticator(page, resolver, matcher, library,
		engine.Credentials{
			Username: cfg.Portal.Username,
			Password: cfg.Portal.Password,
		},
		cfg.Portal.URL, cfg.Portal.Profile, logger)

	// A stop request (Ctrl-C) is honored between accounts.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := auth.Login(ctx); err != nil {
		logger.Fatal("Sign-in failed", zap.Error(err))
	}

	var recorder engine.Recorder
	if cfg.History.Path != "" {
		db, err := database.Open(cfg.History.Path, logger)
		if err != nil {
			logger.Fatal("Failed to open history database", zap.Error(err))
		}
		defer db.Close()

		store, err := history.NewStore(db, logger)
		if err != nil {
			logger.Fatal("Failed to initialize history store", zap.Error(err))
		}
		recorder = store
	}

	sink := consoleSink(os.Stdout)
	steps := engine.NewSteps(page, resolver, cfg.Output.Dir, sink, logger)
	orchestrator := engine.NewOrchestrator(steps, sink, recorder, logger)

	if err := orchestrator.Bootstrap(accounts[0]); err != nil {
		logger.Fatal("Failed to enter download flow", zap.Error(err))
	}

	results := orchestrator.Run(ctx, accounts, period)

	for _, r := range results {
		if r.Status == models.StatusSuccess {
			fmt.Printf("  %-30s %s\n", r.Account.Name, r.Status)
		} else {
			fmt.Printf("  %-30s %s (%s)\n", r.Account.Name, r.Status, r.Err)
		}
	}

	if failed := results.Failed(); failed > 0 {
		logger.Warn("Export finished with failures", zap.Int("failed", failed))
		os.Exit(1)
	}
	logger.Info("Export finished")
}

// consoleSink writes progress lines with a level tag, standing in for the
// GUI console panel.
func consoleSink(w io.Writer) engine.Sink {
	return func(level engine.Level, msg string) {
		fmt.Fprintf(w, "[%s] %s\n", level, msg)
	}
}
