package browser

import (
	"fmt"
	"time"

	pw "github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// SessionConfig controls how the browser context is launched.
type SessionConfig struct {
	UserDataDir    string
	Headless       bool
	SlowMo         time.Duration
	ViewportWidth  int
	ViewportHeight int
}

// Session is the single authenticated browser context shared sequentially
// across all accounts in a batch. Only the orchestrator drives it; UI
// automation against a live page is not safely concurrent.
type Session struct {
	pw      *pw.Playwright
	context pw.BrowserContext
	page    pw.Page
	logger  *zap.Logger
}

// NewSession launches a persistent Chromium context over the configured
// user-data directory and opens the one page the whole batch shares.
func NewSession(cfg SessionConfig, logger *zap.Logger) (*Session, error) {
	runner, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	context, err := runner.Chromium.LaunchPersistentContext(cfg.UserDataDir,
		pw.BrowserTypeLaunchPersistentContextOptions{
			Headless:        pw.Bool(cfg.Headless),
			SlowMo:          pw.Float(float64(cfg.SlowMo.Milliseconds())),
			AcceptDownloads: pw.Bool(true),
			Viewport: &pw.Size{
				Width:  cfg.ViewportWidth,
				Height: cfg.ViewportHeight,
			},
		})
	if err != nil {
		_ = runner.Stop()
		return nil, fmt.Errorf("failed to launch browser context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		_ = context.Close()
		_ = runner.Stop()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	logger.Info("Browser session started",
		zap.String("user_data_dir", cfg.UserDataDir),
		zap.Bool("headless", cfg.Headless))

	return &Session{pw: runner, context: context, page: page, logger: logger}, nil
}

// Page returns the session's page behind the Interactor surface.
func (s *Session) Page() Interactor {
	return NewPage(s.page)
}

// Close tears down the context and the playwright driver.
func (s *Session) Close() error {
	s.logger.Info("Closing browser session")
	if err := s.context.Close(); err != nil {
		return fmt.Errorf("failed to close browser context: %w", err)
	}
	return s.pw.Stop()
}
