package engine

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfinch/bankexport/internal/browser"
	"github.com/pfinch/bankexport/internal/models"
	"go.uber.org/zap"
)

const (
	accountSwitcherSelector = "#select-account-selector"
	overviewSelector        = `a[href="#/dashboard/overview"] span:has-text("Overview")`
	fileTypeDropdown        = "select-downloadFileTypeOption"
	dateRangeDropdown       = "select-downloadActivityOptionId"
	fromDateInput           = "accountActivityFromDate-input-input"
	toDateInput             = "accountActivityToDate-input-input"
)

// Steps drives the per-account download procedure against the live page.
// Each method is one named unit of the procedure with its own outcome.
type Steps struct {
	page      browser.Interactor
	resolver  *browser.Resolver
	outputDir string
	sink      Sink
	logger    *zap.Logger
}

// NewSteps creates the step set bound to one page and output directory.
func NewSteps(page browser.Interactor, resolver *browser.Resolver, outputDir string, sink Sink, logger *zap.Logger) *Steps {
	return &Steps{
		page:      page,
		resolver:  resolver,
		outputDir: outputDir,
		sink:      sink,
		logger:    logger,
	}
}

// SelectAccount clicks into an account context. The same account identity is
// rendered several equivalent ways across sessions, so the chain covers link
// and span variants by both name and number.
func (s *Steps) SelectAccount(name, number string) bool {
	chain := browser.Chain{
		{Strategy: browser.BySelector, Value: fmt.Sprintf(`a:has-text("%s")`, name)},
		{Strategy: browser.BySelector, Value: fmt.Sprintf(`a:has-text("%s")`, number)},
		{Strategy: browser.BySelector, Value: fmt.Sprintf(`span:has-text("%s")`, name)},
		{Strategy: browser.BySelector, Value: fmt.Sprintf(`span:has-text("%s")`, number)},
		{Strategy: browser.BySelector, Value: fmt.Sprintf(`a:has(span:has-text("%s"))`, name)},
		{Strategy: browser.BySelector, Value: fmt.Sprintf(`a:has(span:has-text("%s"))`, number)},
	}
	if !s.resolver.Click(chain) {
		s.sink.emitf(LevelWarning, "could not find account %s", name)
		return false
	}
	if err := s.page.SettleNetwork(3 * time.Second); err != nil {
		s.logger.Debug("Page did not reach network idle after account select", zap.Error(err))
	}
	return true
}

// EnterDownloadFlow clicks the download-activity entry control.
func (s *Steps) EnterDownloadFlow() bool {
	chain := browser.Chain{
		{Strategy: browser.ByAttribute, Value: `id*="download-activity"`},
		{Strategy: browser.ByID, Value: "quick-action-download-activity-tooltip-info"},
		{Strategy: browser.ByID, Value: "quick-action-download-activity-tooltip-button"},
		{Strategy: browser.ByAttribute, Value: `data-testid="quick-action-download-activity-tooltip-button"`},
		{Strategy: browser.ByAttribute, Value: `data-testid="quick-action-download-activity-tooltip-info"`},
		{Strategy: browser.BySelector, Value: `button:has-text("Download")`},
	}
	if !s.resolver.Click(chain) {
		s.sink.emitf(LevelWarning, "could not find download entry control")
		return false
	}
	if err := s.page.SettleNetwork(3 * time.Second); err != nil {
		s.logger.Debug("Page did not reach network idle after download entry", zap.Error(err))
	}
	return true
}

// CheckOverview reports whether the interstitial overview screen is showing.
func (s *Steps) CheckOverview() bool {
	return s.page.WaitVisible(overviewSelector, 2*time.Second) == nil
}

// VerifyAccount confirms the active account matches the requested one. On a
// mismatch it makes one correction attempt through the account switcher;
// a second mismatch escalates, since downloading under the wrong account
// would silently corrupt the output.
func (s *Steps) VerifyAccount(name, number string) error {
	if err := s.page.WaitVisible(accountSwitcherSelector, 5*time.Second); err != nil {
		return fmt.Errorf("account switcher never appeared: %w", err)
	}

	label, err := s.page.Text(accountSwitcherSelector + " span")
	if err != nil {
		return fmt.Errorf("failed to read active account label: %w", err)
	}
	if strings.Contains(label, name) {
		s.sink.emitf(LevelInfo, "verified account %s", name)
		return nil
	}

	s.sink.emitf(LevelWarning, "wrong account active: want %s, got %s", name, strings.TrimSpace(label))

	// One-shot correction through the switcher option.
	if err := s.page.Click(accountSwitcherSelector); err != nil {
		return &VerificationError{Want: name, Got: label}
	}
	option := fmt.Sprintf(`mds-select-option[label="%s (...%s)"]`, name, number)
	if err := s.page.WaitVisible(option, 3*time.Second); err != nil {
		return &VerificationError{Want: name, Got: label}
	}
	if err := s.page.Click(option); err != nil {
		return &VerificationError{Want: name, Got: label}
	}
	s.page.Pause(300 * time.Millisecond)

	s.sink.emitf(LevelInfo, "switched to account %s (...%s)", name, number)
	return nil
}

// SetFileType opens the export-format dropdown and selects the spreadsheet
// option. Idempotent; raises ConfigurationError on chain exhaustion.
func (s *Steps) SetFileType() error {
	if err := s.page.WaitVisible("#"+fileTypeDropdown, 2500*time.Millisecond); err != nil {
		return &ConfigurationError{Stage: "file_type", Err: err}
	}
	if err := s.page.Click("#" + fileTypeDropdown); err != nil {
		return &ConfigurationError{Stage: "file_type", Err: err}
	}
	s.page.Pause(time.Second)

	options := browser.Chain{
		{Strategy: browser.BySelector, Value: `span:has-text("Spreadsheet (Excel, CSV)")`},
		{Strategy: browser.BySelector, Value: `li:has-text("Spreadsheet (Excel, CSV)")`},
		{Strategy: browser.BySelector, Value: `[role="option"]:has-text("Spreadsheet (Excel, CSV)")`},
	}
	if !s.resolver.Click(options) {
		return &ConfigurationError{Stage: "file_type", Err: ErrLocatorExhausted}
	}
	return nil
}

// SetDateRange opens the activity-window dropdown, selects the custom range
// option and fills both date fields with the period's bounds. The date
// widgets only accept text fill, not click-based input.
func (s *Steps) SetDateRange(period models.Period) error {
	if err := s.page.WaitVisible("#"+dateRangeDropdown, 3*time.Second); err != nil {
		return &ConfigurationError{Stage: "date_range", Err: err}
	}
	if err := s.page.Click("#" + dateRangeDropdown); err != nil {
		return &ConfigurationError{Stage: "date_range", Err: err}
	}
	s.page.Pause(500 * time.Millisecond)

	customRange := browser.Chain{
		{Strategy: browser.BySelector, Value: `mds-select-option[label="Choose a date range"]`, Timeout: 3 * time.Second},
		{Strategy: browser.BySelector, Value: `span:has-text("Choose a date range")`, Timeout: 3 * time.Second},
		{Strategy: browser.BySelector, Value: `[role="option"]:has-text("Choose a date range")`, Timeout: 3 * time.Second},
	}
	if !s.resolver.Click(customRange) {
		return &ConfigurationError{Stage: "date_range", Err: ErrLocatorExhausted}
	}

	// The date inputs render after the option commits.
	s.page.Pause(3 * time.Second)

	if !s.resolver.Fill(browser.Chain{{Strategy: browser.ByID, Value: fromDateInput, Timeout: 3 * time.Second}}, period.StartDate()) {
		return &ConfigurationError{Stage: "date_range", Err: fmt.Errorf("start date field: %w", ErrLocatorExhausted)}
	}
	if !s.resolver.Fill(browser.Chain{{Strategy: browser.ByID, Value: toDateInput, Timeout: 3 * time.Second}}, period.EndDate()) {
		return &ConfigurationError{Stage: "date_range", Err: fmt.Errorf("end date field: %w", ErrLocatorExhausted)}
	}

	s.sink.emitf(LevelInfo, "date range set to %s - %s", period.StartDate(), period.EndDate())
	return nil
}

// ExecuteDownload resolves the download trigger, intercepts the resulting
// transfer and persists it under the deterministic artifact name, silently
// overwriting an existing file.
func (s *Steps) ExecuteDownload(accountName string, period models.Period) (models.DownloadArtifact, error) {
	path := filepath.Join(s.outputDir, models.ArtifactFileName(accountName, period))

	triggers := browser.Chain{
		{Strategy: browser.BySelector, Value: "mds-button#download", Timeout: 3 * time.Second},
		{Strategy: browser.BySelector, Value: `mds-button[text="Download"]`, Timeout: 3 * time.Second},
		{Strategy: browser.BySelector, Value: `mds-button[variant="primary"]`, Timeout: 3 * time.Second},
		{Strategy: browser.BySelector, Value: `mds-button:has-text("Download")`, Timeout: 3 * time.Second},
	}

	// The chain is walked by hand here: the action must arm the download
	// interception concurrently with the click, which the generic resolver
	// actions don't model.
	for _, cand := range triggers {
		selector := cand.Selector()
		if err := s.page.WaitVisible(selector, cand.Timeout); err != nil {
			continue
		}
		if err := s.page.SaveDownload(selector, 3*time.Second, path); err != nil {
			s.logger.Debug("Download attempt failed",
				zap.String("selector", selector),
				zap.Error(err))
			continue
		}
		s.sink.emitf(LevelSuccess, "saved %s", path)
		return models.DownloadArtifact{Path: path, AccountName: accountName, Period: period}, nil
	}

	return models.DownloadArtifact{}, &TransferTimeoutError{Account: accountName}
}

// ReturnToOverview restores the session to a state the next account can
// start from. If the interstitial overview screen shows up afterwards, the
// download-entry click is re-issued to land back in the per-account flow.
func (s *Steps) ReturnToOverview() error {
	chain := browser.Chain{
		{Strategy: browser.BySelector, Value: `button:has(span:has-text("Download other activity"))`, Timeout: 3 * time.Second},
		{Strategy: browser.BySelector, Value: `span:has-text("Download other activity")`, Timeout: 3 * time.Second},
		{Strategy: browser.BySelector, Value: `button:has-text("Download other activity")`, Timeout: 3 * time.Second},
	}
	if !s.resolver.Click(chain) {
		return &NavigationError{Reason: "download-other-activity control not found", Err: ErrLocatorExhausted}
	}
	if err := s.page.SettleNetwork(3 * time.Second); err != nil {
		s.logger.Debug("Page did not reach network idle after recovery click", zap.Error(err))
	}

	if s.CheckOverview() {
		if !s.EnterDownloadFlow() {
			return &NavigationError{Reason: "failed to click out of overview"}
		}
	}
	return nil
}
