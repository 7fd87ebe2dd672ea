// Package browser owns the live portal session and the locator fallback
// machinery that finds controls whose identity shifts between sessions.
package browser

import (
	"fmt"
	"time"

	pw "github.com/playwright-community/playwright-go"
)

// Interactor is the narrow surface of a live page the engine drives. The
// production implementation wraps a playwright page; tests substitute fakes.
type Interactor interface {
	// Goto navigates to a URL and waits for the load event.
	Goto(url string) error
	// WaitVisible blocks until the selector is visible or the timeout lapses.
	WaitVisible(selector string, timeout time.Duration) error
	// Click clicks the first element matching the selector.
	Click(selector string) error
	// Fill replaces the value of the input matching the selector.
	Fill(selector, value string) error
	// Text reads the text content of the first element matching the selector.
	Text(selector string) (string, error)
	// SettleNetwork waits for a network-idle signal.
	SettleNetwork(timeout time.Duration) error
	// Pause sleeps on the page's clock.
	Pause(d time.Duration)
	// SaveDownload clicks the selector, intercepts the resulting file
	// transfer and persists it to path, overwriting any existing file.
	SaveDownload(selector string, timeout time.Duration, path string) error
}

type playwrightPage struct {
	page pw.Page
}

// NewPage wraps a playwright page in the Interactor surface.
func NewPage(page pw.Page) Interactor {
	return &playwrightPage{page: page}
}

func (p *playwrightPage) Goto(url string) error {
	if _, err := p.page.Goto(url, pw.PageGotoOptions{
		WaitUntil: pw.WaitUntilStateLoad,
	}); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (p *playwrightPage) WaitVisible(selector string, timeout time.Duration) error {
	_, err := p.page.WaitForSelector(selector, pw.PageWaitForSelectorOptions{
		State:   pw.WaitForSelectorStateVisible,
		Timeout: pw.Float(float64(timeout.Milliseconds())),
	})
	return err
}

func (p *playwrightPage) Click(selector string) error {
	return p.page.Click(selector)
}

func (p *playwrightPage) Fill(selector, value string) error {
	return p.page.Fill(selector, value)
}

func (p *playwrightPage) Text(selector string) (string, error) {
	text, err := p.page.Locator(selector).TextContent()
	if err != nil {
		return "", fmt.Errorf("failed to read text of %s: %w", selector, err)
	}
	return text, nil
}

func (p *playwrightPage) SettleNetwork(timeout time.Duration) error {
	return p.page.WaitForLoadState(pw.PageWaitForLoadStateOptions{
		State:   pw.LoadStateNetworkidle,
		Timeout: pw.Float(float64(timeout.Milliseconds())),
	})
}

func (p *playwrightPage) Pause(d time.Duration) {
	p.page.WaitForTimeout(float64(d.Milliseconds()))
}

func (p *playwrightPage) SaveDownload(selector string, timeout time.Duration, path string) error {
	download, err := p.page.ExpectDownload(func() error {
		return p.page.Click(selector)
	}, pw.PageExpectDownloadOptions{
		Timeout: pw.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("no file transfer arrived: %w", err)
	}
	if err := download.SaveAs(path); err != nil {
		return fmt.Errorf("failed to persist download: %w", err)
	}
	return nil
}
