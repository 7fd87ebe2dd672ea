// Package engine drives the per-account export procedure and the batch that
// sequences it over one authenticated browser session.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/pfinch/bankexport/internal/browser"
	"github.com/pfinch/bankexport/internal/vision"
	"go.uber.org/zap"
)

// AuthState tracks sign-in progress.
type AuthState string

const (
	AuthIdle               AuthState = "idle"
	AuthNavigated          AuthState = "navigated"
	AuthCredentialsEntered AuthState = "credentials_entered"
	AuthSubmitted          AuthState = "submitted"
)

// CredentialKind selects which secret a template set fills. The values
// double as the filename role markers in the template library.
type CredentialKind string

const (
	CredentialUsername CredentialKind = "Username"
	CredentialPassword CredentialKind = "Password"
)

const submitRole = "submit"

// Credentials are pulled from process configuration at session start. They
// are never logged.
type Credentials struct {
	Username string
	Password string
}

// Authenticator drives the portal sign-in flow. The credential fields live
// inside an embedded widget outside the automatable page tree, so they are
// located visually rather than structurally.
type Authenticator struct {
	page     browser.Interactor
	resolver *browser.Resolver
	matcher  *vision.Matcher
	library  *vision.Library
	creds    Credentials
	portal   string
	profile  string
	state    AuthState
	logger   *zap.Logger
}

// NewAuthenticator creates an authenticator for one account profile.
func NewAuthenticator(
	page browser.Interactor,
	resolver *browser.Resolver,
	matcher *vision.Matcher,
	library *vision.Library,
	creds Credentials,
	portalURL string,
	profile string,
	logger *zap.Logger,
) *Authenticator {
	return &Authenticator{
		page:     page,
		resolver: resolver,
		matcher:  matcher,
		library:  library,
		creds:    creds,
		portal:   portalURL,
		profile:  profile,
		state:    AuthIdle,
		logger:   logger,
	}
}

// State returns the current sign-in state.
func (a *Authenticator) State() AuthState { return a.state }

// Navigate opens the portal and clicks into the sign-in surface. Unlike the
// locator fallbacks elsewhere, a missing sign-in entry point is fatal for
// the whole run.
func (a *Authenticator) Navigate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.page.Goto(a.portal); err != nil {
		return fmt.Errorf("failed to open portal: %w", err)
	}

	entry := browser.Chain{
		{Strategy: browser.ByText, Value: "Sign in", Timeout: 3 * time.Second},
	}
	if !a.resolver.Click(entry) {
		return fmt.Errorf("sign-in entry point never appeared: %w", ErrLocatorExhausted)
	}

	a.state = AuthNavigated
	a.logger.Info("Portal sign-in surface opened", zap.String("profile", a.profile))
	return nil
}

// FillCredentials locates the field for the given kind from the profile's
// template set and types the matching secret.
func (a *Authenticator) FillCredentials(kind CredentialKind) error {
	templates, err := a.library.ForProfile(a.profile, string(kind))
	if err != nil {
		return fmt.Errorf("failed to load %s templates: %w", kind, err)
	}

	secret := a.creds.Username
	if kind == CredentialPassword {
		secret = a.creds.Password
	}

	ok, err := a.matcher.MatchAndClick(templates, secret)
	if err != nil {
		return fmt.Errorf("failed to match %s field: %w", kind, err)
	}
	if !ok {
		return fmt.Errorf("%s field: %w", kind, ErrLocatorExhausted)
	}

	a.state = AuthCredentialsEntered
	a.logger.Info("Credential field filled", zap.String("kind", string(kind)))
	return nil
}

// Submit locates and clicks the sign-in submit control.
func (a *Authenticator) Submit() error {
	templates, err := a.library.ForProfile(a.profile, submitRole)
	if err != nil {
		return fmt.Errorf("failed to load submit templates: %w", err)
	}

	ok, err := a.matcher.MatchAndClick(templates, "")
	if err != nil {
		return fmt.Errorf("failed to match submit control: %w", err)
	}
	if !ok {
		return fmt.Errorf("submit control: %w", ErrLocatorExhausted)
	}

	a.state = AuthSubmitted
	a.logger.Info("Sign-in submitted")
	return nil
}

// Login runs the full sign-in sequence: navigate, fill both credentials,
// submit. The pause after navigation lets the embedded login widget render
// before the screen is captured.
func (a *Authenticator) Login(ctx context.Context) error {
	if err := a.Navigate(ctx); err != nil {
		return err
	}
	a.page.Pause(3 * time.Second)

	if err := a.FillCredentials(CredentialUsername); err != nil {
		return err
	}
	if err := a.FillCredentials(CredentialPassword); err != nil {
		return err
	}
	return a.Submit()
}
