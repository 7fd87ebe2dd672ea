package browser

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Strategy tags one way of describing a UI control. Each variant is
// interpreted by the resolver; there is no per-strategy dispatch.
type Strategy string

const (
	// ByText matches an element by its exact visible text.
	ByText Strategy = "text"
	// ByID matches an element by its id attribute.
	ByID Strategy = "id"
	// ByRole matches an element by its ARIA role.
	ByRole Strategy = "role"
	// ByAttribute matches an element by a raw attribute expression,
	// e.g. `id*="download-activity"`.
	ByAttribute Strategy = "attribute"
	// BySelector matches an element by a full CSS/playwright selector.
	BySelector Strategy = "selector"
)

// DefaultCandidateTimeout bounds a single locator attempt so one unstable
// descriptor cannot stall the batch.
const DefaultCandidateTimeout = 2 * time.Second

// Candidate describes one way to find one UI control, with a bounded wait.
type Candidate struct {
	Strategy Strategy
	Value    string
	Timeout  time.Duration
}

// Selector renders the candidate as a playwright selector string.
func (c Candidate) Selector() string {
	switch c.Strategy {
	case ByText:
		return fmt.Sprintf("text=%q", c.Value)
	case ByID:
		return "#" + c.Value
	case ByRole:
		return fmt.Sprintf("[role=%q]", c.Value)
	case ByAttribute:
		return "[" + c.Value + "]"
	default:
		return c.Value
	}
}

func (c Candidate) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultCandidateTimeout
	}
	return c.Timeout
}

// Chain is an ordered list of equivalent candidates for one control. Order
// encodes preference: the most specific, most stable descriptor comes first.
type Chain []Candidate

// Action is performed against the first candidate that resolves.
type Action func(selector string) error

// Resolver evaluates locator chains left to right with first-success
// semantics. UI identity is unstable across sessions, so trying several
// equivalent descriptors beats maintaining one "correct" one.
type Resolver struct {
	page   Interactor
	logger *zap.Logger
}

// NewResolver creates a resolver bound to one page.
func NewResolver(page Interactor, logger *zap.Logger) *Resolver {
	return &Resolver{page: page, logger: logger}
}

// ResolveAndAct waits for each candidate in turn and performs the action
// against the first one that becomes visible. A timed-out candidate is
// skipped silently; an exhausted chain returns false. Callers treat false as
// a recoverable not-found signal, not a failure. At most one action is
// performed.
func (r *Resolver) ResolveAndAct(chain Chain, act Action) bool {
	for _, cand := range chain {
		selector := cand.Selector()
		if err := r.page.WaitVisible(selector, cand.timeout()); err != nil {
			r.logger.Debug("locator candidate not visible",
				zap.String("selector", selector),
				zap.Duration("timeout", cand.timeout()))
			continue
		}
		if err := act(selector); err != nil {
			r.logger.Debug("action failed on resolved candidate",
				zap.String("selector", selector),
				zap.Error(err))
			continue
		}
		r.logger.Debug("locator resolved", zap.String("selector", selector))
		return true
	}
	return false
}

// Click resolves the chain and clicks the first visible candidate.
func (r *Resolver) Click(chain Chain) bool {
	return r.ResolveAndAct(chain, r.page.Click)
}

// Fill resolves the chain and fills the first visible candidate with value.
// Date widgets require text-fill rather than click-based input.
func (r *Resolver) Fill(chain Chain, value string) bool {
	return r.ResolveAndAct(chain, func(selector string) error {
		return r.page.Fill(selector, value)
	})
}
