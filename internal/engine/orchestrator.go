package engine

import (
	"context"
	"runtime"

	"github.com/google/uuid"
	"github.com/pfinch/bankexport/internal/models"
	"go.uber.org/zap"
)

// Recorder persists batch outcomes for later inspection. Satisfied by
// history.Store; nil disables recording.
type Recorder interface {
	StartRun(runID string, period models.Period, accountCount int) error
	RecordResult(runID string, position int, result models.AccountResult) error
	FinishRun(runID string) error
}

// Orchestrator sequences the per-account procedure across the account list.
// It is the only component that drives the shared session, and it guarantees
// that no single account's failure halts the batch.
type Orchestrator struct {
	steps    *Steps
	sink     Sink
	recorder Recorder
	logger   *zap.Logger
}

// NewOrchestrator creates a batch orchestrator. recorder may be nil.
func NewOrchestrator(steps *Steps, sink Sink, recorder Recorder, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		steps:    steps,
		sink:     sink,
		recorder: recorder,
		logger:   logger,
	}
}

type stepFn struct {
	name models.Step
	run  func() error
}

func (o *Orchestrator) accountSteps(account models.AccountDescriptor, period models.Period) []stepFn {
	return []stepFn{
		{models.StepCheckOverview, func() error {
			// A failed recovery on the previous account can strand the
			// session on the overview screen; probing here keeps that
			// failure contained to its own account.
			if o.steps.CheckOverview() {
				if !o.steps.EnterDownloadFlow() {
					return &NavigationError{Reason: "failed to click out of overview"}
				}
			}
			return nil
		}},
		{models.StepVerifyAccount, func() error {
			return o.steps.VerifyAccount(account.Name, account.Number)
		}},
		{models.StepSetFileType, func() error {
			return o.steps.SetFileType()
		}},
		{models.StepSetDateRange, func() error {
			return o.steps.SetDateRange(period)
		}},
		{models.StepExecuteDownload, func() error {
			_, err := o.steps.ExecuteDownload(account.Name, period)
			return err
		}},
		{models.StepReturnToOverview, func() error {
			return o.steps.ReturnToOverview()
		}},
	}
}

// Bootstrap enters the download flow for the first account. Subsequent
// accounts re-enter through the recovery step.
func (o *Orchestrator) Bootstrap(account models.AccountDescriptor) error {
	if !o.steps.SelectAccount(account.Name, account.Number) {
		return &NavigationError{Reason: "initial account not found", Err: ErrLocatorExhausted}
	}
	if !o.steps.EnterDownloadFlow() {
		return &NavigationError{Reason: "download entry not found", Err: ErrLocatorExhausted}
	}
	return nil
}

// Run processes every account in input order and returns one result per
// account. A failed step aborts only that account's remaining steps; the
// batch always proceeds to the next account. A stop request (context
// cancellation) is consulted between accounts, never mid-step.
func (o *Orchestrator) Run(ctx context.Context, accounts []models.AccountDescriptor, period models.Period) models.BatchResult {
	runID := uuid.NewString()
	results := make(models.BatchResult, 0, len(accounts))

	o.logger.Info("Batch started",
		zap.String("run_id", runID),
		zap.Int("accounts", len(accounts)),
		zap.String("period", period.String()))
	o.sink.emitf(LevelInfo, "starting batch of %d accounts for %s", len(accounts), period)

	if o.recorder != nil {
		if err := o.recorder.StartRun(runID, period, len(accounts)); err != nil {
			o.logger.Warn("Failed to record run start", zap.Error(err))
		}
	}

	for i, account := range accounts {
		if err := ctx.Err(); err != nil {
			o.sink.emitf(LevelWarning, "stop requested, skipping remaining %d accounts", len(accounts)-i)
			for _, rest := range accounts[i:] {
				results = append(results, models.AccountResult{
					Account: rest,
					Status:  models.StatusError,
					Err:     "run cancelled",
				})
			}
			break
		}

		result := o.processAccount(account, period)
		results = append(results, result)

		if o.recorder != nil {
			if err := o.recorder.RecordResult(runID, i, result); err != nil {
				o.logger.Warn("Failed to record account result",
					zap.String("account", account.Name),
					zap.Error(err))
			}
		}

		// Reclaim the screenshot and correlation buffers between accounts;
		// long batches otherwise hold several full-screen captures live.
		runtime.GC()
	}

	if o.recorder != nil {
		if err := o.recorder.FinishRun(runID); err != nil {
			o.logger.Warn("Failed to record run finish", zap.Error(err))
		}
	}

	failed := results.Failed()
	o.logger.Info("Batch finished",
		zap.String("run_id", runID),
		zap.Int("succeeded", len(results)-failed),
		zap.Int("failed", failed))
	o.sink.emitf(LevelInfo, "batch complete: %d succeeded, %d failed", len(results)-failed, failed)

	return results
}

// processAccount runs the ordered step sequence for one account with a
// fresh step record. The record is never shared across accounts.
func (o *Orchestrator) processAccount(account models.AccountDescriptor, period models.Period) models.AccountResult {
	record := models.NewStepRecord(account)
	o.sink.emitf(LevelInfo, "processing %s (...%s)", account.Name, account.Number)

	for _, step := range o.accountSteps(account, period) {
		record.Update(step.name, models.StepRunning, "")
		if err := step.run(); err != nil {
			record.Update(step.name, models.StepFailed, err.Error())
			o.logger.Warn("Account step failed",
				zap.String("account", account.Name),
				zap.String("step", string(step.name)),
				zap.Error(err))
			o.sink.emitf(LevelError, "%s: step %s failed: %v", account.Name, step.name, err)
			return models.AccountResult{Account: account, Status: models.StatusError, Err: err.Error()}
		}
		record.Update(step.name, models.StepSuccess, "")
	}

	o.sink.emitf(LevelSuccess, "downloaded %s for %s", account.Name, period)
	return models.AccountResult{Account: account, Status: models.StatusSuccess}
}
