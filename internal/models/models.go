// Package models defines the value types shared across the export engine.
package models

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// AccountDescriptor identifies one bank account within a batch. Descriptors
// are supplied externally as an ordered list and are never mutated.
type AccountDescriptor struct {
	Name   string `json:"name"`
	Number string `json:"num"`
}

// LoadAccounts reads the ordered account list from a JSON document.
func LoadAccounts(path string) ([]AccountDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read account list: %w", err)
	}

	var accounts []AccountDescriptor
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse account list: %w", err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("account list %s is empty", path)
	}

	return accounts, nil
}

// Period selects one calendar month of activity.
type Period struct {
	Month time.Month `json:"month"`
	Year  int        `json:"year"`
}

// Validate checks that the period is a real calendar month.
func (p Period) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("month must be 1-12, got %d", p.Month)
	}
	if p.Year < 1 {
		return fmt.Errorf("year must be positive, got %d", p.Year)
	}
	return nil
}

// Range returns the closed date interval covered by the period: the first
// and last calendar day of the month, leap years included.
func (p Period) Range() (time.Time, time.Time) {
	first := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}

// StartDate formats the first day of the period as MM/DD/YYYY, the format
// the portal's date widgets accept.
func (p Period) StartDate() string {
	first, _ := p.Range()
	return first.Format("01/02/2006")
}

// EndDate formats the last day of the period as MM/DD/YYYY.
func (p Period) EndDate() string {
	_, last := p.Range()
	return last.Format("01/02/2006")
}

func (p Period) String() string {
	return fmt.Sprintf("%02d/%d", p.Month, p.Year)
}

// Step names the units of the per-account download procedure, in execution
// order.
type Step string

const (
	StepCheckOverview    Step = "check_overview"
	StepVerifyAccount    Step = "verify_account"
	StepSetFileType      Step = "set_file_type"
	StepSetDateRange     Step = "set_date_range"
	StepExecuteDownload  Step = "execute_download"
	StepReturnToOverview Step = "return_to_overview"
)

// StepStatus is the outcome of a single step attempt.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepRunning StepStatus = "running"
	StepSuccess StepStatus = "success"
	StepFailed  StepStatus = "failed"
)

// StepRecord tracks the latest step transition for one account. One record
// exists per account per run; each transition overwrites the previous one.
type StepRecord struct {
	Account AccountDescriptor
	Step    Step
	Status  StepStatus
	Err     string
}

// NewStepRecord creates a fresh record for one account's procedure. Records
// are never shared across accounts.
func NewStepRecord(account AccountDescriptor) *StepRecord {
	return &StepRecord{Account: account, Status: StepPending}
}

// Update overwrites the record with the latest transition.
func (r *StepRecord) Update(step Step, status StepStatus, errMsg string) {
	r.Step = step
	r.Status = status
	r.Err = errMsg
}

// Account outcome statuses for a batch entry.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// AccountResult is one batch entry: the outcome of one account's procedure.
type AccountResult struct {
	Account AccountDescriptor
	Status  string
	Err     string
}

// BatchResult aggregates per-account outcomes in processing order. It always
// holds exactly one entry per input account.
type BatchResult []AccountResult

// Failed counts entries that ended in error.
func (b BatchResult) Failed() int {
	n := 0
	for _, r := range b {
		if r.Status == StatusError {
			n++
		}
	}
	return n
}

// DownloadArtifact is the persisted output file for one account/period pair.
// Once written, the filesystem owns it; the engine does not track it further.
type DownloadArtifact struct {
	Path        string
	AccountName string
	Period      Period
}

// ArtifactFileName derives the deterministic output filename for an
// account/period pair: {name}__{MM}_{YYYY}.csv.
func ArtifactFileName(accountName string, p Period) string {
	return fmt.Sprintf("%s__%02d_%d.csv", accountName, p.Month, p.Year)
}
