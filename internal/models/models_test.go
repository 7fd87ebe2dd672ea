package models

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriod_Range(t *testing.T) {
	tests := []struct {
		name      string
		period    Period
		wantFirst string
		wantLast  string
	}{
		{"31-day month", Period{Month: time.January, Year: 2025}, "2025-01-01", "2025-01-31"},
		{"30-day month", Period{Month: time.April, Year: 2025}, "2025-04-01", "2025-04-30"},
		{"february leap year", Period{Month: time.February, Year: 2024}, "2024-02-01", "2024-02-29"},
		{"february non-leap year", Period{Month: time.February, Year: 2025}, "2025-02-01", "2025-02-28"},
		{"century non-leap", Period{Month: time.February, Year: 1900}, "1900-02-01", "1900-02-28"},
		{"400-year leap", Period{Month: time.February, Year: 2000}, "2000-02-01", "2000-02-29"},
		{"december year boundary", Period{Month: time.December, Year: 2024}, "2024-12-01", "2024-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := tt.period.Range()
			assert.Equal(t, tt.wantFirst, first.Format("2006-01-02"))
			assert.Equal(t, tt.wantLast, last.Format("2006-01-02"))
		})
	}
}

func TestPeriod_DateFormatting(t *testing.T) {
	p := Period{Month: time.February, Year: 2024}
	assert.Equal(t, "02/01/2024", p.StartDate())
	assert.Equal(t, "02/29/2024", p.EndDate())
	assert.Equal(t, "02/2024", p.String())
}

func TestPeriod_Validate(t *testing.T) {
	assert.NoError(t, Period{Month: time.April, Year: 2025}.Validate())
	assert.Error(t, Period{Month: 0, Year: 2025}.Validate())
	assert.Error(t, Period{Month: 13, Year: 2025}.Validate())
	assert.Error(t, Period{Month: time.April, Year: 0}.Validate())
}

func TestArtifactFileName(t *testing.T) {
	tests := []struct {
		name    string
		account string
		period  Period
		want    string
	}{
		{"single digit month padded", "Checking", Period{Month: time.April, Year: 2025}, "Checking__04_2025.csv"},
		{"double digit month", "Savings", Period{Month: time.November, Year: 2024}, "Savings__11_2024.csv"},
		{"name with spaces", "Payroll Account", Period{Month: time.January, Year: 2025}, "Payroll Account__01_2025.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ArtifactFileName(tt.account, tt.period))
		})
	}
}

func TestArtifactFileName_Injective(t *testing.T) {
	seen := map[string]bool{}
	for _, account := range []string{"Checking", "Savings", "Payroll"} {
		for m := time.January; m <= time.December; m++ {
			name := ArtifactFileName(account, Period{Month: m, Year: 2025})
			assert.False(t, seen[name], "duplicate filename %s", name)
			seen[name] = true
		}
	}
}

func TestLoadAccounts(t *testing.T) {
	t.Run("preserves order", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "accounts.json")
		data := `[{"name":"Checking","num":"1234"},{"name":"Savings","num":"5678"},{"name":"Payroll","num":"9012"}]`
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))

		accounts, err := LoadAccounts(path)
		require.NoError(t, err)
		require.Len(t, accounts, 3)
		assert.Equal(t, "Checking", accounts[0].Name)
		assert.Equal(t, "5678", accounts[1].Number)
		assert.Equal(t, "Payroll", accounts[2].Name)
	})

	t.Run("rejects empty list", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "accounts.json")
		require.NoError(t, os.WriteFile(path, []byte(`[]`), 0644))

		_, err := LoadAccounts(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadAccounts(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "accounts.json")
		require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

		_, err := LoadAccounts(path)
		assert.Error(t, err)
	})
}

func TestStepRecord(t *testing.T) {
	account := AccountDescriptor{Name: "Checking", Number: "1234"}
	record := NewStepRecord(account)

	assert.Equal(t, StepPending, record.Status)
	assert.Equal(t, account, record.Account)

	record.Update(StepVerifyAccount, StepRunning, "")
	assert.Equal(t, StepVerifyAccount, record.Step)
	assert.Equal(t, StepRunning, record.Status)

	// Each transition overwrites the previous one.
	record.Update(StepSetFileType, StepFailed, "dropdown missing")
	assert.Equal(t, StepSetFileType, record.Step)
	assert.Equal(t, StepFailed, record.Status)
	assert.Equal(t, "dropdown missing", record.Err)
}

func TestBatchResult_Failed(t *testing.T) {
	batch := BatchResult{
		{Status: StatusSuccess},
		{Status: StatusError, Err: "boom"},
		{Status: StatusSuccess},
	}
	assert.Equal(t, 1, batch.Failed())
	assert.Equal(t, 0, BatchResult{}.Failed())
}
