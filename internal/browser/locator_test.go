package browser

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakePage scripts which selectors become visible.
type fakePage struct {
	visible    map[string]bool
	waitCalls  []string
	clicks     []string
	fills      map[string]string
	clickErr   map[string]error
	texts      map[string]string
	downloads  []string
	settleErr  error
	downloaded func(path string) error
}

func newFakePage() *fakePage {
	return &fakePage{
		visible:  map[string]bool{},
		fills:    map[string]string{},
		clickErr: map[string]error{},
		texts:    map[string]string{},
	}
}

func (f *fakePage) Goto(string) error { return nil }

func (f *fakePage) WaitVisible(selector string, _ time.Duration) error {
	f.waitCalls = append(f.waitCalls, selector)
	if f.visible[selector] {
		return nil
	}
	return errors.New("timeout waiting for selector")
}

func (f *fakePage) Click(selector string) error {
	if err := f.clickErr[selector]; err != nil {
		return err
	}
	f.clicks = append(f.clicks, selector)
	return nil
}

func (f *fakePage) Fill(selector, value string) error {
	f.fills[selector] = value
	return nil
}

func (f *fakePage) Text(selector string) (string, error) {
	if text, ok := f.texts[selector]; ok {
		return text, nil
	}
	return "", errors.New("no such element")
}

func (f *fakePage) SettleNetwork(time.Duration) error { return f.settleErr }

func (f *fakePage) Pause(time.Duration) {}

func (f *fakePage) SaveDownload(selector string, _ time.Duration, path string) error {
	if f.downloaded != nil {
		if err := f.downloaded(path); err != nil {
			return err
		}
	}
	f.downloads = append(f.downloads, path)
	return nil
}

func TestCandidate_Selector(t *testing.T) {
	tests := []struct {
		name      string
		candidate Candidate
		want      string
	}{
		{"by text", Candidate{Strategy: ByText, Value: "Sign in"}, `text="Sign in"`},
		{"by id", Candidate{Strategy: ByID, Value: "select-account-selector"}, "#select-account-selector"},
		{"by role", Candidate{Strategy: ByRole, Value: "option"}, `[role="option"]`},
		{"by attribute", Candidate{Strategy: ByAttribute, Value: `id*="download-activity"`}, `[id*="download-activity"]`},
		{"raw selector", Candidate{Strategy: BySelector, Value: `a:has-text("Checking")`}, `a:has-text("Checking")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.candidate.Selector())
		})
	}
}

func TestResolver_ResolveAndAct(t *testing.T) {
	logger := zap.NewNop()

	t.Run("empty chain returns false without side effects", func(t *testing.T) {
		page := newFakePage()
		r := NewResolver(page, logger)

		ok := r.ResolveAndAct(Chain{}, page.Click)

		assert.False(t, ok)
		assert.Empty(t, page.waitCalls)
		assert.Empty(t, page.clicks)
	})

	t.Run("first candidate wins, rest untried", func(t *testing.T) {
		page := newFakePage()
		page.visible["#first"] = true
		page.visible["#second"] = true
		r := NewResolver(page, logger)

		ok := r.Click(Chain{
			{Strategy: ByID, Value: "first"},
			{Strategy: ByID, Value: "second"},
		})

		assert.True(t, ok)
		assert.Equal(t, []string{"#first"}, page.clicks)
		assert.Equal(t, []string{"#first"}, page.waitCalls)
	})

	t.Run("only last candidate matches, exactly one action", func(t *testing.T) {
		page := newFakePage()
		page.visible["#third"] = true
		r := NewResolver(page, logger)

		ok := r.Click(Chain{
			{Strategy: ByID, Value: "first"},
			{Strategy: ByID, Value: "second"},
			{Strategy: ByID, Value: "third"},
		})

		assert.True(t, ok)
		assert.Equal(t, []string{"#first", "#second", "#third"}, page.waitCalls)
		assert.Equal(t, []string{"#third"}, page.clicks)
	})

	t.Run("exhausted chain returns false", func(t *testing.T) {
		page := newFakePage()
		r := NewResolver(page, logger)

		ok := r.Click(Chain{
			{Strategy: ByID, Value: "first"},
			{Strategy: ByID, Value: "second"},
		})

		assert.False(t, ok)
		assert.Empty(t, page.clicks)
	})

	t.Run("action error falls through to next candidate", func(t *testing.T) {
		page := newFakePage()
		page.visible["#flaky"] = true
		page.visible["#stable"] = true
		page.clickErr["#flaky"] = errors.New("element detached")
		r := NewResolver(page, logger)

		ok := r.Click(Chain{
			{Strategy: ByID, Value: "flaky"},
			{Strategy: ByID, Value: "stable"},
		})

		assert.True(t, ok)
		assert.Equal(t, []string{"#stable"}, page.clicks)
	})

	t.Run("fill passes value through", func(t *testing.T) {
		page := newFakePage()
		page.visible["#date"] = true
		r := NewResolver(page, logger)

		ok := r.Fill(Chain{{Strategy: ByID, Value: "date"}}, "04/01/2025")

		assert.True(t, ok)
		assert.Equal(t, "04/01/2025", page.fills["#date"])
	})
}

func TestCandidate_TimeoutDefault(t *testing.T) {
	c := Candidate{Strategy: ByID, Value: "x"}
	assert.Equal(t, DefaultCandidateTimeout, c.timeout())

	c.Timeout = 5 * time.Second
	assert.Equal(t, 5*time.Second, c.timeout())
}
