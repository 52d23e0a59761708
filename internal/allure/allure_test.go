package allure

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readResult(t *testing.T, path string) Result {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var r Result
	require.NoError(t, json.Unmarshal(b, &r))
	return r
}

func TestTest_PassedWithNestedSteps(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "allure-results"))
	require.NoError(t, err)

	tc := w.Start("AdvancedMC_TC1.1", "boardbot/AdvancedMC/AdvancedMC_TC1.1")
	tc.Epic("PICMG Chatbot")
	tc.Feature("AdvancedMC")
	tc.Severity(SeverityCritical)
	tc.Parameter("query", "AMC processor module")

	err = tc.Step("Search", func() error {
		tc.Parameter("attempt", "1")
		return tc.Step("Wait for results", func() error {
			return tc.AttachText("Report", TypeMarkdown, "# report")
		})
	})
	require.NoError(t, err)

	path, err := tc.Finish(nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(w.Dir, tc.UUID()+"-result.json"), path)

	r := readResult(t, path)
	assert.Equal(t, StatusPassed, r.Status)
	assert.Equal(t, "finished", r.Stage)
	assert.Nil(t, r.StatusDetails)
	assert.Len(t, r.HistoryID, 32)
	assert.Contains(t, r.Labels, Label{Name: "feature", Value: "AdvancedMC"})
	assert.Contains(t, r.Labels, Label{Name: "severity", Value: "critical"})
	assert.Equal(t, []Parameter{{Name: "query", Value: "AMC processor module"}}, r.Parameters)
	assert.Empty(t, r.Attachments)

	require.Len(t, r.Steps, 1)
	outer := r.Steps[0]
	assert.Equal(t, "Search", outer.Name)
	assert.Equal(t, StatusPassed, outer.Status)
	assert.Equal(t, []Parameter{{Name: "attempt", Value: "1"}}, outer.Parameters)
	require.Len(t, outer.Steps, 1)

	inner := outer.Steps[0]
	require.Len(t, inner.Attachments, 1)
	a := inner.Attachments[0]
	assert.Equal(t, "Report", a.Name)
	assert.True(t, strings.HasSuffix(a.Source, "-attachment.md"), a.Source)

	body, err := os.ReadFile(filepath.Join(w.Dir, a.Source))
	require.NoError(t, err)
	assert.Equal(t, "# report", string(body))
}

func TestTest_FailedStep(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	tc := w.Start("COMExpress_TC1.1", "boardbot/COMExpress/COMExpress_TC1.1")
	boom := errors.New("No products found in table")
	err = tc.Step("Validate", func() error { return boom })
	assert.Same(t, boom, err)

	path, err := tc.Finish(err)
	require.NoError(t, err)

	r := readResult(t, path)
	assert.Equal(t, StatusFailed, r.Status)
	require.NotNil(t, r.StatusDetails)
	assert.Equal(t, "No products found in table", r.StatusDetails.Message)
	require.Len(t, r.Steps, 1)
	assert.Equal(t, StatusFailed, r.Steps[0].Status)
	assert.Equal(t, "No products found in table", r.Steps[0].StatusDetails.Message)
}

func TestTest_Skipped(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	path, err := w.Start("x", "x").FinishSkipped("site unreachable")
	require.NoError(t, err)

	r := readResult(t, path)
	assert.Equal(t, StatusSkipped, r.Status)
	assert.Equal(t, "site unreachable", r.StatusDetails.Message)
}

func TestTest_HistoryIDStable(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	a := w.Start("a", "boardbot/MicroTCA/MicroTCA_TC1.1")
	b := w.Start("b", "boardbot/MicroTCA/MicroTCA_TC1.1")
	c := w.Start("c", "boardbot/MicroTCA/MicroTCA_TC1.2")
	assert.Equal(t, a.result.HistoryID, b.result.HistoryID)
	assert.NotEqual(t, a.result.HistoryID, c.result.HistoryID)
	assert.NotEqual(t, a.UUID(), b.UUID())
}

func TestAttachFile(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(filepath.Join(dir, "results"))
	require.NoError(t, err)

	video := filepath.Join(dir, "run.webm")
	require.NoError(t, os.WriteFile(video, []byte("webm"), 0o644))

	tc := w.Start("v", "v")
	require.NoError(t, tc.AttachFile("Video", TypeWebM, video))
	assert.Error(t, tc.AttachFile("Missing", TypeWebM, filepath.Join(dir, "nope.webm")))

	path, err := tc.Finish(nil)
	require.NoError(t, err)
	r := readResult(t, path)
	require.Len(t, r.Attachments, 1)
	assert.True(t, strings.HasSuffix(r.Attachments[0].Source, ".webm"))
}

func TestWriteEnvironment(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, w.WriteEnvironment(map[string]string{
		"Base URL":   "https://www.picmg.org",
		"AI Backend": "ollama",
	}))

	b, err := os.ReadFile(filepath.Join(w.Dir, "environment.properties"))
	require.NoError(t, err)
	assert.Equal(t, "AI\\ Backend=ollama\nBase\\ URL=https://www.picmg.org\n", string(b))
}

func TestWriteCategories(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.WriteCategories(DefaultCategories))

	b, err := os.ReadFile(filepath.Join(w.Dir, "categories.json"))
	require.NoError(t, err)
	var got []Category
	require.NoError(t, json.Unmarshal(b, &got))
	require.Len(t, got, 3)
	assert.Equal(t, "No Products Found", got[0].Name)
	assert.Equal(t, []Status{StatusFailed}, got[1].MatchedStatuses)
}
