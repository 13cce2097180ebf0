package calculator

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"semestercalc/internal/registry"
	"semestercalc/internal/row"
	"semestercalc/internal/storage"
	"semestercalc/internal/timeline"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testHistoryDebounce = 20 * time.Millisecond

// testClock hands out strictly increasing timestamps so updatedAt
// ordering is deterministic.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestCalculator(t *testing.T, opts Options) *Calculator {
	t.Helper()
	if opts.Gateway == nil {
		opts.Gateway = storage.NewMemory()
	}
	if opts.HistoryDebounce == 0 {
		opts.HistoryDebounce = testHistoryDebounce
	}
	if opts.PersistDebounce == 0 {
		opts.PersistDebounce = time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = newTestClock().Now
	}
	if opts.NewSnapshotID == nil {
		var n int
		var mu sync.Mutex
		opts.NewSnapshotID = func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("snap-%d", n)
		}
	}
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// waitForPast blocks until the pending edit batch matures onto the
// past stack.
func waitForPast(t *testing.T, c *Calculator, depth int) {
	t.Helper()
	waitFor(t, func() bool { return c.Timeline().PastCount == depth })
}

// selectFreshHistory instantiates a template and selects it with a
// cleared timeline, the way the shell does after "history new".
func selectFreshHistory(t *testing.T, c *Calculator, templateID string) registry.History {
	t.Helper()
	h, ok := c.CreateHistoryFromTemplate(templateID)
	require.True(t, ok)
	require.True(t, c.SelectHistory(h.ID, true))
	return h
}

func TestNewFreshWorkspace(t *testing.T) {
	c := newTestCalculator(t, Options{})
	defer c.Close()

	assert.Empty(t, c.SelectedHistoryID())
	assert.Empty(t, c.Histories())
	assert.Len(t, c.Templates(), 3)

	rows := c.Rows()
	require.Len(t, rows, 6)
	assert.Equal(t, "Genie Logiciel", rows[3].Name)

	// Nothing graded yet: per-row finals and the average stay blank.
	summary := c.Summary()
	assert.Zero(t, summary.SumCoef)
	assert.True(t, summary.SemesterAvg.IsEmpty())
	for _, cr := range summary.PerRow {
		assert.True(t, cr.ModuleFinal.IsEmpty())
	}
}

func TestNoSelectionGuards(t *testing.T) {
	c := newTestCalculator(t, Options{})
	defer c.Close()

	assert.False(t, c.UpdateRow(0, FieldExam, "12"))
	assert.False(t, c.AddRow(row.Payload{Name: "Analyse"}))
	assert.False(t, c.RemoveRow(0))
	assert.False(t, c.Undo())
	assert.False(t, c.Redo())
	assert.False(t, c.ResetAll())
	_, ok := c.SaveSnapshot()
	assert.False(t, ok)
}

func TestCreateHistoryFromTemplate(t *testing.T) {
	gw := storage.NewMemory()
	c := newTestCalculator(t, Options{Gateway: gw})
	defer c.Close()

	h := selectFreshHistory(t, c, "cyber-security-3y-s1-engineering")

	assert.Equal(t, h.ID, c.SelectedHistoryID())
	assert.Equal(t, "Cyber Security", h.Name)
	assert.Equal(t, "cyber-security-3y-s1-engineering", h.SourceTemplateID)
	assert.Len(t, c.Rows(), 6)

	status := c.Timeline()
	assert.False(t, status.CanUndo)
	assert.False(t, status.CanRedo)

	// The empty timeline is written synchronously at creation time.
	require.NoError(t, c.Flush())
	raw, ok, err := gw.Load(storage.TimelineKey(h.ID))
	require.NoError(t, err)
	require.True(t, ok)
	parsed := timeline.ParsePayload([]byte(raw))
	assert.Empty(t, parsed.Past)
	assert.Empty(t, parsed.Future)
}

func TestCreateHistoryFromModule(t *testing.T) {
	c := newTestCalculator(t, Options{})
	defer c.Close()

	coef := row.Numeric("3")
	h, ok := c.CreateHistoryFromModule(row.Payload{Name: "Analyse Numerique", Coef: &coef})
	require.True(t, ok)
	require.True(t, c.SelectHistory(h.ID, false))

	assert.Empty(t, h.SourceTemplateID)
	rows := c.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Analyse Numerique", rows[0].Name)
	assert.Equal(t, row.Numeric("3"), rows[0].Coef)
}

func TestUpdateRowEditUndoRedo(t *testing.T) {
	c := newTestCalculator(t, Options{})
	defer c.Close()
	selectFreshHistory(t, c, "software-engineering-3y-s1-engineering")

	require.True(t, c.UpdateRow(0, FieldExam, "15"))
	assert.Equal(t, row.Numeric("15"), c.Rows()[0].Exam)
	waitForPast(t, c, 1)

	require.True(t, c.Undo())
	assert.True(t, c.Rows()[0].Exam.IsEmpty())
	status := c.Timeline()
	assert.False(t, status.CanUndo)
	assert.True(t, status.CanRedo)

	require.True(t, c.Redo())
	assert.Equal(t, row.Numeric("15"), c.Rows()[0].Exam)
	assert.True(t, c.Timeline().CanUndo)
	assert.False(t, c.Timeline().CanRedo)
}

func TestUpdateRowInputFilters(t *testing.T) {
	c := newTestCalculator(t, Options{})
	defer c.Close()
	selectFreshHistory(t, c, "software-engineering-3y-s1-engineering")

	// A stray character on an empty field resolves back to empty, so
	// nothing changes and nothing is recorded.
	assert.False(t, c.UpdateRow(0, FieldExam, "abc"))
	assert.False(t, c.Timeline().CanUndo)

	// Out-of-range grades clamp at entry time.
	require.True(t, c.UpdateRow(0, FieldExam, "25"))
	assert.Equal(t, row.Numeric("20"), c.Rows()[0].Exam)

	// Re-entering the same value is a no-op.
	assert.False(t, c.UpdateRow(0, FieldExam, "20"))

	// A minus sign is outside the coefficient pattern, so the field
	// keeps its previous value.
	assert.False(t, c.UpdateRow(1, FieldCoef, "-3"))

	require.True(t, c.UpdateRow(1, FieldCoef, "2.5"))
	assert.Equal(t, row.Numeric("2.5"), c.Rows()[1].Coef)

	assert.False(t, c.UpdateRow(-1, FieldExam, "10"))
	assert.False(t, c.UpdateRow(99, FieldExam, "10"))
}

func TestEditBatchCoalescing(t *testing.T) {
	c := newTestCalculator(t, Options{})
	defer c.Close()
	selectFreshHistory(t, c, "software-engineering-3y-s1-engineering")

	// Keystroke-speed edits collapse into a single undo entry. Each
	// keystroke supersedes the pending snapshot, so the entry that
	// lands is the state just before the last keystroke.
	require.True(t, c.UpdateRow(0, FieldExam, "1"))
	require.True(t, c.UpdateRow(0, FieldExam, "12"))
	require.True(t, c.UpdateRow(0, FieldExam, "12.5"))
	waitForPast(t, c, 1)
	assert.Equal(t, row.Numeric("12.5"), c.Rows()[0].Exam)

	require.True(t, c.Undo())
	assert.Equal(t, row.Numeric("12"), c.Rows()[0].Exam)
	assert.False(t, c.Timeline().CanUndo)
}

func TestUpdateRowStats(t *testing.T) {
	c := newTestCalculator(t, Options{})
	defer c.Close()
	selectFreshHistory(t, c, "software-engineering-3y-s1-engineering")

	includeCA := false
	require.True(t, c.UpdateRowStats(0, StatUpdates{IncludeCA: &includeCA}))
	r := c.Rows()[0]
	assert.False(t, r.IncludeCA)
	assert.Equal(t, 1.0, r.ExamWeight)
	assert.Equal(t, 0.0, r.CAWeight)

	// Custom weights renormalize against their sum, complementing from
	// the exam side.
	includeCA = true
	examWeight := 0.7
	caWeight := 0.3
	require.True(t, c.UpdateRowStats(0, StatUpdates{IncludeCA: &includeCA, ExamWeight: &examWeight, CAWeight: &caWeight}))
	r = c.Rows()[0]
	assert.Equal(t, 0.7, r.ExamWeight)
	assert.Equal(t, 0.3, r.CAWeight)

	// Unequal totals renormalize: 0.7 over a 1.1 total rounds to 0.64.
	caWeight = 0.4
	require.True(t, c.UpdateRowStats(0, StatUpdates{CAWeight: &caWeight}))
	r = c.Rows()[0]
	assert.Equal(t, 0.64, r.ExamWeight)
	assert.Equal(t, 0.36, r.CAWeight)

	assert.False(t, c.UpdateRowStats(0, StatUpdates{}))
}

func TestAddRemoveRow(t *testing.T) {
	c := newTestCalculator(t, Options{})
	defer c.Close()
	selectFreshHistory(t, c, "software-engineering-3y-s1-engineering")

	require.True(t, c.AddRow(row.Payload{Name: "Anglais"}))
	rows := c.Rows()
	require.Len(t, rows, 7)
	added := rows[6]
	assert.Equal(t, "Anglais", added.Name)
	assert.Equal(t, row.DefaultExamWeight, added.ExamWeight)
	assert.Equal(t, row.DefaultCAWeight, added.CAWeight)
	waitForPast(t, c, 1)

	require.True(t, c.RemoveRow(6))
	assert.Len(t, c.Rows(), 6)
	waitForPast(t, c, 2)

	require.True(t, c.Undo())
	assert.Len(t, c.Rows(), 7)
	require.True(t, c.Undo())
	assert.Len(t, c.Rows(), 6)
}

func TestStateSurvivesReload(t *testing.T) {
	gw := storage.NewMemory()
	clock := newTestClock()

	c1 := newTestCalculator(t, Options{Gateway: gw, Now: clock.Now})
	h := selectFreshHistory(t, c1, "software-engineering-3y-s1-engineering")
	require.True(t, c1.UpdateRow(0, FieldExam, "14"))
	waitForPast(t, c1, 1)
	require.True(t, c1.UpdateRow(1, FieldCA, "11"))
	waitForPast(t, c1, 2)
	require.NoError(t, c1.Flush())

	c2 := newTestCalculator(t, Options{Gateway: gw, Now: clock.Now})
	defer c2.Close()

	assert.Equal(t, h.ID, c2.SelectedHistoryID())
	rows := c2.Rows()
	assert.Equal(t, row.Numeric("14"), rows[0].Exam)
	assert.Equal(t, row.Numeric("11"), rows[1].CA)

	// The undo timeline came back with the rows.
	status := c2.Timeline()
	assert.Equal(t, 2, status.PastCount)
	require.True(t, c2.Undo())
	assert.True(t, c2.Rows()[1].CA.IsEmpty())
}

func TestPristineTemplateHistoryGC(t *testing.T) {
	gw := storage.NewMemory()
	c := newTestCalculator(t, Options{Gateway: gw})
	defer c.Close()

	pristine := selectFreshHistory(t, c, "software-engineering-3y-s1-engineering")
	other, ok := c.CreateHistoryFromModule(row.Payload{Name: "Analyse"})
	require.True(t, ok)

	// Navigating away from an untouched template instantiation drops it
	// and its persisted tiers.
	require.True(t, c.SelectHistory(other.ID, false))
	_, found := c.HistoryByID(pristine.ID)
	assert.False(t, found)

	require.NoError(t, c.Flush())
	_, ok, err := gw.Load(storage.TimelineKey(pristine.ID))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTouchedTemplateHistorySurvivesNavigation(t *testing.T) {
	c := newTestCalculator(t, Options{})
	defer c.Close()

	touched := selectFreshHistory(t, c, "software-engineering-3y-s1-engineering")
	require.True(t, c.UpdateRow(0, FieldExam, "9"))

	other, ok := c.CreateHistoryFromModule(row.Payload{Name: "Analyse"})
	require.True(t, ok)
	require.True(t, c.SelectHistory(other.ID, false))

	got, found := c.HistoryByID(touched.ID)
	require.True(t, found)
	assert.Equal(t, row.Numeric("9"), got.Rows[0].Exam)
}

func TestDiscardSelectedTemplateHistoryIfEmpty(t *testing.T) {
	c := newTestCalculator(t, Options{})
	defer c.Close()

	pristine := selectFreshHistory(t, c, "cyber-security-3y-s1-engineering")
	require.True(t, c.DiscardSelectedTemplateHistoryIfEmpty())

	assert.Empty(t, c.SelectedHistoryID())
	assert.Len(t, c.Rows(), 6)
	assert.Equal(t, "Genie Logiciel", c.Rows()[3].Name)
	_, found := c.HistoryByID(pristine.ID)
	assert.False(t, found)

	// A graded history is never discarded.
	selectFreshHistory(t, c, "cyber-security-3y-s1-engineering")
	require.True(t, c.UpdateRow(0, FieldCA, "13"))
	assert.False(t, c.DiscardSelectedTemplateHistoryIfEmpty())
}

func TestDeleteSelectedHistoryResetsWorkspace(t *testing.T) {
	gw := storage.NewMemory()
	c := newTestCalculator(t, Options{Gateway: gw})
	defer c.Close()

	h := selectFreshHistory(t, c, "software-engineering-3y-s1-engineering")
	require.True(t, c.UpdateRow(0, FieldExam, "16"))
	waitForPast(t, c, 1)

	require.True(t, c.DeleteHistory(h.ID))
	assert.Empty(t, c.SelectedHistoryID())
	assert.False(t, c.Timeline().CanUndo)
	assert.True(t, c.Rows()[0].Exam.IsEmpty())

	require.NoError(t, c.Flush())
	_, ok, err := gw.Load(storage.TimelineKey(h.ID))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.False(t, c.DeleteHistory(h.ID))
	assert.False(t, c.DeleteHistory("  "))
}

func TestDuplicateSelectedHistoryUsesLiveRows(t *testing.T) {
	c := newTestCalculator(t, Options{})
	defer c.Close()

	selectFreshHistory(t, c, "cyber-security-3y-s1-engineering")
	require.True(t, c.UpdateRow(0, FieldExam, "17"))

	dup, ok := c.DuplicateHistory(c.SelectedHistoryID())
	require.True(t, ok)
	assert.Equal(t, "Cyber Security Copy", dup.Name)
	assert.Equal(t, "cyber-security-3y-s1-engineering", dup.SourceTemplateID)
	assert.Equal(t, row.Numeric("17"), dup.Rows[0].Exam)

	// Duplicating leaves the selection where it was.
	assert.NotEqual(t, dup.ID, c.SelectedHistoryID())
}

func TestRenameAndPin(t *testing.T) {
	c := newTestCalculator(t, Options{})
	defer c.Close()

	older, ok := c.CreateHistoryFromModule(row.Payload{Name: "Analyse"})
	require.True(t, ok)
	newer, ok := c.CreateHistoryFromModule(row.Payload{Name: "Algebre"})
	require.True(t, ok)

	require.True(t, c.RenameHistory(older.ID, "  Analyse II  "))
	got, found := c.HistoryByID(older.ID)
	require.True(t, found)
	assert.Equal(t, "Analyse II", got.Name)
	assert.False(t, c.RenameHistory(older.ID, "   "))

	// Pinning floats the older history above the newer one.
	require.True(t, c.ToggleHistoryPinned(older.ID))
	histories := c.Histories()
	require.Len(t, histories, 2)
	assert.Equal(t, older.ID, histories[0].ID)
	assert.Equal(t, newer.ID, histories[1].ID)

	require.True(t, c.ToggleHistoryPinned(older.ID))
	assert.Equal(t, older.ID, c.Histories()[0].ID)
}

func TestResetAllClearsTimeline(t *testing.T) {
	gw := storage.NewMemory()
	c := newTestCalculator(t, Options{Gateway: gw})
	defer c.Close()

	h := selectFreshHistory(t, c, "software-engineering-3y-s1-engineering")
	require.True(t, c.UpdateRow(0, FieldExam, "13"))
	waitForPast(t, c, 1)

	require.True(t, c.ResetAll())

	// The mirror keeps stored rows current, so the grade survives; only
	// the timeline is gone, and the reset itself is not undoable.
	assert.Equal(t, row.Numeric("13"), c.Rows()[0].Exam)
	status := c.Timeline()
	assert.False(t, status.CanUndo)
	assert.False(t, status.CanRedo)

	require.NoError(t, c.Flush())
	raw, ok, err := gw.Load(storage.TimelineKey(h.ID))
	require.NoError(t, err)
	require.True(t, ok)
	parsed := timeline.ParsePayload([]byte(raw))
	assert.Empty(t, parsed.Past)
	assert.Empty(t, parsed.Future)
}

func TestTemplateLifecycle(t *testing.T) {
	c := newTestCalculator(t, Options{})
	defer c.Close()

	h := selectFreshHistory(t, c, "software-engineering-3y-s1-engineering")
	require.True(t, c.UpdateRow(0, FieldExam, "18"))

	created, ok := c.CreateTemplateFromHistory(h.ID, registry.TemplateDetails{Name: "My Plan"})
	require.True(t, ok)
	assert.Equal(t, "My Plan", created.Name)
	assert.Equal(t, "Custom", created.Year)
	assert.Equal(t, "--", created.Semester)
	for _, r := range created.Rows {
		assert.True(t, r.Exam.IsEmpty())
		assert.True(t, r.CA.IsEmpty())
	}

	year := "4th Year"
	require.True(t, c.UpdateTemplate(created.ID, registry.TemplateUpdates{Year: &year}))
	got, found := c.TemplateByID(created.ID)
	require.True(t, found)
	assert.Equal(t, "4th Year", got.Year)

	require.True(t, c.DeleteTemplate(created.ID))
	_, found = c.TemplateByID(created.ID)
	assert.False(t, found)
	assert.False(t, c.DeleteTemplate(created.ID))
}

func TestTemplateCapBlocksCreation(t *testing.T) {
	// The three seed templates already fill a cap of three.
	c := newTestCalculator(t, Options{MaxTemplates: 3})
	defer c.Close()

	h := selectFreshHistory(t, c, "software-engineering-3y-s1-engineering")
	_, ok := c.CreateTemplateFromHistory(h.ID, registry.TemplateDetails{Name: "Overflow"})
	assert.False(t, ok)
}

func TestHistoryCountNeverRewinds(t *testing.T) {
	c := newTestCalculator(t, Options{})
	defer c.Close()

	a, ok := c.CreateHistoryFromModule(row.Payload{Name: "Analyse"})
	require.True(t, ok)
	require.True(t, c.DeleteHistory(a.ID))

	b, ok := c.CreateHistoryFromModule(row.Payload{Name: "Analyse"})
	require.True(t, ok)
	assert.NotEqual(t, a.ID, b.ID)
}
