package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semestercalc/internal/row"
	"semestercalc/internal/storage"
)

func TestSaveSnapshotLabel(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	c := newTestCalculator(t, Options{Now: func() time.Time { return fixed }})
	defer c.Close()
	selectFreshHistory(t, c, "software-engineering-3y-s1-engineering")

	snap, ok := c.SaveSnapshot()
	require.True(t, ok)
	assert.Equal(t, "snap-1", snap.ID)
	assert.Equal(t, "Snapshot 1 · 02/01 15:04:05", snap.Label)
	assert.Equal(t, fixed.UnixMilli(), snap.CreatedAt)

	snap2, ok := c.SaveSnapshot()
	require.True(t, ok)
	assert.Equal(t, "Snapshot 2 · 02/01 15:04:05", snap2.Label)

	// Newest first.
	snapshots := c.Snapshots()
	require.Len(t, snapshots, 2)
	assert.Equal(t, "snap-2", snapshots[0].ID)
	assert.Equal(t, "snap-1", snapshots[1].ID)
}

func TestRestoreSnapshotIsUndoable(t *testing.T) {
	c := newTestCalculator(t, Options{})
	defer c.Close()
	selectFreshHistory(t, c, "software-engineering-3y-s1-engineering")

	require.True(t, c.UpdateRow(0, FieldExam, "10"))
	waitForPast(t, c, 1)
	snap, ok := c.SaveSnapshot()
	require.True(t, ok)

	require.True(t, c.UpdateRow(0, FieldExam, "15"))
	waitForPast(t, c, 2)

	require.True(t, c.RestoreSnapshot(snap.ID))
	assert.Equal(t, row.Numeric("10"), c.Rows()[0].Exam)

	// The pre-restore state went straight onto the past stack.
	status := c.Timeline()
	assert.Equal(t, 3, status.PastCount)
	assert.Equal(t, 0, status.FutureCount)

	require.True(t, c.Undo())
	assert.Equal(t, row.Numeric("15"), c.Rows()[0].Exam)

	assert.False(t, c.RestoreSnapshot("missing"))
}

func TestRestoreSnapshotDropsRedoQueue(t *testing.T) {
	c := newTestCalculator(t, Options{})
	defer c.Close()
	selectFreshHistory(t, c, "software-engineering-3y-s1-engineering")

	snap, ok := c.SaveSnapshot()
	require.True(t, ok)

	require.True(t, c.UpdateRow(0, FieldExam, "11"))
	waitForPast(t, c, 1)
	require.True(t, c.Undo())
	require.True(t, c.Timeline().CanRedo)

	require.True(t, c.RestoreSnapshot(snap.ID))
	assert.False(t, c.Timeline().CanRedo)
}

func TestDeleteSnapshot(t *testing.T) {
	c := newTestCalculator(t, Options{})
	defer c.Close()
	selectFreshHistory(t, c, "software-engineering-3y-s1-engineering")

	snap, ok := c.SaveSnapshot()
	require.True(t, ok)
	keep, ok := c.SaveSnapshot()
	require.True(t, ok)

	require.True(t, c.DeleteSnapshot(snap.ID))
	snapshots := c.Snapshots()
	require.Len(t, snapshots, 1)
	assert.Equal(t, keep.ID, snapshots[0].ID)

	assert.False(t, c.DeleteSnapshot(snap.ID))
}

func TestSnapshotLimitDropsOldest(t *testing.T) {
	c := newTestCalculator(t, Options{SnapshotLimit: 2})
	defer c.Close()
	selectFreshHistory(t, c, "software-engineering-3y-s1-engineering")

	for i := 0; i < 3; i++ {
		_, ok := c.SaveSnapshot()
		require.True(t, ok)
	}

	snapshots := c.Snapshots()
	require.Len(t, snapshots, 2)
	assert.Equal(t, "snap-3", snapshots[0].ID)
	assert.Equal(t, "snap-2", snapshots[1].ID)
}

func TestSnapshotsSurviveReload(t *testing.T) {
	gw := storage.NewMemory()
	clock := newTestClock()

	c1 := newTestCalculator(t, Options{Gateway: gw, Now: clock.Now})
	selectFreshHistory(t, c1, "software-engineering-3y-s1-engineering")
	require.True(t, c1.UpdateRow(0, FieldExam, "8"))
	waitForPast(t, c1, 1)
	snap, ok := c1.SaveSnapshot()
	require.True(t, ok)
	require.NoError(t, c1.Flush())

	c2 := newTestCalculator(t, Options{Gateway: gw, Now: clock.Now})
	defer c2.Close()

	snapshots := c2.Snapshots()
	require.Len(t, snapshots, 1)
	assert.Equal(t, snap.ID, snapshots[0].ID)
	assert.Equal(t, snap.Label, snapshots[0].Label)
	assert.Equal(t, row.Numeric("8"), snapshots[0].State.Rows[0].Exam)
}

func TestSnapshotsAreScopedToHistory(t *testing.T) {
	c := newTestCalculator(t, Options{})
	defer c.Close()

	first := selectFreshHistory(t, c, "software-engineering-3y-s1-engineering")
	require.True(t, c.UpdateRow(0, FieldExam, "12"))
	_, ok := c.SaveSnapshot()
	require.True(t, ok)

	other, ok := c.CreateHistoryFromModule(row.Payload{Name: "Analyse"})
	require.True(t, ok)
	require.True(t, c.SelectHistory(other.ID, false))
	require.NoError(t, c.Flush())
	assert.Empty(t, c.Snapshots())

	require.True(t, c.SelectHistory(first.ID, false))
	require.NoError(t, c.Flush())
	assert.Len(t, c.Snapshots(), 1)
}

func TestMalformedSnapshotPayloadDropped(t *testing.T) {
	gw := storage.NewMemory()
	clock := newTestClock()

	c1 := newTestCalculator(t, Options{Gateway: gw, Now: clock.Now})
	h := selectFreshHistory(t, c1, "software-engineering-3y-s1-engineering")
	require.NoError(t, c1.Flush())

	// One broken entry among good ones: only the broken one is lost.
	require.NoError(t, gw.Save(storage.SnapshotsKey(h.ID),
		`[{"id":"good","label":"kept","createdAt":1,"state":{"rows":[{"name":"M"}]}},`+
			`{"id":"","label":"no id","state":{"rows":[]}},`+
			`{"id":"stateless","label":"no state"}]`))

	c2 := newTestCalculator(t, Options{Gateway: gw, Now: clock.Now})
	defer c2.Close()

	snapshots := c2.Snapshots()
	require.Len(t, snapshots, 1)
	assert.Equal(t, "good", snapshots[0].ID)
	require.Len(t, snapshots[0].State.Rows, 1)
	assert.Equal(t, "M", snapshots[0].State.Rows[0].Name)
}
