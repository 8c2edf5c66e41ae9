package database

import (
	"bytes"
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rybak/internal/actionlog"
	"rybak/internal/controller"
	"rybak/internal/logger"
)

func newTestManager(t *testing.T) *DatabaseManager {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, "sqlite", filepath.Join(t.TempDir(), "rybak.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var out bytes.Buffer
	m, err := NewDatabaseManager(db, "sqlite", logger.NewWriterLogger(&out, nil))
	require.NoError(t, err)
	require.NoError(t, m.EnsureSchema(ctx))
	require.NoError(t, m.EnsureSchema(ctx), "schema creation is idempotent")
	return m
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "postgres", "x")
	assert.Error(t, err)

	_, err = NewDatabaseManager(nil, "oracle", nil)
	assert.Error(t, err)
}

func TestSaveActionEntry_RoundTrip(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	at := time.UnixMilli(1717243200123)

	l := actionlog.New("sess-1")
	e, _ := l.Record(controller.Decision{
		Kind: controller.ReleaseAligned, At: at, Target: 100, RawTarget: 98, Actuator: 95, Diff: 5,
		Hold: 320 * time.Millisecond, Caught: true,
	})
	n := l.Note(at.Add(time.Second), "стоп")

	require.NoError(t, m.SaveActionEntry(ctx, e))
	require.NoError(t, m.SaveActionEntry(ctx, n))

	rows, err := m.RecentEntries(ctx, LogFilter{Session: "sess-1"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, actionlog.KindNote, rows[0].Kind)
	assert.False(t, rows[0].Target.Valid, "NaN is stored as NULL")

	r := rows[1]
	assert.Equal(t, int64(1), r.Seq)
	assert.Equal(t, "release_aligned", r.Kind)
	assert.True(t, r.At.Equal(at))
	assert.Equal(t, 100.0, r.Target.Float64)
	assert.Equal(t, int64(320), r.HoldMs)
	assert.True(t, r.Caught)
	assert.Equal(t, 1, r.CatchNo)
	assert.Equal(t, e.Message, r.Message)

	only, err := m.RecentEntries(ctx, LogFilter{Kind: "release_aligned"})
	require.NoError(t, err)
	assert.Len(t, only, 1)
}

func TestSessions(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	at := time.UnixMilli(1717243200000)

	l := actionlog.New("s")
	for i, d := range []controller.Decision{
		{Kind: controller.Press, At: at},
		{Kind: controller.ReleaseAligned, At: at.Add(400 * time.Millisecond), Caught: true},
		{Kind: controller.Press, At: at.Add(time.Second)},
		{Kind: controller.Release, At: at.Add(2 * time.Second)},
	} {
		e, ok := l.Record(d)
		require.True(t, ok, "decision %d", i)
		require.NoError(t, m.SaveActionEntry(ctx, e))
	}

	stats, err := m.Sessions(ctx, 5)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, SessionStats{
		Session: "s", Presses: 2, Releases: 2, Catches: 1,
		FirstAt: at, LastAt: at.Add(2 * time.Second),
	}, stats[0])
}

func TestStatusAndActions(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	s, err := m.GetStatus(ctx)
	require.NoError(t, err)
	assert.Empty(t, s.CurrentStatus)

	require.NoError(t, m.UpdateStatus(ctx, "ready"))
	require.NoError(t, m.UpdateStatus(ctx, "fishing"))
	s, err = m.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fishing", s.CurrentStatus)

	a, err := m.GetLatestUnexecutedAction(ctx)
	require.NoError(t, err)
	assert.Nil(t, a)

	require.NoError(t, m.AddAction(ctx, "tolerance:12"))
	require.NoError(t, m.AddAction(ctx, "stop"))

	a, err = m.GetLatestUnexecutedAction(ctx)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "tolerance:12", a.Action)

	require.NoError(t, m.MarkActionAsExecuted(ctx, a.ID))
	a, err = m.GetLatestUnexecutedAction(ctx)
	require.NoError(t, err)
	assert.Equal(t, "stop", a.Action)

	recent, err := m.RecentActions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "stop", recent[0].Action)
	assert.False(t, recent[0].Executed)
	assert.True(t, recent[1].Executed)
}

func TestActionSink_PreservesOrder(t *testing.T) {
	m := newTestManager(t)
	sink := m.NewActionSink(64)

	l := actionlog.New("order", sink)
	at := time.UnixMilli(1717243200000)
	for i := 0; i < 20; i++ {
		l.Note(at.Add(time.Duration(i)*time.Millisecond), "запись %d", i)
	}
	sink.Close()
	m.WaitForAsyncOperations()

	rows, err := m.RecentEntries(context.Background(), LogFilter{Session: "order", Limit: 100})
	require.NoError(t, err)
	require.Len(t, rows, 20)
	for i, r := range rows {
		assert.Equal(t, int64(20-i), r.Seq)
	}
	assert.Zero(t, sink.Dropped())
}

func TestActionSink_CountsAndReportsDrops(t *testing.T) {
	var out bytes.Buffer
	m := &DatabaseManager{logger: logger.NewWriterLogger(&out, nil)}
	// без горутины записи очередь заполняется сразу
	sink := &ActionSink{manager: m, queue: make(chan actionlog.Entry, 1), timeout: time.Second}

	l := actionlog.New("full", sink)
	var sinkErrs int
	l.OnSinkError = func(error) { sinkErrs++ }
	at := time.UnixMilli(1717243200000)
	for i := 0; i < 3; i++ {
		l.Note(at, "запись %d", i)
	}

	assert.Equal(t, int64(2), sink.Dropped())
	assert.Equal(t, 2, sinkErrs)
	assert.Len(t, l.Entries(), 3, "in-memory log keeps everything")

	sink.Close()
	assert.Contains(t, out.String(), "потеряно записей журнала: 2")
}

func TestNullable(t *testing.T) {
	assert.False(t, nullable(math.NaN()).Valid)
	assert.False(t, nullable(math.Inf(1)).Valid)
	assert.Equal(t, 1.5, nullable(1.5).Float64)
}
