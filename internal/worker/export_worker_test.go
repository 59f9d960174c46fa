package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"finsight/internal/amqp"
	"finsight/internal/core"
	exportmem "finsight/internal/export/memory"
	ledgermem "finsight/internal/ledger/memory"
)

func savedSnapshot(t *testing.T, store *ledgermem.Store, userID int64, kind core.AnalysisKind) core.AnalysisSnapshot {
	t.Helper()
	snap, err := store.SaveSnapshot(context.Background(), core.AnalysisSnapshot{
		UserID: userID,
		Kind:   kind,
		Period: core.Period{
			Start: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC),
		},
		Payload: []byte(`{"total_expense":100}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func TestHandleAnalysisMessage(t *testing.T) {
	store := ledgermem.New()
	sink := exportmem.New()
	w := NewExportWorker(store, sink, 0)

	snap := savedSnapshot(t, store, 1, core.KindForecast)

	msg := &amqp.AnalysisCompletedMessage{SnapshotID: snap.ID, UserID: 1, Kind: snap.Kind}
	if err := w.HandleAnalysisMessage(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	exported := sink.Exported()
	if len(exported) != 1 || exported[0].ID != snap.ID {
		t.Errorf("exported = %+v, want snapshot %d", exported, snap.ID)
	}
}

func TestHandleAnalysisMessageMissingSnapshot(t *testing.T) {
	w := NewExportWorker(ledgermem.New(), exportmem.New(), 0)

	msg := &amqp.AnalysisCompletedMessage{SnapshotID: 404, UserID: 1, Kind: core.KindPattern}
	if err := w.HandleAnalysisMessage(context.Background(), msg); err == nil {
		t.Error("a missing snapshot must surface as an error so the message is requeued")
	}
}

func TestExportRecentRespectsBatchSize(t *testing.T) {
	store := ledgermem.New()
	sink := exportmem.New()
	w := NewExportWorker(store, sink, 2)

	for i := 0; i < 5; i++ {
		savedSnapshot(t, store, 1, core.KindPattern)
	}
	savedSnapshot(t, store, 2, core.KindTrend)

	if err := w.ExportRecent(context.Background(), []int64{1, 2}); err != nil {
		t.Fatal(err)
	}

	exported := sink.Exported()
	if len(exported) != 3 {
		t.Errorf("exported %d snapshots, want 2 for user 1 and 1 for user 2", len(exported))
	}
}

func TestExportRecentPropagatesWriterErrors(t *testing.T) {
	store := ledgermem.New()
	savedSnapshot(t, store, 1, core.KindPattern)

	w := NewExportWorker(store, failingWriter{}, 0)
	if err := w.ExportRecent(context.Background(), []int64{1}); err == nil {
		t.Error("writer failures must propagate")
	}
}

type failingWriter struct{}

func (failingWriter) AppendSnapshot(context.Context, core.AnalysisSnapshot) (string, error) {
	return "", errors.New("sink unavailable")
}
