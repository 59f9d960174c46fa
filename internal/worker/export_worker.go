package worker

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"finsight/internal/amqp"
	"finsight/internal/export"
	"finsight/internal/ledger"
)

const defaultBatchSize = 10

// ExportWorker ships persisted analysis snapshots to an external sink.
// Messages carry only the snapshot id; the worker fetches the snapshot
// from the store before exporting.
type ExportWorker struct {
	store     ledger.SnapshotStore
	writer    export.SnapshotWriter
	batchSize int
}

func NewExportWorker(store ledger.SnapshotStore, writer export.SnapshotWriter, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &ExportWorker{
		store:     store,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleAnalysisMessage processes one completion message from AMQP.
func (w *ExportWorker) HandleAnalysisMessage(ctx context.Context, msg *amqp.AnalysisCompletedMessage) error {
	slog.InfoContext(ctx, "Processing analysis completed message",
		"snapshot_id", msg.SnapshotID,
		"user_id", msg.UserID,
		"kind", msg.Kind)

	snap, err := w.store.GetSnapshot(ctx, msg.SnapshotID)
	if err != nil {
		return fmt.Errorf("get snapshot from storage: %w", err)
	}

	ref, err := w.writer.AppendSnapshot(ctx, snap)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot exported",
		"snapshot_id", snap.ID,
		"row_ref", ref)
	return nil
}

// ExportRecent exports the newest snapshots of each given user, up to the
// batch size per user. It backs up the message path on startup in case
// completion messages were lost.
func (w *ExportWorker) ExportRecent(ctx context.Context, userIDs []int64) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, userID := range userIDs {
		g.Go(func() error {
			snaps, err := w.store.RecentSnapshots(ctx, userID, w.batchSize)
			if err != nil {
				return fmt.Errorf("recent snapshots for user %d: %w", userID, err)
			}
			for _, snap := range snaps {
				if _, err := w.writer.AppendSnapshot(ctx, snap); err != nil {
					return fmt.Errorf("export snapshot %d: %w", snap.ID, err)
				}
			}
			slog.InfoContext(ctx, "Exported recent snapshots",
				"user_id", userID,
				"count", len(snaps))
			return nil
		})
	}
	return g.Wait()
}
