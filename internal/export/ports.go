package export

import (
	"context"

	"finsight/internal/core"
)

// Ports for outbound export adapters.
type SnapshotWriter interface {
	AppendSnapshot(ctx context.Context, snap core.AnalysisSnapshot) (rowRef string, err error)
}
