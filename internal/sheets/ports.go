package sheets

import (
	"context"
	"time"

	"emipilot/internal/core"
)

// Snapshot is the full state mirrored to a spreadsheet.
type Snapshot struct {
	EMIs    []core.EMI
	Income  core.Income
	TakenAt time.Time
}

// SnapshotWriter replaces the mirrored content with a snapshot.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, s Snapshot) error
}
