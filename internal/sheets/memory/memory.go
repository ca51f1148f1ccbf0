// Package memory provides a SnapshotWriter that keeps snapshots in process.
package memory

import (
	"context"
	"sync"

	"emipilot/internal/sheets"
)

// Recorder keeps every snapshot it is given.
type Recorder struct {
	mu        sync.Mutex
	snapshots []sheets.Snapshot
	err       error
}

var _ sheets.SnapshotWriter = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes subsequent writes return err; nil restores success.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) WriteSnapshot(_ context.Context, s sheets.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.snapshots = append(r.snapshots, s)
	return nil
}

// Last returns the most recent snapshot and whether one was written.
func (r *Recorder) Last() (sheets.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return sheets.Snapshot{}, false
	}
	return r.snapshots[len(r.snapshots)-1], true
}

func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}
