// AngelaMos | 2026
// recorder.go

package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/auratrack/auratrack-api/internal/core"
)

type Recorder struct {
	repo Repository
	now  func() time.Time
}

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo, now: time.Now}
}

// Record appends one entry. Callers invoke it only after the mutation it
// describes is durable; an error here means the mutation happened without
// its audit trail and must be surfaced, never retried silently.
func (r *Recorder) Record(ctx context.Context, p RecordParams) (*Entry, error) {
	if !p.Action.Valid() {
		return nil, fmt.Errorf(
			"record audit entry: unknown action %q: %w",
			p.Action,
			core.ErrInvalidInput,
		)
	}

	entry := &Entry{
		ID:        uuid.New().String(),
		Timestamp: r.now().UTC(),
		Action:    p.Action,
		AdminID:   p.AdminID,
		TargetID:  p.TargetID,
	}
	if p.Details != "" {
		details := p.Details
		entry.Details = &details
	}

	if err := r.repo.Insert(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}
