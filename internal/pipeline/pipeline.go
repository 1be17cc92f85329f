// Package pipeline runs one remove-background job from received bytes to a
// completed record. Steps are sequential awaits; each remote call's output
// feeds the next, and the request context is checked at every suspension
// point.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"backsnap-backend/internal/models"
	"backsnap-backend/internal/quota"
)

// State is one step of a job. Idle and FileSelected exist for completeness
// of the lifecycle; a server-side run starts at FileSelected, since the
// request body is the selected file.
type State string

const (
	StateIdle          State = "idle"
	StateFileSelected  State = "file_selected"
	StateValidating    State = "validating"
	StateAwaitingAuth  State = "awaiting_auth"
	StateCheckingQuota State = "checking_quota"
	StateUploading     State = "uploading"
	StateProcessing    State = "processing"
	StateCompleted     State = "completed"
	StateFailed        State = "failed"
)

// transitions is the full lifecycle, including the client-driven edges:
// Failed returns to FileSelected on dismissal (input preserved) or to Idle
// on reset; AwaitingAuth resumes at CheckingQuota after sign-in or falls
// back to FileSelected on cancel.
var transitions = map[State][]State{
	StateIdle:          {StateFileSelected},
	StateFileSelected:  {StateValidating, StateIdle},
	StateValidating:    {StateAwaitingAuth, StateCheckingQuota, StateFailed},
	StateAwaitingAuth:  {StateCheckingQuota, StateFileSelected, StateFailed},
	StateCheckingQuota: {StateUploading, StateFailed},
	StateUploading:     {StateProcessing, StateFailed},
	StateProcessing:    {StateCompleted, StateFailed},
	StateCompleted:     {StateIdle, StateFileSelected},
	StateFailed:        {StateFileSelected, StateIdle},
}

// CanTransition reports whether to is a legal successor of from.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Processor submits an image for background removal.
type Processor interface {
	Submit(ctx context.Context, imageData []byte, mimeType string) ([]byte, error)
}

// RecordStore is the slice of the record store the pipeline drives.
type RecordStore interface {
	Create(ctx context.Context, userID uuid.UUID, data []byte, contentType string) (*models.ImageRecord, error)
	AttachProcessed(ctx context.Context, userID, imageID uuid.UUID, data []byte) (*models.ImageRecord, error)
	Delete(ctx context.Context, userID, imageID uuid.UUID) error
}

type Pipeline struct {
	quota     quota.Store
	records   RecordStore
	processor Processor

	maxBytes      int64
	maxMegapixels float64

	// OnTransition, when set, observes every state change of a run.
	OnTransition func(State)
}

func New(quotaStore quota.Store, records RecordStore, processor Processor, maxBytes int64, maxMegapixels float64) *Pipeline {
	return &Pipeline{
		quota:         quotaStore,
		records:       records,
		processor:     processor,
		maxBytes:      maxBytes,
		maxMegapixels: maxMegapixels,
	}
}

// QuotaLimit exposes the configured daily limit for response payloads.
func (p *Pipeline) QuotaLimit() int {
	return p.quota.Limit()
}

// Result reports a finished run. Trace holds every state the run passed
// through, Failed last when Err is set.
type Result struct {
	Record    *models.ImageRecord
	Remaining int
	ResetAt   time.Time
	Trace     []State
}

// Run executes the whole pipeline for one image. Validation happens before
// any remote call; quota denial aborts before any blob upload; cancellation
// anywhere releases a partially created record.
func (p *Pipeline) Run(ctx context.Context, userID uuid.UUID, data []byte) (*Result, error) {
	run := &run{pipeline: p, state: StateFileSelected, result: &Result{Trace: []State{StateFileSelected}}}

	if err := run.advance(StateValidating); err != nil {
		return run.result, err
	}
	contentType, err := ValidateImage(data, p.maxBytes, p.maxMegapixels)
	if err != nil {
		return run.fail(err)
	}

	if userID == uuid.Nil {
		// The auth flow, not a hard failure: the client signs in and
		// retries, which re-enters here at CheckingQuota.
		if err := run.advance(StateAwaitingAuth); err != nil {
			return run.result, err
		}
		return run.fail(models.NewError(models.KindUnauthenticated, "sign in to remove backgrounds"))
	}

	if err := run.advance(StateCheckingQuota); err != nil {
		return run.result, err
	}
	if err := cancelled(ctx); err != nil {
		return run.fail(err)
	}
	quotaRes, err := p.quota.TryConsume(ctx, userID)
	if err != nil {
		return run.fail(err)
	}
	if !quotaRes.Allowed {
		return run.fail(models.NewError(models.KindQuotaExceeded,
			fmt.Sprintf("daily limit of %d images reached, resets at %s",
				p.quota.Limit(), quotaRes.ResetAt.UTC().Format("15:04 MST"))))
	}
	run.result.Remaining = quotaRes.Remaining
	run.result.ResetAt = quotaRes.ResetAt

	if err := run.advance(StateUploading); err != nil {
		return run.result, err
	}
	if err := cancelled(ctx); err != nil {
		return run.fail(err)
	}
	record, err := p.records.Create(ctx, userID, data, contentType)
	if err != nil {
		return run.fail(err)
	}
	run.result.Record = record

	if err := run.advance(StateProcessing); err != nil {
		return run.result, err
	}
	if err := cancelled(ctx); err != nil {
		return run.fail(p.release(userID, record.ID, err))
	}
	processed, err := p.processor.Submit(ctx, data, contentType)
	if err != nil {
		if models.IsKind(err, models.KindCancelled) {
			err = p.release(userID, record.ID, err)
		}
		// Other processing failures keep the record: original-only is a
		// valid resting state and the user may retry from it.
		return run.fail(err)
	}

	if err := cancelled(ctx); err != nil {
		return run.fail(p.release(userID, record.ID, err))
	}
	completed, err := p.records.AttachProcessed(ctx, userID, record.ID, processed)
	if err != nil {
		return run.fail(err)
	}
	run.result.Record = completed

	if err := run.advance(StateCompleted); err != nil {
		return run.result, err
	}
	return run.result, nil
}

// release deletes the partial record of a cancelled run. The request
// context is already dead, so cleanup gets its own.
func (p *Pipeline) release(userID, imageID uuid.UUID, cause error) error {
	if err := p.records.Delete(context.Background(), userID, imageID); err != nil {
		return models.WrapError(models.KindCancelled,
			"cancelled, partial record cleanup failed", err)
	}
	return cause
}

func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return models.WrapError(models.KindCancelled, "upload cancelled", err)
	}
	return nil
}

type run struct {
	pipeline *Pipeline
	state    State
	result   *Result
}

func (r *run) advance(to State) error {
	if !CanTransition(r.state, to) {
		return models.NewError(models.KindStorage,
			fmt.Sprintf("illegal transition %s -> %s", r.state, to))
	}
	r.state = to
	r.result.Trace = append(r.result.Trace, to)
	if r.pipeline.OnTransition != nil {
		r.pipeline.OnTransition(to)
	}
	return nil
}

func (r *run) fail(err error) (*Result, error) {
	// Failed is reachable from every active state.
	r.state = StateFailed
	r.result.Trace = append(r.result.Trace, StateFailed)
	if r.pipeline.OnTransition != nil {
		r.pipeline.OnTransition(StateFailed)
	}
	return r.result, err
}
