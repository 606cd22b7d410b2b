package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/SunguochaoYeepay/sound-Edit/internal/model"
	"github.com/SunguochaoYeepay/sound-Edit/internal/store"
)

// Level indicates the severity/type of a progress message.
type Level int

const (
	LevelInfo Level = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// Event is a progress update emitted while tasks execute.
type Event struct {
	TaskID  string
	Message string
	Level   Level
}

// RunFunc performs the actual render for one task and returns the output
// path. The error message becomes the task's failure message verbatim,
// so it must be specific about which stage failed.
type RunFunc func(ctx context.Context) (outputPath string, err error)

// Orchestrator dispatches render tasks onto a bounded worker pool and
// owns every mutation of their status records.
type Orchestrator struct {
	statuses   store.StatusStore
	workers    int
	staleAfter time.Duration
	onProgress func(Event)

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	pending sync.WaitGroup
	started bool
	mu      sync.Mutex

	now func() time.Time
}

// NewOrchestrator creates an orchestrator persisting through statuses.
// workers bounds concurrent renders (minimum 1). staleAfter is the
// processing deadline enforced by the sweeper; zero disables sweeping.
// onProgress may be nil.
func NewOrchestrator(statuses store.StatusStore, workers int, staleAfter time.Duration, onProgress func(Event)) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		statuses:   statuses,
		workers:    workers,
		staleAfter: staleAfter,
		onProgress: onProgress,
		now:        time.Now,
	}
}

// Start launches the worker pool and the stale-task sweeper. It must be
// called once before Submit.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		return
	}
	o.ctx, o.cancel = context.WithCancel(ctx)
	o.group, _ = errgroup.WithContext(o.ctx)
	o.group.SetLimit(o.workers)
	o.started = true

	if o.staleAfter > 0 {
		go o.sweepLoop()
	}
}

// Close stops accepting work and cancels in-flight renders.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}

// Wait blocks until every submitted task has reached a terminal state.
// Intended for tests and CLI one-shot runs.
func (o *Orchestrator) Wait() {
	o.pending.Wait()
}

// Submit creates a new task in queued state and dispatches it to the
// pool. The call returns as soon as the queued record is durable; the
// render itself proceeds independently of the requester.
func (o *Orchestrator) Submit(ctx context.Context, kind model.TaskKind, run RunFunc) (string, error) {
	o.mu.Lock()
	started := o.started
	o.mu.Unlock()
	if !started {
		return "", fmt.Errorf("orchestrator not started")
	}

	taskID := "task_" + uuid.NewString()
	now := o.now().UTC()
	rec := model.StatusRecord{
		TaskID:    taskID,
		Kind:      kind,
		State:     model.StateQueued,
		Message:   "render queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.statuses.Put(ctx, rec); err != nil {
		return "", fmt.Errorf("persist queued task: %w", err)
	}
	o.progress(Event{TaskID: taskID, Message: fmt.Sprintf("queued %s render", kind), Level: LevelVerbose})

	o.pending.Add(1)
	go func() {
		// Go blocks until a pool slot frees; the submitter never does.
		o.group.Go(func() error {
			defer o.pending.Done()
			o.execute(rec, run)
			return nil
		})
	}()
	return taskID, nil
}

// execute drives one task through processing to a terminal state. Every
// failure path converges on a failed record; nothing escapes.
func (o *Orchestrator) execute(rec model.StatusRecord, run RunFunc) {
	rec.State = model.StateProcessing
	rec.Message = "rendering audio"
	o.put(rec)
	o.progress(Event{TaskID: rec.TaskID, Message: "render started", Level: LevelInfo})

	outputPath, err := run(o.ctx)
	if err != nil {
		rec.State = model.StateFailed
		rec.Message = err.Error()
		o.put(rec)
		o.progress(Event{TaskID: rec.TaskID, Message: "render failed: " + err.Error(), Level: LevelError})
		return
	}

	rec.State = model.StateCompleted
	rec.Message = "render completed"
	rec.OutputPath = outputPath
	o.put(rec)
	o.progress(Event{TaskID: rec.TaskID, Message: "render completed: " + outputPath, Level: LevelSuccess})
}

func (o *Orchestrator) put(rec model.StatusRecord) {
	rec.UpdatedAt = o.now().UTC()
	if err := o.statuses.Put(context.Background(), rec); err != nil {
		o.progress(Event{TaskID: rec.TaskID, Message: fmt.Sprintf("persist status: %v", err), Level: LevelError})
	}
}

// Status returns the durable record for a task id. Unknown ids yield the
// not_found pseudo-state rather than an error.
func (o *Orchestrator) Status(ctx context.Context, taskID string) (model.StatusRecord, error) {
	rec, err := o.statuses.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.StatusRecord{
				TaskID:  taskID,
				State:   model.StateNotFound,
				Message: "render task not found",
			}, nil
		}
		return model.StatusRecord{}, err
	}
	return rec, nil
}

// Sweep marks tasks stuck in processing past the deadline as failed and
// returns how many it reaped.
func (o *Orchestrator) Sweep(ctx context.Context) (int, error) {
	if o.staleAfter <= 0 {
		return 0, nil
	}
	recs, err := o.statuses.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := o.now().UTC().Add(-o.staleAfter)
	reaped := 0
	for _, rec := range recs {
		if rec.State != model.StateProcessing || !rec.UpdatedAt.Before(cutoff) {
			continue
		}
		rec.State = model.StateFailed
		rec.Message = fmt.Sprintf("render made no progress for %s; marked failed by sweeper", o.staleAfter)
		o.put(rec)
		o.progress(Event{TaskID: rec.TaskID, Message: "stale task reaped", Level: LevelWarning})
		reaped++
	}
	return reaped, nil
}

func (o *Orchestrator) sweepLoop() {
	interval := o.staleAfter / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-o.ctx.Done():
			return
		case <-ticker.C:
			if _, err := o.Sweep(o.ctx); err != nil {
				o.progress(Event{Message: fmt.Sprintf("sweep: %v", err), Level: LevelWarning})
			}
		}
	}
}

func (o *Orchestrator) progress(event Event) {
	if o.onProgress != nil {
		o.onProgress(event)
	}
}
