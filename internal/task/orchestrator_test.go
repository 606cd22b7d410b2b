package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SunguochaoYeepay/sound-Edit/internal/model"
	"github.com/SunguochaoYeepay/sound-Edit/internal/store"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *store.FileStatusStore) {
	t.Helper()
	statuses, err := store.NewFileStatusStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	o := NewOrchestrator(statuses, 2, 0, nil)
	o.Start(context.Background())
	t.Cleanup(o.Close)
	return o, statuses
}

func TestOrchestrator_CompletedTask(t *testing.T) {
	ctx := context.Background()
	o, _ := newTestOrchestrator(t)

	id, err := o.Submit(ctx, model.KindExport, func(ctx context.Context) (string, error) {
		return "/exports/out.wav", nil
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	o.Wait()

	rec, err := o.Status(ctx, id)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if rec.State != model.StateCompleted {
		t.Errorf("state = %s, want completed", rec.State)
	}
	if rec.OutputPath != "/exports/out.wav" {
		t.Errorf("output path = %q", rec.OutputPath)
	}
	if rec.Kind != model.KindExport {
		t.Errorf("kind = %s, want export", rec.Kind)
	}
	if rec.CreatedAt.IsZero() || rec.UpdatedAt.Before(rec.CreatedAt) {
		t.Errorf("timestamps created=%v updated=%v", rec.CreatedAt, rec.UpdatedAt)
	}
}

func TestOrchestrator_FailedTask(t *testing.T) {
	ctx := context.Background()
	o, _ := newTestOrchestrator(t)

	id, err := o.Submit(ctx, model.KindPreview, func(ctx context.Context) (string, error) {
		return "", errors.New("decode asset voice.wav: file missing")
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	o.Wait()

	rec, err := o.Status(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != model.StateFailed {
		t.Errorf("state = %s, want failed", rec.State)
	}
	if rec.Message != "decode asset voice.wav: file missing" {
		t.Errorf("message = %q", rec.Message)
	}
	if rec.OutputPath != "" {
		t.Errorf("failed task has output path %q", rec.OutputPath)
	}
}

func TestOrchestrator_UnknownTask(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	rec, err := o.Status(context.Background(), "task_ghost")
	if err != nil {
		t.Fatalf("unknown id should not error, got %v", err)
	}
	if rec.State != model.StateNotFound {
		t.Errorf("state = %s, want not_found", rec.State)
	}
	if rec.TaskID != "task_ghost" {
		t.Errorf("task id = %q", rec.TaskID)
	}
}

func TestOrchestrator_QueuedBeforeRun(t *testing.T) {
	ctx := context.Background()
	o, statuses := newTestOrchestrator(t)

	release := make(chan struct{})
	id, err := o.Submit(ctx, model.KindExport, func(ctx context.Context) (string, error) {
		<-release
		return "/exports/slow.wav", nil
	})
	if err != nil {
		t.Fatal(err)
	}

	// The queued record is durable before Submit returns.
	rec, err := statuses.Get(ctx, id)
	if err != nil {
		t.Fatalf("queued record not persisted: %v", err)
	}
	if rec.State != model.StateQueued && rec.State != model.StateProcessing {
		t.Errorf("state = %s before completion", rec.State)
	}

	close(release)
	o.Wait()

	rec, _ = statuses.Get(ctx, id)
	if rec.State != model.StateCompleted {
		t.Errorf("final state = %s, want completed", rec.State)
	}
}

func TestOrchestrator_BoundedPool(t *testing.T) {
	ctx := context.Background()
	statuses, err := store.NewFileStatusStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	o := NewOrchestrator(statuses, 1, 0, nil)
	o.Start(ctx)
	defer o.Close()

	running := make(chan struct{}, 4)
	for i := 0; i < 4; i++ {
		_, err := o.Submit(ctx, model.KindExport, func(ctx context.Context) (string, error) {
			running <- struct{}{}
			defer func() { <-running }()
			if len(running) > 1 {
				t.Error("more than one render in flight with workers=1")
			}
			time.Sleep(10 * time.Millisecond)
			return "out.wav", nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	o.Wait()
}

func TestOrchestrator_SweepStaleTasks(t *testing.T) {
	ctx := context.Background()
	statuses, err := store.NewFileStatusStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	o := NewOrchestrator(statuses, 1, 30*time.Minute, nil)

	old := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	stale := model.StatusRecord{
		TaskID: "task_stale", Kind: model.KindExport,
		State: model.StateProcessing, Message: "rendering audio",
		CreatedAt: old, UpdatedAt: old,
	}
	fresh := model.StatusRecord{
		TaskID: "task_fresh", Kind: model.KindExport,
		State: model.StateProcessing, Message: "rendering audio",
		CreatedAt: old.Add(time.Hour), UpdatedAt: old.Add(time.Hour),
	}
	done := model.StatusRecord{
		TaskID: "task_done", Kind: model.KindPreview,
		State: model.StateCompleted, Message: "render completed",
		OutputPath: "p.wav", CreatedAt: old, UpdatedAt: old,
	}
	for _, rec := range []model.StatusRecord{stale, fresh, done} {
		if err := statuses.Put(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	o.now = func() time.Time { return old.Add(time.Hour).Add(10 * time.Minute) }

	reaped, err := o.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if reaped != 1 {
		t.Errorf("reaped %d tasks, want 1", reaped)
	}

	got, _ := statuses.Get(ctx, "task_stale")
	if got.State != model.StateFailed {
		t.Errorf("stale task state = %s, want failed", got.State)
	}
	got, _ = statuses.Get(ctx, "task_fresh")
	if got.State != model.StateProcessing {
		t.Errorf("fresh task state = %s, want processing", got.State)
	}
	got, _ = statuses.Get(ctx, "task_done")
	if got.State != model.StateCompleted {
		t.Errorf("completed task state = %s, want untouched", got.State)
	}
}

func TestOrchestrator_SubmitBeforeStart(t *testing.T) {
	statuses, err := store.NewFileStatusStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	o := NewOrchestrator(statuses, 1, 0, nil)

	_, err = o.Submit(context.Background(), model.KindExport, func(ctx context.Context) (string, error) {
		return "", nil
	})
	if err == nil {
		t.Error("Submit before Start should fail")
	}
}
