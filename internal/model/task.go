package model

import "time"

// TaskKind distinguishes full exports from bounded previews.
type TaskKind string

const (
	KindExport  TaskKind = "export"
	KindPreview TaskKind = "preview"
)

// TaskState is the lifecycle stage of a render task.
//
// The machine is queued → processing → {completed | failed}. StateNotFound
// is a pseudo-state returned for unknown task ids; it is never persisted.
type TaskState string

const (
	StateQueued     TaskState = "queued"
	StateProcessing TaskState = "processing"
	StateCompleted  TaskState = "completed"
	StateFailed     TaskState = "failed"
	StateNotFound   TaskState = "not_found"
)

// Terminal reports whether the state ends the task's lifecycle.
func (s TaskState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// StatusRecord is the durable, pollable status of one render task.
// One record per task id; written by the task's own execution only,
// read by any number of pollers.
type StatusRecord struct {
	TaskID     string    `json:"task_id"`
	Kind       TaskKind  `json:"kind"`
	State      TaskState `json:"state"`
	Message    string    `json:"message"`
	OutputPath string    `json:"output_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
