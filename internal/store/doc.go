// Package store persists projects and render-task status records.
//
// The interfaces are the contract; the file-backed implementations are
// one possible backend keeping a JSON document per key. Task status
// writes are atomic (write-new-file-then-rename) so concurrent pollers
// never observe a partial record.
package store
