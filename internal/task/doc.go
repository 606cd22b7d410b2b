// Package task runs render jobs asynchronously and tracks their durable
// lifecycle.
//
// Each submitted task moves through queued → processing → completed or
// failed; every transition is persisted through a status store before it
// is observable, so pollers can follow a render across process restarts.
// Execution happens on a bounded worker pool, and a periodic sweeper
// fails tasks stuck in processing past a deadline (a crashed render would
// otherwise look in-flight forever).
//
// There are no retries: a failed render is re-requested under a brand-new
// task id.
package task
