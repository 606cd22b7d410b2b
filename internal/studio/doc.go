// Package studio is the application service layer: it owns project
// persistence, validation, and the asynchronous export and preview
// render operations.
//
// A Service is built once from settings plus optional injected
// collaborators, and every entry point takes a context:
//
//	svc, err := studio.NewService(settings, studio.Options{})
//	svc.Start(ctx)
//	defer svc.Close()
//
//	taskID, err := svc.StartExport(ctx, projectID)
//	rec, err := svc.TaskStatus(ctx, taskID)
//
// Renders run on the task orchestrator's bounded pool; the caller gets
// a task id immediately and polls status until a terminal state.
package studio
