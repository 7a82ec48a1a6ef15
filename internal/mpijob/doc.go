// Package mpijob manages the lifecycle of MPIJob resources on top of a
// store.Store. It is structured into small files by concern:
//
//   - client.go: Client and ClientConfig; Create/Get/List/Delete return handles.
//   - builder.go: Builder composes a job document from replica templates.
//   - validate.go: structural checks run before submission.
//   - phase.go: Phase and DerivePhase over condition records.
//   - job.go: Job handle (Refresh, Status, Phase, replica counters).
//   - wait.go: WaitForCompletion, Monitor and Delete polling loops.
//   - logs.go: per-pod log collection by replica role and index.
//   - errors.go: error types and helpers (IsValidation, IsNotFound, IsParse).
//   - metrics.go: Prometheus counters for refreshes and phase transitions.
//
// A Job is owned by its caller. Refresh, WaitForCompletion and Monitor all
// replace the cached snapshot, so they must not run concurrently on the
// same handle.
package mpijob
