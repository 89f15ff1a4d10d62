// Package tasks implements the upload orchestration core.
//
// The central abstraction is [UploadEngine], which reconciles the local
// inventory against the live remote collection, schedules pending transfers
// over a small worker pool and records durable progress in the ledger.
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
//
// Supporting pieces:
//   - [Reconcile] computes the pending work set; the remote service is the
//     authority, the ledger only seeds repairs.
//   - [TransferEngine] drives one chunked resumable upload with retry/backoff.
//   - [QuotaGuard] classifies remote failures and carries the shared halt flag.
//   - [CaptionAttacher] performs the best-effort caption follow-on step.
package tasks
