// Package models defines the domain entities for the ytup upload orchestrator.
//
// The package contains plain data types shared across the scanner, services,
// ledger and tasks layers:
//   - [Item] : one local media file slated for transfer
//   - [Collection] : a named remote grouping (YouTube playlist)
//   - [RemoteEntry] : a collection member as reported by the remote service
//   - [ItemStatus] : the monotonic per-item lifecycle
//   - [RunSummary] : the structured result every run ends with
//
// Types here carry no behavior beyond small derived accessors; all mutation
// happens in the owning components.
package models
