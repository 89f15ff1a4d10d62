// package models defines the data model for the upload orchestrator
package models

import "time"

// Item represents one local media file slated for transfer.
// Items are created by the directory scan and immutable for the run.
type Item struct {
	Key         string // normalized title, unique within a collection
	Path        string
	Size        int64
	CaptionPath string // optional sidecar subtitle file
}

// Collection represents a remote grouping of items (YouTube playlist).
type Collection struct {
	Name     string
	RemoteID string
}

// RemoteEntry is a member of a collection as reported by the remote service.
// Re-fetched each reconciliation pass; never mutated locally.
type RemoteEntry struct {
	Key          string
	RemoteItemID string
}

// ItemStatus is the per-item lifecycle. Transitions are monotonic within a
// run: NotStarted → Uploaded → (Captioned | CaptionFailed) → (Listed | PlaylistFailed).
type ItemStatus int

const (
	StatusNotStarted ItemStatus = iota
	StatusUploaded
	StatusCaptioned
	StatusCaptionFailed
	StatusListed
	StatusPlaylistFailed
)

func (s ItemStatus) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusUploaded:
		return "uploaded"
	case StatusCaptioned:
		return "captioned"
	case StatusCaptionFailed:
		return "caption_failed"
	case StatusListed:
		return "listed"
	case StatusPlaylistFailed:
		return "playlist_failed"
	default:
		return ""
	}
}

// ItemFailure records one failed step for the run summary.
type ItemFailure struct {
	Key     string
	Path    string
	Message string
}

// RunSummary is the structured result of one orchestrator run.
// A run always ends with a summary, including halted and partially failed runs.
type RunSummary struct {
	RunID            string
	Collection       string
	CollectionID     string
	StartedAt        time.Time
	FinishedAt       time.Time
	TotalItems       int
	PendingItems     int
	UploadedCount    int
	UploadedBytes    int64
	SkippedCount     int // already present remotely
	TransferFailures []ItemFailure
	CaptionFailures  []ItemFailure
	PlaylistFailures []ItemFailure
	DataErrors       []ItemFailure
	Halted           bool // quota exhaustion stopped dispatch
}

// FailureCount returns the total number of recorded failures across categories.
func (s *RunSummary) FailureCount() int {
	return len(s.TransferFailures) + len(s.CaptionFailures) + len(s.PlaylistFailures) + len(s.DataErrors)
}

// Clean reports whether the run finished with nothing left to repair.
func (s *RunSummary) Clean() bool {
	return !s.Halted && s.FailureCount() == 0
}
