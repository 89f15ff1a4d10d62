package tasks

import (
	"fmt"

	"github.com/mossridge/ytup/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase   // Operation phase
	Step    int     // Current step number within phase
	Total   int     // Total steps in this phase
	Key     string  // Item key when the update concerns one item
	Percent float64 // Byte-level completion for transfer updates
	Message string  // Human-readable message for display
	Data    any     // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ScanLocal Phase = iota
	ResolveCollection
	FetchRemote
	Reconciling
	Transferring
	Captioning
	Listing
	Repairing
	Halted
	Finished
)

func (p Phase) String() string {
	switch p {
	case ScanLocal:
		return "scan_local"
	case ResolveCollection:
		return "resolve_collection"
	case FetchRemote:
		return "fetch_remote"
	case Reconciling:
		return "reconcile"
	case Transferring:
		return "transfer"
	case Captioning:
		return "caption"
	case Listing:
		return "playlist"
	case Repairing:
		return "repair"
	case Halted:
		return "halted"
	case Finished:
		return "finished"
	default:
		return ""
	}
}

func scanUpdate(folder string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanLocal,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Scanning %s...", folder),
	}
}

func collectionUpdate(col *models.Collection, created bool) ProgressUpdate {
	verb := "Found"
	if created {
		verb = "Created"
	}
	return ProgressUpdate{
		Phase:   ResolveCollection,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%s collection: %s (ID: %s)", verb, col.Name, col.RemoteID),
		Data:    col,
	}
}

func fetchRemoteUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRemote,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching remote entries for %s...", name),
	}
}

func reconcileUpdate(pending, skipped, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconciling,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d of %d items pending (%d already uploaded)", pending, total, skipped),
	}
}

func transferStartUpdate(step, total int, item models.Item) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Transferring,
		Step:    step,
		Total:   total,
		Key:     item.Key,
		Message: fmt.Sprintf("[%d/%d] Uploading %s...", step, total, item.Key),
	}
}

func transferProgressUpdate(step, total int, key string, percent float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Transferring,
		Step:    step,
		Total:   total,
		Key:     key,
		Percent: percent,
		Message: fmt.Sprintf("[%d/%d] %s: %.0f%%", step, total, key, percent),
	}
}

func transferDoneUpdate(step, total int, key, videoID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Transferring,
		Step:    step,
		Total:   total,
		Key:     key,
		Percent: 100,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (ID: %s)", step, total, key, videoID),
	}
}

func transferFailedUpdate(step, total int, key string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Transferring,
		Step:    step,
		Total:   total,
		Key:     key,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, key, err),
	}
}

func captionUpdate(key string, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{
			Phase:   Captioning,
			Key:     key,
			Message: fmt.Sprintf("Caption failed for %s: %v", key, err),
		}
	}
	return ProgressUpdate{
		Phase:   Captioning,
		Key:     key,
		Message: fmt.Sprintf("Captions attached to %s", key),
	}
}

func listingUpdate(key string, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{
			Phase:   Listing,
			Key:     key,
			Message: fmt.Sprintf("Adding %s to collection failed: %v", key, err),
		}
	}
	return ProgressUpdate{
		Phase:   Listing,
		Key:     key,
		Message: fmt.Sprintf("Added %s to collection", key),
	}
}

func repairUpdate(kind, key string, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{
			Phase:   Repairing,
			Key:     key,
			Message: fmt.Sprintf("Repair (%s) failed for %s: %v", kind, key, err),
		}
	}
	return ProgressUpdate{
		Phase:   Repairing,
		Key:     key,
		Message: fmt.Sprintf("Repaired %s for %s", kind, key),
	}
}

func haltedUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Halted,
		Message: "Upload quota exhausted, stopping dispatch; remaining items stay pending",
	}
}

func finishedUpdate(summary *models.RunSummary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Finished,
		Message: fmt.Sprintf("Run complete: %d uploaded (%d bytes), %d failures", summary.UploadedCount, summary.UploadedBytes, summary.FailureCount()),
		Data:    summary,
	}
}
