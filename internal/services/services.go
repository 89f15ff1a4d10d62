// package services defines interface MediaService for the remote content host
//
// YouTube Data API v3 is the only production implementation; tests use stubs.
package services

import (
	"context"
	"fmt"

	"github.com/mossridge/ytup/internal/models"
)

// MediaService is the capability surface the upload orchestrator consumes.
// Implementations handle transport, authentication headers and response decoding.
type MediaService interface {
	// ListCollections retrieves all collections owned by the authenticated user.
	ListCollections(ctx context.Context) ([]models.Collection, error)

	// CreateCollection creates a named collection and returns it with its remote ID.
	CreateCollection(ctx context.Context, name, description, privacy string) (*models.Collection, error)

	// ListCollectionEntries retrieves the full member set of a collection,
	// following pagination until exhausted.
	ListCollectionEntries(ctx context.Context, collectionID string) ([]models.RemoteEntry, error)

	// OpenResumableUpload establishes a resumable upload session sized to the
	// item's byte length and returns the session handle.
	OpenResumableUpload(ctx context.Context, meta UploadMetadata, sizeBytes int64) (UploadSession, error)

	// UploadChunk sends one byte range of the session. The result reports either
	// committed (with the remote item ID) or the byte count the server has.
	UploadChunk(ctx context.Context, session UploadSession, offset int64, chunk []byte, totalBytes int64) (*ChunkResult, error)

	// AttachCaption uploads a caption track for a committed item.
	AttachCaption(ctx context.Context, remoteItemID string, caption []byte, languageTag string) error

	// AddEntryToCollection inserts a committed item into a collection.
	AddEntryToCollection(ctx context.Context, collectionID, remoteItemID string) error

	// DeleteItem removes an item; used only to clean up orphaned uploads.
	DeleteItem(ctx context.Context, remoteItemID string) error

	// Name returns the service name (e.g. "YouTube")
	Name() string
}

// UploadMetadata describes the remote item created by a resumable upload.
type UploadMetadata struct {
	Title       string
	Description string
	CategoryID  string
	Privacy     string
}

// UploadSession is an opaque resumable upload handle (the session URI).
type UploadSession string

// ChunkResult is the outcome of one successful chunk transfer.
type ChunkResult struct {
	Committed     bool   // true when the final chunk was accepted
	RemoteItemID  string // set when Committed
	BytesReceived int64  // bytes the server acknowledges, the next offset
}

// APIError carries the HTTP status and remote reason code of a failed call.
// The tasks layer classifies these into transient, rate-limited, quota and
// fatal categories.
type APIError struct {
	StatusCode int
	Reason     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("remote API error (status %d, reason %s): %s", e.StatusCode, e.Reason, e.Message)
	}
	return fmt.Sprintf("remote API error (status %d): %s", e.StatusCode, e.Message)
}
