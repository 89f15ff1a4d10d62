// package ledger persists per-collection upload progress across runs.
//
// The ledger is a cache and a record of partial failures, not the source of
// truth for membership; reconciliation always re-checks the remote service.
// Every mutation rewrites the file atomically so a crash loses at most the
// item that was in flight.
package ledger

import (
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/mossridge/ytup/internal/shared"
)

// Record is the persisted state for one collection.
type Record struct {
	PlaylistID     string            `json:"playlistId"`
	UploadedVideos map[string]string `json:"uploadedVideos"`
	PendingVideos  []string          `json:"pendingVideos"`
	CaptionFailed  []string          `json:"captionFailed,omitempty"`
	PlaylistFailed []string          `json:"playlistFailed,omitempty"`
}

func newRecord() *Record {
	return &Record{
		UploadedVideos: map[string]string{},
		PendingVideos:  []string{},
	}
}

// Ledger is the durable upload ledger. All mutating calls are serialized by a
// single mutex even when invoked from concurrent workers.
type Ledger struct {
	path    string
	logger  *log.Logger
	mu      sync.Mutex
	records map[string]*Record
}

// Open loads the ledger at path. A missing file yields an empty ledger; a
// malformed file is reported and treated as empty, never fatal.
func Open(path string, logger *log.Logger) *Ledger {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	l := &Ledger{
		path:    path,
		logger:  logger,
		records: map[string]*Record{},
	}

	if _, err := os.Stat(path); err != nil {
		return l
	}

	if err := shared.ReadJSON(path, &l.records); err != nil {
		logger.Warn("ledger file is malformed, starting empty", "path", path, "err", err)
		l.records = map[string]*Record{}
	}

	for name, rec := range l.records {
		if rec == nil {
			l.records[name] = newRecord()
			continue
		}
		if rec.UploadedVideos == nil {
			rec.UploadedVideos = map[string]string{}
		}
		if rec.PendingVideos == nil {
			rec.PendingVideos = []string{}
		}
	}

	return l
}

// Path returns the backing file path.
func (l *Ledger) Path() string {
	return l.path
}

func (l *Ledger) record(collection string) *Record {
	rec, ok := l.records[collection]
	if !ok {
		rec = newRecord()
		l.records[collection] = rec
	}
	return rec
}

// save rewrites the whole file. Callers must hold l.mu.
func (l *Ledger) save() error {
	if err := shared.AtomicWriteJSON(l.path, l.records); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the record for a collection; an empty record when
// the collection has never been seen.
func (l *Ledger) Snapshot(collection string) Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.record(collection)
	out := Record{
		PlaylistID:     rec.PlaylistID,
		UploadedVideos: make(map[string]string, len(rec.UploadedVideos)),
		PendingVideos:  slices.Clone(rec.PendingVideos),
		CaptionFailed:  slices.Clone(rec.CaptionFailed),
		PlaylistFailed: slices.Clone(rec.PlaylistFailed),
	}
	for k, v := range rec.UploadedVideos {
		out.UploadedVideos[k] = v
	}
	return out
}

// UploadedID returns the remote item ID recorded for key, if any.
func (l *Ledger) UploadedID(collection, key string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.record(collection).UploadedVideos[key]
	return id, ok
}

// SetPlaylistID records the remote collection ID.
func (l *Ledger) SetPlaylistID(collection, playlistID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record(collection).PlaylistID = playlistID
	return l.save()
}

// SetPending replaces the pending key list; keys already uploaded are never
// demoted back to pending.
func (l *Ledger) SetPending(collection string, keys []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.record(collection)
	pending := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, uploaded := rec.UploadedVideos[key]; !uploaded {
			pending = append(pending, key)
		}
	}
	rec.PendingVideos = pending
	return l.save()
}

// RecordUploaded marks key as uploaded with its remote ID and drops it from
// the pending list.
func (l *Ledger) RecordUploaded(collection, key, remoteItemID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.record(collection)
	rec.UploadedVideos[key] = remoteItemID
	rec.PendingVideos = slices.DeleteFunc(rec.PendingVideos, func(k string) bool { return k == key })
	return l.save()
}

// RecordCaptionFailure notes that the caption attachment for key failed. The
// upload itself stays recorded; the next run repairs only the caption.
func (l *Ledger) RecordCaptionFailure(collection, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.record(collection)
	if !slices.Contains(rec.CaptionFailed, key) {
		rec.CaptionFailed = append(rec.CaptionFailed, key)
	}
	return l.save()
}

// ClearCaptionFailure removes key from the caption failure list after a
// successful repair.
func (l *Ledger) ClearCaptionFailure(collection, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.record(collection)
	rec.CaptionFailed = slices.DeleteFunc(rec.CaptionFailed, func(k string) bool { return k == key })
	return l.save()
}

// RecordPlaylistFailure notes that adding key to the collection failed after a
// committed upload.
func (l *Ledger) RecordPlaylistFailure(collection, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.record(collection)
	if !slices.Contains(rec.PlaylistFailed, key) {
		rec.PlaylistFailed = append(rec.PlaylistFailed, key)
	}
	return l.save()
}

// ClearPlaylistFailure removes key from the membership failure list.
func (l *Ledger) ClearPlaylistFailure(collection, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.record(collection)
	rec.PlaylistFailed = slices.DeleteFunc(rec.PlaylistFailed, func(k string) bool { return k == key })
	return l.save()
}
