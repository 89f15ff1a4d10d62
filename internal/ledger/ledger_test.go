package ledger

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/mossridge/ytup/internal/shared"
)

func tempLedger(t *testing.T) *Ledger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.json")
	return Open(path, shared.NewLogger(&bytes.Buffer{}))
}

func TestOpen_MissingFile(t *testing.T) {
	l := tempLedger(t)

	rec := l.Snapshot("Go Course")
	if len(rec.UploadedVideos) != 0 || len(rec.PendingVideos) != 0 {
		t.Errorf("missing file should yield empty record: %+v", rec)
	}
}

func TestOpen_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	if err := os.WriteFile(path, []byte("{this is not json"), 0644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	l := Open(path, shared.NewLogger(&buf))

	rec := l.Snapshot("Go Course")
	if len(rec.UploadedVideos) != 0 {
		t.Errorf("malformed file should yield empty record: %+v", rec)
	}
	if !strings.Contains(buf.String(), "malformed") {
		t.Errorf("malformed ledger should be reported, log: %q", buf.String())
	}
}

func TestRecordUploaded_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	logger := shared.NewLogger(&bytes.Buffer{})

	l := Open(path, logger)
	if err := l.SetPlaylistID("Go Course", "pl1"); err != nil {
		t.Fatal(err)
	}
	if err := l.SetPending("Go Course", []string{"01 Intro", "02 Setup"}); err != nil {
		t.Fatal(err)
	}
	if err := l.RecordUploaded("Go Course", "01 Intro", "vidA"); err != nil {
		t.Fatal(err)
	}

	reopened := Open(path, logger)
	rec := reopened.Snapshot("Go Course")

	if rec.PlaylistID != "pl1" {
		t.Errorf("PlaylistID = %q, want 'pl1'", rec.PlaylistID)
	}
	if rec.UploadedVideos["01 Intro"] != "vidA" {
		t.Errorf("uploaded map = %v", rec.UploadedVideos)
	}
	if !slices.Equal(rec.PendingVideos, []string{"02 Setup"}) {
		t.Errorf("pending = %v, want ['02 Setup']", rec.PendingVideos)
	}
}

func TestSetPending_NeverDemotesUploaded(t *testing.T) {
	l := tempLedger(t)

	if err := l.RecordUploaded("c", "01 Intro", "vidA"); err != nil {
		t.Fatal(err)
	}
	if err := l.SetPending("c", []string{"01 Intro", "02 Setup"}); err != nil {
		t.Fatal(err)
	}

	rec := l.Snapshot("c")
	if slices.Contains(rec.PendingVideos, "01 Intro") {
		t.Error("uploaded key must not return to pending")
	}
	if !slices.Contains(rec.PendingVideos, "02 Setup") {
		t.Error("new key should be pending")
	}
}

func TestCaptionFailureLifecycle(t *testing.T) {
	l := tempLedger(t)

	if err := l.RecordUploaded("c", "01 Intro", "vidA"); err != nil {
		t.Fatal(err)
	}
	if err := l.RecordCaptionFailure("c", "01 Intro"); err != nil {
		t.Fatal(err)
	}
	// Recording twice stays idempotent.
	if err := l.RecordCaptionFailure("c", "01 Intro"); err != nil {
		t.Fatal(err)
	}

	rec := l.Snapshot("c")
	if len(rec.CaptionFailed) != 1 {
		t.Errorf("caption failures = %v, want one entry", rec.CaptionFailed)
	}
	if rec.UploadedVideos["01 Intro"] != "vidA" {
		t.Error("caption failure must not disturb the uploaded record")
	}

	if err := l.ClearCaptionFailure("c", "01 Intro"); err != nil {
		t.Fatal(err)
	}
	if rec := l.Snapshot("c"); len(rec.CaptionFailed) != 0 {
		t.Errorf("caption failures after clear = %v", rec.CaptionFailed)
	}
}

func TestPlaylistFailureLifecycle(t *testing.T) {
	l := tempLedger(t)

	if err := l.RecordPlaylistFailure("c", "02 Setup"); err != nil {
		t.Fatal(err)
	}
	if rec := l.Snapshot("c"); !slices.Contains(rec.PlaylistFailed, "02 Setup") {
		t.Errorf("playlist failures = %v", rec.PlaylistFailed)
	}

	if err := l.ClearPlaylistFailure("c", "02 Setup"); err != nil {
		t.Fatal(err)
	}
	if rec := l.Snapshot("c"); len(rec.PlaylistFailed) != 0 {
		t.Errorf("playlist failures after clear = %v", rec.PlaylistFailed)
	}
}

func TestUploadedID(t *testing.T) {
	l := tempLedger(t)

	if _, ok := l.UploadedID("c", "01 Intro"); ok {
		t.Error("UploadedID should miss before recording")
	}

	if err := l.RecordUploaded("c", "01 Intro", "vidA"); err != nil {
		t.Fatal(err)
	}

	id, ok := l.UploadedID("c", "01 Intro")
	if !ok || id != "vidA" {
		t.Errorf("UploadedID = %q, %v", id, ok)
	}
}

func TestConcurrentMutation(t *testing.T) {
	l := tempLedger(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("%02d Lesson", n)
			if err := l.RecordUploaded("c", key, fmt.Sprintf("vid%d", n)); err != nil {
				t.Errorf("RecordUploaded(%s) error = %v", key, err)
			}
		}(i)
	}
	wg.Wait()

	rec := l.Snapshot("c")
	if len(rec.UploadedVideos) != 8 {
		t.Errorf("uploaded count = %d, want 8", len(rec.UploadedVideos))
	}
}

func TestSnapshotIsolation(t *testing.T) {
	l := tempLedger(t)
	if err := l.RecordUploaded("c", "01 Intro", "vidA"); err != nil {
		t.Fatal(err)
	}

	rec := l.Snapshot("c")
	rec.UploadedVideos["rogue"] = "x"
	rec.PendingVideos = append(rec.PendingVideos, "rogue")

	if _, ok := l.UploadedID("c", "rogue"); ok {
		t.Error("mutating a snapshot must not affect the ledger")
	}
}
