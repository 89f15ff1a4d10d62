// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/mossridge/ytup/internal/models"
	"github.com/mossridge/ytup/internal/services"
)

// MockService is a no-op test double for [services.MediaService]
type MockService struct{}

func (m *MockService) ListCollections(ctx context.Context) ([]models.Collection, error) {
	return []models.Collection{}, nil
}

func (m *MockService) CreateCollection(ctx context.Context, name, description, privacy string) (*models.Collection, error) {
	return &models.Collection{Name: name, RemoteID: "mock-" + name}, nil
}

func (m *MockService) ListCollectionEntries(ctx context.Context, collectionID string) ([]models.RemoteEntry, error) {
	return []models.RemoteEntry{}, nil
}

func (m *MockService) OpenResumableUpload(ctx context.Context, meta services.UploadMetadata, sizeBytes int64) (services.UploadSession, error) {
	return "mock-session", nil
}

func (m *MockService) UploadChunk(ctx context.Context, session services.UploadSession, offset int64, chunk []byte, totalBytes int64) (*services.ChunkResult, error) {
	if offset+int64(len(chunk)) >= totalBytes {
		return &services.ChunkResult{Committed: true, RemoteItemID: "mock-video"}, nil
	}
	return &services.ChunkResult{BytesReceived: offset + int64(len(chunk))}, nil
}

func (m *MockService) AttachCaption(ctx context.Context, remoteItemID string, caption []byte, languageTag string) error {
	return nil
}

func (m *MockService) AddEntryToCollection(ctx context.Context, collectionID, remoteItemID string) error {
	return nil
}

func (m *MockService) DeleteItem(ctx context.Context, remoteItemID string) error {
	return nil
}

func (m *MockService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
