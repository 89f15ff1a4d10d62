package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/mossridge/ytup/internal/models"
	"github.com/mossridge/ytup/internal/services"
)

// fakeService is an in-memory MediaService with scriptable failures.
type fakeService struct {
	mu sync.Mutex

	collections []models.Collection
	entries     map[string][]models.RemoteEntry

	listCollectionsErr error
	createErr          error
	entriesErr         error

	openErrs   []error            // consumed FIFO by OpenResumableUpload
	chunkErrs  map[string][]error // per-key scripted chunk errors, consumed FIFO
	quotaAfter int                // fail session opens with quotaExceeded once this many commits happened

	received  map[services.UploadSession]int64
	sessTotal map[services.UploadSession]int64
	sessKey   map[services.UploadSession]string

	committed  []string          // keys in commit order
	chunkCalls int
	captions   map[string]string // remoteItemID -> language tag
	captionErr error
	listed     []string // remoteItemIDs inserted into collections
	addErr     error
	deleted    []string
}

func newFakeService() *fakeService {
	return &fakeService{
		entries:   map[string][]models.RemoteEntry{},
		chunkErrs: map[string][]error{},
		received:  map[services.UploadSession]int64{},
		sessTotal: map[services.UploadSession]int64{},
		sessKey:   map[services.UploadSession]string{},
		captions:  map[string]string{},
	}
}

func (f *fakeService) ListCollections(ctx context.Context) ([]models.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listCollectionsErr != nil {
		return nil, f.listCollectionsErr
	}
	return append([]models.Collection(nil), f.collections...), nil
}

func (f *fakeService) CreateCollection(ctx context.Context, name, description, privacy string) (*models.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	col := models.Collection{Name: name, RemoteID: "pl-" + name}
	f.collections = append(f.collections, col)
	return &col, nil
}

func (f *fakeService) ListCollectionEntries(ctx context.Context, collectionID string) ([]models.RemoteEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entriesErr != nil {
		return nil, f.entriesErr
	}
	return append([]models.RemoteEntry(nil), f.entries[collectionID]...), nil
}

func (f *fakeService) OpenResumableUpload(ctx context.Context, meta services.UploadMetadata, sizeBytes int64) (services.UploadSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.openErrs) > 0 {
		err := f.openErrs[0]
		f.openErrs = f.openErrs[1:]
		if err != nil {
			return "", err
		}
	}
	if f.quotaAfter > 0 && len(f.committed) >= f.quotaAfter {
		return "", &services.APIError{StatusCode: 403, Reason: "quotaExceeded", Message: "quota exhausted"}
	}

	session := services.UploadSession(fmt.Sprintf("sess-%s-%d", meta.Title, len(f.sessKey)))
	f.sessKey[session] = meta.Title
	f.sessTotal[session] = sizeBytes
	f.received[session] = 0
	return session, nil
}

func (f *fakeService) UploadChunk(ctx context.Context, session services.UploadSession, offset int64, chunk []byte, totalBytes int64) (*services.ChunkResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.chunkCalls++
	key := f.sessKey[session]
	if errs := f.chunkErrs[key]; len(errs) > 0 {
		err := errs[0]
		f.chunkErrs[key] = errs[1:]
		return nil, err
	}

	if offset != f.received[session] {
		return nil, fmt.Errorf("offset %d does not match received %d", offset, f.received[session])
	}
	f.received[session] += int64(len(chunk))

	if f.received[session] >= f.sessTotal[session] {
		f.committed = append(f.committed, key)
		return &services.ChunkResult{Committed: true, RemoteItemID: "vid-" + key}, nil
	}
	return &services.ChunkResult{BytesReceived: f.received[session]}, nil
}

func (f *fakeService) AttachCaption(ctx context.Context, remoteItemID string, caption []byte, languageTag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.captionErr != nil {
		return f.captionErr
	}
	f.captions[remoteItemID] = languageTag
	return nil
}

func (f *fakeService) AddEntryToCollection(ctx context.Context, collectionID, remoteItemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.listed = append(f.listed, remoteItemID)
	return nil
}

func (f *fakeService) DeleteItem(ctx context.Context, remoteItemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, remoteItemID)
	return nil
}

func (f *fakeService) Name() string { return "fake" }

func (f *fakeService) committedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.committed...)
}
