package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/mossridge/ytup/internal/ledger"
	"github.com/mossridge/ytup/internal/models"
	"github.com/mossridge/ytup/internal/scanner"
	"github.com/mossridge/ytup/internal/services"
	"github.com/mossridge/ytup/internal/shared"
)

// ReconcileResult is the outcome of comparing the local inventory with the
// live remote collection.
type ReconcileResult struct {
	Pending    []models.Item        // items to transfer, natural order
	Skipped    int                  // already present remotely
	DataErrors []models.ItemFailure // duplicate-key items, excluded from the queue
	RemoteKeys map[string]string    // key -> remote item ID for present entries
}

// Reconcile computes the pending work set. The remote entry list is the
// authority on membership; local items whose key appears remotely are skipped
// regardless of what the ledger says. Local items sharing a key are all
// excluded and reported as data errors, never uploaded.
func Reconcile(local []models.Item, remote []models.RemoteEntry) ReconcileResult {
	res := ReconcileResult{RemoteKeys: make(map[string]string, len(remote))}
	for _, entry := range remote {
		res.RemoteKeys[entry.Key] = entry.RemoteItemID
	}

	counts := make(map[string]int, len(local))
	for _, item := range local {
		counts[item.Key]++
	}

	for _, item := range local {
		if counts[item.Key] > 1 {
			res.DataErrors = append(res.DataErrors, models.ItemFailure{
				Key:     item.Key,
				Path:    item.Path,
				Message: fmt.Sprintf("duplicate key %q in collection", item.Key),
			})
			continue
		}
		if _, present := res.RemoteKeys[item.Key]; present {
			res.Skipped++
			continue
		}
		res.Pending = append(res.Pending, item)
	}

	return res
}

// RunPlan is the dry-run view of a prospective upload run.
type RunPlan struct {
	Collection     string
	CollectionID   string // empty when the collection does not exist yet
	TotalItems     int
	Pending        []models.Item
	Skipped        int
	DataErrors     []models.ItemFailure
	CaptionRepairs []string
	ListingRepairs []string
}

// UploadEngine orchestrates a full upload run: scan, reconcile, repair,
// transfer, caption and list, with durable ledger checkpoints throughout.
type UploadEngine struct {
	svc      services.MediaService
	ledger   *ledger.Ledger
	transfer *TransferEngine
	captions *CaptionAttacher
	guard    *QuotaGuard
	logger   *log.Logger
	limiter  *rate.Limiter

	workers    int
	privacy    string
	categoryID string

	progressChan chan ProgressUpdate

	mu               sync.Mutex
	fatalErr         error
	claimed          map[string]bool
	captionFailures  []models.ItemFailure
	playlistFailures []models.ItemFailure
}

// NewUploadEngine wires an engine from its service, ledger and config.
func NewUploadEngine(svc services.MediaService, led *ledger.Ledger, cfg shared.UploadConfig, logger *log.Logger) *UploadEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	guard := NewQuotaGuard()
	transfer := NewTransferEngine(svc, guard, logger)
	if cfg.ChunkSizeMiB > 0 {
		transfer.SetChunkSize(cfg.ChunkSizeMiB << 20)
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	limit := rate.Limit(cfg.RateLimit)
	if limit <= 0 {
		limit = rate.Inf
	}

	return &UploadEngine{
		svc:        svc,
		ledger:     led,
		transfer:   transfer,
		captions:   NewCaptionAttacher(svc, cfg.CaptionLang),
		guard:      guard,
		logger:     logger,
		limiter:    rate.NewLimiter(limit, 1),
		workers:    workers,
		privacy:    cfg.Privacy,
		categoryID: cfg.CategoryID,
	}
}

// SetProgressChannel sets the channel for progress updates during runs.
func (e *UploadEngine) SetProgressChannel(ch chan ProgressUpdate) {
	e.progressChan = ch
}

// sendProgress sends a progress update if a channel is configured.
// Non-blocking: drops the update when the receiver is not keeping up.
func (e *UploadEngine) sendProgress(update ProgressUpdate) {
	if e.progressChan == nil {
		return
	}
	select {
	case e.progressChan <- update:
	default:
	}
}

// resolveCollection finds the remote collection by name, creating it when
// absent. The created flag reports which path was taken.
func (e *UploadEngine) resolveCollection(ctx context.Context, name string) (*models.Collection, bool, error) {
	collections, err := e.svc.ListCollections(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list collections: %w", err)
	}
	for _, col := range collections {
		if col.Name == name {
			return &col, false, nil
		}
	}

	description := fmt.Sprintf("Playlist for videos in %s", name)
	col, err := e.svc.CreateCollection(ctx, name, description, e.privacy)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	return col, true, nil
}

// Plan computes what a run over folder would do without mutating anything:
// no collection creation, no ledger writes, no transfers.
func (e *UploadEngine) Plan(ctx context.Context, folder string) (*RunPlan, error) {
	items, err := scanner.ListItems(folder)
	if err != nil {
		return nil, err
	}
	name := scanner.CollectionName(folder)
	plan := &RunPlan{Collection: name, TotalItems: len(items)}

	var remote []models.RemoteEntry
	collections, err := e.svc.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	for _, col := range collections {
		if col.Name == name {
			plan.CollectionID = col.RemoteID
			remote, err = e.svc.ListCollectionEntries(ctx, col.RemoteID)
			if err != nil {
				return nil, fmt.Errorf("failed to list entries for %s: %w", name, err)
			}
			break
		}
	}

	res := Reconcile(items, remote)
	plan.Pending = res.Pending
	plan.Skipped = res.Skipped
	plan.DataErrors = res.DataErrors

	snapshot := e.ledger.Snapshot(name)
	plan.CaptionRepairs = snapshot.CaptionFailed
	plan.ListingRepairs = snapshot.PlaylistFailed

	return plan, nil
}

type transferJob struct {
	step int
	item models.Item
}

type transferResult struct {
	item    models.Item
	videoID string
	err     error
}

// Run executes one full upload run over folder and always returns a summary,
// including for halted and partially failed runs. The returned error is
// non-nil only for setup failures and fatal remote rejections.
func (e *UploadEngine) Run(ctx context.Context, folder string) (*models.RunSummary, error) {
	name := scanner.CollectionName(folder)
	summary := &models.RunSummary{
		RunID:      shared.GenerateID(),
		Collection: name,
		StartedAt:  time.Now(),
	}

	e.sendProgress(scanUpdate(folder))
	items, err := scanner.ListItems(folder)
	if err != nil {
		return summary, err
	}
	summary.TotalItems = len(items)

	col, created, err := e.resolveCollection(ctx, name)
	if err != nil {
		return summary, err
	}
	summary.CollectionID = col.RemoteID
	e.sendProgress(collectionUpdate(col, created))

	if err := e.ledger.SetPlaylistID(name, col.RemoteID); err != nil {
		return summary, err
	}

	e.sendProgress(fetchRemoteUpdate(name))
	remote, err := e.svc.ListCollectionEntries(ctx, col.RemoteID)
	if err != nil {
		return summary, fmt.Errorf("failed to list entries for %s: %w", name, err)
	}

	res := Reconcile(items, remote)
	summary.SkippedCount = res.Skipped
	summary.DataErrors = res.DataErrors
	summary.PendingItems = len(res.Pending)
	e.sendProgress(reconcileUpdate(len(res.Pending), res.Skipped, len(items)))

	pendingKeys := make([]string, len(res.Pending))
	for i, item := range res.Pending {
		pendingKeys[i] = item.Key
	}
	if err := e.ledger.SetPending(name, pendingKeys); err != nil {
		return summary, err
	}

	e.repair(ctx, name, col.RemoteID, items, summary)

	e.runTransfers(ctx, name, col.RemoteID, res, summary)

	summary.Halted = e.guard.Halted() && e.fatalError() == nil
	if summary.Halted {
		e.sendProgress(haltedUpdate())
	}
	summary.FinishedAt = time.Now()
	e.sendProgress(finishedUpdate(summary))

	if err := e.fatalError(); err != nil {
		return summary, err
	}
	return summary, nil
}

// repair retries caption and membership failures left over from earlier runs.
// Repairs only apply to items the ledger already records as uploaded.
func (e *UploadEngine) repair(ctx context.Context, collection, collectionID string, items []models.Item, summary *models.RunSummary) {
	snapshot := e.ledger.Snapshot(collection)
	if len(snapshot.CaptionFailed) == 0 && len(snapshot.PlaylistFailed) == 0 {
		return
	}

	byKey := make(map[string]models.Item, len(items))
	for _, item := range items {
		byKey[item.Key] = item
	}

	for _, key := range snapshot.CaptionFailed {
		item, haveItem := byKey[key]
		id, uploaded := snapshot.UploadedVideos[key]
		if !haveItem || !uploaded {
			continue
		}
		err := e.captions.Attach(ctx, item, id)
		e.sendProgress(repairUpdate("caption", key, err))
		if err != nil {
			e.logger.Warn("caption repair failed", "key", key, "err", err)
			summary.CaptionFailures = append(summary.CaptionFailures, models.ItemFailure{Key: key, Path: item.CaptionPath, Message: err.Error()})
			continue
		}
		if err := e.ledger.ClearCaptionFailure(collection, key); err != nil {
			e.logger.Error("failed to clear caption failure", "key", key, "err", err)
		}
	}

	for _, key := range snapshot.PlaylistFailed {
		id, uploaded := snapshot.UploadedVideos[key]
		if !uploaded {
			continue
		}
		err := e.svc.AddEntryToCollection(ctx, collectionID, id)
		e.sendProgress(repairUpdate("playlist", key, err))
		if err != nil {
			e.logger.Warn("playlist repair failed", "key", key, "err", err)
			summary.PlaylistFailures = append(summary.PlaylistFailures, models.ItemFailure{Key: key, Message: err.Error()})
			continue
		}
		if err := e.ledger.ClearPlaylistFailure(collection, key); err != nil {
			e.logger.Error("failed to clear playlist failure", "key", key, "err", err)
		}
	}
}

// runTransfers drives the pending queue through the worker pool and folds the
// results into the summary.
func (e *UploadEngine) runTransfers(ctx context.Context, collection, collectionID string, res ReconcileResult, summary *models.RunSummary) {
	if len(res.Pending) == 0 {
		return
	}

	e.mu.Lock()
	e.claimed = make(map[string]bool, len(res.Pending))
	e.mu.Unlock()

	jobs := make(chan transferJob, len(res.Pending))
	results := make(chan transferResult, len(res.Pending))
	total := len(res.Pending)

	var wg sync.WaitGroup
	for range e.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- e.processItem(ctx, collection, collectionID, job, total, res.RemoteKeys)
			}
		}()
	}

	// Dispatch respects the rate limiter and stops on halt; undispatched
	// items simply stay pending in the ledger.
	go func() {
		defer close(jobs)
		for i, item := range res.Pending {
			if e.guard.Halted() {
				e.logger.Info("dispatch stopped", "remaining", total-i)
				return
			}
			if err := e.limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- transferJob{step: i + 1, item: item}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for result := range results {
		if result.err != nil {
			// Aborted and quota-stopped items stay pending; only real
			// failures count against the run.
			if errors.Is(result.err, shared.ErrUploadAborted) || errors.Is(result.err, shared.ErrQuotaExceeded) {
				continue
			}
			summary.TransferFailures = append(summary.TransferFailures, models.ItemFailure{
				Key:     result.item.Key,
				Path:    result.item.Path,
				Message: result.err.Error(),
			})
			continue
		}
		summary.UploadedCount++
		summary.UploadedBytes += result.item.Size
	}

	for _, failure := range e.drainCaptionFailures() {
		summary.CaptionFailures = append(summary.CaptionFailures, failure)
	}
	for _, failure := range e.drainPlaylistFailures() {
		summary.PlaylistFailures = append(summary.PlaylistFailures, failure)
	}
}

// processItem runs one item through transfer, ledger checkpoint, caption and
// listing. Caption and listing failures are recorded but never fail the item.
func (e *UploadEngine) processItem(ctx context.Context, collection, collectionID string, job transferJob, total int, remoteKeys map[string]string) transferResult {
	item := job.item

	// A key can only be claimed once per run; a second claim means a
	// dispatch race and the duplicate attempt is dropped.
	e.mu.Lock()
	if e.claimed[item.Key] {
		e.mu.Unlock()
		return transferResult{item: item, err: fmt.Errorf("%w: %s already claimed", shared.ErrUploadAborted, item.Key)}
	}
	e.claimed[item.Key] = true
	e.mu.Unlock()

	// Committed uploads are never re-transferred, whichever side remembers
	// them.
	if id, ok := remoteKeys[item.Key]; ok {
		return transferResult{item: item, videoID: id, err: fmt.Errorf("%w: %s already present", shared.ErrUploadAborted, item.Key)}
	}
	if _, ok := e.ledger.UploadedID(collection, item.Key); ok {
		return transferResult{item: item, err: fmt.Errorf("%w: %s already uploaded", shared.ErrUploadAborted, item.Key)}
	}

	e.sendProgress(transferStartUpdate(job.step, total, item))
	meta := services.UploadMetadata{
		Title:      item.Key,
		CategoryID: e.categoryID,
		Privacy:    e.privacy,
	}

	videoID, err := e.transfer.Upload(ctx, item, meta, func(percent float64) {
		e.sendProgress(transferProgressUpdate(job.step, total, item.Key, percent))
	})
	if err != nil {
		if errors.Is(err, shared.ErrFatalAPI) {
			e.recordFatal(err)
		}
		e.sendProgress(transferFailedUpdate(job.step, total, item.Key, err))
		return transferResult{item: item, err: err}
	}

	if err := e.ledger.RecordUploaded(collection, item.Key, videoID); err != nil {
		e.logger.Error("failed to record upload", "key", item.Key, "err", err)
	}
	e.sendProgress(transferDoneUpdate(job.step, total, item.Key, videoID))

	if item.CaptionPath != "" {
		if err := e.captions.Attach(ctx, item, videoID); err != nil {
			e.logger.Warn("caption attach failed", "key", item.Key, "err", err)
			e.recordCaptionFailure(collection, item, err)
			e.sendProgress(captionUpdate(item.Key, err))
		} else {
			e.sendProgress(captionUpdate(item.Key, nil))
		}
	}

	if err := e.svc.AddEntryToCollection(ctx, collectionID, videoID); err != nil {
		e.logger.Warn("playlist insert failed", "key", item.Key, "err", err)
		e.recordPlaylistFailure(collection, item, err)
		e.sendProgress(listingUpdate(item.Key, err))
	} else {
		e.sendProgress(listingUpdate(item.Key, nil))
	}

	return transferResult{item: item, videoID: videoID}
}

func (e *UploadEngine) recordFatal(err error) {
	e.guard.Halt()
	e.mu.Lock()
	if e.fatalErr == nil {
		e.fatalErr = err
	}
	e.mu.Unlock()
}

func (e *UploadEngine) fatalError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fatalErr
}

func (e *UploadEngine) recordCaptionFailure(collection string, item models.Item, attachErr error) {
	if err := e.ledger.RecordCaptionFailure(collection, item.Key); err != nil {
		e.logger.Error("failed to record caption failure", "key", item.Key, "err", err)
	}
	e.mu.Lock()
	e.captionFailures = append(e.captionFailures, models.ItemFailure{Key: item.Key, Path: item.CaptionPath, Message: attachErr.Error()})
	e.mu.Unlock()
}

func (e *UploadEngine) recordPlaylistFailure(collection string, item models.Item, insertErr error) {
	if err := e.ledger.RecordPlaylistFailure(collection, item.Key); err != nil {
		e.logger.Error("failed to record playlist failure", "key", item.Key, "err", err)
	}
	e.mu.Lock()
	e.playlistFailures = append(e.playlistFailures, models.ItemFailure{Key: item.Key, Message: insertErr.Error()})
	e.mu.Unlock()
}

func (e *UploadEngine) drainCaptionFailures() []models.ItemFailure {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.captionFailures
	e.captionFailures = nil
	return out
}

func (e *UploadEngine) drainPlaylistFailures() []models.ItemFailure {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.playlistFailures
	e.playlistFailures = nil
	return out
}
