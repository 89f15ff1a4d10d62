package tasks

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mossridge/ytup/internal/models"
	"github.com/mossridge/ytup/internal/services"
	"github.com/mossridge/ytup/internal/shared"
)

// DefaultChunkSize is the resumable upload chunk size.
const DefaultChunkSize = 1 << 20 // 1 MiB

// TransferState tracks one item through its upload lifecycle.
type TransferState int

const (
	StateInit TransferState = iota
	StateOpened
	StateTransferring
	StateCommitted
	StateFailed
)

func (s TransferState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateOpened:
		return "opened"
	case StateTransferring:
		return "transferring"
	case StateCommitted:
		return "committed"
	case StateFailed:
		return "failed"
	default:
		return ""
	}
}

// TransferEngine performs chunked resumable transfers of single items. The
// chunk loop is the sole suspension point: it blocks on network I/O per chunk
// and checks the halt flag and context before every chunk.
type TransferEngine struct {
	svc       services.MediaService
	guard     *QuotaGuard
	logger    *log.Logger
	chunkSize int
	transient BackoffPolicy
	rated     BackoffPolicy

	// injected for tests
	sleep func(context.Context, time.Duration) error
	rng   func() float64
}

// NewTransferEngine creates a TransferEngine with default chunk size and
// backoff policies.
func NewTransferEngine(svc services.MediaService, guard *QuotaGuard, logger *log.Logger) *TransferEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TransferEngine{
		svc:       svc,
		guard:     guard,
		logger:    logger,
		chunkSize: DefaultChunkSize,
		transient: DefaultTransientPolicy,
		rated:     DefaultRateLimitPolicy,
		sleep:     sleepContext,
		rng:       rand.Float64,
	}
}

// SetChunkSize overrides the chunk size; values below one byte are ignored.
func (e *TransferEngine) SetChunkSize(size int) {
	if size > 0 {
		e.chunkSize = size
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Upload transfers one item and returns the committed remote item ID.
//
// Error contract: [shared.ErrUploadAborted] when the halt flag or context
// stopped the transfer (the item stays pending), [shared.ErrQuotaExceeded]
// when the remote signalled exhaustion (halt raised, item stays pending),
// [shared.ErrFatalAPI] on unrecoverable rejections, and a plain error when
// retries were exhausted. Upload never re-transfers a committed item; callers
// check the remote entry set before invoking it.
func (e *TransferEngine) Upload(ctx context.Context, item models.Item, meta services.UploadMetadata, onProgress func(percent float64)) (string, error) {
	file, err := os.Open(item.Path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", item.Path, err)
	}
	defer file.Close()

	state := StateInit

	session, err := e.svc.OpenResumableUpload(ctx, meta, item.Size)
	if err != nil {
		return "", e.classifyFailure(item, err)
	}
	state = StateOpened

	var (
		offset            int64
		transientAttempts int
		rateAttempts      int
		buf               = make([]byte, e.chunkSize)
	)

	state = StateTransferring
	for {
		if e.guard.Halted() {
			e.logger.Debug("halt observed before chunk", "key", item.Key, "offset", offset, "state", state)
			return "", fmt.Errorf("%w: halt observed before chunk at offset %d", shared.ErrUploadAborted, offset)
		}
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %v", shared.ErrUploadAborted, err)
		}

		size := e.chunkSize
		if remaining := item.Size - offset; remaining < int64(size) {
			size = int(remaining)
		}
		chunk := buf[:size]
		if _, err := file.ReadAt(chunk, offset); err != nil {
			return "", fmt.Errorf("failed to read %s at offset %d: %w", item.Path, offset, err)
		}

		res, err := e.svc.UploadChunk(ctx, session, offset, chunk, item.Size)
		if err != nil {
			switch kind := Classify(err); kind {
			case KindTransient:
				if transientAttempts >= e.transient.MaxAttempts {
					return "", fmt.Errorf("transfer failed after %d transient retries: %w", transientAttempts, err)
				}
				delay := e.transient.Delay(transientAttempts, e.rng)
				transientAttempts++
				e.logger.Debug("transient chunk failure, retrying", "key", item.Key, "offset", offset, "attempt", transientAttempts, "delay", delay)
				if err := e.sleep(ctx, delay); err != nil {
					return "", fmt.Errorf("%w: %v", shared.ErrUploadAborted, err)
				}
				continue

			case KindRateLimited:
				if rateAttempts >= e.rated.MaxAttempts {
					return "", fmt.Errorf("transfer failed after %d rate-limit retries: %w", rateAttempts, err)
				}
				delay := e.rated.Delay(rateAttempts, e.rng)
				rateAttempts++
				e.logger.Debug("rate limited, backing off", "key", item.Key, "offset", offset, "attempt", rateAttempts, "delay", delay)
				if err := e.sleep(ctx, delay); err != nil {
					return "", fmt.Errorf("%w: %v", shared.ErrUploadAborted, err)
				}
				continue

			case KindQuotaExceeded:
				e.guard.Halt()
				return "", fmt.Errorf("%w: %v", shared.ErrQuotaExceeded, err)

			default: // KindFatal
				return "", fmt.Errorf("%w: %v", shared.ErrFatalAPI, err)
			}
		}

		if res.Committed {
			if onProgress != nil {
				onProgress(100)
			}
			e.logger.Debug("transfer committed", "key", item.Key, "id", res.RemoteItemID, "state", StateCommitted)
			return res.RemoteItemID, nil
		}

		offset = res.BytesReceived
		transientAttempts = 0
		if onProgress != nil && item.Size > 0 {
			onProgress(float64(offset) / float64(item.Size) * 100)
		}
	}
}

// classifyFailure wraps a session-open failure with the matching sentinel.
func (e *TransferEngine) classifyFailure(item models.Item, err error) error {
	switch Classify(err) {
	case KindQuotaExceeded:
		e.guard.Halt()
		return fmt.Errorf("%w: opening session for %s: %v", shared.ErrQuotaExceeded, item.Key, err)
	case KindFatal:
		return fmt.Errorf("%w: opening session for %s: %v", shared.ErrFatalAPI, item.Key, err)
	default:
		return fmt.Errorf("failed to open upload session for %s: %w", item.Key, err)
	}
}
