package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mossridge/ytup/internal/models"
	"github.com/mossridge/ytup/internal/services"
)

// CaptionAttacher uploads caption tracks for committed items. Attachment is a
// best-effort follow-on step: a failure here never fails the item's upload,
// it is only recorded for repair on the next run.
type CaptionAttacher struct {
	svc  services.MediaService
	lang string
}

// NewCaptionAttacher creates an attacher tagging tracks with languageTag.
func NewCaptionAttacher(svc services.MediaService, languageTag string) *CaptionAttacher {
	if languageTag == "" {
		languageTag = "en"
	}
	return &CaptionAttacher{svc: svc, lang: languageTag}
}

// Attach uploads the item's caption file against the given remote item ID.
// Single attempt, no retries. Returns nil when the item carries no caption.
func (c *CaptionAttacher) Attach(ctx context.Context, item models.Item, remoteItemID string) error {
	if item.CaptionPath == "" {
		return nil
	}

	caption, err := os.ReadFile(item.CaptionPath)
	if err != nil {
		return fmt.Errorf("failed to read caption %s: %w", item.CaptionPath, err)
	}

	lang := c.lang
	if tag := languageFromName(item.CaptionPath); tag != "" {
		lang = tag
	}

	if err := c.svc.AttachCaption(ctx, remoteItemID, caption, lang); err != nil {
		return fmt.Errorf("failed to attach caption for %s: %w", item.Key, err)
	}
	return nil
}

// languageFromName extracts a language tag from suffixed caption names like
// "01 Intro.en.srt". Returns empty when the name carries no tag.
func languageFromName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if ext := filepath.Ext(base); len(ext) >= 3 && len(ext) <= 6 {
		return strings.TrimPrefix(ext, ".")
	}
	return ""
}
