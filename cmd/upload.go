package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/mossridge/ytup/internal/models"
	"github.com/mossridge/ytup/internal/repositories"
	"github.com/mossridge/ytup/internal/shared"
	"github.com/mossridge/ytup/internal/tasks"
	"github.com/mossridge/ytup/internal/ui"
)

// UploadRun runs a full upload over a folder.
func (r *Runner) UploadRun(ctx context.Context, cmd *cli.Command) error {
	folder := cmd.String("folder")

	if cmd.Bool("dry-run") {
		return r.printPlan(ctx, folder, false)
	}

	if workers := cmd.Int("workers"); workers > 0 {
		r.config.Upload.Workers = int(workers)
	}

	svc, err := r.mediaService(ctx)
	if err != nil {
		return err
	}
	engine := r.newEngine(svc)

	r.logger.Info("starting upload run", "folder", folder)
	r.writePlain("Starting upload run...\n")
	r.writePlain("Folder: %s\n\n", folder)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	engine.SetProgressChannel(progressCh)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ScanLocal, tasks.ResolveCollection, tasks.FetchRemote, tasks.Reconciling:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.Transferring:
				if update.Percent == 0 || update.Percent == 100 {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.Captioning, tasks.Listing, tasks.Repairing:
				r.writePlain("   %s\n", update.Message)
			case tasks.Halted:
				r.writePlain("\n⚠ %s\n", update.Message)
			}
		}
	}()

	summary, runErr := engine.Run(ctx, folder)
	close(progressCh)
	<-done

	r.printSummary(summary)
	r.persistRun(summary)

	return runErr
}

// UploadStatus reconciles without transferring and prints the work set.
func (r *Runner) UploadStatus(ctx context.Context, cmd *cli.Command) error {
	return r.printPlan(ctx, cmd.String("folder"), cmd.Bool("json"))
}

// UploadUI launches the interactive TUI for upload runs.
func (r *Runner) UploadUI(ctx context.Context, cmd *cli.Command) error {
	folder := cmd.String("folder")

	svc, err := r.mediaService(ctx)
	if err != nil {
		return err
	}
	engine := r.newEngine(svc)

	model := ui.NewModel(ctx, engine, folder)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func (r *Runner) printPlan(ctx context.Context, folder string, asJSON bool) error {
	svc, err := r.mediaService(ctx)
	if err != nil {
		return err
	}
	engine := r.newEngine(svc)

	plan, err := engine.Plan(ctx, folder)
	if err != nil {
		return err
	}

	if asJSON {
		return r.writeJSON(plan, true)
	}

	r.writePlainHeader(fmt.Sprintf("Collection: %s", plan.Collection))
	if plan.CollectionID != "" {
		r.writePlain("Remote playlist: %s\n", plan.CollectionID)
	} else {
		r.writePlain("Remote playlist: (will be created)\n")
	}
	r.writePlain("Items: %d total, %d pending, %d already uploaded\n", plan.TotalItems, len(plan.Pending), plan.Skipped)

	if len(plan.Pending) > 0 {
		r.writePlainln("Pending uploads:")
		for i, item := range plan.Pending {
			r.writePlain("  %d. %s\n", i+1, item.Key)
		}
	}
	if len(plan.DataErrors) > 0 {
		r.writePlainln("Duplicate keys (excluded):")
		for _, failure := range plan.DataErrors {
			r.writePlain("  ✗ %s (%s)\n", failure.Key, failure.Path)
		}
	}
	if len(plan.CaptionRepairs) > 0 {
		r.writePlainln("Caption repairs queued:")
		for _, key := range plan.CaptionRepairs {
			r.writePlain("  • %s\n", key)
		}
	}
	if len(plan.ListingRepairs) > 0 {
		r.writePlainln("Playlist repairs queued:")
		for _, key := range plan.ListingRepairs {
			r.writePlain("  • %s\n", key)
		}
	}

	return nil
}

func (r *Runner) printSummary(summary *models.RunSummary) {
	title := "Upload Complete!"
	if summary.Halted {
		title = "Upload Halted (quota exhausted)"
	}

	r.writePlain("\n")
	r.writePlainHeader(title)
	r.writePlain("Collection: %s (%s)\n", summary.Collection, summary.CollectionID)
	r.writePlain("Uploaded: %d of %d pending (%d bytes)\n", summary.UploadedCount, summary.PendingItems, summary.UploadedBytes)
	r.writePlain("Skipped: %d already present\n", summary.SkippedCount)

	if len(summary.TransferFailures) > 0 {
		r.writePlain("\nTransfer failures:\n")
		for _, f := range summary.TransferFailures {
			r.writePlain("  ✗ %s: %s\n", f.Key, f.Message)
		}
	}
	if len(summary.CaptionFailures) > 0 {
		r.writePlain("\nCaption failures (will be repaired next run):\n")
		for _, f := range summary.CaptionFailures {
			r.writePlain("  ✗ %s\n", f.Key)
		}
	}
	if len(summary.PlaylistFailures) > 0 {
		r.writePlain("\nPlaylist failures (will be repaired next run):\n")
		for _, f := range summary.PlaylistFailures {
			r.writePlain("  ✗ %s\n", f.Key)
		}
	}
	if len(summary.DataErrors) > 0 {
		r.writePlain("\nDuplicate keys (excluded):\n")
		for _, f := range summary.DataErrors {
			r.writePlain("  ✗ %s (%s)\n", f.Key, f.Path)
		}
	}
	if summary.Halted {
		r.writePlain("\nRemaining items stay pending; rerun once quota resets.\n")
	}
}

// persistRun records the summary in the run database. History is best-effort:
// failures are logged, never returned.
func (r *Runner) persistRun(summary *models.RunSummary) {
	if r.config.Database.Path == "" {
		return
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		r.logger.Warn("failed to open run database", "err", err)
		return
	}
	defer db.Close()
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	repo, err := repositories.NewRunRepository(db)
	if err != nil {
		r.logger.Warn("failed to prepare run repository", "err", err)
		return
	}
	if err := repo.Create(summary); err != nil {
		r.logger.Warn("failed to record run", "err", err)
		return
	}
	r.logger.Debug("run recorded", "run_id", summary.RunID)
}
