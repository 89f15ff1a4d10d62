package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/mossridge/ytup/internal/repositories"
	"github.com/mossridge/ytup/internal/shared"
)

// RunsList prints recent run summaries from the run database.
func (r *Runner) RunsList(ctx context.Context, cmd *cli.Command) error {
	collection := cmd.String("collection")
	limit := int(cmd.Int("limit"))
	asJSON := cmd.Bool("json")

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	repo, err := repositories.NewRunRepository(db)
	if err != nil {
		return err
	}

	summaries, err := repo.ListRecent(collection, limit)
	if err != nil {
		return err
	}

	if asJSON {
		return r.writeJSON(summaries, true)
	}

	if len(summaries) == 0 {
		return r.writePlain("No recorded runs.\n")
	}

	r.writePlainHeader("Recent Runs")
	for _, summary := range summaries {
		status := "ok"
		switch {
		case summary.Halted:
			status = "halted"
		case summary.FailureCount() > 0:
			status = "partial"
		}
		r.writePlain("%s  %s  %-8s uploaded %d/%d, skipped %d, failures %d\n",
			summary.StartedAt.Format("2006-01-02 15:04"),
			summary.Collection,
			status,
			summary.UploadedCount,
			summary.PendingItems,
			summary.SkippedCount,
			summary.FailureCount(),
		)
	}
	return nil
}
