package refresh

import (
	"context"
	"fmt"

	"github.com/hatrick/crease/internal/fantrax"
	"github.com/hatrick/crease/internal/stats"
)

// Runner executes refresh specs using the Fantrax importer.
type Runner struct {
	importer  *fantrax.Importer
	clientCfg fantrax.ClientConfig
	csvDir    string
}

// NewRunner constructs a runner. csvDir is the default export tree for
// local imports that carry no explicit source path.
func NewRunner(importer *fantrax.Importer, clientCfg fantrax.ClientConfig, csvDir string) *Runner {
	return &Runner{
		importer:  importer,
		clientCfg: clientCfg,
		csvDir:    csvDir,
	}
}

// Run executes the job spec, reporting progress via the Reporter if provided.
func (r *Runner) Run(ctx context.Context, spec JobSpec, reporter Reporter) error {
	if reporter != nil {
		reporter.OnJobStart(spec)
	}

	if spec.DryRun {
		if reporter != nil {
			reporter.OnProgress("Dry-run mode: no data will be written", 0, 0)
			reporter.OnJobComplete()
		}
		return nil
	}

	reports := spec.Reports
	if len(reports) == 0 {
		reports = stats.StorageReports()
	}

	onFile := func(res fantrax.FileResult) {
		if reporter != nil {
			reporter.OnFileProcessed(res)
		}
	}

	switch spec.Type {
	case JobTypeLocalImport:
		root := spec.SourcePath
		if root == "" {
			root = r.csvDir
		}
		if root == "" {
			return fmt.Errorf("local import job has no source path")
		}

		filter := fantrax.TreeFilter{Seasons: spec.Seasons, Reports: spec.Reports}
		summary, err := r.importer.ImportTree(ctx, root, filter, onFile)
		if err != nil {
			if reporter != nil {
				reporter.OnJobError(err)
			}
			return err
		}
		if reporter != nil {
			reporter.OnProgress(
				fmt.Sprintf("Imported %d files: %d skaters, %d goalies, %d failures",
					summary.Files, summary.Skaters, summary.Goalies, summary.Failures),
				summary.Files, summary.Files)
		}

	case JobTypeSeason, JobTypeSeasonRange:
		if len(spec.Seasons) == 0 {
			return fmt.Errorf("no seasons provided for job type '%s'", spec.Type)
		}

		client, err := fantrax.NewClient(r.clientCfg)
		if err != nil {
			if reporter != nil {
				reporter.OnJobError(err)
			}
			return err
		}
		defer client.Close()

		total := len(spec.Seasons)
		for idx, season := range spec.Seasons {
			if err := ctx.Err(); err != nil {
				return err
			}

			if reporter != nil {
				reporter.OnSeasonStart(season, idx, total)
			}

			summary, err := r.importer.ImportSeasons(ctx, client, []int{season}, reports, onFile)
			if err != nil {
				if reporter != nil {
					reporter.OnJobError(err)
				}
				return err
			}

			if reporter != nil {
				reporter.OnProgress(
					fmt.Sprintf("✓ Season %d-%d: %d skaters, %d goalies, %d failures",
						season, season+1, summary.Skaters, summary.Goalies, summary.Failures),
					idx+1, total)
			}
		}

	default:
		return fmt.Errorf("unsupported job type %s", spec.Type)
	}

	if reporter != nil {
		reporter.OnJobComplete()
	}

	return nil
}
