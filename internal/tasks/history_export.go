package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/tmx/internal/formatter"
	"github.com/desertthunder/tmx/internal/models"
	"github.com/desertthunder/tmx/internal/shared"
)

// SnapshotSource loads stored snapshots by sequence number.
type SnapshotSource interface {
	GetBySequence(sequence int) (*models.SnapshotRecord, error)
}

// HistoryExportOpts contains configuration for exporting stored snapshots.
type HistoryExportOpts struct {
	Format     string // Export format: text, markdown, csv, json
	OutputDir  string // Base output directory (default: weekplan_history_{epoch})
	NumWorkers int    // Concurrent writers (default: 4)
}

// SnapshotExportResult is the outcome of exporting one snapshot.
type SnapshotExportResult struct {
	Sequence  int    `json:"sequence"`
	SinceDate string `json:"sinceDate,omitempty"`
	File      string `json:"file,omitempty"`
	Success   bool   `json:"success"`
	Error     error  `json:"-"`
	Message   string `json:"error,omitempty"`
}

// HistoryExportResult summarizes an export run.
type HistoryExportResult struct {
	TotalSnapshots    int                    `json:"totalSnapshots"`
	SuccessfulExports int                    `json:"successfulExports"`
	FailedExports     int                    `json:"failedExports"`
	OutputDirectory   string                 `json:"outputDirectory"`
	ManifestPath      string                 `json:"-"`
	Results           []SnapshotExportResult `json:"results"`
}

type snapshotExportJob struct {
	record *models.SnapshotRecord
}

// ExportHistory writes the given stored snapshots to OutputDir, one file per snapshot, followed by
// an export_manifest.json. Snapshots are loaded sequentially and rendered by a pool of workers;
// a snapshot that fails to load or render is recorded in the result without stopping the run.
func (e *WeekplanEngine) ExportHistory(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	src SnapshotSource,
	sequences []int,
	opts HistoryExportOpts,
) (*HistoryExportResult, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: snapshot history not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if !slices.Contains(formatter.Formats, opts.Format) {
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("weekplan_history_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &HistoryExportResult{
		TotalSnapshots:  len(sequences),
		OutputDirectory: opts.OutputDir,
		Results:         make([]SnapshotExportResult, 0, len(sequences)),
	}

	jobs := make(chan snapshotExportJob, len(sequences))
	results := make(chan SnapshotExportResult, len(sequences))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for _, seq := range sequences {
			select {
			case <-ctx.Done():
				return
			default:
			}

			record, err := src.GetBySequence(seq)
			if err != nil {
				results <- SnapshotExportResult{
					Sequence: seq,
					Error:    fmt.Errorf("failed to load snapshot: %w", err),
				}
				continue
			}
			jobs <- snapshotExportJob{record: record}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Error != nil {
			res.Message = res.Error.Error()
		}
		result.Results = append(result.Results, res)

		name := fmt.Sprintf("#%d", res.Sequence)
		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(sequences), name, 1))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(sequences), name, res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export cancelled: %w", err)
	}

	slices.SortFunc(result.Results, func(a, b SnapshotExportResult) int { return a.Sequence - b.Sequence })

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := shared.WriteJSONFile(manifestPath, result, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker renders snapshots from the jobs channel.
func (e *WeekplanEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan snapshotExportJob,
	results chan<- SnapshotExportResult,
	opts HistoryExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		results <- exportSnapshot(job.record, opts)
	}
}

func exportSnapshot(record *models.SnapshotRecord, opts HistoryExportOpts) SnapshotExportResult {
	res := SnapshotExportResult{
		Sequence:  record.Sequence(),
		SinceDate: record.Snapshot.SinceDate,
	}

	name := fmt.Sprintf("%04d_%s%s", record.Sequence(), record.Snapshot.SinceDate, formatter.Extension(opts.Format))
	path, err := formatter.WriteWeekplanExport(record.Snapshot, opts.Format, filepath.Join(opts.OutputDir, name))
	if err != nil {
		res.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		return res
	}

	res.File = path
	res.Success = true
	return res
}
