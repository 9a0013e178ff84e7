// Package extractor runs one query against every registered database file
// and collects the results into the report tree.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"

	"github.com/dbsmedya/goextract/internal/config"
	"github.com/dbsmedya/goextract/internal/database"
	"github.com/dbsmedya/goextract/internal/errlog"
	"github.com/dbsmedya/goextract/internal/export"
	"github.com/dbsmedya/goextract/internal/logger"
	"github.com/dbsmedya/goextract/internal/registry"
	"github.com/dbsmedya/goextract/internal/report"
	"github.com/dbsmedya/goextract/internal/scanner"
	"github.com/dbsmedya/goextract/internal/staging"
	"github.com/dbsmedya/goextract/internal/types"
	"github.com/dbsmedya/goextract/internal/verifier"
)

// Phase is the lifecycle state of a run.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseScanning      Phase = "scanning"
	PhaseRegistryReady Phase = "registry_ready"
	PhaseDeclined      Phase = "declined"
	PhaseProcessing    Phase = "processing"
	PhaseDone          Phase = "done"
)

// Decider answers the two operator questions of a run.
type Decider interface {
	// OverwriteRegistry is asked only when a registry file already exists.
	OverwriteRegistry(path string) bool
	// ProceedWithBatch is the gate between registry resolution and processing.
	ProceedWithBatch(count int) bool
}

// StaticDecisions answers every question with fixed values.
type StaticDecisions struct {
	Overwrite bool
	Proceed   bool
}

func (s StaticDecisions) OverwriteRegistry(string) bool { return s.Overwrite }
func (s StaticDecisions) ProceedWithBatch(int) bool     { return s.Proceed }

// RunOptions are the per-run inputs.
type RunOptions struct {
	ScanRoot string
	Decider  Decider
	RunID    string // generated when empty
}

// Orchestrator drives scan, registry, staging and the per-database loop.
type Orchestrator struct {
	config   *config.Config
	query    string
	runner   *Runner
	verifier *verifier.Verifier
	writer   export.Writer
	placer   *report.Placer
	logger   *logger.Logger
	out      io.Writer
	now      func() time.Time
}

// NewOrchestrator creates an orchestrator for cfg that runs query through
// client. The config is expected to be validated with paths resolved.
func NewOrchestrator(cfg *config.Config, query string, client database.Client) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if client == nil {
		return nil, fmt.Errorf("database client is nil")
	}
	if query == "" {
		return nil, fmt.Errorf("query is empty")
	}

	log := logger.NewDefault()
	v, err := verifier.NewVerifier(verifier.VerificationMethod(cfg.Verify), log)
	if err != nil {
		return nil, err
	}
	v.SetChunkSize(cfg.VerifyChunk)

	return &Orchestrator{
		config:   cfg,
		query:    query,
		runner:   NewRunner(client),
		verifier: v,
		writer:   export.NewExcelWriter(cfg.Export.Header),
		placer:   report.NewPlacer(),
		logger:   log,
		out:      os.Stdout,
		now:      time.Now,
	}, nil
}

// WithLogger sets the structured logger.
func (o *Orchestrator) WithLogger(log *logger.Logger) *Orchestrator {
	o.logger = log
	o.verifier.SetLogger(log)
	return o
}

// WithOutput sets where operator progress lines are printed.
func (o *Orchestrator) WithOutput(w io.Writer) *Orchestrator {
	o.out = w
	return o
}

// WithWriter replaces the workbook writer.
func (o *Orchestrator) WithWriter(w export.Writer) *Orchestrator {
	o.writer = w
	return o
}

// WithClock replaces the wall clock used for the report root and file names.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	o.placer.WithClock(now)
	return o
}

// Run executes one batch. The returned result is never nil and reflects how
// far the run got, also when an error is returned. Per-database failures
// are not errors: they are recorded in the error log and counted in the
// result. Returned errors are fatal (see IsFatal) or a cancellation.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (result *RunResult, err error) {
	started := o.now()
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	result = newRunResult(runID, opts.ScanRoot)
	defer func() {
		result.Duration = o.now().Sub(started)
	}()

	decider := opts.Decider
	if decider == nil {
		decider = StaticDecisions{}
	}
	log := o.logger.WithRun(result.RunID)
	log.Debugw("Staged copy verification",
		"method", o.verifier.GetMethod(),
		"chunk_size", o.verifier.GetChunkSize(),
	)

	// Scanning
	result.Phase = PhaseScanning
	log.Infow("Scanning for database files", "root", opts.ScanRoot, "extension", o.config.Extension)
	o.printf("Scanning %s for *%s files...\n", opts.ScanRoot, o.config.Extension)

	scanRoot, err := scanner.ResolveRoot(opts.ScanRoot)
	if err != nil {
		log.Errorw("Scan failed", "error", err)
		return result, err
	}
	result.ScanRoot = scanRoot

	paths, err := scanner.ScanAll(scanRoot, o.config.Extension)
	if err != nil {
		log.Errorw("Scan failed", "error", err)
		return result, err
	}
	fresh := registry.Build(paths, o.config.Credentials())
	log.Infow("Scan complete", "found", len(fresh))
	o.printf("Found %d database file(s)\n", len(fresh))

	descriptors, outcome, err := registry.Resolve(o.config.Files.Registry, fresh, decider.OverwriteRegistry)
	if err != nil {
		log.Errorw("Registry unavailable", "path", o.config.Files.Registry, "error", err)
		return result, err
	}
	result.RegistryOutcome = outcome
	result.Total = len(descriptors)
	result.Phase = PhaseRegistryReady
	log.Infow("Registry ready", "path", o.config.Files.Registry, "outcome", outcome, "databases", len(descriptors))
	o.printRegistry(outcome, len(descriptors))

	stager := staging.NewManager(o.config.StagingBase)
	stagingRoot, err := stager.Prepare()
	if err != nil {
		log.Errorw("Staging unavailable", "base", o.config.StagingBase, "error", err)
		return result, err
	}
	log.Debugw("Staging prepared", "root", stagingRoot)
	defer func() {
		if releaseErr := stager.Release(); releaseErr != nil {
			log.Warnw("Failed to release staging directory", "root", stagingRoot, "error", releaseErr)
		}
	}()

	if !decider.ProceedWithBatch(len(descriptors)) {
		result.Phase = PhaseDeclined
		log.Infow("Batch declined by operator")
		o.printf("Program finished.\n")
		return result, nil
	}

	result.ReportRoot = report.Root(o.config.ReportsDir, started)
	if err := os.MkdirAll(result.ReportRoot, 0755); err != nil {
		return result, fmt.Errorf("failed to create report directory %s: %w", result.ReportRoot, err)
	}

	errLog := errlog.New(o.config.Files.ErrorLog)
	defer errLog.Close()

	result.Phase = PhaseProcessing
	for i, desc := range descriptors {
		if ctx.Err() != nil {
			result.Cancelled = true
			log.Warnw("Run interrupted, skipping remaining databases",
				"processed", i,
				"remaining", len(descriptors)-i,
			)
			o.printf("%s %d database(s) not processed\n", color.Yellow.Sprint("Interrupted:"), len(descriptors)-i)
			break
		}

		o.printf("[%d/%d] Running query on %s...\n", i+1, len(descriptors), desc.DatabasePath)
		out := o.process(ctx, log, desc, stager, scanRoot, result.ReportRoot, errLog)
		result.record(out, report.RelativeDir(scanRoot, desc.DatabasePath))

		if out.Err != nil {
			o.printf("  %s %s: %v\n", color.Red.Sprint("FAILED"), out.Stage, out.Err)
		} else {
			o.printf("  %s %d row(s) saved to %s\n", color.Green.Sprint("OK"), out.Rows, out.Report)
		}
	}
	result.Phase = PhaseDone
	if errLog.Count() > 0 {
		result.ErrorLog = errLog.Path()
	}

	log.Infow("Run complete",
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"report_root", result.ReportRoot,
	)

	if result.Cancelled {
		return result, fmt.Errorf("run interrupted: %w", ctx.Err())
	}
	return result, nil
}

// process stages, verifies, queries, exports and places one database.
// Failures, panics included, are written to the error log and returned in
// the outcome.
func (o *Orchestrator) process(
	ctx context.Context,
	runLog *logger.Logger,
	desc types.DatabaseDescriptor,
	stager *staging.Manager,
	scanRoot, reportRoot string,
	errLog *errlog.Log,
) (out DatabaseOutcome) {
	started := o.now()
	out = DatabaseOutcome{Path: desc.DatabasePath}
	log := runLog.WithDatabase(desc.DatabasePath)
	defer func() {
		out.Duration = o.now().Sub(started)
	}()

	fail := func(stage errlog.Stage, err error) DatabaseOutcome {
		out.Stage = stage
		out.Err = err
		out.Report = ""
		log.Errorw("Database failed", "stage", stage, "error", err)
		if recErr := errLog.Record(errlog.Entry{
			Time:         o.now(),
			DatabasePath: desc.DatabasePath,
			Stage:        stage,
			Err:          err,
		}); recErr != nil {
			log.Errorw("Failed to write error log", "path", errLog.Path(), "error", recErr)
		}
		return out
	}

	// A panic in a driver or the workbook writer fails this database only.
	stage := errlog.StageStage
	defer func() {
		if r := recover(); r != nil {
			out = fail(stage, fmt.Errorf("panic: %v", r))
		}
	}()

	staged, err := stager.Stage(desc)
	if err != nil {
		return fail(stage, err)
	}
	defer func() {
		if err := stager.Unstage(staged); err != nil {
			log.Warnw("Failed to remove staged copy", "path", staged.StagingPath, "error", err)
		}
	}()

	stage = errlog.StageVerify
	if _, err := o.verifier.Verify(ctx, staged); err != nil {
		return fail(stage, err)
	}

	stage = errlog.StageQuery
	result, err := o.runner.Execute(ctx, staged, o.query)
	if err != nil {
		return fail(stage, err)
	}
	log.Debugw("Query executed", "columns", len(result.Columns), "rows", len(result.Rows))

	artifact := filepath.Join(stager.Root(), desc.BaseName()+report.Extension)
	defer func() {
		if err := os.Remove(artifact); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warnw("Failed to remove staged workbook", "path", artifact, "error", err)
		}
	}()

	stage = errlog.StageExport
	if err := o.writer.Write(result, artifact); err != nil {
		return fail(stage, err)
	}

	stage = errlog.StagePlace
	placed, err := o.placer.Place(desc, artifact, scanRoot, reportRoot)
	if err != nil {
		return fail(stage, err)
	}

	out.Report = placed
	out.Rows = len(result.Rows)
	log.WithFields(map[string]interface{}{
		"report":   placed,
		"rows":     out.Rows,
		"duration": o.now().Sub(started),
	}).Info("Database exported")
	return out
}

func (o *Orchestrator) printRegistry(outcome registry.Outcome, count int) {
	switch outcome {
	case registry.OutcomeKept:
		o.printf("Continuing with existing registry %s (%d databases)\n", o.config.Files.Registry, count)
	default:
		o.printf("Database list saved to %s\n", o.config.Files.Registry)
	}
}

func (o *Orchestrator) printf(format string, args ...interface{}) {
	if o.out == nil {
		return
	}
	fmt.Fprintf(o.out, format, args...)
}
