// Package hook runs a formatter over the files handed to a pre-commit hook
// and folds the per-file outcomes into a single exit code.
package hook

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"langfmt/internal/format"
	"langfmt/internal/paths"
	"langfmt/internal/tools"
)

// Options configures one hook invocation.
type Options struct {
	Spec    format.Spec
	Files   []string
	Autofix bool

	// Checksum overrides every other expected digest for the jar.
	Checksum           string
	ConfiguredChecksum string
	URLTemplate        string
	CacheDir           string
	DownloadTimeout    time.Duration
	Client             *http.Client

	// Java is the java executable. Empty means format.LocateJava.
	Java   string
	Runner format.Runner

	Logger   *slog.Logger
	Reporter Reporter
}

// Reporter observes a run as it progresses.
type Reporter interface {
	Acquiring(spec format.Spec)
	Start(path string)
	Complete(file FileReport)
}

type nopReporter struct{}

func (nopReporter) Acquiring(format.Spec) {}
func (nopReporter) Start(string)          {}
func (nopReporter) Complete(FileReport)   {}

// Run acquires the formatter and processes every file in order. Failing to
// obtain or trust the formatter fails every file without running anything.
// Otherwise each file's outcome is independent of the others.
func Run(ctx context.Context, opts Options) Report {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = nopReporter{}
	}

	report := Report{Formatter: opts.Spec.String()}

	reporter.Acquiring(opts.Spec)
	backend, artifact, err := prepare(ctx, opts, logger)
	report.Artifact = artifact
	if err != nil {
		report.Err = err
		report.Error = err.Error()
		logger.Error("formatter unavailable", "formatter", report.Formatter, "err", err)
		for _, path := range opts.Files {
			fr := FileReport{Path: path, Outcome: OutcomeError, Error: err.Error()}
			reporter.Complete(fr)
			report.Files = append(report.Files, fr)
		}
		return report
	}
	logger.Debug("formatter ready", "formatter", report.Formatter, "jar", artifact.Path, "downloaded", artifact.Downloaded)

	for _, path := range opts.Files {
		reporter.Start(path)
		var fr FileReport
		if err := ctx.Err(); err != nil {
			fr = FileReport{Path: path, Outcome: OutcomeError, Error: err.Error()}
		} else {
			fr = processFile(ctx, backend, path, opts.Autofix, logger)
		}
		reporter.Complete(fr)
		report.Files = append(report.Files, fr)
	}
	return report
}

func prepare(ctx context.Context, opts Options, logger *slog.Logger) (format.Backend, tools.Artifact, error) {
	dlCtx := ctx
	if opts.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		dlCtx, cancel = context.WithTimeout(ctx, opts.DownloadTimeout)
		defer cancel()
	}

	artifact, err := tools.Acquire(dlCtx, opts.Spec.Tool, opts.Spec.Version, tools.AcquireOptions{
		Checksum:           opts.Checksum,
		ConfiguredChecksum: opts.ConfiguredChecksum,
		URLTemplate:        opts.URLTemplate,
		CacheDir:           opts.CacheDir,
		Client:             opts.Client,
		Logger:             logger,
	})
	if err != nil {
		return nil, artifact, err
	}

	java := opts.Java
	if java == "" {
		java, err = format.LocateJava()
		if err != nil {
			return nil, artifact, err
		}
	}

	backend, err := format.New(opts.Spec, artifact.Path, java, opts.Runner)
	if err != nil {
		return nil, artifact, err
	}
	return backend, artifact, nil
}

func processFile(ctx context.Context, b format.Backend, path string, autofix bool, logger *slog.Logger) FileReport {
	exists, err := paths.FileExists(path)
	if err != nil {
		return failed(path, err)
	}
	if !exists {
		return failed(path, fmt.Errorf("%s: not a regular file", path))
	}

	res := format.Invoke(ctx, b, path, format.ModeCheck)
	switch {
	case res.Err != nil:
		return failed(path, res.Err)
	case res.Conforms:
		return FileReport{Path: path, Outcome: OutcomeConforms}
	case !autofix:
		logger.Debug("not formatted", "file", path, "issues", len(res.Issues))
		return FileReport{Path: path, Outcome: OutcomeDirty, Issues: res.Issues}
	}

	fixed := format.Invoke(ctx, b, path, format.ModeFix)
	if fixed.Err != nil {
		return failed(path, fixed.Err)
	}

	// A second check proves the fix converged.
	again := format.Invoke(ctx, b, path, format.ModeCheck)
	switch {
	case again.Err != nil:
		return failed(path, again.Err)
	case again.Conforms:
		logger.Debug("fixed", "file", path, "changed", fixed.Changed)
		return FileReport{Path: path, Outcome: OutcomeFixed}
	default:
		return FileReport{
			Path:    path,
			Outcome: OutcomeDirty,
			Issues:  again.Issues,
			Error:   "still not formatted after fix",
		}
	}
}

func failed(path string, err error) FileReport {
	outcome := OutcomeError
	if format.IsInvalidInput(err) {
		outcome = OutcomeInvalid
	}
	return FileReport{Path: path, Outcome: outcome, Error: err.Error()}
}
