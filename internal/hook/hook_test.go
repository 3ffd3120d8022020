package hook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"langfmt/internal/format"
	"langfmt/internal/format/formattest"
	"langfmt/internal/tools"
)

var jarBytes = []byte("PK\x03\x04 fake formatter jar")

type harness struct {
	template string
	checksum string
	cacheDir string
	runner   *formattest.Runner
	hits     *atomic.Int32
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(jarBytes)
	}))
	t.Cleanup(srv.Close)
	return &harness{
		template: srv.URL + "/{version}/formatter.jar",
		checksum: tools.Digest(jarBytes),
		cacheDir: t.TempDir(),
		runner:   &formattest.Runner{},
		hits:     hits,
	}
}

func (h *harness) options(spec format.Spec, files ...string) Options {
	return Options{
		Spec:               spec,
		Files:              files,
		ConfiguredChecksum: h.checksum,
		URLTemplate:        h.template,
		CacheDir:           h.cacheDir,
		Java:               "java",
		Runner:             h.runner,
	}
}

// fixture copies a testdata file into a scratch directory.
func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

var (
	ktlintSpec = format.Spec{Tool: tools.Ktlint, Version: "1.2.1"}
	ktfmtSpecs = []format.Spec{
		{Tool: tools.Ktfmt, Version: "0.47", Style: format.StyleDefault},
		{Tool: tools.Ktfmt, Version: "0.47", Style: format.StyleGoogle},
		{Tool: tools.Ktfmt, Version: "0.47", Style: format.StyleKotlinlang},
	}
)

func TestKtlintConformingFile(t *testing.T) {
	h := newHarness(t)
	path := fixture(t, "PrettyPormatted.kt")
	before := readFile(t, path)

	report := Run(context.Background(), h.options(ktlintSpec, path))
	if report.ExitCode() != 0 {
		t.Fatalf("expected exit 0, got %d: %v", report.ExitCode(), report.Failures())
	}

	opts := h.options(ktlintSpec, path)
	opts.Autofix = true
	if code := Run(context.Background(), opts).ExitCode(); code != 0 {
		t.Fatalf("autofix on conforming file: exit %d", code)
	}
	if readFile(t, path) != before {
		t.Fatalf("conforming file changed by fix pass")
	}
}

func TestKtlintUnformattedThenFixed(t *testing.T) {
	h := newHarness(t)
	path := fixture(t, "NotPrettyFormatted.kt")
	original := readFile(t, path)

	report := Run(context.Background(), h.options(ktlintSpec, path))
	if report.ExitCode() != 1 {
		t.Fatalf("expected exit 1 for unformatted file")
	}
	if got := report.Files[0]; got.Outcome != OutcomeDirty || len(got.Issues) == 0 {
		t.Fatalf("unexpected file report %+v", got)
	}
	if readFile(t, path) != original {
		t.Fatalf("check mode modified the file")
	}

	opts := h.options(ktlintSpec, path)
	opts.Autofix = true
	report = Run(context.Background(), opts)
	if report.ExitCode() != 0 {
		t.Fatalf("expected exit 0 after autofix, got %v", report.Failures())
	}
	if report.Files[0].Outcome != OutcomeFixed {
		t.Fatalf("outcome = %s, want fixed", report.Files[0].Outcome)
	}
	want := readFile(t, filepath.Join("testdata", "NotPrettyFormattedFixed.kt"))
	if got := readFile(t, path); got != want {
		t.Fatalf("fixed content mismatch:\n%s", got)
	}

	if code := Run(context.Background(), h.options(ktlintSpec, path)).ExitCode(); code != 0 {
		t.Fatalf("re-check after fix: exit %d", code)
	}
	if code := Run(context.Background(), opts).ExitCode(); code != 0 || readFile(t, path) != want {
		t.Fatalf("second fix is not a no-op")
	}
	if h.hits.Load() != 1 {
		t.Fatalf("expected a single download across runs, got %d", h.hits.Load())
	}
}

func TestKtfmtStylesAreIndependent(t *testing.T) {
	google := "NotPrettyFormattedFixedKtfmtGoogle.kt"
	kotlinlang := "NotPrettyFormattedFixedKtfmtKotlinlang.kt"
	cases := []struct {
		spec format.Spec
		file string
		want int
	}{
		{ktfmtSpecs[0], google, 0},
		{ktfmtSpecs[0], kotlinlang, 1},
		{ktfmtSpecs[1], google, 0},
		{ktfmtSpecs[1], kotlinlang, 1},
		{ktfmtSpecs[2], google, 1},
		{ktfmtSpecs[2], kotlinlang, 0},
		{ktfmtSpecs[0], "NotPrettyFormatted.kt", 1},
		{ktfmtSpecs[2], "NotPrettyFormatted.kt", 1},
	}
	h := newHarness(t)
	for _, tc := range cases {
		t.Run(tc.spec.Style.String()+"/"+tc.file, func(t *testing.T) {
			report := Run(context.Background(), h.options(tc.spec, fixture(t, tc.file)))
			if got := report.ExitCode(); got != tc.want {
				t.Fatalf("exit = %d, want %d (%v)", got, tc.want, report.Failures())
			}
		})
	}
}

func TestKtfmtAutofixMatchesReference(t *testing.T) {
	cases := map[format.Style]string{
		format.StyleDefault:    "NotPrettyFormattedFixedKtfmtGoogle.kt",
		format.StyleGoogle:     "NotPrettyFormattedFixedKtfmtGoogle.kt",
		format.StyleKotlinlang: "NotPrettyFormattedFixedKtfmtKotlinlang.kt",
	}
	h := newHarness(t)
	for style, reference := range cases {
		t.Run(style.String(), func(t *testing.T) {
			path := fixture(t, "NotPrettyFormatted.kt")
			opts := h.options(format.Spec{Tool: tools.Ktfmt, Version: "0.47", Style: style}, path)
			opts.Autofix = true
			if report := Run(context.Background(), opts); report.ExitCode() != 0 {
				t.Fatalf("autofix failed: %v", report.Failures())
			}
			if got, want := readFile(t, path), readFile(t, filepath.Join("testdata", reference)); got != want {
				t.Fatalf("fixed content mismatch:\n%s", got)
			}
		})
	}
}

func TestInvalidInputFailsEveryBackend(t *testing.T) {
	specs := append([]format.Spec{ktlintSpec}, ktfmtSpecs...)
	h := newHarness(t)
	for _, spec := range specs {
		for _, autofix := range []bool{false, true} {
			path := fixture(t, "Invalid.kt")
			original := readFile(t, path)
			opts := h.options(spec, path)
			opts.Autofix = autofix

			report := Run(context.Background(), opts)
			if report.ExitCode() != 1 {
				t.Fatalf("%s autofix=%v: expected exit 1", spec, autofix)
			}
			if report.Files[0].Outcome != OutcomeInvalid {
				t.Fatalf("%s autofix=%v: outcome = %s", spec, autofix, report.Files[0].Outcome)
			}
			if readFile(t, path) != original {
				t.Fatalf("%s autofix=%v: invalid file was modified", spec, autofix)
			}
		}
	}
}

func TestChecksumOverrideMismatchFailsEveryFile(t *testing.T) {
	h := newHarness(t)
	pretty := fixture(t, "PrettyPormatted.kt")
	dirty := fixture(t, "NotPrettyFormatted.kt")
	wrong := strings.Repeat("0", 64)

	opts := h.options(ktlintSpec, pretty, dirty)
	opts.Checksum = wrong
	opts.Autofix = true
	report := Run(context.Background(), opts)

	if report.ExitCode() != 1 || report.Err == nil {
		t.Fatalf("expected fatal failure, got exit %d err %v", report.ExitCode(), report.Err)
	}
	for _, f := range report.Files {
		if f.Outcome != OutcomeError || !strings.Contains(f.Error, "checksum mismatch") {
			t.Fatalf("unexpected file report %+v", f)
		}
	}
	if len(h.runner.Calls()) != 0 {
		t.Fatalf("formatter ran despite integrity failure")
	}
	if statuses, _ := tools.List(h.cacheDir); len(statuses) != 0 {
		t.Fatalf("cache populated after mismatch: %+v", statuses)
	}
	if readFile(t, dirty) != readFile(t, filepath.Join("testdata", "NotPrettyFormatted.kt")) {
		t.Fatalf("file modified after integrity failure")
	}
}

func TestChecksumOverrideMismatchWithCachedJar(t *testing.T) {
	h := newHarness(t)
	pretty := fixture(t, "PrettyPormatted.kt")

	if code := Run(context.Background(), h.options(ktlintSpec, pretty)).ExitCode(); code != 0 {
		t.Fatalf("warm-up run: exit %d", code)
	}
	calls := len(h.runner.Calls())

	opts := h.options(ktlintSpec, pretty)
	opts.Checksum = strings.Repeat("ab", 32)
	report := Run(context.Background(), opts)
	if report.ExitCode() != 1 {
		t.Fatalf("expected exit 1 with mismatching override on cached jar")
	}
	if len(h.runner.Calls()) != calls {
		t.Fatalf("formatter ran despite integrity failure")
	}
	if h.hits.Load() != 1 {
		t.Fatalf("cached jar should not be re-downloaded, hits=%d", h.hits.Load())
	}
}

func TestDownloadFailureAbortsBeforeFiles(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	h := newHarness(t)
	h.template = srv.URL + "/{version}/missing.jar"

	path := fixture(t, "PrettyPormatted.kt")
	report := Run(context.Background(), h.options(ktlintSpec, path))
	if report.ExitCode() != 1 {
		t.Fatalf("expected exit 1")
	}
	var dl *tools.DownloadError
	if !errors.As(report.Err, &dl) {
		t.Fatalf("expected DownloadError, got %v", report.Err)
	}
	if len(h.runner.Calls()) != 0 {
		t.Fatalf("formatter ran without a jar")
	}
}

func TestPerFileFailuresDoNotStopTheRun(t *testing.T) {
	h := newHarness(t)
	missing := filepath.Join(t.TempDir(), "Missing.kt")
	dir := t.TempDir()
	invalid := fixture(t, "Invalid.kt")
	dirty := fixture(t, "NotPrettyFormatted.kt")
	pretty := fixture(t, "PrettyPormatted.kt")

	opts := h.options(ktlintSpec, missing, dir, invalid, dirty, pretty)
	opts.Autofix = true
	report := Run(context.Background(), opts)

	if report.ExitCode() != 1 {
		t.Fatalf("expected exit 1")
	}
	want := []Outcome{OutcomeError, OutcomeError, OutcomeInvalid, OutcomeFixed, OutcomeConforms}
	for i, f := range report.Files {
		if f.Outcome != want[i] {
			t.Fatalf("file %d (%s): outcome = %s, want %s", i, f.Path, f.Outcome, want[i])
		}
	}
	counts := report.Counts()
	if counts[OutcomeFixed] != 1 || counts[OutcomeConforms] != 1 {
		t.Fatalf("counts = %v", counts)
	}
	if err := report.Failures(); err == nil || !strings.Contains(err.Error(), "Missing.kt") {
		t.Fatalf("failures should name the missing file: %v", err)
	}
}

type recordingReporter struct {
	acquiring int
	started   []string
	completed []FileReport
}

func (r *recordingReporter) Acquiring(format.Spec) { r.acquiring++ }
func (r *recordingReporter) Start(path string)     { r.started = append(r.started, path) }
func (r *recordingReporter) Complete(f FileReport) { r.completed = append(r.completed, f) }

func TestReporterSeesEveryFile(t *testing.T) {
	h := newHarness(t)
	rec := &recordingReporter{}
	a := fixture(t, "PrettyPormatted.kt")
	b := fixture(t, "NotPrettyFormatted.kt")

	opts := h.options(ktlintSpec, a, b)
	opts.Reporter = rec
	Run(context.Background(), opts)

	if rec.acquiring != 1 || len(rec.started) != 2 || len(rec.completed) != 2 {
		t.Fatalf("unexpected events: %+v", rec)
	}
	if rec.completed[1].Path != b || rec.completed[1].Outcome != OutcomeDirty {
		t.Fatalf("unexpected completion %+v", rec.completed[1])
	}
}

func TestNoFilesSucceeds(t *testing.T) {
	h := newHarness(t)
	report := Run(context.Background(), h.options(ktlintSpec))
	if report.ExitCode() != 0 || !report.Artifact.Verified {
		t.Fatalf("unexpected report %+v", report)
	}
}
