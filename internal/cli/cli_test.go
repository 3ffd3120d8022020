package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"langfmt/internal/format"
	"langfmt/internal/format/formattest"
	"langfmt/internal/tools"
)

const (
	ktlintClean = "package demo\n\nfun main() {\n    println(\"hi\")\n}\n"
	googleClean = "package demo\n\nfun main() {\n  println(\"hi\")\n}\n"
	messy       = "package demo\n\n\nfun main() {\n  println(\"hi\")   \n}\n"
)

var fakeJar = []byte("PK\x03\x04 cli test jar")

type testEnv struct {
	dir        string
	configFile string
	cacheDir   string
	runner     *formattest.Runner
	hits       int
}

// newTestEnv serves a fake jar, points the cache at a temp dir, and writes a
// config that trusts the jar for the default versions.
func newTestEnv(t *testing.T, extraConfig string) *testEnv {
	t.Helper()
	env := &testEnv{dir: t.TempDir(), cacheDir: t.TempDir(), runner: &formattest.Runner{}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.hits++
		_, _ = w.Write(fakeJar)
	}))
	t.Cleanup(srv.Close)

	sum := tools.Digest(fakeJar)
	cfg := fmt.Sprintf(`version: 1
tools:
  ktlint:
    url: %[1]s/ktlint/{version}/ktlint
    checksums:
      "1.2.1": "%[2]s"
  ktfmt:
    url: %[1]s/ktfmt/{version}/ktfmt.jar
    checksums:
      "0.47": "%[2]s"
%[3]s`, srv.URL, sum, extraConfig)

	env.configFile = filepath.Join(env.dir, ".langfmt.yaml")
	if err := os.WriteFile(env.configFile, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("LANGFMT_CACHE_DIR", env.cacheDir)
	t.Setenv("LANGFMT_CONFIG", "")

	prevRunner, prevJava, prevStyle := formatRunner, javaPath, kotlinStyle
	t.Cleanup(func() {
		formatRunner, javaPath, kotlinStyle = prevRunner, prevJava, prevStyle
	})
	formatRunner = env.runner
	javaPath = "java"
	return env
}

func (e *testEnv) source(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	kotlinStyle = ""
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.configFile}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestPrettyFormatKotlinCheck(t *testing.T) {
	env := newTestEnv(t, "")
	clean := env.source(t, "Clean.kt", ktlintClean)
	dirty := env.source(t, "Dirty.kt", messy)

	if _, _, err := env.run(t, "pretty-format-kotlin", clean); err != nil {
		t.Fatalf("conforming file: %v", err)
	}

	stdout, _, err := env.run(t, "pretty-format-kotlin", clean, dirty)
	if err == nil {
		t.Fatalf("expected failure for unformatted file")
	}
	if !strings.Contains(err.Error(), "1 of 2 files") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "unformatted") || !strings.Contains(stdout, dirty) {
		t.Fatalf("report should name the dirty file:\n%s", stdout)
	}
	if strings.Contains(stdout, clean+"\n") {
		t.Fatalf("conforming files should not be listed:\n%s", stdout)
	}
	if env.hits != 1 {
		t.Fatalf("expected one download, got %d", env.hits)
	}
}

func TestPrettyFormatKotlinAutofix(t *testing.T) {
	env := newTestEnv(t, "")
	dirty := env.source(t, "Dirty.kt", messy)

	stdout, _, err := env.run(t, "pretty-format-kotlin", "--autofix", dirty)
	if err != nil {
		t.Fatalf("autofix: %v\n%s", err, stdout)
	}
	got, _ := os.ReadFile(dirty)
	if string(got) != ktlintClean {
		t.Fatalf("fixed content mismatch:\n%s", got)
	}
	if !strings.Contains(stdout, "fixed") {
		t.Fatalf("report should mention the fix:\n%s", stdout)
	}
}

func TestPrettyFormatKotlinKtfmtStyles(t *testing.T) {
	env := newTestEnv(t, "")
	google := env.source(t, "Google.kt", googleClean)
	kotlinlang := env.source(t, "Kotlinlang.kt", ktlintClean)

	if _, _, err := env.run(t, "pretty-format-kotlin", "--ktfmt", google); err != nil {
		t.Fatalf("default style should accept google formatting: %v", err)
	}
	if _, _, err := env.run(t, "pretty-format-kotlin", "--ktfmt", kotlinlang); err == nil {
		t.Fatalf("default style should reject kotlinlang formatting")
	}
	if _, _, err := env.run(t, "pretty-format-kotlin", "--ktfmt", "--ktfmt-style=kotlinlang", kotlinlang); err != nil {
		t.Fatalf("kotlinlang style: %v", err)
	}
	if _, _, err := env.run(t, "pretty-format-kotlin", "--ktfmt-style=fancy", google); err == nil {
		t.Fatalf("expected flag error for unknown style")
	}
}

func TestPrettyFormatKotlinStyleFromConfig(t *testing.T) {
	env := newTestEnv(t, "")
	if err := os.WriteFile(env.configFile, append(mustRead(t, env.configFile), []byte("    style: kotlinlang\n")...), 0o644); err != nil {
		t.Fatalf("append config: %v", err)
	}
	kotlinlang := env.source(t, "Kotlinlang.kt", ktlintClean)

	if _, _, err := env.run(t, "pretty-format-kotlin", "--ktfmt", kotlinlang); err != nil {
		t.Fatalf("configured kotlinlang style: %v", err)
	}
	if _, _, err := env.run(t, "pretty-format-kotlin", "--ktfmt", "--ktfmt-style", "google", kotlinlang); err == nil {
		t.Fatalf("flag should override configured style")
	}
}

func TestPrettyFormatKotlinChecksumMismatch(t *testing.T) {
	env := newTestEnv(t, "")
	clean := env.source(t, "Clean.kt", ktlintClean)
	dirty := env.source(t, "Dirty.kt", messy)

	stdout, _, err := env.run(t, "pretty-format-kotlin", "--autofix",
		"--formatter-jar-checksum", strings.Repeat("0", 64), clean, dirty)
	if err == nil || !strings.Contains(err.Error(), "checksum mismatch") {
		t.Fatalf("expected checksum mismatch, got %v", err)
	}
	if !strings.Contains(stdout, "FAILED") {
		t.Fatalf("expected failure summary:\n%s", stdout)
	}
	if len(env.runner.Calls()) != 0 {
		t.Fatalf("formatter ran with an untrusted jar")
	}
	if got := mustRead(t, dirty); string(got) != messy {
		t.Fatalf("file modified despite integrity failure")
	}
}

func TestPrettyFormatKotlinJSON(t *testing.T) {
	env := newTestEnv(t, "")
	dirty := env.source(t, "Dirty.kt", messy)

	stdout, _, err := env.run(t, "--json", "pretty-format-kotlin", dirty)
	if err == nil {
		t.Fatalf("expected failure for unformatted file")
	}
	var report struct {
		Formatter string `json:"formatter"`
		Artifact  struct {
			Verified bool `json:"verified"`
		} `json:"artifact"`
		Files []struct {
			Path    string         `json:"path"`
			Outcome string         `json:"outcome"`
			Issues  []format.Issue `json:"issues"`
		} `json:"files"`
	}
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, stdout)
	}
	if report.Formatter != "ktlint 1.2.1" || !report.Artifact.Verified {
		t.Fatalf("unexpected header %+v", report)
	}
	if len(report.Files) != 1 || report.Files[0].Outcome != "unformatted" || len(report.Files[0].Issues) == 0 {
		t.Fatalf("unexpected files %+v", report.Files)
	}
}

func TestToolsInstallListClean(t *testing.T) {
	env := newTestEnv(t, "")

	stdout, _, err := env.run(t, "tools", "install", "ktlint")
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if !strings.Contains(stdout, "ktlint") || !strings.Contains(stdout, "1.2.1") {
		t.Fatalf("install output:\n%s", stdout)
	}

	stdout, _, err = env.run(t, "--json", "tools", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var statuses []tools.Status
	if err := json.Unmarshal([]byte(stdout), &statuses); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(statuses) != 1 || statuses[0].Tool != tools.Ktlint || statuses[0].Checksum != tools.Digest(fakeJar) {
		t.Fatalf("unexpected statuses %+v", statuses)
	}

	if _, _, err := env.run(t, "tools", "clean", "ktlint"); err != nil {
		t.Fatalf("clean: %v", err)
	}
	stdout, _, err = env.run(t, "tools", "list")
	if err != nil {
		t.Fatalf("list after clean: %v", err)
	}
	if !strings.Contains(stdout, "no cached formatter jars") {
		t.Fatalf("cache should be empty:\n%s", stdout)
	}
}

func TestToolsInstallWithoutChecksumFailsClosed(t *testing.T) {
	env := newTestEnv(t, "")

	_, _, err := env.run(t, "tools", "install", "ktfmt", "--version", "0.46")
	if err == nil || !strings.Contains(err.Error(), "no expected checksum") {
		t.Fatalf("expected fail-closed error, got %v", err)
	}
	if env.hits != 0 {
		t.Fatalf("downloaded without a checksum")
	}
}

func TestConfigValidate(t *testing.T) {
	env := newTestEnv(t, "  prettier: {}\n")

	stdout, _, err := env.run(t, "config", "validate")
	if err == nil || !strings.Contains(err.Error(), "prettier") {
		t.Fatalf("expected unknown tool error, got %v", err)
	}
	if !strings.Contains(stdout, "ERROR") {
		t.Fatalf("expected error listing:\n%s", stdout)
	}

	clean := env.source(t, "Clean.kt", ktlintClean)
	if _, _, err := env.run(t, "pretty-format-kotlin", clean); err == nil {
		t.Fatalf("hook should refuse an invalid config")
	}
}

func TestConfigShow(t *testing.T) {
	env := newTestEnv(t, "")
	stdout, _, err := env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(stdout, "download_timeout: 5m0s") || !strings.Contains(stdout, "ktfmt:") {
		t.Fatalf("unexpected yaml:\n%s", stdout)
	}
}

func TestDoctorJSON(t *testing.T) {
	env := newTestEnv(t, "")
	if _, _, err := env.run(t, "tools", "install", "all"); err != nil {
		t.Fatalf("install: %v", err)
	}

	stdout, _, err := env.run(t, "--json", "doctor")
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	var checks []healthCheck
	if err := json.Unmarshal([]byte(stdout), &checks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	byName := map[string]string{}
	for _, c := range checks {
		byName[c.Name] = c.Status
	}
	if byName["Java"] != "ok" || byName["Config"] != "warning" || byName["Digests"] != "ok" {
		t.Fatalf("unexpected checks %+v", checks)
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}

func TestMalformedChecksumFlag(t *testing.T) {
	env := newTestEnv(t, "")
	clean := env.source(t, "Clean.kt", ktlintClean)

	if _, _, err := env.run(t, "pretty-format-kotlin", "--formatter-jar-checksum", "abc", clean); err == nil {
		t.Fatalf("expected error for malformed checksum")
	}
	if _, _, err := env.run(t, "tools", "install", "ktlint", "--checksum", "abc"); err == nil {
		t.Fatalf("expected error for malformed checksum")
	}
	if env.hits != 0 {
		t.Fatalf("downloaded with a malformed checksum")
	}
}

func TestToolsInstallAllVersionsUsesPinnedSet(t *testing.T) {
	env := newTestEnv(t, "")

	stdout, _, err := env.run(t, "--json", "tools", "install", "--all-versions")
	if err != nil {
		t.Fatalf("install --all-versions: %v\n%s", err, stdout)
	}
	var statuses []tools.Status
	if err := json.Unmarshal([]byte(stdout), &statuses); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := 0
	for _, tool := range tools.KnownTools() {
		want += len(tools.PinnedVersions(tool))
	}
	if len(statuses) != want || env.hits != want {
		t.Fatalf("expected %d installs, got %d statuses and %d downloads", want, len(statuses), env.hits)
	}
	for _, st := range statuses {
		if st.Error != "" || !st.Pinned || !st.Supported {
			t.Fatalf("unexpected status %+v", st)
		}
	}
}

func TestDoctorWithoutConfigOrCache(t *testing.T) {
	env := newTestEnv(t, "")
	t.Setenv("LANGFMT_CACHE_DIR", filepath.Join(t.TempDir(), "fresh"))

	stdout, _, err := env.run(t, "--json", "--config", filepath.Join(env.dir, "absent.yaml"), "doctor")
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	var checks []healthCheck
	if err := json.Unmarshal([]byte(stdout), &checks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	byName := map[string]healthCheck{}
	for _, c := range checks {
		byName[c.Name] = c
	}
	if c := byName["Config"]; c.Status != "ok" || !strings.Contains(c.Summary, "defaults") {
		t.Fatalf("unexpected config check %+v", c)
	}
	if c := byName["Cache"]; c.Status != "ok" || !strings.Contains(c.Summary, "not created yet") {
		t.Fatalf("unexpected cache check %+v", c)
	}
}
