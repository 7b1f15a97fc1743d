package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"minilang/analyzer-go/pkg/driver"
)

func TestVersionAndUsage(t *testing.T) {
	code, stdout, _ := captureCLI(t, []string{"--version"})
	if code != 0 || strings.TrimSpace(stdout) != cliToolVersion {
		t.Fatalf("--version = %d %q", code, stdout)
	}
	code, stdout, _ = captureCLI(t, []string{"--help"})
	if code != 0 || !strings.Contains(stdout, "usage: minilang") {
		t.Fatalf("--help = %d %q", code, stdout)
	}
	code, _, stderr := captureCLI(t, nil)
	if code != 1 || !strings.Contains(stderr, "usage: minilang") {
		t.Fatalf("no arguments = %d %q", code, stderr)
	}
	code, _, stderr = captureCLI(t, []string{"compile"})
	if code != 1 || !strings.Contains(stderr, `unknown command "compile"`) {
		t.Fatalf("unknown command = %d %q", code, stderr)
	}
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "add.yml")
	bad := filepath.Join(dir, "arity.yml")
	writeFile(t, good, addProgramDoc)
	writeFile(t, bad, arityProgramDoc)

	code, stdout, stderr := captureCLI(t, []string{"check", good})
	if code != 0 || strings.TrimSpace(stdout) != "Type checking passed!" {
		t.Fatalf("check good = %d stdout=%q stderr=%q", code, stdout, stderr)
	}

	code, _, stderr = captureCLI(t, []string{"check", bad})
	if code != 1 {
		t.Fatalf("expected failure exit code, got %d", code)
	}
	if !strings.HasPrefix(stderr, "typechecker: "+bad+": ") || !strings.Contains(stderr, "[ArityMismatch]") {
		t.Fatalf("unexpected diagnostic %q", stderr)
	}

	code, _, stderr = captureCLI(t, []string{"check"})
	if code != 1 || !strings.Contains(stderr, "exactly one program document") {
		t.Fatalf("check without file = %d %q", code, stderr)
	}
	code, _, stderr = captureCLI(t, []string{"check", "--bogus", good})
	if code != 1 || !strings.Contains(stderr, "unknown flag --bogus") {
		t.Fatalf("check with unknown flag = %d %q", code, stderr)
	}
}

func TestCheckEmitWritesCompletedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "add.yml")
	writeFile(t, path, addProgramDoc)
	code, stdout, stderr := captureCLI(t, []string{"check", "--emit", path})
	if code != 0 {
		t.Fatalf("check --emit = %d %q", code, stderr)
	}
	doc, err := driver.DecodeProgramDocument([]byte(stdout))
	if err != nil {
		t.Fatalf("emitted document does not decode: %v\n%s", err, stdout)
	}
	decls := doc.Program.Declarations()
	if len(decls) != 3 || decls[1].TypeAnnotation == nil || decls[1].TypeAnnotation.Name() != "Int" {
		t.Fatalf("expected result to carry an Int annotation, got:\n%s", stdout)
	}
	if doc.Expect == nil || doc.Expect.Check != "ok" {
		t.Fatalf("expected the expect block to survive emission")
	}
}

func TestInferCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "add.yml")
	writeFile(t, path, addProgramDoc)
	code, stdout, stderr := captureCLI(t, []string{"infer", path})
	if code != 0 {
		t.Fatalf("infer = %d %q", code, stderr)
	}
	want := "add: (Int, Int) -> Int\nresult: Int\nis_positive: (Int) -> Bool\n"
	if stdout != want {
		t.Fatalf("infer output = %q, want %q", stdout, want)
	}

	free := filepath.Join(dir, "free.yml")
	writeFile(t, free, freeVariableDoc)
	code, stdout, stderr = captureCLI(t, []string{"infer", free})
	if code != 0 || stdout != "unknown_var: Int\n" {
		t.Fatalf("infer free = %d %q", code, stdout)
	}
	if !strings.Contains(stderr, "warning: inference:") || !strings.Contains(stderr, "'unknown_var'") {
		t.Fatalf("expected free variable warning, got %q", stderr)
	}

	bad := filepath.Join(dir, "arity.yml")
	writeFile(t, bad, arityProgramDoc)
	code, _, stderr = captureCLI(t, []string{"infer", bad})
	if code != 1 || !strings.Contains(stderr, "[ArityMismatch]") {
		t.Fatalf("infer arity = %d %q", code, stderr)
	}
}

func TestInferTraceFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "free.yml")
	writeFile(t, path, freeVariableDoc)
	t.Setenv("MINILANG_TRACE", "")
	code, _, stderr := captureCLI(t, []string{"--trace", "infer", path})
	if code != 0 {
		t.Fatalf("infer --trace = %d %q", code, stderr)
	}
	if !strings.Contains(stderr, "level=DEBUG") || !strings.Contains(stderr, "section=inference") {
		t.Fatalf("expected debug trace on stderr, got %q", stderr)
	}

	t.Setenv("MINILANG_TRACE", "1")
	_, _, stderr = captureCLI(t, []string{"infer", path})
	if !strings.Contains(stderr, "level=DEBUG") {
		t.Fatalf("expected MINILANG_TRACE to enable tracing, got %q", stderr)
	}
}

func TestAnalyzeCommandUsesManifestPrograms(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, driver.ManifestFileName), `
name: demo
programs:
  main: programs/add.yml
  arity: programs/arity.yml
`)
	writeFile(t, filepath.Join(root, "programs", "add.yml"), addProgramDoc)
	writeFile(t, filepath.Join(root, "programs", "arity.yml"), arityProgramDoc)
	nested := filepath.Join(root, "programs")
	chdir(t, nested)

	code, stdout, stderr := captureCLI(t, []string{"analyze"})
	if code != 0 {
		t.Fatalf("analyze = %d stdout=%q stderr=%q", code, stdout, stderr)
	}
	want := "Type checking passed!\n\nInferred types:\nadd: (Int, Int) -> Int\nresult: Int\nis_positive: (Int) -> Bool\n"
	if stdout != want {
		t.Fatalf("analyze output = %q, want %q", stdout, want)
	}

	code, stdout, _ = captureCLI(t, []string{"analyze", "arity"})
	if code != 1 {
		t.Fatalf("expected analyze arity to fail, got %d", code)
	}
	if !strings.HasPrefix(stdout, "Type checking failed: function call with wrong number of arguments") ||
		!strings.Contains(stdout, "Type inference failed:") {
		t.Fatalf("unexpected analyze output %q", stdout)
	}

	code, _, stderr = captureCLI(t, []string{"analyze", "missing"})
	if code != 1 || !strings.Contains(stderr, `program "missing" is not declared`) {
		t.Fatalf("analyze missing = %d %q", code, stderr)
	}
}

func TestAnalyzeCommandWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	code, _, stderr := captureCLI(t, []string{"analyze"})
	if code != 1 || !strings.Contains(stderr, "not found") {
		t.Fatalf("analyze without manifest = %d %q", code, stderr)
	}
	path := filepath.Join(dir, "add.yml")
	writeFile(t, path, addProgramDoc)
	code, stdout, _ := captureCLI(t, []string{"analyze", "./add.yml"})
	if code != 0 || !strings.HasPrefix(stdout, "Type checking passed!") {
		t.Fatalf("analyze file = %d %q", code, stdout)
	}
}

func TestTestCommandWithPathSuite(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, driver.ManifestFileName), `
name: demo
programs:
  main: add.yml
suites:
  local:
    path: suite
`)
	writeFile(t, filepath.Join(root, "add.yml"), addProgramDoc)
	writeFile(t, filepath.Join(root, "suite", "arity.yml"), arityProgramDoc)
	writeFile(t, filepath.Join(root, "suite", "free.yml"), freeVariableDoc)
	writeFile(t, filepath.Join(root, "suite", "plain.yml"), "statements: []")
	chdir(t, root)
	t.Setenv("MINILANG_HOME", t.TempDir())

	code, stdout, stderr := captureCLI(t, []string{"test"})
	if code != 0 {
		t.Fatalf("test = %d stdout=%q stderr=%q", code, stdout, stderr)
	}
	for _, want := range []string{
		"ok   main",
		"ok   local/arity.yml",
		"ok   local/free.yml",
		"skip local/plain.yml",
		"3 passed, 0 failed, 1 skipped",
	} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in:\n%s", want, stdout)
		}
	}

	writeFile(t, filepath.Join(root, "suite", "wrong.yml"), wrongExpectationDoc)
	code, stdout, _ = captureCLI(t, []string{"test", "local"})
	if code != 1 {
		t.Fatalf("expected failing suite, got %d:\n%s", code, stdout)
	}
	if !strings.Contains(stdout, "FAIL local/wrong.yml") || !strings.Contains(stdout, "infer.flag: expected Int, got Bool") {
		t.Fatalf("unexpected failure report:\n%s", stdout)
	}
	if strings.Contains(stdout, "ok   main") {
		t.Fatalf("naming a suite should not run manifest programs:\n%s", stdout)
	}
}

func TestSuitesFetchThenTest(t *testing.T) {
	suiteRepo := t.TempDir()
	writeFile(t, filepath.Join(suiteRepo, "cases", "add.yml"), addProgramDoc)
	writeFile(t, filepath.Join(suiteRepo, "cases", "arity.yml"), arityProgramDoc)
	commit := initGitRepo(t, suiteRepo)

	root := t.TempDir()
	writeFile(t, filepath.Join(root, driver.ManifestFileName), `
name: demo
suites:
  upstream:
    git: `+suiteRepo+`
    rev: `+commit+`
    dir: cases
`)
	chdir(t, root)
	home := t.TempDir()
	t.Setenv("MINILANG_HOME", home)

	code, _, stderr := captureCLI(t, []string{"test"})
	if code != 1 || !strings.Contains(stderr, "run `minilang suites fetch`") {
		t.Fatalf("test before fetch = %d %q", code, stderr)
	}

	code, stdout, stderr := captureCLI(t, []string{"suites", "fetch"})
	if code != 0 {
		t.Fatalf("suites fetch = %d stdout=%q stderr=%q", code, stdout, stderr)
	}
	if !strings.Contains(stdout, "fetched upstream "+commit) || !strings.Contains(stdout, "wrote "+driver.LockFileName) {
		t.Fatalf("unexpected fetch output %q", stdout)
	}
	lock, err := driver.LoadLockfile(filepath.Join(root, driver.LockFileName))
	if err != nil {
		t.Fatalf("LoadLockfile: %v", err)
	}
	if entry := lock.Find("upstream"); entry == nil || entry.Commit != commit || lock.Root != "demo" {
		t.Fatalf("unexpected lockfile %#v", lock)
	}
	if _, err := os.Stat(filepath.Join(home, "suites", "upstream", commit, "cases", "add.yml")); err != nil {
		t.Fatalf("expected checkout in cache: %v", err)
	}

	code, stdout, _ = captureCLI(t, []string{"suites", "fetch"})
	if code != 0 || strings.Contains(stdout, "wrote ") {
		t.Fatalf("second fetch should leave the lockfile alone = %d %q", code, stdout)
	}

	code, stdout, stderr = captureCLI(t, []string{"test"})
	if code != 0 {
		t.Fatalf("test = %d stdout=%q stderr=%q", code, stdout, stderr)
	}
	if !strings.Contains(stdout, "ok   upstream/add.yml") || !strings.Contains(stdout, "2 passed, 0 failed, 0 skipped") {
		t.Fatalf("unexpected test output:\n%s", stdout)
	}
}

func TestSuitesUsage(t *testing.T) {
	code, _, stderr := captureCLI(t, []string{"suites"})
	if code != 1 || !strings.Contains(stderr, "usage: minilang suites fetch") {
		t.Fatalf("suites = %d %q", code, stderr)
	}
}
