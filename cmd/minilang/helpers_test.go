package main

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(strings.TrimSpace(contents)+"\n"), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}

func initGitRepo(t *testing.T, dir string) string {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == filepath.Join(dir, ".git") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		_, err = worktree.Add(filepath.ToSlash(rel))
		return err
	}); err != nil {
		t.Fatalf("stage files: %v", err)
	}
	hash, err := worktree.Commit("init", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "minilang CLI",
			Email: "minilang@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return hash.String()
}

func captureCLI(t *testing.T, args []string) (int, string, string) {
	t.Helper()

	stdout := os.Stdout
	stderr := os.Stderr

	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("stdout pipe: %v", err)
	}
	rErr, wErr, err := os.Pipe()
	if err != nil {
		t.Fatalf("stderr pipe: %v", err)
	}

	os.Stdout = wOut
	os.Stderr = wErr

	outCh := make(chan []byte)
	errCh := make(chan []byte)
	go func() {
		data, _ := io.ReadAll(rOut)
		outCh <- data
	}()
	go func() {
		data, _ := io.ReadAll(rErr)
		errCh <- data
	}()

	code := run(args)

	os.Stdout = stdout
	os.Stderr = stderr

	if err := wOut.Close(); err != nil {
		t.Fatalf("stdout close: %v", err)
	}
	if err := wErr.Close(); err != nil {
		t.Fatalf("stderr close: %v", err)
	}
	outBytes := <-outCh
	errBytes := <-errCh
	_ = rOut.Close()
	_ = rErr.Close()

	return code, string(outBytes), string(errBytes)
}

const addProgramDoc = `
statements:
  - type: Declaration
    name: add
    annotation: "(Int, Int) -> Int"
    value:
      type: LambdaExpression
      parameters: [a, b]
      body:
        type: BinaryExpression
        operator: "+"
        left: {type: Variable, name: a}
        right: {type: Variable, name: b}
  - type: Declaration
    name: result
    value:
      type: FunctionCall
      callee: {type: Variable, name: add}
      arguments:
        - {type: IntegerLiteral, value: 1}
        - {type: IntegerLiteral, value: 2}
  - type: Declaration
    name: is_positive
    value:
      type: LambdaExpression
      parameters: [n]
      body:
        type: BinaryExpression
        operator: ">"
        left: {type: Variable, name: n}
        right: {type: IntegerLiteral, value: 0}
expect:
  check: ok
  infer:
    result: Int
    is_positive: "(Int) -> Bool"
`

const arityProgramDoc = `
statements:
  - type: Declaration
    name: add
    annotation: "(Int, Int) -> Int"
    value:
      type: LambdaExpression
      parameters: [a, b]
      body:
        type: BinaryExpression
        operator: "+"
        left: {type: Variable, name: a}
        right: {type: Variable, name: b}
  - type: FunctionCall
    callee: {type: Variable, name: add}
    arguments:
      - {type: IntegerLiteral, value: 3}
expect:
  check: ArityMismatch
  inferError: ArityMismatch
`

const freeVariableDoc = `
statements:
  - type: BinaryExpression
    operator: "+"
    left: {type: Variable, name: unknown_var}
    right: {type: IntegerLiteral, value: 1}
expect:
  check: UndefinedVariable
  infer:
    unknown_var: Int
`

// wrongExpectationDoc is a valid program whose expect block is wrong.
const wrongExpectationDoc = `
statements:
  - type: Declaration
    name: flag
    value: {type: BooleanLiteral, value: true}
expect:
  check: ok
  infer:
    flag: Int
`

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir for older toolchains).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory %s: %v", prev, err)
		}
	})
}
