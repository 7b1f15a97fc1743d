package driver

import (
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

func initGitRepo(t *testing.T, dir string) (*git.Repository, string) {
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
			Name:  "minilang",
			Email: "minilang@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return repo, hash.String()
}

const addProgramYAML = `
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
expect:
  check: ok
  infer:
    add: "(Int, Int) -> Int"
    result: Int
`

const arityProgramYAML = `
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
