package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"minilang/analyzer-go/pkg/driver"
	"minilang/analyzer-go/pkg/inference"
)

type testSummary struct {
	passed  int
	failed  int
	skipped int
}

type testTarget struct {
	label string
	path  string
}

func runTest(args []string, logger *slog.Logger) int {
	manifest, err := loadManifestFrom(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load manifest: %v\n", err)
		return 1
	}
	targets, err := collectTestTargets(manifest, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if len(targets) == 0 {
		fmt.Fprintln(os.Stdout, "no program documents found")
		return 0
	}

	var summary testSummary
	for _, target := range targets {
		runTestTarget(target, logger, &summary)
	}
	fmt.Fprintf(os.Stdout, "\n%d passed, %d failed, %d skipped\n", summary.passed, summary.failed, summary.skipped)
	if summary.failed > 0 {
		return 1
	}
	return 0
}

// collectTestTargets lists the named suites' documents. With no names, every
// manifest program and every suite is included.
func collectTestTargets(manifest *driver.Manifest, names []string) ([]testTarget, error) {
	var targets []testTarget
	if len(names) == 0 {
		for _, name := range manifest.ProgramOrder {
			path, _ := manifest.FindProgram(name)
			targets = append(targets, testTarget{label: name, path: path})
		}
		names = manifest.SuiteNames()
	}
	if len(names) == 0 {
		return targets, nil
	}

	lock, err := loadLockfileForManifest(manifest)
	if err != nil {
		return nil, err
	}
	cacheDir, err := resolveMinilangHome()
	if err != nil {
		return nil, err
	}
	fetcher := driver.NewSuiteFetcher(cacheDir, nil)
	for _, name := range names {
		dir, err := fetcher.LockedDir(manifest, lock, name)
		if err != nil {
			return nil, err
		}
		docs, err := driver.CollectSuiteDocuments(dir)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			rel, err := filepath.Rel(dir, doc)
			if err != nil {
				rel = doc
			}
			targets = append(targets, testTarget{label: name + "/" + filepath.ToSlash(rel), path: doc})
		}
	}
	return targets, nil
}

func runTestTarget(target testTarget, logger *slog.Logger, summary *testSummary) {
	doc, err := driver.LoadProgramDocument(target.path)
	if err != nil {
		summary.failed++
		fmt.Fprintf(os.Stdout, "FAIL %s\n  %v\n", target.label, err)
		return
	}
	if doc.Expect == nil {
		summary.skipped++
		fmt.Fprintf(os.Stdout, "skip %s (no expect block)\n", target.label)
		return
	}
	report := driver.Analyze(doc.Program, inference.WithLogger(logger.With("document", target.label)))
	mismatches := driver.CompareExpectations(doc, report)
	if len(mismatches) == 0 {
		summary.passed++
		fmt.Fprintf(os.Stdout, "ok   %s\n", target.label)
		return
	}
	summary.failed++
	fmt.Fprintf(os.Stdout, "FAIL %s\n", target.label)
	for _, mismatch := range mismatches {
		fmt.Fprintf(os.Stdout, "  %s\n", mismatch)
	}
}
