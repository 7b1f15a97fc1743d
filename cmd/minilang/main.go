package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"minilang/analyzer-go/pkg/driver"
	"minilang/analyzer-go/pkg/inference"
	"minilang/analyzer-go/pkg/typechecker"
)

const cliToolVersion = "minilang 0.1.0-dev"

var errManifestNotFound = errors.New(driver.ManifestFileName + " not found")

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	args, trace := extractTraceFlag(args)
	logger := newLogger(os.Stderr, trace)

	if len(args) == 0 {
		printUsage(os.Stderr)
		return 1
	}

	switch args[0] {
	case "--help", "-h", "help":
		printUsage(os.Stdout)
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	case "check":
		return runCheck(args[1:])
	case "infer":
		return runInfer(args[1:], logger)
	case "analyze":
		return runAnalyze(args[1:], logger)
	case "test":
		return runTest(args[1:], logger)
	case "suites":
		return runSuites(args[1:], logger)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		printUsage(os.Stderr)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `usage: minilang [--trace] <command> [arguments]

commands:
  check [--emit] <file>      type check a program document
  infer <file>               infer types for every binding
  analyze [file|program]     run both passes (defaults to the manifest's first program)
  test [suite...]            run documents and compare their expect blocks
  suites fetch [suite...]    fetch git suites and update `+driver.LockFileName+`
  --version                  print the tool version

environment:
  MINILANG_HOME              cache root for fetched suites (default ~/.minilang)
  MINILANG_TRACE=1           same as --trace
`)
}

func extractTraceFlag(args []string) ([]string, bool) {
	trace := envEnabled(os.Getenv("MINILANG_TRACE"))
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == "--trace" {
			trace = true
			continue
		}
		out = append(out, arg)
	}
	return out, trace
}

func envEnabled(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func newLogger(w io.Writer, trace bool) *slog.Logger {
	if !trace {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func runCheck(args []string) int {
	emit := false
	var paths []string
	for _, arg := range args {
		switch {
		case arg == "--emit":
			emit = true
		case strings.HasPrefix(arg, "-"):
			fmt.Fprintf(os.Stderr, "check: unknown flag %s\n", arg)
			return 1
		default:
			paths = append(paths, arg)
		}
	}
	if len(paths) != 1 {
		fmt.Fprintln(os.Stderr, "check requires exactly one program document")
		return 1
	}
	doc, err := driver.LoadProgramDocument(paths[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if err := typechecker.New().CheckProgram(doc.Program); err != nil {
		fmt.Fprintln(os.Stderr, driver.DescribeDiagnostic(driver.NewDiagnostic(driver.PhaseCheck, paths[0], err)))
		return 1
	}
	if emit {
		data, err := driver.EncodeProgramDocument(doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		os.Stdout.Write(data)
		return 0
	}
	fmt.Fprintln(os.Stdout, "Type checking passed!")
	return 0
}

func runInfer(args []string, logger *slog.Logger) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "infer requires exactly one program document")
		return 1
	}
	doc, err := driver.LoadProgramDocument(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	inferencer := inference.New(inference.WithLogger(logger))
	inferred, err := inferencer.InferProgram(doc.Program)
	if err != nil {
		fmt.Fprintln(os.Stderr, driver.DescribeDiagnostic(driver.NewDiagnostic(driver.PhaseInfer, args[0], err)))
		return 1
	}
	for _, name := range inferencer.Introduced() {
		fmt.Fprintf(os.Stderr, "warning: inference: %s: '%s' was used before any binding\n", args[0], name)
	}
	for _, name := range inferencer.Names() {
		fmt.Fprintf(os.Stdout, "%s: %s\n", name, inferred[name].Name())
	}
	return 0
}

func runAnalyze(args []string, logger *slog.Logger) int {
	if len(args) > 1 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(args[1:], " "))
		return 1
	}
	path, err := resolveAnalyzeTarget(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	doc, err := driver.LoadProgramDocument(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	report := driver.Analyze(doc.Program, inference.WithLogger(logger))
	for _, line := range report.Lines() {
		fmt.Fprintln(os.Stdout, line)
	}
	if !report.Passed() {
		return 1
	}
	return 0
}

func resolveAnalyzeTarget(args []string) (string, error) {
	if len(args) == 1 && looksLikePathCandidate(args[0]) {
		return args[0], nil
	}
	manifest, err := loadManifestFrom(".")
	if err != nil {
		if len(args) == 0 {
			return "", fmt.Errorf("analyze requires a program document or a manifest program: %w", err)
		}
		return "", err
	}
	if len(args) == 0 {
		_, path, ok := manifest.DefaultProgram()
		if !ok {
			return "", fmt.Errorf("manifest %s declares no programs", manifest.Path)
		}
		return path, nil
	}
	path, ok := manifest.FindProgram(args[0])
	if !ok {
		return "", fmt.Errorf("program %q is not declared in %s", args[0], manifest.Path)
	}
	return path, nil
}
