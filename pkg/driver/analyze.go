package driver

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"minilang/analyzer-go/pkg/ast"
	"minilang/analyzer-go/pkg/inference"
	"minilang/analyzer-go/pkg/typechecker"
	"minilang/analyzer-go/pkg/types"
)

// Report holds the outcome of both passes over one program.
type Report struct {
	CheckErr   error
	InferErr   error
	Inferred   map[string]types.Type
	Order      []string
	Introduced []string
}

// Analyze runs the checker and then the inferencer over the same program.
// The inferencer runs even when checking fails; annotations the checker
// filled in reach it as constraints.
func Analyze(program *ast.Program, opts ...inference.Option) *Report {
	report := &Report{}
	checker := typechecker.New()
	report.CheckErr = checker.CheckProgram(program)

	inferencer := inference.New(opts...)
	inferred, err := inferencer.InferProgram(program)
	if err != nil {
		report.InferErr = err
		return report
	}
	report.Inferred = inferred
	report.Order = inferencer.Names()
	report.Introduced = inferencer.Introduced()
	return report
}

// Passed reports whether both passes succeeded.
func (r *Report) Passed() bool {
	return r != nil && r.CheckErr == nil && r.InferErr == nil
}

// Lines renders the report the way the CLI prints it.
func (r *Report) Lines() []string {
	var lines []string
	if r.CheckErr == nil {
		lines = append(lines, "Type checking passed!")
	} else {
		lines = append(lines, "Type checking failed: "+stripPhasePrefix(r.CheckErr.Error()))
	}
	lines = append(lines, "")
	if r.InferErr != nil {
		return append(lines, "Type inference failed: "+stripPhasePrefix(r.InferErr.Error()))
	}
	lines = append(lines, "Inferred types:")
	return append(lines, lo.Map(r.Order, func(name string, _ int) string {
		return name + ": " + types.FormatType(r.Inferred[name])
	})...)
}

// CompareExpectations lists every way the report differs from the
// document's expect block. A document without expectations always matches.
func CompareExpectations(doc *ProgramDocument, report *Report) []string {
	if doc == nil || doc.Expect == nil || report == nil {
		return nil
	}
	expect := doc.Expect
	var mismatches []string
	if expect.Check != "" {
		if msg := compareOutcome("check", expect.Check, report.CheckErr); msg != "" {
			mismatches = append(mismatches, msg)
		}
	}
	if expect.InferError != "" {
		if msg := compareOutcome("infer", expect.InferError, report.InferErr); msg != "" {
			mismatches = append(mismatches, msg)
		}
	}
	if len(expect.Infer) == 0 {
		return mismatches
	}
	if report.InferErr != nil {
		return append(mismatches, fmt.Sprintf("infer: expected success, got %s", describeOutcome(report.InferErr)))
	}
	names := lo.Keys(expect.Infer)
	sort.Strings(names)
	for _, name := range names {
		want, err := types.ParseType(expect.Infer[name])
		if err != nil {
			mismatches = append(mismatches, fmt.Sprintf("infer.%s: %v", name, err))
			continue
		}
		got, ok := report.Inferred[name]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("infer.%s: no binding inferred", name))
			continue
		}
		if !sameShape(want, got, make(map[int]int), make(map[int]int)) {
			mismatches = append(mismatches, fmt.Sprintf("infer.%s: expected %s, got %s", name, want.Name(), got.Name()))
		}
	}
	return mismatches
}

func compareOutcome(phase, want string, err error) string {
	if want == expectOK {
		if err != nil {
			return fmt.Sprintf("%s: expected ok, got %s", phase, describeOutcome(err))
		}
		return ""
	}
	if err == nil {
		return fmt.Sprintf("%s: expected %s, got ok", phase, want)
	}
	if kind, _ := types.KindOf(err); string(kind) != want {
		return fmt.Sprintf("%s: expected %s, got %s", phase, want, describeOutcome(err))
	}
	return ""
}

func describeOutcome(err error) string {
	kind, ok := types.KindOf(err)
	if !ok {
		return stripPhasePrefix(err.Error())
	}
	return fmt.Sprintf("%s (%s)", kind, stripPhasePrefix(err.Error()))
}

// sameShape compares types up to a consistent renaming of variables, so an
// expected `(?t0) -> ?t0` matches any identity-shaped result.
func sameShape(want, got types.Type, forward, backward map[int]int) bool {
	switch w := want.(type) {
	case types.TypeVar:
		g, ok := got.(types.TypeVar)
		if !ok {
			return false
		}
		if mapped, seen := forward[w.ID]; seen {
			return mapped == g.ID
		}
		if _, taken := backward[g.ID]; taken {
			return false
		}
		forward[w.ID] = g.ID
		backward[g.ID] = w.ID
		return true
	case types.FunctionType:
		g, ok := got.(types.FunctionType)
		if !ok || len(w.Params) != len(g.Params) {
			return false
		}
		for i := range w.Params {
			if !sameShape(w.Params[i], g.Params[i], forward, backward) {
				return false
			}
		}
		return sameShape(w.Return, g.Return, forward, backward)
	default:
		return types.Equal(want, got)
	}
}
