package driver

import (
	"errors"
	"strings"
	"testing"

	"minilang/analyzer-go/pkg/ast"
	"minilang/analyzer-go/pkg/types"
)

func demoProgram() *ast.Program {
	addType := types.Func([]types.Type{types.Int, types.Int}, types.Int)
	return ast.Prog(
		ast.LetTyped("x", types.Int, ast.Int(5)),
		ast.LetTyped("y", types.Int, ast.Int(10)),
		ast.LetTyped("add", addType, ast.Lam([]string{"a", "b"}, ast.Bin("+", ast.ID("a"), ast.ID("b")))),
		ast.Let("result", ast.CallName("add", ast.ID("x"), ast.ID("y"))),
		ast.Let("is_positive", ast.Lam([]string{"n"}, ast.Bin(">", ast.ID("n"), ast.Int(0)))),
		ast.Let("check", ast.CallName("is_positive", ast.ID("result"))),
	)
}

func TestAnalyzeDemoProgram(t *testing.T) {
	report := Analyze(demoProgram())
	if !report.Passed() {
		t.Fatalf("expected both passes to succeed, got check=%v infer=%v", report.CheckErr, report.InferErr)
	}
	want := []string{
		"Type checking passed!",
		"",
		"Inferred types:",
		"x: Int",
		"y: Int",
		"add: (Int, Int) -> Int",
		"result: Int",
		"is_positive: (Int) -> Bool",
		"check: Bool",
	}
	got := report.Lines()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected report:\n%s", strings.Join(got, "\n"))
	}
}

func TestAnalyzeReportsBothFailures(t *testing.T) {
	report := Analyze(ast.Prog(
		ast.LetTyped("y", types.Bool, ast.Int(5)),
	))
	if report.Passed() {
		t.Fatalf("expected failures")
	}
	lines := report.Lines()
	if !strings.HasPrefix(lines[0], "Type checking failed: type mismatch in declaration of 'y'") {
		t.Fatalf("unexpected check line %q", lines[0])
	}
	if last := lines[len(lines)-1]; !strings.HasPrefix(last, "Type inference failed: declaration of 'y'") {
		t.Fatalf("unexpected inference line %q", last)
	}
}

func TestAnalyzeInfersPastCheckerFailure(t *testing.T) {
	report := Analyze(ast.Prog(ast.Bin("+", ast.ID("unknown_var"), ast.Int(1))))
	if !types.IsKind(report.CheckErr, types.UndefinedVariable) {
		t.Fatalf("expected UndefinedVariable from the checker, got %v", report.CheckErr)
	}
	if report.InferErr != nil {
		t.Fatalf("expected inference to succeed, got %v", report.InferErr)
	}
	if types.FormatType(report.Inferred["unknown_var"]) != "Int" {
		t.Fatalf("expected unknown_var: Int, got %s", types.FormatType(report.Inferred["unknown_var"]))
	}
	if len(report.Introduced) != 1 || report.Introduced[0] != "unknown_var" {
		t.Fatalf("expected unknown_var to be introduced, got %v", report.Introduced)
	}
}

func TestCompareExpectationsMatches(t *testing.T) {
	for _, src := range []string{addProgramYAML, arityProgramYAML} {
		doc, err := DecodeProgramDocument([]byte(src))
		if err != nil {
			t.Fatalf("DecodeProgramDocument: %v", err)
		}
		if mismatches := CompareExpectations(doc, Analyze(doc.Program)); len(mismatches) != 0 {
			t.Fatalf("unexpected mismatches: %v", mismatches)
		}
	}
}

func TestCompareExpectationsReportsMismatches(t *testing.T) {
	doc := &ProgramDocument{
		Program: ast.Prog(ast.Let("flag", ast.Bool(true))),
		Expect: &Expectation{
			Check: "NotCallable",
			Infer: map[string]string{"flag": "Int", "missing": "Bool"},
		},
	}
	mismatches := CompareExpectations(doc, Analyze(doc.Program))
	if len(mismatches) != 3 {
		t.Fatalf("expected 3 mismatches, got %v", mismatches)
	}
	if mismatches[0] != "check: expected NotCallable, got ok" {
		t.Fatalf("unexpected check mismatch %q", mismatches[0])
	}
	if mismatches[1] != "infer.flag: expected Int, got Bool" {
		t.Fatalf("unexpected infer mismatch %q", mismatches[1])
	}
	if mismatches[2] != "infer.missing: no binding inferred" {
		t.Fatalf("unexpected infer mismatch %q", mismatches[2])
	}
}

func TestCompareExpectationsRenamesVariables(t *testing.T) {
	doc := &ProgramDocument{
		Program: ast.Prog(ast.Let("id", ast.Lam([]string{"v"}, ast.ID("v")))),
		Expect:  &Expectation{Infer: map[string]string{"id": "(?t7) -> ?t7"}},
	}
	if mismatches := CompareExpectations(doc, Analyze(doc.Program)); len(mismatches) != 0 {
		t.Fatalf("expected identity shape to match, got %v", mismatches)
	}
	doc.Expect.Infer["id"] = "(?t0) -> ?t1"
	if mismatches := CompareExpectations(doc, Analyze(doc.Program)); len(mismatches) != 1 {
		t.Fatalf("expected distinct variables not to match, got %v", mismatches)
	}
}

func TestDescribeDiagnostic(t *testing.T) {
	err := types.Errorf(types.ArityMismatch, "typechecker: wrong number of arguments: expected 2, got 1")
	diag := NewDiagnostic(PhaseCheck, "add.yml", err)
	if got := DescribeDiagnostic(diag); got != "typechecker: add.yml: wrong number of arguments: expected 2, got 1 [ArityMismatch]" {
		t.Fatalf("unexpected description %q", got)
	}
	plain := NewDiagnostic(PhaseInfer, "", errors.New("inference: boom"))
	if got := DescribeDiagnostic(plain); got != "inference: boom" {
		t.Fatalf("unexpected description %q", got)
	}
}
