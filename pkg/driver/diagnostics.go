package driver

import (
	"fmt"
	"strings"

	"minilang/analyzer-go/pkg/types"
)

// Phase names the analysis pass that produced a diagnostic.
type Phase string

const (
	PhaseCheck Phase = "typechecker"
	PhaseInfer Phase = "inference"
)

// Diagnostic is an analysis failure prepared for CLI output.
type Diagnostic struct {
	Phase   Phase
	Kind    types.ErrorKind
	Message string
	Path    string
}

// NewDiagnostic classifies err. Errors that carry no kind keep an empty Kind.
func NewDiagnostic(phase Phase, path string, err error) Diagnostic {
	diag := Diagnostic{Phase: phase, Path: path}
	if err == nil {
		return diag
	}
	if kind, ok := types.KindOf(err); ok {
		diag.Kind = kind
	}
	diag.Message = stripPhasePrefix(err.Error())
	return diag
}

// DescribeDiagnostic formats a diagnostic for CLI output.
func DescribeDiagnostic(diag Diagnostic) string {
	message := strings.TrimSpace(diag.Message)
	prefix := string(diag.Phase) + ": "
	if diag.Path != "" {
		prefix += diag.Path + ": "
	}
	if diag.Kind != "" {
		return fmt.Sprintf("%s%s [%s]", prefix, message, diag.Kind)
	}
	return prefix + message
}

func stripPhasePrefix(message string) string {
	message = strings.TrimSpace(message)
	for _, phase := range []Phase{PhaseCheck, PhaseInfer} {
		prefix := string(phase) + ":"
		if strings.HasPrefix(message, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(message, prefix))
		}
	}
	return message
}
