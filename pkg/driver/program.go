package driver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"minilang/analyzer-go/pkg/ast"
	"minilang/analyzer-go/pkg/types"
)

// ProgramDocument is a program stored as YAML (or JSON) together with the
// outcome its author expects from analysis.
type ProgramDocument struct {
	Path    string
	Program *ast.Program
	Expect  *Expectation
}

// Expectation records the expected analysis outcome. Check is "ok" or an
// error kind. Infer maps names to rendered types; InferError names the kind
// the inferencer should fail with.
type Expectation struct {
	Check      string            `yaml:"check,omitempty"`
	Infer      map[string]string `yaml:"infer,omitempty"`
	InferError string            `yaml:"inferError,omitempty"`
}

const expectOK = "ok"

type programFile struct {
	Statements []map[string]any `yaml:"statements"`
	Expect     *Expectation     `yaml:"expect,omitempty"`
}

// LoadProgramDocument reads and decodes a program document from disk.
func LoadProgramDocument(path string) (*ProgramDocument, error) {
	if path == "" {
		return nil, fmt.Errorf("program: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("program: resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("program: read %s: %w", abs, err)
	}
	doc, err := DecodeProgramDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}
	doc.Path = abs
	return doc, nil
}

// DecodeProgramDocument decodes a program document. JSON input is accepted
// since it is valid YAML.
func DecodeProgramDocument(data []byte) (*ProgramDocument, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var raw programFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("program: document is empty")
		}
		return nil, fmt.Errorf("program: parse: %w", err)
	}
	statements := make([]ast.Statement, 0, len(raw.Statements))
	for i, entry := range raw.Statements {
		node, err := decodeNode(entry)
		if err != nil {
			return nil, fmt.Errorf("program: statements[%d]: %w", i, err)
		}
		stmt, ok := node.(ast.Statement)
		if !ok {
			return nil, fmt.Errorf("program: statements[%d]: %T is not a statement", i, node)
		}
		statements = append(statements, stmt)
	}
	doc := &ProgramDocument{Program: ast.NewProgram(statements)}
	if raw.Expect != nil {
		if err := raw.Expect.validate(); err != nil {
			return nil, err
		}
		doc.Expect = raw.Expect
	}
	return doc, nil
}

func (e *Expectation) validate() error {
	var errs ValidationError
	errs.Subject = "expect"
	if check := strings.TrimSpace(e.Check); check != "" && check != expectOK && !types.ErrorKind(check).IsValid() {
		errs.Issues = append(errs.Issues, fmt.Sprintf("check: unknown outcome %q", check))
	}
	if kind := strings.TrimSpace(e.InferError); kind != "" && !types.ErrorKind(kind).IsValid() {
		errs.Issues = append(errs.Issues, fmt.Sprintf("inferError: unknown error kind %q", kind))
	}
	if e.InferError != "" && len(e.Infer) > 0 {
		errs.Issues = append(errs.Issues, "infer and inferError are mutually exclusive")
	}
	for name, rendered := range e.Infer {
		if _, err := types.ParseType(rendered); err != nil {
			errs.Issues = append(errs.Issues, fmt.Sprintf("infer.%s: %v", name, err))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

type nodeCategoryDecoder func(map[string]any, string) (ast.Node, bool, error)

var nodeDecoders []nodeCategoryDecoder

func init() {
	nodeDecoders = []nodeCategoryDecoder{
		decodeLiteralNodes,
		decodeExpressionNodes,
		decodeStatementNodes,
	}
}

func decodeNode(node map[string]any) (ast.Node, error) {
	if node == nil {
		return nil, fmt.Errorf("missing node")
	}
	typ, _ := node["type"].(string)
	for _, decoder := range nodeDecoders {
		decoded, handled, err := decoder(node, typ)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", typ, err)
		}
		if handled {
			return decoded, nil
		}
	}
	if typ == "" {
		return nil, fmt.Errorf("node without type: %w", fs.ErrInvalid)
	}
	return nil, fmt.Errorf("unknown node type %q: %w", typ, fs.ErrInvalid)
}

func decodeExpression(raw any, field string) (ast.Expression, error) {
	child, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a node, got %T", field, raw)
	}
	node, err := decodeNode(child)
	if err != nil {
		return nil, err
	}
	expr, ok := node.(ast.Expression)
	if !ok {
		return nil, fmt.Errorf("%s: %T is not an expression", field, node)
	}
	return expr, nil
}

func decodeLiteralNodes(node map[string]any, typ string) (ast.Node, bool, error) {
	switch typ {
	case string(ast.NodeIntegerLiteral):
		value, err := parseInteger(node["value"])
		if err != nil {
			return nil, true, err
		}
		return ast.NewIntegerLiteral(value), true, nil
	case string(ast.NodeBooleanLiteral):
		value, ok := node["value"].(bool)
		if !ok {
			return nil, true, fmt.Errorf("value must be a boolean, got %T", node["value"])
		}
		return ast.NewBooleanLiteral(value), true, nil
	default:
		return nil, false, nil
	}
}

func decodeExpressionNodes(node map[string]any, typ string) (ast.Node, bool, error) {
	switch typ {
	case string(ast.NodeVariable):
		name, _ := node["name"].(string)
		if name == "" {
			return nil, true, fmt.Errorf("variable name must be a non-empty string")
		}
		return ast.NewVariable(name), true, nil
	case string(ast.NodeBinaryExpression):
		operator, _ := node["operator"].(string)
		if operator == "" {
			return nil, true, fmt.Errorf("operator must be a non-empty string")
		}
		left, err := decodeExpression(node["left"], "left")
		if err != nil {
			return nil, true, err
		}
		right, err := decodeExpression(node["right"], "right")
		if err != nil {
			return nil, true, err
		}
		return ast.NewBinaryExpression(ast.Operator(operator), left, right), true, nil
	case string(ast.NodeFunctionCall):
		rawCallee, ok := node["callee"]
		if !ok {
			rawCallee = node["function"]
		}
		callee, err := decodeExpression(rawCallee, "callee")
		if err != nil {
			return nil, true, err
		}
		rawArgs, _ := node["arguments"].([]any)
		args := make([]ast.Expression, 0, len(rawArgs))
		for i, raw := range rawArgs {
			arg, err := decodeExpression(raw, fmt.Sprintf("arguments[%d]", i))
			if err != nil {
				return nil, true, err
			}
			args = append(args, arg)
		}
		return ast.NewFunctionCall(callee, args), true, nil
	case string(ast.NodeLambdaExpression):
		rawParams, _ := node["parameters"].([]any)
		params := make([]string, 0, len(rawParams))
		for i, raw := range rawParams {
			name, ok := raw.(string)
			if !ok || name == "" {
				return nil, true, fmt.Errorf("parameters[%d] must be a non-empty string", i)
			}
			params = append(params, name)
		}
		body, err := decodeExpression(node["body"], "body")
		if err != nil {
			return nil, true, err
		}
		return ast.NewLambdaExpression(params, body), true, nil
	default:
		return nil, false, nil
	}
}

func decodeStatementNodes(node map[string]any, typ string) (ast.Node, bool, error) {
	if typ != string(ast.NodeDeclaration) {
		return nil, false, nil
	}
	name, _ := node["name"].(string)
	if name == "" {
		return nil, true, fmt.Errorf("declaration name must be a non-empty string")
	}
	var annotation types.Type
	if raw, ok := node["annotation"]; ok && raw != nil {
		src, ok := raw.(string)
		if !ok {
			return nil, true, fmt.Errorf("annotation of %q must be a string, got %T", name, raw)
		}
		parsed, err := types.ParseType(src)
		if err != nil {
			return nil, true, fmt.Errorf("annotation of %q: %w", name, err)
		}
		annotation = parsed
	}
	value, err := decodeExpression(node["value"], "value")
	if err != nil {
		return nil, true, err
	}
	return ast.NewDeclaration(name, annotation, value), true, nil
}

func parseInteger(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		if v > 1<<63-1 {
			return 0, fmt.Errorf("integer %d out of range", v)
		}
		return int64(v), nil
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("integer literal %v is not whole", v)
		}
		return int64(v), nil
	default:
		return 0, fmt.Errorf("value must be an integer, got %T", value)
	}
}

// EncodeProgram renders a program as a YAML document. Annotations are
// written in their canonical form, including any placeholders the checker
// filled in.
func EncodeProgram(program *ast.Program) ([]byte, error) {
	return EncodeProgramDocument(&ProgramDocument{Program: program})
}

// EncodeProgramDocument renders a document, keeping its expect block.
func EncodeProgramDocument(doc *ProgramDocument) ([]byte, error) {
	if doc == nil || doc.Program == nil {
		return nil, fmt.Errorf("program: nil program")
	}
	statements := make([]map[string]any, 0, len(doc.Program.Statements))
	for i, stmt := range doc.Program.Statements {
		encoded, err := encodeNode(stmt)
		if err != nil {
			return nil, fmt.Errorf("program: statements[%d]: %w", i, err)
		}
		statements = append(statements, encoded)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(programFile{Statements: statements, Expect: doc.Expect}); err != nil {
		return nil, fmt.Errorf("program: marshal: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("program: encoder close: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeNode(node ast.Node) (map[string]any, error) {
	switch n := node.(type) {
	case *ast.IntegerLiteral:
		if n != nil {
			return map[string]any{"type": string(n.NodeType()), "value": n.Value}, nil
		}
	case *ast.BooleanLiteral:
		if n != nil {
			return map[string]any{"type": string(n.NodeType()), "value": n.Value}, nil
		}
	case *ast.Variable:
		if n != nil {
			return map[string]any{"type": string(n.NodeType()), "name": n.Name}, nil
		}
	case *ast.BinaryExpression:
		if n == nil {
			break
		}
		left, err := encodeNode(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := encodeNode(n.Right)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"type":     string(n.NodeType()),
			"operator": string(n.Operator),
			"left":     left,
			"right":    right,
		}, nil
	case *ast.FunctionCall:
		if n == nil {
			break
		}
		callee, err := encodeNode(n.Callee)
		if err != nil {
			return nil, err
		}
		args := make([]map[string]any, 0, len(n.Arguments))
		for _, arg := range n.Arguments {
			encoded, err := encodeNode(arg)
			if err != nil {
				return nil, err
			}
			args = append(args, encoded)
		}
		return map[string]any{"type": string(n.NodeType()), "callee": callee, "arguments": args}, nil
	case *ast.LambdaExpression:
		if n == nil {
			break
		}
		body, err := encodeNode(n.Body)
		if err != nil {
			return nil, err
		}
		params := append([]string{}, n.Parameters...)
		return map[string]any{"type": string(n.NodeType()), "parameters": params, "body": body}, nil
	case *ast.Declaration:
		if n == nil {
			break
		}
		value, err := encodeNode(n.Value)
		if err != nil {
			return nil, err
		}
		out := map[string]any{"type": string(n.NodeType()), "name": n.Name, "value": value}
		if n.TypeAnnotation != nil {
			out["annotation"] = n.TypeAnnotation.Name()
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot encode node %T", node)
}
