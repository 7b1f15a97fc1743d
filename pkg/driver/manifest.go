package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFileName is the file name searched for by the CLI.
const ManifestFileName = "analysis.yml"

// Manifest represents the parsed contents of analysis.yml.
type Manifest struct {
	Path         string
	Name         string
	Programs     map[string]string
	ProgramOrder []string
	Suites       map[string]*SuiteSpec
}

// SuiteSpec describes where a suite of program documents lives. Exactly one
// of Path or Git is set; git suites also pin Rev, Tag or Branch.
type SuiteSpec struct {
	Path   string `yaml:"path"`
	Git    string `yaml:"git"`
	Rev    string `yaml:"rev"`
	Tag    string `yaml:"tag"`
	Branch string `yaml:"branch"`
	Dir    string `yaml:"dir"`
}

// ValidationError aggregates validation failures.
type ValidationError struct {
	Subject string
	Issues  []string
}

func (e *ValidationError) Error() string {
	subject := e.Subject
	if subject == "" {
		subject = "manifest"
	}
	if len(e.Issues) == 0 {
		return subject + ": invalid configuration"
	}
	var b strings.Builder
	b.WriteString(subject)
	b.WriteString(" validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadManifest parses analysis.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest := raw.toManifest(absPath)
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	for _, name := range m.ProgramOrder {
		if m.Programs[name] == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("programs.%s: path must be provided", name))
		}
	}
	for _, name := range m.SuiteNames() {
		for _, issue := range m.Suites[name].validate() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("suites.%s: %s", name, issue))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (s *SuiteSpec) validate() []string {
	if s == nil {
		return []string{"missing descriptor"}
	}
	var errs []string
	switch {
	case s.Path != "" && s.Git != "":
		errs = append(errs, "path and git are mutually exclusive")
	case s.Path == "" && s.Git == "":
		errs = append(errs, "must specify path or git")
	}
	pins := 0
	for _, pin := range []string{s.Rev, s.Tag, s.Branch} {
		if pin != "" {
			pins++
		}
	}
	if s.Git != "" && pins == 0 {
		errs = append(errs, "git suites require rev, tag, or branch")
	}
	if pins > 1 {
		errs = append(errs, "rev, tag, and branch are mutually exclusive")
	}
	if s.Git == "" && pins > 0 {
		errs = append(errs, "rev, tag, and branch apply only to git suites")
	}
	if filepath.IsAbs(s.Dir) {
		errs = append(errs, "dir must be relative")
	}
	return errs
}

// SuiteNames returns suite names in sorted order.
func (m *Manifest) SuiteNames() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.Suites))
	for name := range m.Suites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindProgram resolves a program entry to an absolute document path.
func (m *Manifest) FindProgram(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	rel, ok := m.Programs[sanitizeSegment(name)]
	if !ok {
		return "", false
	}
	return m.resolvePath(rel), true
}

// DefaultProgram returns the first program in manifest order.
func (m *Manifest) DefaultProgram() (string, string, bool) {
	if m == nil || len(m.ProgramOrder) == 0 {
		return "", "", false
	}
	name := m.ProgramOrder[0]
	return name, m.resolvePath(m.Programs[name]), true
}

func (m *Manifest) resolvePath(rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(filepath.Dir(m.Path), filepath.FromSlash(rel))
}

type manifestFile struct {
	Name     string                `yaml:"name"`
	Programs programMap            `yaml:"programs"`
	Suites   map[string]*SuiteSpec `yaml:"suites"`
}

// programMap keeps manifest order, which decides the default program.
type programMap struct {
	items []programMapEntry
}

type programMapEntry struct {
	name string
	path string
}

func (pm *programMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == 0 || (value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
		pm.items = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest: programs must be a mapping")
	}
	items := make([]programMapEntry, 0, len(value.Content)/2)
	for i := 0; i < len(value.Content); i += 2 {
		var key, path string
		if err := value.Content[i].Decode(&key); err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("manifest: programs must not use empty keys")
		}
		if err := value.Content[i+1].Decode(&path); err != nil {
			return fmt.Errorf("manifest: program %q: %w", key, err)
		}
		items = append(items, programMapEntry{name: key, path: path})
	}
	pm.items = items
	return nil
}

func (mf manifestFile) toManifest(path string) *Manifest {
	result := &Manifest{
		Path:         path,
		Name:         sanitizeSegment(mf.Name),
		Programs:     make(map[string]string, len(mf.Programs.items)),
		ProgramOrder: make([]string, 0, len(mf.Programs.items)),
		Suites:       make(map[string]*SuiteSpec, len(mf.Suites)),
	}
	for _, item := range mf.Programs.items {
		name := sanitizeSegment(item.name)
		if _, exists := result.Programs[name]; !exists {
			result.ProgramOrder = append(result.ProgramOrder, name)
		}
		result.Programs[name] = strings.TrimSpace(item.path)
	}
	for name, spec := range mf.Suites {
		if spec == nil {
			result.Suites[sanitizeSegment(name)] = nil
			continue
		}
		copy := *spec
		copy.Path = strings.TrimSpace(copy.Path)
		copy.Git = strings.TrimSpace(copy.Git)
		copy.Rev = strings.TrimSpace(copy.Rev)
		copy.Tag = strings.TrimSpace(copy.Tag)
		copy.Branch = strings.TrimSpace(copy.Branch)
		copy.Dir = strings.TrimSpace(copy.Dir)
		result.Suites[sanitizeSegment(name)] = &copy
	}
	return result
}

func sanitizeSegment(seg string) string {
	seg = strings.TrimSpace(seg)
	seg = strings.ReplaceAll(seg, "-", "_")
	return seg
}
