package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// SuiteFetcher materialises suites declared in the manifest. Git suites are
// cloned under <cache>/suites/<name>/<version>.
type SuiteFetcher struct {
	cacheDir string
	logger   *slog.Logger
}

// NewSuiteFetcher returns a fetcher rooted at cacheDir.
func NewSuiteFetcher(cacheDir string, logger *slog.Logger) *SuiteFetcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SuiteFetcher{cacheDir: cacheDir, logger: logger.With("section", "suites")}
}

// FetchedSuite is a suite available on disk.
type FetchedSuite struct {
	Name string
	Dir  string
	Lock *LockedSuite
}

// Fetch resolves one suite. Path suites are used in place and produce no
// lock entry.
func (f *SuiteFetcher) Fetch(manifest *Manifest, name string) (*FetchedSuite, error) {
	if manifest == nil {
		return nil, errors.New("suites: missing manifest")
	}
	name = sanitizeSegment(name)
	spec, ok := manifest.Suites[name]
	if !ok || spec == nil {
		return nil, fmt.Errorf("suites: %q is not declared in %s", name, manifest.Path)
	}
	if spec.Path != "" {
		dir := filepath.Join(manifest.resolvePath(spec.Path), filepath.FromSlash(spec.Dir))
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return nil, fmt.Errorf("suites: %q: %s is not a directory", name, dir)
		}
		return &FetchedSuite{Name: name, Dir: dir}, nil
	}
	if f == nil || f.cacheDir == "" {
		return nil, errors.New("suites: git fetcher unavailable")
	}

	baseDir := filepath.Join(f.cacheDir, "suites", name)
	version, commit, err := f.ensureGitCheckout(baseDir, spec)
	if err != nil {
		return nil, fmt.Errorf("suites: %q: %w", name, err)
	}
	checkoutDir := filepath.Join(baseDir, sanitizePathSegment(version))
	checksum, err := dirChecksum(checkoutDir)
	if err != nil {
		return nil, fmt.Errorf("suites: %q: checksum: %w", name, err)
	}
	f.logger.Debug("suite ready", "name", name, "version", version, "commit", commit)
	return &FetchedSuite{
		Name: name,
		Dir:  filepath.Join(checkoutDir, filepath.FromSlash(spec.Dir)),
		Lock: &LockedSuite{
			Name:     name,
			Version:  version,
			Source:   "git+" + spec.Git,
			Commit:   commit,
			Checksum: checksum,
		},
	}, nil
}

// LockedDir returns the checkout directory recorded for a locked git suite,
// or the in-place directory for a path suite.
func (f *SuiteFetcher) LockedDir(manifest *Manifest, lock *Lockfile, name string) (string, error) {
	name = sanitizeSegment(name)
	spec, ok := manifest.Suites[name]
	if !ok || spec == nil {
		return "", fmt.Errorf("suites: %q is not declared", name)
	}
	if spec.Path != "" {
		return filepath.Join(manifest.resolvePath(spec.Path), filepath.FromSlash(spec.Dir)), nil
	}
	entry := lock.Find(name)
	if entry == nil {
		return "", fmt.Errorf("suites: %q is not locked; run `minilang suites fetch`", name)
	}
	dir := filepath.Join(f.cacheDir, "suites", name, sanitizePathSegment(entry.Version))
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("suites: %q: checkout %s missing; run `minilang suites fetch`", name, dir)
	}
	return filepath.Join(dir, filepath.FromSlash(spec.Dir)), nil
}

func (f *SuiteFetcher) ensureGitCheckout(baseDir string, spec *SuiteSpec) (string, string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", "", err
	}
	revisions, descriptor, err := gitRevisionsFromSpec(spec)
	if err != nil {
		return "", "", err
	}
	if spec.Rev != "" {
		existing := filepath.Join(baseDir, sanitizePathSegment(spec.Rev))
		if _, err := os.Stat(existing); err == nil {
			f.logger.Debug("reusing checkout", "dir", existing)
			return spec.Rev, spec.Rev, nil
		}
	}

	tmpDir, err := os.MkdirTemp(baseDir, "git-fetch-*")
	if err != nil {
		return "", "", err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", "", err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	f.logger.Debug("cloning suite", "url", spec.Git, "revision", descriptor)
	repo, err := git.PlainClone(tmpDir, false, &git.CloneOptions{URL: spec.Git})
	if err != nil {
		cleanup()
		return "", "", fmt.Errorf("git clone %s: %w", spec.Git, err)
	}

	var hash *plumbing.Hash
	for _, revision := range revisions {
		if hash, err = repo.ResolveRevision(revision); err == nil {
			break
		}
	}
	if err != nil {
		cleanup()
		return "", "", fmt.Errorf("resolve revision %s: %w", descriptor, err)
	}

	version := gitPinnedVersion(descriptor, hash.String())
	targetDir := filepath.Join(baseDir, sanitizePathSegment(version))
	if _, err := os.Stat(targetDir); err == nil {
		cleanup()
		return version, hash.String(), nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		cleanup()
		return "", "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		cleanup()
		return "", "", fmt.Errorf("git checkout %s: %w", descriptor, err)
	}
	if err := os.Rename(tmpDir, targetDir); err != nil {
		cleanup()
		return "", "", err
	}
	return version, hash.String(), nil
}

// gitRevisionsFromSpec lists candidate revisions in lookup order. Branches
// other than the remote HEAD exist only as remote-tracking refs after a
// clone.
func gitRevisionsFromSpec(spec *SuiteSpec) ([]plumbing.Revision, string, error) {
	if spec.Rev != "" {
		return []plumbing.Revision{plumbing.Revision(spec.Rev)}, spec.Rev, nil
	}
	if spec.Tag != "" {
		return []plumbing.Revision{plumbing.Revision("refs/tags/" + spec.Tag)}, spec.Tag, nil
	}
	if spec.Branch != "" {
		return []plumbing.Revision{
			plumbing.Revision("refs/remotes/origin/" + spec.Branch),
			plumbing.Revision("refs/heads/" + spec.Branch),
		}, spec.Branch, nil
	}
	return nil, "", fmt.Errorf("git suites require rev, tag, or branch")
}

func gitPinnedVersion(descriptor, commit string) string {
	if commit == "" {
		return descriptor
	}
	if descriptor == "" || descriptor == commit {
		return commit
	}
	return descriptor + "@" + commit
}

func dirChecksum(path string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// CollectSuiteDocuments lists the program documents under dir in path order.
func CollectSuiteDocuments(dir string) ([]string, error) {
	var docs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yml", ".yaml", ".json":
			if d.Name() == ManifestFileName || d.Name() == LockFileName {
				return nil
			}
			docs = append(docs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("suites: collect %s: %w", dir, err)
	}
	sort.Strings(docs)
	return docs, nil
}
