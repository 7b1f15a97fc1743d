package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"minilang/analyzer-go/pkg/driver"
)

func runSuites(args []string, logger *slog.Logger) int {
	if len(args) == 0 || args[0] != "fetch" {
		fmt.Fprintln(os.Stderr, "usage: minilang suites fetch [suite...]")
		return 1
	}
	manifest, err := loadManifestFrom(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load manifest: %v\n", err)
		return 1
	}
	names := args[1:]
	if len(names) == 0 {
		names = manifest.SuiteNames()
	}
	cacheDir, err := resolveMinilangHome()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	lockPath := lockfilePath(manifest)
	lock, err := driver.LoadLockfile(lockPath)
	changed := false
	switch {
	case errors.Is(err, os.ErrNotExist):
		lock = driver.NewLockfile(manifest.Name, cliToolVersion)
		changed = true
	case err != nil:
		fmt.Fprintf(os.Stderr, "failed to read lockfile %s: %v\n", lockPath, err)
		return 1
	}

	fetcher := driver.NewSuiteFetcher(cacheDir, logger)
	for _, name := range names {
		fetched, err := fetcher.Fetch(manifest, name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		if fetched.Lock == nil {
			fmt.Fprintf(os.Stdout, "using %s (%s)\n", fetched.Name, fetched.Dir)
			continue
		}
		if lock.Upsert(fetched.Lock) {
			changed = true
		}
		fmt.Fprintf(os.Stdout, "fetched %s %s\n", fetched.Name, fetched.Lock.Version)
	}

	if changed {
		lock.Root = manifest.Name
		lock.Tool = cliToolVersion
		lock.Generated = ""
		if err := driver.WriteLockfile(lock, lockPath); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stdout, "wrote %s\n", filepath.Base(lockPath))
	}
	return 0
}
