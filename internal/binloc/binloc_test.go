package binloc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocateExplicitPath(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "my-agent")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}

	got, err := Locate(Options{ExplicitPath: bin})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != bin {
		t.Fatalf("expected explicit path returned verbatim, got %q", got)
	}
}

func TestLocateExplicitPathRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	if _, err := Locate(Options{ExplicitPath: dir, CacheDir: t.TempDir()}); err == nil {
		t.Fatalf("expected a directory to be rejected as an explicit path")
	}
}

func TestLocateEnvOverride(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "env-agent")
	if err := os.WriteFile(bin, []byte("x"), 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Setenv(envOverride, bin)

	got, err := Locate(Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != bin {
		t.Fatalf("expected env override path, got %q", got)
	}
}

func TestLocateFindsBinaryInCacheDir(t *testing.T) {
	resetLocateCache()
	cacheDir := t.TempDir()
	bin := filepath.Join(cacheDir, binaryName)
	if err := os.WriteFile(bin, []byte("x"), 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}

	got, err := Locate(Options{CacheDir: cacheDir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != bin {
		t.Fatalf("expected cache dir binary found, got %q", got)
	}
}

func TestLocateFailsWithSearchedPathsListed(t *testing.T) {
	resetLocateCache()
	cacheDir := t.TempDir()
	_, err := Locate(Options{CacheDir: cacheDir})
	if err == nil {
		t.Fatalf("expected an error when nothing is found and auto-download is disabled")
	}
	if want := filepath.Join(cacheDir, binaryName); !strings.Contains(err.Error(), want) {
		t.Fatalf("expected the searched cache path %q listed in the error, got %q", want, err.Error())
	}
}

func TestLocateCachesResultAcrossCalls(t *testing.T) {
	resetLocateCache()
	first := t.TempDir()
	bin := filepath.Join(first, binaryName)
	if err := os.WriteFile(bin, []byte("x"), 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}

	got, err := Locate(Options{CacheDir: first})
	if err != nil || got != bin {
		t.Fatalf("unexpected first Locate result: %q, %v", got, err)
	}

	// A second call with a different, populated CacheDir must still return
	// the cached first result, since the no-override search is memoized.
	second := t.TempDir()
	if err := os.WriteFile(filepath.Join(second, binaryName), []byte("y"), 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	got, err = Locate(Options{CacheDir: second})
	if err != nil || got != bin {
		t.Fatalf("expected cached result %q reused, got %q, %v", bin, got, err)
	}
}

func TestResolveCacheDirPrefersOverride(t *testing.T) {
	got, err := resolveCacheDir("/custom/dir")
	if err != nil || got != "/custom/dir" {
		t.Fatalf("expected override respected verbatim, got %q err=%v", got, err)
	}
}
