// Package binloc locates the agent CLI executable on the host, or fetches
// it into a managed cache directory when auto-download is enabled.
package binloc

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/agentrelay/agentrelay/pkg/errorx"
	"github.com/agentrelay/agentrelay/pkg/logger"
)

const (
	envOverride = "AGENTRELAY_AGENT_BINARY"
	binaryName  = "agent-cli"
	downloadURL = "https://example.invalid/agent-cli/releases/latest/download/"
)

// Options controls how Locate searches for and, if permitted, fetches the
// binary.
type Options struct {
	// ExplicitPath, if non-empty, is used verbatim without a filesystem
	// search (still validated for existence).
	ExplicitPath string
	// AutoDownload fetches the binary into CacheDir when no install is
	// found on the host.
	AutoDownload bool
	// CacheDir overrides the default managed cache directory.
	CacheDir string
}

var (
	locateOnce   sync.Once
	locateResult string
	locateErr    error
)

// Locate searches, in order: an explicit path or environment override, the
// platform package-manager global bin directories, platform-specific
// user-local install roots, and finally the managed cache directory. If
// nothing is found and opts.AutoDownload is set, it fetches the official
// artifact into the cache directory. Failure is terminal and lists every
// path searched.
//
// The outcome of the filesystem/download search is cached process-wide in a
// sync.Once the first time it runs with no explicit override, since the
// result cannot change within a process lifetime and the search walks the
// filesystem on every call. A caller-supplied ExplicitPath or
// AGENTRELAY_AGENT_BINARY always bypasses the cache.
func Locate(opts Options) (string, error) {
	if opts.ExplicitPath == "" && os.Getenv(envOverride) == "" {
		locateOnce.Do(func() {
			locateResult, locateErr = locate(opts)
		})
		return locateResult, locateErr
	}
	return locate(opts)
}

// resetLocateCache clears the memoized search result. Used by tests only;
// production callers never need to invalidate a process-wide cache.
func resetLocateCache() {
	locateOnce = sync.Once{}
	locateResult, locateErr = "", nil
}

func locate(opts Options) (string, error) {
	var searched []string

	if opts.ExplicitPath != "" {
		if fi, err := os.Stat(opts.ExplicitPath); err == nil && !fi.IsDir() {
			return opts.ExplicitPath, nil
		}
		searched = append(searched, opts.ExplicitPath)
	}

	if envPath := os.Getenv(envOverride); envPath != "" {
		if fi, err := os.Stat(envPath); err == nil && !fi.IsDir() {
			return envPath, nil
		}
		searched = append(searched, envPath)
	}

	for _, dir := range packageManagerDirs() {
		candidate := filepath.Join(dir, binaryName)
		searched = append(searched, candidate)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, nil
		}
	}

	for _, dir := range userLocalDirs() {
		candidate := filepath.Join(dir, binaryName)
		searched = append(searched, candidate)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, nil
		}
	}

	cacheDir, err := resolveCacheDir(opts.CacheDir)
	if err == nil {
		candidate := filepath.Join(cacheDir, binaryName)
		searched = append(searched, candidate)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, nil
		}

		if opts.AutoDownload {
			path, dlErr := download(cacheDir)
			if dlErr == nil {
				return path, nil
			}
			logger.WarnX("binloc", "auto-download failed: %v", dlErr)
		}
	}

	return "", errorx.WithCode(errorx.CodeBinaryNotFound, "agent CLI not found; searched: %v", searched)
}

func packageManagerDirs() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/opt/homebrew/bin", "/usr/local/bin"}
	case "linux":
		return []string{"/usr/local/bin", "/usr/bin", "/snap/bin"}
	default:
		return nil
	}
}

func userLocalDirs() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	switch runtime.GOOS {
	case "windows":
		return []string{filepath.Join(home, "AppData", "Local", "agent-cli", "bin")}
	default:
		return []string{filepath.Join(home, ".local", "bin")}
	}
}

func resolveCacheDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "agentrelay", "bin"), nil
}

func download(cacheDir string) (string, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", err
	}

	url := downloadURL + runtime.GOOS + "-" + runtime.GOARCH
	resp, err := http.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: status %s", url, resp.Status)
	}

	dest := filepath.Join(cacheDir, binaryName)
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", err
	}
	if err := os.Chmod(dest, 0o755); err != nil {
		return "", err
	}
	return dest, nil
}
