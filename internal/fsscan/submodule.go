package fsscan

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/codelens-dev/codelens/internal/config"
)

// Submodule describes one git submodule discovered under a project root.
type Submodule struct {
	// Name is the submodule name from .gitmodules [submodule "name"].
	Name string
	// Path is the submodule's path relative to the project root.
	Path string
	// URL is the submodule's configured remote, kept for diagnostics only;
	// it is never dereferenced or fetched.
	URL string
	// Branch is the tracked branch, if .gitmodules names one.
	Branch string
	// CommitHash is the currently checked-out commit, when resolvable.
	CommitHash string
	// Initialized reports whether the submodule directory has been
	// checked out (non-empty beyond its own .git file).
	Initialized bool
}

// ParseGitmodules parses the contents of a .gitmodules file.
func ParseGitmodules(content []byte) ([]Submodule, error) {
	var submodules []Submodule
	var current *Submodule

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[submodule") {
			if current != nil && current.Path != "" {
				submodules = append(submodules, *current)
			}
			current = &Submodule{Name: extractSubmoduleName(line)}
			continue
		}

		if current == nil {
			continue
		}

		key, value := parseGitmodulesKV(line)
		switch key {
		case "path":
			current.Path = value
		case "url":
			current.URL = value
		case "branch":
			current.Branch = value
		}
	}
	if current != nil && current.Path != "" {
		submodules = append(submodules, *current)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan .gitmodules: %w", err)
	}
	return submodules, nil
}

// extractSubmoduleName pulls the quoted name out of a [submodule "name"]
// section header.
func extractSubmoduleName(line string) string {
	start := strings.Index(line, "\"")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(line, "\"")
	if end <= start {
		return ""
	}
	return line[start+1 : end]
}

func parseGitmodulesKV(line string) (key, value string) {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}

// submoduleInitialized reports whether path looks checked out: present,
// a directory, and containing something other than a bare .git file.
func submoduleInitialized(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.Name() != ".git" {
			return true
		}
	}
	return false
}

// submoduleCommitHash resolves the checked-out commit for an initialized
// submodule, following either its .git file's gitdir redirect or the
// superproject's .git/modules layout.
func submoduleCommitHash(rootPath, submodulePath string) (string, error) {
	gitFilePath := filepath.Join(submodulePath, ".git")
	gitFileContent, err := os.ReadFile(gitFilePath)
	if err != nil {
		relPath, relErr := filepath.Rel(rootPath, submodulePath)
		if relErr != nil {
			return "", fmt.Errorf("resolve relative path: %w", relErr)
		}
		modulePath := filepath.Join(rootPath, ".git", "modules", relPath, "HEAD")
		return readHeadFile(modulePath)
	}

	gitdir := parseGitdirRedirect(string(gitFileContent))
	if gitdir == "" {
		return "", fmt.Errorf("malformed .git file in %s", submodulePath)
	}

	var headPath string
	if filepath.IsAbs(gitdir) {
		headPath = filepath.Join(gitdir, "HEAD")
	} else {
		headPath = filepath.Join(submodulePath, gitdir, "HEAD")
	}
	return readHeadFile(headPath)
}

func parseGitdirRedirect(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "gitdir:") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(content, "gitdir:"))
}

func readHeadFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}
	hash := strings.TrimSpace(string(content))
	if strings.HasPrefix(hash, "ref:") {
		return "", fmt.Errorf("HEAD is a symbolic ref, not a commit hash")
	}
	return hash, nil
}

// matchesSubmodulePattern reports whether name or path matches one of
// patterns, using the same doublestar glob syntax as the main exclude
// filter so submodule include/exclude lists read like ordinary ignore
// rules.
func matchesSubmodulePattern(name, path string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

// submoduleAllowed applies include/exclude patterns: exclude wins, then
// an empty include list admits everything that wasn't excluded.
func submoduleAllowed(name, path string, cfg config.SubmoduleConfig) bool {
	if matchesSubmodulePattern(name, path, cfg.Exclude) {
		return false
	}
	if len(cfg.Include) == 0 {
		return true
	}
	return matchesSubmodulePattern(name, path, cfg.Include)
}

// DiscoverSubmodules walks rootPath for .gitmodules files and returns the
// submodules codelens should also index, honoring cfg.Include/Exclude and,
// when cfg.Recursive is set, descending into initialized submodules that
// themselves carry further submodules. Returns nil without error when
// submodule scanning is disabled.
func DiscoverSubmodules(rootPath string, cfg config.SubmoduleConfig) ([]Submodule, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	visited := make(map[string]bool)
	return discoverSubmodulesAt(rootPath, rootPath, "", cfg, visited)
}

func discoverSubmodulesAt(rootPath, currentPath, pathPrefix string, cfg config.SubmoduleConfig, visited map[string]bool) ([]Submodule, error) {
	absPath, err := filepath.Abs(currentPath)
	if err != nil {
		return nil, err
	}
	if visited[absPath] {
		return nil, nil
	}
	visited[absPath] = true

	gitmodulesPath := filepath.Join(currentPath, ".gitmodules")
	content, err := os.ReadFile(gitmodulesPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read .gitmodules: %w", err)
	}

	parsed, err := ParseGitmodules(content)
	if err != nil {
		return nil, err
	}

	var result []Submodule
	for _, sm := range parsed {
		fullPath := sm.Path
		if pathPrefix != "" {
			fullPath = filepath.Join(pathPrefix, sm.Path)
		}
		fullPath = filepath.ToSlash(fullPath)

		if !submoduleAllowed(sm.Name, fullPath, cfg) {
			continue
		}

		submoduleAbsPath := filepath.Join(currentPath, sm.Path)
		sm.Initialized = submoduleInitialized(submoduleAbsPath)
		if sm.Initialized {
			if hash, hashErr := submoduleCommitHash(rootPath, submoduleAbsPath); hashErr == nil {
				sm.CommitHash = hash
			}
		}
		sm.Path = fullPath
		result = append(result, sm)

		if cfg.Recursive && sm.Initialized {
			nested, nestedErr := discoverSubmodulesAt(rootPath, submoduleAbsPath, fullPath, cfg, visited)
			if nestedErr == nil {
				result = append(result, nested...)
			}
		}
	}
	return result, nil
}
