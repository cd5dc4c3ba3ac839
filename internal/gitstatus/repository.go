// Package gitstatus discovers git repositories and loads their working-tree
// status as an immutable snapshot.
package gitstatus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/temirov/lx/internal/utils"
)

const (
	gitDirectoryFilePrefix = "gitdir:"
	configFileName         = "config"
	coreSectionName        = "core"
	bareKeyName            = "bare"

	errorReadGitFileFormat    = "read %s: %w"
	errorMalformedGitFile     = "malformed %s: missing %q"
	errorResolveStartFormat   = "resolve %s: %w"
	errorBareRepositoryFormat = "%s: %w"
)

var (
	// ErrNotRepository reports that no repository marker was found.
	ErrNotRepository = errors.New("not a git repository")
	// ErrBareRepository reports a repository without a working tree.
	ErrBareRepository = errors.New("bare repository has no working tree")
)

// Repository locates one working tree and its git directory.
type Repository struct {
	Root         string
	GitDirectory string
}

// Open inspects directory for a .git marker: either a directory or a file
// naming the real git directory. It does not search upward.
func Open(directory string) (Repository, error) {
	markerPath := filepath.Join(directory, utils.GitDirectoryName)
	markerInfo, statError := os.Stat(markerPath)
	if statError != nil {
		if errors.Is(statError, os.ErrNotExist) {
			return Repository{}, ErrNotRepository
		}
		return Repository{}, statError
	}

	gitDirectory := markerPath
	if !markerInfo.IsDir() {
		resolvedDirectory, resolveError := readGitDirectoryFile(markerPath)
		if resolveError != nil {
			return Repository{}, resolveError
		}
		gitDirectory = resolvedDirectory
	}

	if isBare(gitDirectory) {
		return Repository{}, fmt.Errorf(errorBareRepositoryFormat, directory, ErrBareRepository)
	}
	return Repository{Root: filepath.Clean(directory), GitDirectory: gitDirectory}, nil
}

// Discover searches startPath and its ancestors for a repository. A bare
// repository ends the search unsuccessfully.
func Discover(startPath string) (Repository, bool) {
	absoluteStart, absoluteError := filepath.Abs(startPath)
	if absoluteError != nil {
		return Repository{}, false
	}
	currentDirectory := absoluteStart
	if info, statError := os.Stat(currentDirectory); statError == nil && !info.IsDir() {
		currentDirectory = filepath.Dir(currentDirectory)
	}
	for {
		repository, openError := Open(currentDirectory)
		if openError == nil {
			return repository, true
		}
		if !errors.Is(openError, ErrNotRepository) {
			return Repository{}, false
		}
		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			return Repository{}, false
		}
		currentDirectory = parentDirectory
	}
}

// readGitDirectoryFile resolves the "gitdir: <path>" line used by worktrees
// and submodules. Relative paths are taken from the file's directory.
func readGitDirectoryFile(markerPath string) (string, error) {
	content, readError := os.ReadFile(markerPath)
	if readError != nil {
		return "", fmt.Errorf(errorReadGitFileFormat, markerPath, readError)
	}
	line := strings.TrimSpace(string(content))
	if !strings.HasPrefix(line, gitDirectoryFilePrefix) {
		return "", fmt.Errorf(errorMalformedGitFile, markerPath, gitDirectoryFilePrefix)
	}
	gitDirectory := strings.TrimSpace(strings.TrimPrefix(line, gitDirectoryFilePrefix))
	if !filepath.IsAbs(gitDirectory) {
		gitDirectory = filepath.Join(filepath.Dir(markerPath), gitDirectory)
	}
	return filepath.Clean(gitDirectory), nil
}

// isBare reads core.bare from the repository config. A missing or unparsable
// config counts as a regular repository.
func isBare(gitDirectory string) bool {
	repositoryConfig, loadError := ini.LooseLoad(filepath.Join(gitDirectory, configFileName))
	if loadError != nil {
		return false
	}
	return repositoryConfig.Section(coreSectionName).Key(bareKeyName).MustBool(false)
}
