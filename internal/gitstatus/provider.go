package gitstatus

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/temirov/lx/internal/types"
	"github.com/temirov/lx/internal/utils"
)

const (
	repositoryRootKey = "."

	errorParseStatusFormat = "parse status of %s: %w"
	logStatusLoaded        = "loaded repository status"
	logStatusNotRepository = "directory is not a repository"
)

// StatusMap is the immutable status snapshot of one working tree.
type StatusMap struct {
	Root        string
	files       map[string]types.StatusCode
	directories map[string]types.StatusCode
}

// NewStatusMap indexes file statuses and folds each of them into every
// ancestor directory, keeping the strongest code per precedence.
func NewStatusMap(root string, files map[string]types.StatusCode, precedence types.StatusPrecedence) StatusMap {
	if len(precedence) == 0 {
		precedence = types.DefaultStatusPrecedence()
	}
	directories := make(map[string]types.StatusCode)
	for filePath, code := range files {
		parent := path.Dir(filePath)
		for {
			directories[parent] = precedence.Strongest(directories[parent], code)
			if parent == repositoryRootKey || parent == "/" {
				break
			}
			parent = path.Dir(parent)
		}
	}
	return StatusMap{Root: root, files: files, directories: directories}
}

// Status returns the code for a repository-relative slash path. Directories
// report the strongest code found beneath them.
func (statusMap StatusMap) Status(relativePath string, isDirectory bool, precedence types.StatusPrecedence) types.StatusCode {
	if relativePath == "" {
		relativePath = repositoryRootKey
	}
	fileStatus := statusMap.files[relativePath]
	if !isDirectory {
		return fileStatus
	}
	if len(precedence) == 0 {
		precedence = types.DefaultStatusPrecedence()
	}
	return precedence.Strongest(statusMap.directories[relativePath], fileStatus)
}

// StatusOf returns the code for an absolute path inside the working tree.
func (statusMap StatusMap) StatusOf(absolutePath string, isDirectory bool, precedence types.StatusPrecedence) types.StatusCode {
	relativePath, relativeError := filepath.Rel(statusMap.Root, absolutePath)
	if relativeError != nil {
		return types.StatusNone
	}
	return statusMap.Status(filepath.ToSlash(relativePath), isDirectory, precedence)
}

// Len reports the number of changed paths.
func (statusMap StatusMap) Len() int {
	return len(statusMap.files)
}

// ProviderOptions configures a Provider.
type ProviderOptions struct {
	Runner     Runner
	Precedence types.StatusPrecedence
	Logger     *zap.Logger

	// IncludeIgnored asks for ignored paths so they can be marked as such.
	IncludeIgnored bool
}

type statusLoad struct {
	once      sync.Once
	statusMap StatusMap
	err       error
}

// Provider loads each repository's status at most once per run and shares
// the snapshot with every caller.
type Provider struct {
	runner         Runner
	precedence     types.StatusPrecedence
	logger         *zap.Logger
	includeIgnored bool

	loadsMutex sync.Mutex
	loads      map[string]*statusLoad
	loadCount  atomic.Int64
}

// NewProvider constructs a Provider. A nil Runner selects ExecRunner.
func NewProvider(options ProviderOptions) *Provider {
	runner := options.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	precedence := options.Precedence
	if len(precedence) == 0 {
		precedence = types.DefaultStatusPrecedence()
	}
	return &Provider{
		runner:         runner,
		precedence:     precedence,
		logger:         utils.LoggerOrNop(options.Logger),
		includeIgnored: options.IncludeIgnored,
		loads:          make(map[string]*statusLoad),
	}
}

// Load returns the status snapshot of repositoryRoot. A directory git does
// not recognize yields an empty map without error.
func (provider *Provider) Load(ctx context.Context, repositoryRoot string) (StatusMap, error) {
	cleanRoot := filepath.Clean(repositoryRoot)
	provider.loadsMutex.Lock()
	load, found := provider.loads[cleanRoot]
	if !found {
		load = &statusLoad{}
		provider.loads[cleanRoot] = load
	}
	provider.loadsMutex.Unlock()

	load.once.Do(func() {
		provider.loadCount.Add(1)
		load.statusMap, load.err = provider.query(ctx, cleanRoot)
	})
	return load.statusMap, load.err
}

// LoadCount reports how many repository queries have run.
func (provider *Provider) LoadCount() int64 {
	return provider.loadCount.Load()
}

// Precedence returns the ordering used for directory statuses.
func (provider *Provider) Precedence() types.StatusPrecedence {
	return provider.precedence
}

func (provider *Provider) query(ctx context.Context, repositoryRoot string) (StatusMap, error) {
	output, runError := provider.runner.Status(ctx, repositoryRoot, provider.includeIgnored)
	if runError != nil {
		if errors.Is(runError, ErrNotRepository) {
			provider.logger.Debug(logStatusNotRepository, zap.String("root", repositoryRoot))
			return NewStatusMap(repositoryRoot, map[string]types.StatusCode{}, provider.precedence), nil
		}
		return StatusMap{}, runError
	}
	files, parseError := ParsePorcelain(output)
	if parseError != nil {
		return StatusMap{}, fmt.Errorf(errorParseStatusFormat, repositoryRoot, parseError)
	}
	statusMap := NewStatusMap(repositoryRoot, files, provider.precedence)
	provider.logger.Debug(logStatusLoaded, zap.String("root", repositoryRoot), zap.Int("changed", statusMap.Len()))
	return statusMap, nil
}
