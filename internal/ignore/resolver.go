package ignore

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/temirov/lx/internal/config"
	"github.com/temirov/lx/internal/types"
	"github.com/temirov/lx/internal/utils"
)

const (
	excludeFileDirectory = "info"
	excludeFileName      = "exclude"

	errorLoadExcludeFormat = "loading %s: %w"
	logCompiledRuleSet     = "compiled ignore rules"
)

// ResolverOptions selects which ignore files a Resolver reads.
type ResolverOptions struct {
	UseGitignore  bool
	UseIgnoreFile bool
	Logger        *zap.Logger
}

type compiledRuleSet struct {
	ruleSet RuleSet
	err     error
}

// Resolver reads and compiles each directory's ignore files once per run.
// It is safe for concurrent use.
type Resolver struct {
	options ResolverOptions
	logger  *zap.Logger

	compileGroup singleflight.Group
	cacheMutex   sync.RWMutex
	cache        map[string]compiledRuleSet
	compileCount atomic.Int64
}

// NewResolver constructs a Resolver with an empty cache.
func NewResolver(options ResolverOptions) *Resolver {
	return &Resolver{
		options: options,
		logger:  utils.LoggerOrNop(options.Logger),
		cache:   make(map[string]compiledRuleSet),
	}
}

// RuleSet returns the compiled rules of directory. When an ignore file cannot
// be read the returned set is empty and the error describes the failure; the
// same result is returned to every later caller.
func (resolver *Resolver) RuleSet(directory string) (RuleSet, error) {
	cacheKey := filepath.Clean(directory)
	if cached, found := resolver.lookup(cacheKey); found {
		return cached.ruleSet, cached.err
	}

	result, _, _ := resolver.compileGroup.Do(cacheKey, func() (any, error) {
		if cached, found := resolver.lookup(cacheKey); found {
			return cached, nil
		}
		compiled := resolver.compile(cacheKey)
		resolver.cacheMutex.Lock()
		resolver.cache[cacheKey] = compiled
		resolver.cacheMutex.Unlock()
		return compiled, nil
	})
	compiled, _ := result.(compiledRuleSet)
	return compiled.ruleSet, compiled.err
}

// CompileCount reports how many directories have been compiled so far.
func (resolver *Resolver) CompileCount() int64 {
	return resolver.compileCount.Load()
}

func (resolver *Resolver) lookup(cacheKey string) (compiledRuleSet, bool) {
	resolver.cacheMutex.RLock()
	defer resolver.cacheMutex.RUnlock()
	cached, found := resolver.cache[cacheKey]
	return cached, found
}

func (resolver *Resolver) compile(directory string) compiledRuleSet {
	resolver.compileCount.Add(1)
	patterns, loadError := config.LoadDirectoryIgnorePatterns(directory, resolver.options.UseGitignore, resolver.options.UseIgnoreFile)
	if loadError != nil {
		return compiledRuleSet{ruleSet: RuleSet{Directory: directory}, err: loadError}
	}
	ruleSet := Compile(directory, patterns)
	if !ruleSet.Empty() {
		resolver.logger.Debug(logCompiledRuleSet, zap.String("directory", directory), zap.Int("rules", len(ruleSet.Rules)))
	}
	return compiledRuleSet{ruleSet: ruleSet}
}

// BaseRuleSet combines the repository's info/exclude file with user exclusion
// patterns, anchored at anchorDirectory. gitDirectory may be empty outside a
// repository. The exclude file is only consulted when gitignore files are.
func (resolver *Resolver) BaseRuleSet(anchorDirectory string, gitDirectory string, exclusionPatterns []string) (RuleSet, error) {
	var patterns []string
	var loadError error
	if gitDirectory != "" && resolver.options.UseGitignore {
		excludePath := filepath.Join(gitDirectory, excludeFileDirectory, excludeFileName)
		excludePatterns, excludeError := config.LoadIgnoreFilePatterns(excludePath)
		if excludeError != nil {
			loadError = fmt.Errorf(errorLoadExcludeFormat, excludePath, excludeError)
		}
		patterns = append(patterns, excludePatterns...)
	}
	patterns = append(patterns, config.NormalizeExclusionPatterns(exclusionPatterns)...)
	return Compile(anchorDirectory, patterns), loadError
}

// InitialChain returns the chain in effect for rootDirectory's own children
// minus rootDirectory's rules: base first, then the rule sets of every
// directory from anchorDirectory down to rootDirectory's parent. Unreadable
// ignore files become warnings.
func (resolver *Resolver) InitialChain(base RuleSet, anchorDirectory string, rootDirectory string) (Chain, []types.Warning) {
	chain := Chain{}.Extend(base)
	var warnings []types.Warning
	for _, directory := range ancestorsBetween(anchorDirectory, rootDirectory) {
		ruleSet, loadError := resolver.RuleSet(directory)
		if loadError != nil {
			warnings = append(warnings, types.Warning{Path: directory, Kind: types.WarningIgnoreFile, Err: loadError})
		}
		chain = chain.Extend(ruleSet)
	}
	return chain, warnings
}

// ancestorsBetween lists anchorDirectory and its descendants on the way to
// rootDirectory, excluding rootDirectory itself. It is empty when root is not
// strictly below anchor.
func ancestorsBetween(anchorDirectory string, rootDirectory string) []string {
	anchorDirectory = filepath.Clean(anchorDirectory)
	rootDirectory = filepath.Clean(rootDirectory)
	if anchorDirectory == rootDirectory || !utils.IsWithin(rootDirectory, anchorDirectory) {
		return nil
	}
	relativePath, relativeError := filepath.Rel(anchorDirectory, rootDirectory)
	if relativeError != nil {
		return nil
	}
	segments := strings.Split(filepath.ToSlash(relativePath), "/")
	directories := []string{anchorDirectory}
	current := anchorDirectory
	for _, segment := range segments[:len(segments)-1] {
		current = filepath.Join(current, segment)
		directories = append(directories, current)
	}
	return directories
}
