// Package commands builds and annotates directory trees.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/lx/internal/gitstatus"
	"github.com/temirov/lx/internal/ignore"
	"github.com/temirov/lx/internal/platform"
	"github.com/temirov/lx/internal/types"
	"github.com/temirov/lx/internal/utils"
)

const (
	// errorAbsolutePathFormat is used when the absolute path cannot be determined.
	errorAbsolutePathFormat = "getting absolute path for %s: %w"
	// errorInvalidRootFormat wraps ErrInvalidRoot with the offending path.
	errorInvalidRootFormat = "%w: %s: %w"
	// errorUnsupportedRootFormat is used for roots that are neither files nor directories.
	errorUnsupportedRootFormat = "%w: %s is neither a regular file nor a directory"

	logListedDirectory     = "listed directory"
	logUnlistableDirectory = "cannot list directory"
	logRepositoryFound     = "repository discovered"
	logNestedRepository    = "nested repository"
	logStatusUnavailable   = "repository status unavailable"
)

// ErrInvalidRoot reports a root path that does not exist or cannot be listed
// as a file or directory.
var ErrInvalidRoot = errors.New("invalid root path")

// TreeBuilder builds annotated directory trees. The zero value is usable;
// Resolver and Provider default to fresh per-run instances.
type TreeBuilder struct {
	Logger       *zap.Logger
	StatusRunner gitstatus.Runner
	Resolver     *ignore.Resolver
	Provider     *gitstatus.Provider
}

// directoryScope is the state inherited by a directory from its parent.
type directoryScope struct {
	chain      ignore.Chain
	repository *gitstatus.Repository
}

// buildRun owns the caches and shared state of one Build call.
type buildRun struct {
	options    types.BuildOptions
	precedence types.StatusPrecedence
	resolver   *ignore.Resolver
	provider   *gitstatus.Provider
	owners     *platform.OwnerResolver
	logger     *zap.Logger
	group      *errgroup.Group

	stateMutex       sync.Mutex
	statusFailure    error
	unexpandedChains map[string]ignore.Chain
}

// Build walks options.RootPath and returns the annotated tree with every
// warning collected along the way. Only an invalid root or a cancelled
// context produce an error.
func (treeBuilder *TreeBuilder) Build(ctx context.Context, options types.BuildOptions) (types.BuildResult, error) {
	rootPath := options.RootPath
	if rootPath == "" {
		rootPath = "."
	}
	absoluteRootPath, absolutePathError := filepath.Abs(rootPath)
	if absolutePathError != nil {
		return types.BuildResult{}, fmt.Errorf(errorAbsolutePathFormat, rootPath, absolutePathError)
	}
	rootInfo, rootStatError := os.Stat(absoluteRootPath)
	if rootStatError != nil {
		return types.BuildResult{}, fmt.Errorf(errorInvalidRootFormat, ErrInvalidRoot, rootPath, rootStatError)
	}
	if !rootInfo.IsDir() && !rootInfo.Mode().IsRegular() {
		return types.BuildResult{}, fmt.Errorf(errorUnsupportedRootFormat, ErrInvalidRoot, rootPath)
	}

	rootName := filepath.Base(absoluteRootPath)
	if resolvedRootPath, resolveError := filepath.EvalSymlinks(absoluteRootPath); resolveError == nil {
		absoluteRootPath = resolvedRootPath
	}

	run := treeBuilder.newRun(options)
	rootNode := &types.TreeNode{Entry: run.describeInfo(absoluteRootPath, rootName, ".", rootInfo)}

	rootDirectory := absoluteRootPath
	if !rootInfo.IsDir() {
		rootDirectory = filepath.Dir(absoluteRootPath)
	}
	rootScope := directoryScope{}
	anchorDirectory := rootDirectory
	gitDirectory := ""
	if repository, found := gitstatus.Discover(rootDirectory); found {
		run.logger.Debug(logRepositoryFound, zap.String("root", repository.Root))
		rootScope.repository = &repository
		anchorDirectory = repository.Root
		gitDirectory = repository.GitDirectory
	}

	if run.filtering() {
		baseRuleSet, baseError := run.resolver.BaseRuleSet(anchorDirectory, gitDirectory, options.ExclusionPatterns)
		if baseError != nil {
			rootNode.AddWarning(types.Warning{Path: anchorDirectory, Kind: types.WarningIgnoreFile, Err: baseError})
		}
		chain, chainWarnings := run.resolver.InitialChain(baseRuleSet, anchorDirectory, rootDirectory)
		for _, warning := range chainWarnings {
			rootNode.AddWarning(warning)
		}
		rootScope.chain = chain
	}

	if statusMap, available := run.statusFor(ctx, rootScope.repository); available {
		rootNode.GitStatus = statusMap.StatusOf(absoluteRootPath, rootNode.Entry.IsDirectory(), run.precedence)
	}
	if ctxError := ctx.Err(); ctxError != nil {
		return types.BuildResult{}, ctxError
	}

	if rootNode.Entry.IsDirectory() {
		if options.MaxDepth.Allows(rootNode.Depth) {
			if dispatchError := run.dispatch(ctx, rootNode, rootScope); dispatchError != nil {
				_ = run.group.Wait()
				return types.BuildResult{}, dispatchError
			}
		} else {
			run.rememberUnexpanded(rootNode, rootScope.chain)
		}
	}
	if waitError := run.group.Wait(); waitError != nil {
		return types.BuildResult{}, waitError
	}
	if ctxError := ctx.Err(); ctxError != nil {
		return types.BuildResult{}, ctxError
	}

	var runWarnings []types.Warning
	if options.ComputeGit {
		if run.statusFailure != nil {
			ClearStatuses(rootNode)
			runWarnings = append(runWarnings, types.Warning{Path: absoluteRootPath, Kind: types.WarningStatusUnavailable, Err: run.statusFailure})
		} else {
			FoldStatuses(rootNode, run.precedence)
		}
	}

	if options.ComputeSizes {
		aggregator := SizeAggregator{
			ShowAll:     options.ShowAll,
			Resolver:    run.filteringResolver(),
			Chains:      run.unexpandedChains,
			Concurrency: options.Concurrency,
			Logger:      run.logger,
		}
		if sizeError := aggregator.ComputeSizes(ctx, rootNode); sizeError != nil {
			return types.BuildResult{}, sizeError
		}
	}

	warnings := append(rootNode.CollectWarnings(), runWarnings...)
	return types.BuildResult{Root: rootNode, Warnings: warnings}, nil
}

func (treeBuilder *TreeBuilder) newRun(options types.BuildOptions) *buildRun {
	logger := utils.LoggerOrNop(treeBuilder.Logger)
	precedence := options.Precedence
	if len(precedence) == 0 {
		precedence = types.DefaultStatusPrecedence()
	}
	resolver := treeBuilder.Resolver
	if resolver == nil {
		resolver = ignore.NewResolver(ignore.ResolverOptions{
			UseGitignore:  options.UseGitignore,
			UseIgnoreFile: options.UseIgnoreFile,
			Logger:        logger,
		})
	}
	provider := treeBuilder.Provider
	if provider == nil {
		provider = gitstatus.NewProvider(gitstatus.ProviderOptions{
			Runner:         treeBuilder.StatusRunner,
			Precedence:     precedence,
			Logger:         logger,
			IncludeIgnored: options.ShowAll,
		})
	}
	concurrency := options.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	group := &errgroup.Group{}
	group.SetLimit(concurrency)
	return &buildRun{
		options:          options,
		precedence:       precedence,
		resolver:         resolver,
		provider:         provider,
		owners:           platform.NewOwnerResolver(),
		logger:           logger,
		group:            group,
		unexpandedChains: make(map[string]ignore.Chain),
	}
}

// filtering reports whether ignore rules need to be consulted at all.
func (run *buildRun) filtering() bool {
	return !run.options.ShowAll
}

func (run *buildRun) filteringResolver() *ignore.Resolver {
	if !run.filtering() {
		return nil
	}
	return run.resolver
}

// dispatch lists node on a pooled goroutine, or inline when the pool is full.
// Inline execution keeps recursion from waiting on a slot it holds itself.
func (run *buildRun) dispatch(ctx context.Context, node *types.TreeNode, scope directoryScope) error {
	task := func() error {
		return run.listDirectory(ctx, node, scope)
	}
	if run.group.TryGo(task) {
		return nil
	}
	return task()
}

// listDirectory fills node.Children and schedules expandable subdirectories.
// Only context cancellation is returned; filesystem problems become warnings.
func (run *buildRun) listDirectory(ctx context.Context, node *types.TreeNode, scope directoryScope) error {
	if ctxError := ctx.Err(); ctxError != nil {
		return ctxError
	}
	directoryPath := node.Entry.AbsolutePath
	directoryEntries, readDirectoryError := os.ReadDir(directoryPath)
	if readDirectoryError != nil {
		run.logger.Debug(logUnlistableDirectory, zap.String("path", directoryPath), zap.Error(readDirectoryError))
		node.Children = []*types.TreeNode{}
		node.AddWarning(types.NewAccessWarning(directoryPath, readDirectoryError))
		return nil
	}

	childScope := run.enterDirectory(node, scope, directoryEntries)
	statusMap, statusAvailable := run.statusFor(ctx, childScope.repository)

	children := make([]*types.TreeNode, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		childName := directoryEntry.Name()
		childPath := filepath.Join(directoryPath, childName)
		entry, describeError := run.describe(childPath, childName, utils.JoinRelativePath(node.Entry.RelativePath, childName))
		if describeError != nil {
			node.AddWarning(types.NewAccessWarning(childPath, describeError))
			continue
		}
		if !ignore.ShouldInclude(entry, childScope.chain, run.options.ShowAll) {
			continue
		}
		child := &types.TreeNode{Entry: entry, Depth: node.Depth + 1}
		if statusAvailable {
			child.GitStatus = statusMap.StatusOf(childPath, entry.IsDirectory(), run.precedence)
		}
		children = append(children, child)
	}
	SortChildren(children)
	node.Children = children
	run.logger.Debug(logListedDirectory, zap.String("path", directoryPath), zap.Int("entries", len(children)))

	for _, child := range children {
		if !child.Entry.IsDirectory() {
			continue
		}
		if !run.options.MaxDepth.Allows(child.Depth) {
			run.rememberUnexpanded(child, childScope.chain)
			continue
		}
		if dispatchError := run.dispatch(ctx, child, childScope); dispatchError != nil {
			return dispatchError
		}
	}
	return nil
}

// enterDirectory derives the scope that applies to a directory's children:
// a nested repository takes over status and contributes its exclude file,
// and the directory's own ignore files extend the chain.
func (run *buildRun) enterDirectory(node *types.TreeNode, scope directoryScope, directoryEntries []os.DirEntry) directoryScope {
	directoryPath := node.Entry.AbsolutePath
	childScope := scope
	if containsGitMarker(directoryEntries) && (scope.repository == nil || scope.repository.Root != directoryPath) {
		if repository, openError := gitstatus.Open(directoryPath); openError == nil {
			run.logger.Debug(logNestedRepository, zap.String("root", repository.Root))
			childScope.repository = &repository
			if run.filtering() {
				excludeRuleSet, excludeError := run.resolver.BaseRuleSet(directoryPath, repository.GitDirectory, nil)
				if excludeError != nil {
					node.AddWarning(types.Warning{Path: directoryPath, Kind: types.WarningIgnoreFile, Err: excludeError})
				}
				childScope.chain = childScope.chain.Extend(excludeRuleSet)
			}
		}
	}
	if run.filtering() {
		ruleSet, ruleSetError := run.resolver.RuleSet(directoryPath)
		if ruleSetError != nil {
			node.AddWarning(types.Warning{Path: directoryPath, Kind: types.WarningIgnoreFile, Err: ruleSetError})
		}
		childScope.chain = childScope.chain.Extend(ruleSet)
	}
	return childScope
}

func containsGitMarker(directoryEntries []os.DirEntry) bool {
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.Name() == utils.GitDirectoryName {
			return true
		}
	}
	return false
}

// statusFor returns the repository's status map when status is requested and
// has not failed. The first failure is remembered and disables status.
func (run *buildRun) statusFor(ctx context.Context, repository *gitstatus.Repository) (gitstatus.StatusMap, bool) {
	if !run.options.ComputeGit || repository == nil {
		return gitstatus.StatusMap{}, false
	}
	statusMap, loadError := run.provider.Load(ctx, repository.Root)
	if loadError != nil {
		if ctx.Err() == nil {
			run.logger.Debug(logStatusUnavailable, zap.String("root", repository.Root), zap.Error(loadError))
			run.stateMutex.Lock()
			if run.statusFailure == nil {
				run.statusFailure = loadError
			}
			run.stateMutex.Unlock()
		}
		return gitstatus.StatusMap{}, false
	}
	return statusMap, true
}

// rememberUnexpanded keeps the chain of a directory left at the depth bound so
// that size measurement can apply the same filtering.
func (run *buildRun) rememberUnexpanded(node *types.TreeNode, chain ignore.Chain) {
	if !run.options.ComputeSizes {
		return
	}
	run.stateMutex.Lock()
	run.unexpandedChains[node.Entry.AbsolutePath] = chain
	run.stateMutex.Unlock()
}

// describe captures one entry from a single lstat. Symlinks additionally get
// their target text and, when it resolves, the target kind.
func (run *buildRun) describe(absolutePath string, name string, relativePath string) (types.Entry, error) {
	info, lstatError := os.Lstat(absolutePath)
	if lstatError != nil {
		return types.Entry{}, lstatError
	}
	return run.describeInfo(absolutePath, name, relativePath, info), nil
}

func (run *buildRun) describeInfo(absolutePath string, name string, relativePath string, info os.FileInfo) types.Entry {
	entry := types.Entry{
		Name:         name,
		AbsolutePath: absolutePath,
		RelativePath: relativePath,
		Kind:         types.KindFromMode(info.Mode()),
		Metadata: types.Metadata{
			SizeBytes: info.Size(),
			Mode:      info.Mode(),
			ModTime:   info.ModTime(),
			Hidden:    platform.IsHidden(name),
			Owner:     run.owners.Owner(info),
		},
	}
	if entry.Kind == types.KindSymlink {
		if linkTarget, readLinkError := os.Readlink(absolutePath); readLinkError == nil {
			entry.LinkTarget = linkTarget
		}
		if targetInfo, targetError := os.Stat(absolutePath); targetError == nil {
			targetKind := types.KindFromMode(targetInfo.Mode())
			entry.TargetKind = &targetKind
		}
	}
	return entry
}

// SortChildren orders directories first, then names case-insensitively, with
// the raw name breaking ties so the order is total.
func SortChildren(children []*types.TreeNode) {
	sort.SliceStable(children, func(left, right int) bool {
		leftEntry, rightEntry := children[left].Entry, children[right].Entry
		leftIsDirectory, rightIsDirectory := leftEntry.IsDirectory(), rightEntry.IsDirectory()
		if leftIsDirectory != rightIsDirectory {
			return leftIsDirectory
		}
		leftFolded, rightFolded := strings.ToLower(leftEntry.Name), strings.ToLower(rightEntry.Name)
		if leftFolded != rightFolded {
			return leftFolded < rightFolded
		}
		return leftEntry.Name < rightEntry.Name
	})
}
