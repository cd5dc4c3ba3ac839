package commands

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/lx/internal/ignore"
	"github.com/temirov/lx/internal/platform"
	"github.com/temirov/lx/internal/types"
	"github.com/temirov/lx/internal/utils"
)

const (
	logMeasuredDirectory = "measured unexpanded directory"
	logUnreadableRules   = "cannot read ignore rules while measuring"
)

// SizeAggregator totals directory sizes over a built tree. Directories the
// builder left unexpanded are measured from disk with the same filtering.
type SizeAggregator struct {
	ShowAll bool
	// Resolver supplies ignore rules while measuring; nil disables rule files.
	Resolver *ignore.Resolver
	// Chains holds the rule chain in effect for each unexpanded directory,
	// keyed by absolute path.
	Chains      map[string]ignore.Chain
	Concurrency int
	Logger      *zap.Logger
}

type measurement struct {
	bytes      int64
	incomplete bool
}

// ComputeSizes sets AggregatedSize on the root and every directory below it.
// Directories that already carry a size are left untouched, so repeated runs
// give the same totals.
func (aggregator SizeAggregator) ComputeSizes(ctx context.Context, root *types.TreeNode) error {
	if root == nil {
		return nil
	}
	logger := utils.LoggerOrNop(aggregator.Logger)

	var pending []*types.TreeNode
	root.Walk(func(node *types.TreeNode) {
		if node.Entry.IsDirectory() && !node.Expanded() && node.AggregatedSize == nil {
			pending = append(pending, node)
		}
	})

	concurrency := aggregator.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	group, groupContext := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)
	for _, node := range pending {
		group.Go(func() error {
			result, measureError := aggregator.measure(groupContext, node.Entry.AbsolutePath, aggregator.Chains[node.Entry.AbsolutePath])
			if measureError != nil {
				return measureError
			}
			logger.Debug(logMeasuredDirectory, zap.String("path", node.Entry.AbsolutePath), zap.Int64("bytes", result.bytes))
			total := result.bytes
			node.AggregatedSize = &total
			node.SizeIncomplete = node.SizeIncomplete || result.incomplete
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return waitError
	}

	aggregateNode(root)
	if root.AggregatedSize == nil {
		total := root.Entry.Metadata.SizeBytes
		root.AggregatedSize = &total
	}
	return nil
}

// aggregateNode is the post-order fold. It returns the node's contribution to
// its parent and whether that contribution is incomplete.
func aggregateNode(node *types.TreeNode) (int64, bool) {
	if !node.Entry.IsDirectory() {
		return node.Entry.Metadata.SizeBytes, false
	}
	if node.AggregatedSize != nil {
		return *node.AggregatedSize, node.SizeIncomplete
	}
	var total int64
	incomplete := hasListingWarning(node)
	for _, child := range node.Children {
		childBytes, childIncomplete := aggregateNode(child)
		total += childBytes
		incomplete = incomplete || childIncomplete
	}
	node.AggregatedSize = &total
	node.SizeIncomplete = incomplete
	return total, incomplete
}

// hasListingWarning reports whether the directory itself could not be listed.
func hasListingWarning(node *types.TreeNode) bool {
	for _, warning := range node.Warnings {
		if warning.Path != node.Entry.AbsolutePath {
			continue
		}
		switch warning.Kind {
		case types.WarningAccessDenied, types.WarningNotFound, types.WarningIOError:
			return true
		}
	}
	return false
}

// measure sums the sizes below directoryPath without following symlinks.
// Unreadable directories contribute nothing and mark the result incomplete,
// as does an ignore file that cannot be read.
func (aggregator SizeAggregator) measure(ctx context.Context, directoryPath string, chain ignore.Chain) (measurement, error) {
	if ctxError := ctx.Err(); ctxError != nil {
		return measurement{}, ctxError
	}
	var result measurement
	if aggregator.Resolver != nil && !aggregator.ShowAll {
		ruleSet, ruleSetError := aggregator.Resolver.RuleSet(directoryPath)
		if ruleSetError != nil {
			utils.LoggerOrNop(aggregator.Logger).Debug(logUnreadableRules, zap.String("path", directoryPath), zap.Error(ruleSetError))
			result.incomplete = true
		}
		chain = chain.Extend(ruleSet)
	}
	directoryEntries, readDirectoryError := os.ReadDir(directoryPath)
	if readDirectoryError != nil {
		return measurement{incomplete: true}, nil
	}

	for _, directoryEntry := range directoryEntries {
		childPath := filepath.Join(directoryPath, directoryEntry.Name())
		info, lstatError := os.Lstat(childPath)
		if lstatError != nil {
			result.incomplete = true
			continue
		}
		entry := types.Entry{
			Name:         directoryEntry.Name(),
			AbsolutePath: childPath,
			Kind:         types.KindFromMode(info.Mode()),
			Metadata:     types.Metadata{SizeBytes: info.Size(), Hidden: platform.IsHidden(directoryEntry.Name())},
		}
		if !ignore.ShouldInclude(entry, chain, aggregator.ShowAll) {
			continue
		}
		if !entry.IsDirectory() {
			result.bytes += entry.Metadata.SizeBytes
			continue
		}
		nested, nestedError := aggregator.measure(ctx, childPath, chain)
		if nestedError != nil {
			return measurement{}, nestedError
		}
		result.bytes += nested.bytes
		result.incomplete = result.incomplete || nested.incomplete
	}
	return result, nil
}
