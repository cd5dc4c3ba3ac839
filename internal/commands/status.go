package commands

import "github.com/temirov/lx/internal/types"

// FoldStatuses lifts child statuses into their parents bottom-up so every
// directory carries the strongest status found beneath it. A directory that
// could not be listed carries no status.
func FoldStatuses(node *types.TreeNode, precedence types.StatusPrecedence) types.StatusCode {
	if node == nil {
		return types.StatusNone
	}
	if hasListingWarning(node) {
		node.GitStatus = types.StatusNone
		return types.StatusNone
	}
	for _, child := range node.Children {
		node.GitStatus = precedence.Strongest(node.GitStatus, FoldStatuses(child, precedence))
	}
	return node.GitStatus
}

// ClearStatuses removes every status from the tree.
func ClearStatuses(root *types.TreeNode) {
	root.Walk(func(node *types.TreeNode) {
		node.GitStatus = types.StatusNone
	})
}
