package output

import (
	"github.com/mattn/go-runewidth"

	"github.com/temirov/lx/internal/platform"
	"github.com/temirov/lx/internal/types"
	"github.com/temirov/lx/internal/utils"
)

const (
	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	directorySuffix      = "/"
	symlinkArrow         = " -> "
	incompleteSizeSuffix = "+"
)

// LayoutOptions selects between the tree and flat presentations.
type LayoutOptions struct {
	Tree bool
}

// Layout flattens the tree into pre-order render records, root first. Column
// widths are the maxima over every record.
func Layout(root *types.TreeNode, options LayoutOptions) []types.RenderRecord {
	if root == nil {
		return nil
	}
	var records []types.RenderRecord
	records = appendRecords(records, root, "", true, true, options)

	var widths types.ColumnWidths
	for _, record := range records {
		widths.Name = max(widths.Name, runewidth.StringWidth(record.Prefix+record.Connector+record.DisplayName))
		widths.Size = max(widths.Size, runewidth.StringWidth(record.SizeText))
		widths.Status = max(widths.Status, runewidth.StringWidth(record.StatusText))
		widths.Owner = max(widths.Owner, runewidth.StringWidth(record.Owner))
	}
	for index := range records {
		records[index].Widths = widths
	}
	return records
}

func appendRecords(records []types.RenderRecord, node *types.TreeNode, prefix string, isRoot bool, isLast bool, options LayoutOptions) []types.RenderRecord {
	record := newRecord(node)
	record.IsRoot = isRoot
	record.IsLast = isLast
	childPrefix := ""
	if options.Tree && !isRoot {
		record.Prefix = prefix
		record.Connector = treeBranchConnector
		childPrefix = prefix + treeBranchPadding
		if isLast {
			record.Connector = treeLastConnector
			childPrefix = prefix + treeLastPadding
		}
	}
	records = append(records, record)
	for index, child := range node.Children {
		records = appendRecords(records, child, childPrefix, false, index == len(node.Children)-1, options)
	}
	return records
}

func newRecord(node *types.TreeNode) types.RenderRecord {
	entry := node.Entry
	return types.RenderRecord{
		Depth:       node.Depth,
		Name:        entry.Name,
		DisplayName: displayName(entry),
		Path:        entry.AbsolutePath,
		Kind:        entry.Kind,
		TargetKind:  entry.TargetKind,
		SizeText:    sizeText(node),
		Status:      node.GitStatus,
		StatusText:  node.GitStatus.Symbol(),
		Permissions: platform.FormatPermissions(entry.Metadata.Mode),
		Owner:       entry.Metadata.Owner,
		Modified:    utils.FormatTimestamp(entry.Metadata.ModTime),
		Warned:      len(node.Warnings) > 0,
	}
}

func displayName(entry types.Entry) string {
	switch entry.Kind {
	case types.KindDirectory:
		return entry.Name + directorySuffix
	case types.KindSymlink:
		if entry.LinkTarget != "" {
			return entry.Name + symlinkArrow + entry.LinkTarget
		}
		return entry.Name
	default:
		return entry.Name
	}
}

func sizeText(node *types.TreeNode) string {
	if !node.Entry.IsDirectory() {
		return utils.FormatFileSize(node.Entry.Metadata.SizeBytes)
	}
	if node.AggregatedSize == nil {
		return utils.UnknownSizePlaceholder
	}
	text := utils.FormatFileSize(*node.AggregatedSize)
	if node.SizeIncomplete {
		text += incompleteSizeSuffix
	}
	return text
}
