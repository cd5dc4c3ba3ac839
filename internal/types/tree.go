package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
)

// TreeNode wraps an Entry with traversal-derived state. Children is nil when
// the node was not traversed and non-nil (possibly empty) once it was listed.
type TreeNode struct {
	Entry          Entry       `json:"entry" yaml:"entry"`
	Children       []*TreeNode `json:"children,omitempty" yaml:"children,omitempty"`
	Depth          int         `json:"depth" yaml:"depth"`
	GitStatus      StatusCode  `json:"gitStatus,omitempty" yaml:"gitStatus,omitempty"`
	AggregatedSize *int64      `json:"aggregatedSize,omitempty" yaml:"aggregatedSize,omitempty"`
	SizeIncomplete bool        `json:"sizeIncomplete,omitempty" yaml:"sizeIncomplete,omitempty"`
	Warnings       []Warning   `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Expanded reports whether the node's children were listed.
func (node *TreeNode) Expanded() bool {
	return node != nil && node.Children != nil
}

// treeNodeFields drops the TreeNode methods so the document types below can
// embed the fields without recursing into MarshalJSON.
type treeNodeFields TreeNode

// treeNodeDocument is the serialized form of a TreeNode. Directories carry an
// explicit expanded flag that is false when the node was not traversed.
type treeNodeDocument struct {
	treeNodeFields `yaml:",inline"`
	Expanded       *bool `json:"expanded,omitempty" yaml:"expanded,omitempty"`
}

func (node *TreeNode) document() treeNodeDocument {
	document := treeNodeDocument{treeNodeFields: treeNodeFields(*node)}
	if node.Entry.IsDirectory() {
		expanded := node.Expanded()
		document.Expanded = &expanded
	}
	return document
}

// MarshalJSON encodes the node with its expanded flag.
func (node *TreeNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(node.document())
}

// MarshalYAML encodes the node with its expanded flag.
func (node *TreeNode) MarshalYAML() (any, error) {
	return node.document(), nil
}

// AddWarning records a non-fatal problem on the node.
func (node *TreeNode) AddWarning(warning Warning) {
	node.Warnings = append(node.Warnings, warning)
}

// Walk visits the node and its descendants in pre-order.
func (node *TreeNode) Walk(visit func(*TreeNode)) {
	if node == nil {
		return
	}
	visit(node)
	for _, child := range node.Children {
		child.Walk(visit)
	}
}

// CollectWarnings gathers node warnings in pre-order.
func (node *TreeNode) CollectWarnings() []Warning {
	var warnings []Warning
	node.Walk(func(current *TreeNode) {
		warnings = append(warnings, current.Warnings...)
	})
	return warnings
}

// WarningKind classifies non-fatal problems recorded during a run.
type WarningKind uint8

const (
	WarningAccessDenied WarningKind = iota
	WarningNotFound
	WarningIOError
	WarningIgnoreFile
	WarningStatusUnavailable
)

var warningKindNames = map[WarningKind]string{
	WarningAccessDenied:      "access denied",
	WarningNotFound:          "not found",
	WarningIOError:           "i/o error",
	WarningIgnoreFile:        "ignore file",
	WarningStatusUnavailable: "status unavailable",
}

// String returns the human-readable warning kind.
func (kind WarningKind) String() string {
	return warningKindNames[kind]
}

// MarshalText renders the warning kind by name.
func (kind WarningKind) MarshalText() ([]byte, error) {
	return []byte(kind.String()), nil
}

// Warning is a non-fatal problem attached to a node or to the whole run.
type Warning struct {
	Path string      `json:"path" yaml:"path"`
	Kind WarningKind `json:"kind" yaml:"kind"`
	Err  error       `json:"-" yaml:"-"`
}

// Error formats the warning for display.
func (warning Warning) Error() string {
	if warning.Err == nil {
		return fmt.Sprintf("%s: %s", warning.Kind, warning.Path)
	}
	return fmt.Sprintf("%s: %s: %v", warning.Kind, warning.Path, warning.Err)
}

// Unwrap exposes the underlying error.
func (warning Warning) Unwrap() error {
	return warning.Err
}

// MarshalText renders the warning as its message.
func (warning Warning) MarshalText() ([]byte, error) {
	return []byte(warning.Error()), nil
}

// ClassifyError maps a filesystem error onto a warning kind.
func ClassifyError(err error) WarningKind {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return WarningAccessDenied
	case errors.Is(err, fs.ErrNotExist):
		return WarningNotFound
	default:
		return WarningIOError
	}
}

// NewAccessWarning builds a warning for a failed filesystem call on path.
func NewAccessWarning(path string, err error) Warning {
	return Warning{Path: path, Kind: ClassifyError(err), Err: err}
}

// BuildResult is the complete annotated tree plus every warning collected.
type BuildResult struct {
	Root     *TreeNode `json:"root" yaml:"root"`
	Warnings []Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}
