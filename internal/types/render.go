package types

// ColumnWidths are the display-width maxima observed across a whole tree.
type ColumnWidths struct {
	Name   int
	Size   int
	Status int
	Owner  int
}

// RenderRecord describes one output row, flattened from the tree.
type RenderRecord struct {
	Prefix      string
	Connector   string
	IsLast      bool
	IsRoot      bool
	Depth       int
	Name        string
	DisplayName string
	Path        string
	Kind        EntryKind
	TargetKind  *EntryKind
	SizeText    string
	Status      StatusCode
	StatusText  string
	Permissions string
	Owner       string
	Modified    string
	Warned      bool
	Widths      ColumnWidths
}
