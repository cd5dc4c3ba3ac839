package types

import (
	"io/fs"
	"time"
)

// EntryKind classifies a filesystem object. The set is closed; callers switch
// over it exhaustively.
type EntryKind uint8

const (
	KindRegularFile EntryKind = iota
	KindDirectory
	KindSymlink
	KindOther
)

// String returns the lower-case kind name used in structured output.
func (kind EntryKind) String() string {
	switch kind {
	case KindRegularFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// MarshalText renders the kind by name for JSON and YAML output.
func (kind EntryKind) MarshalText() ([]byte, error) {
	return []byte(kind.String()), nil
}

// KindFromMode derives the EntryKind from a file mode obtained without
// following symlinks.
func KindFromMode(mode fs.FileMode) EntryKind {
	switch {
	case mode.IsRegular():
		return KindRegularFile
	case mode.IsDir():
		return KindDirectory
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	default:
		return KindOther
	}
}

// Metadata is the snapshot of one lstat call.
type Metadata struct {
	SizeBytes int64       `json:"sizeBytes" yaml:"sizeBytes"`
	Mode      fs.FileMode `json:"-" yaml:"-"`
	ModTime   time.Time   `json:"modified" yaml:"modified"`
	Hidden    bool        `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Owner     string      `json:"owner,omitempty" yaml:"owner,omitempty"`
}

// Entry is one filesystem object discovered during traversal.
type Entry struct {
	Name         string     `json:"name" yaml:"name"`
	AbsolutePath string     `json:"path" yaml:"path"`
	RelativePath string     `json:"relativePath" yaml:"relativePath"`
	Kind         EntryKind  `json:"kind" yaml:"kind"`
	TargetKind   *EntryKind `json:"targetKind,omitempty" yaml:"targetKind,omitempty"`
	LinkTarget   string     `json:"linkTarget,omitempty" yaml:"linkTarget,omitempty"`
	Metadata     Metadata   `json:"metadata" yaml:"metadata"`
}

// IsDirectory reports whether the entry is a real directory. Symlinks to
// directories are not directories.
func (entry Entry) IsDirectory() bool {
	return entry.Kind == KindDirectory
}
