package types

import "fmt"

// DepthLimit bounds how deep the builder descends. The zero value is
// unbounded.
type DepthLimit struct {
	maximum int
	bounded bool
}

// UnboundedDepth places no limit on traversal depth.
func UnboundedDepth() DepthLimit {
	return DepthLimit{}
}

// MaxDepth limits expansion to nodes shallower than maximum. Negative values
// are treated as zero.
func MaxDepth(maximum int) DepthLimit {
	if maximum < 0 {
		maximum = 0
	}
	return DepthLimit{maximum: maximum, bounded: true}
}

// Allows reports whether a directory at depth may be expanded.
func (limit DepthLimit) Allows(depth int) bool {
	return !limit.bounded || depth < limit.maximum
}

// String renders the limit for logs.
func (limit DepthLimit) String() string {
	if !limit.bounded {
		return "unbounded"
	}
	return fmt.Sprintf("%d", limit.maximum)
}

// BuildOptions configures one tree build.
type BuildOptions struct {
	RootPath          string
	ShowAll           bool
	MaxDepth          DepthLimit
	ComputeGit        bool
	ComputeSizes      bool
	UseGitignore      bool
	UseIgnoreFile     bool
	ExclusionPatterns []string
	Concurrency       int
	Precedence        StatusPrecedence
}
