//go:build !unix

package platform

import "io/fs"

// OwnerResolver is a placeholder on systems without numeric ownership.
type OwnerResolver struct{}

// NewOwnerResolver returns a resolver that reports no owner.
func NewOwnerResolver() *OwnerResolver {
	return &OwnerResolver{}
}

// Owner returns an empty string on non-Unix systems; ACL owners are not mapped.
func (resolver *OwnerResolver) Owner(info fs.FileInfo) string {
	return ""
}
