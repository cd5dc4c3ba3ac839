// Package platform captures the operating-system specific parts of entry
// metadata: permission strings, ownership and the hidden-file convention.
package platform

import (
	"io/fs"
	"strings"

	"github.com/temirov/lx/internal/utils"
)

const permissionCharacters = "rwxrwxrwx"

// FormatPermissions renders a mode as the ten-character ls string, e.g. drwxr-xr-x.
func FormatPermissions(mode fs.FileMode) string {
	var builder strings.Builder
	builder.Grow(10)
	switch {
	case mode.IsDir():
		builder.WriteByte('d')
	case mode&fs.ModeSymlink != 0:
		builder.WriteByte('l')
	default:
		builder.WriteByte('-')
	}
	permissionBits := mode.Perm()
	for index := 0; index < len(permissionCharacters); index++ {
		if permissionBits&(1<<uint(8-index)) != 0 {
			builder.WriteByte(permissionCharacters[index])
		} else {
			builder.WriteByte('-')
		}
	}
	return builder.String()
}

// IsHidden reports whether a name follows the hidden-file convention.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, utils.HiddenNamePrefix) && name != "." && name != ".."
}
