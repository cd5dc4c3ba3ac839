package platform_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/temirov/lx/internal/platform"
)

func TestFormatPermissions(t *testing.T) {
	testCases := []struct {
		name     string
		mode     fs.FileMode
		expected string
	}{
		{name: "regular file", mode: 0o644, expected: "-rw-r--r--"},
		{name: "directory", mode: fs.ModeDir | 0o755, expected: "drwxr-xr-x"},
		{name: "symlink", mode: fs.ModeSymlink | 0o777, expected: "lrwxrwxrwx"},
		{name: "no permissions", mode: 0, expected: "----------"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if actual := platform.FormatPermissions(testCase.mode); actual != testCase.expected {
				t.Fatalf("expected %s, got %s", testCase.expected, actual)
			}
		})
	}
}

func TestIsHidden(t *testing.T) {
	testCases := []struct {
		name     string
		expected bool
	}{
		{name: ".hidden", expected: true},
		{name: ".gitignore", expected: true},
		{name: "visible.txt", expected: false},
		{name: ".", expected: false},
		{name: "..", expected: false},
	}
	for _, testCase := range testCases {
		if actual := platform.IsHidden(testCase.name); actual != testCase.expected {
			t.Errorf("%s: expected %t, got %t", testCase.name, testCase.expected, actual)
		}
	}
}

func TestOwnerResolverReportsUserAndGroup(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("ownership is not mapped on windows")
	}
	filePath := filepath.Join(t.TempDir(), "owned.txt")
	if writeError := os.WriteFile(filePath, []byte("x"), 0o644); writeError != nil {
		t.Fatalf("write: %v", writeError)
	}
	info, statError := os.Lstat(filePath)
	if statError != nil {
		t.Fatalf("lstat: %v", statError)
	}
	resolver := platform.NewOwnerResolver()
	owner := resolver.Owner(info)
	if len(strings.Fields(owner)) != 2 {
		t.Fatalf("expected \"user group\", got %q", owner)
	}
	if again := resolver.Owner(info); again != owner {
		t.Fatalf("expected cached owner %q, got %q", owner, again)
	}
}
