package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/temirov/lx/internal/utils"
)

// writeTestFile creates a file with the specified content, failing the test on error.
func writeTestFile(testingHandle *testing.T, filePath string, content string) {
	testingHandle.Helper()
	if writeError := os.WriteFile(filePath, []byte(content), 0o644); writeError != nil {
		testingHandle.Fatalf("failed to write %s: %v", filePath, writeError)
	}
}

func TestLoadIgnoreFilePatternsSkipsCommentsAndBlankLines(testingHandle *testing.T) {
	ignoreFilePath := filepath.Join(testingHandle.TempDir(), utils.GitIgnoreFileName)
	writeTestFile(testingHandle, ignoreFilePath, "# comment\n\n*.log\r\n  spaced\n\\#literal\n")

	patterns, loadError := LoadIgnoreFilePatterns(ignoreFilePath)
	if loadError != nil {
		testingHandle.Fatalf("LoadIgnoreFilePatterns failed: %v", loadError)
	}
	expected := []string{"*.log", "  spaced", "\\#literal"}
	if !reflect.DeepEqual(patterns, expected) {
		testingHandle.Fatalf("expected %v, got %v", expected, patterns)
	}
}

func TestLoadIgnoreFilePatternsMissingFile(testingHandle *testing.T) {
	patterns, loadError := LoadIgnoreFilePatterns(filepath.Join(testingHandle.TempDir(), "absent"))
	if loadError != nil {
		testingHandle.Fatalf("expected no error for a missing file, got %v", loadError)
	}
	if len(patterns) != 0 {
		testingHandle.Fatalf("expected no patterns, got %v", patterns)
	}
}

func TestLoadDirectoryIgnorePatternsOrdersSources(testingHandle *testing.T) {
	directory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(directory, utils.IgnoreFileName), "from-ignore\n")
	writeTestFile(testingHandle, filepath.Join(directory, utils.GitIgnoreFileName), "from-gitignore\n")

	testCases := []struct {
		name          string
		useGitignore  bool
		useIgnoreFile bool
		expected      []string
	}{
		{name: "both", useGitignore: true, useIgnoreFile: true, expected: []string{"from-ignore", "from-gitignore"}},
		{name: "gitignore only", useGitignore: true, expected: []string{"from-gitignore"}},
		{name: "ignore only", useIgnoreFile: true, expected: []string{"from-ignore"}},
		{name: "neither", expected: nil},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(subTest *testing.T) {
			patterns, loadError := LoadDirectoryIgnorePatterns(directory, testCase.useGitignore, testCase.useIgnoreFile)
			if loadError != nil {
				subTest.Fatalf("LoadDirectoryIgnorePatterns failed: %v", loadError)
			}
			if !reflect.DeepEqual(patterns, testCase.expected) {
				subTest.Fatalf("expected %v, got %v", testCase.expected, patterns)
			}
		})
	}
}

func TestLoadDirectoryIgnorePatternsReportsUnreadableFile(testingHandle *testing.T) {
	directory := testingHandle.TempDir()
	// A directory named .gitignore cannot be read as a file.
	if makeError := os.Mkdir(filepath.Join(directory, utils.GitIgnoreFileName), 0o755); makeError != nil {
		testingHandle.Fatalf("mkdir: %v", makeError)
	}
	if _, loadError := LoadDirectoryIgnorePatterns(directory, true, false); loadError == nil {
		testingHandle.Fatalf("expected an error for an unreadable .gitignore")
	}
}

func TestNormalizeExclusionPatterns(testingHandle *testing.T) {
	normalized := NormalizeExclusionPatterns([]string{" *.tmp ", "", "build", "*.tmp"})
	expected := []string{"*.tmp", "build"}
	if !reflect.DeepEqual(normalized, expected) {
		testingHandle.Fatalf("expected %v, got %v", expected, normalized)
	}
}
