package output_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/lx/internal/output"
	"github.com/temirov/lx/internal/types"
)

const sampleOwner = "alice"

func sampleFile(name string, size int64, status types.StatusCode) *types.TreeNode {
	return &types.TreeNode{
		Entry: types.Entry{
			Name:         name,
			AbsolutePath: "/work/" + name,
			Kind:         types.KindRegularFile,
			Metadata:     types.Metadata{SizeBytes: size, Mode: 0o644, Owner: sampleOwner},
		},
		GitStatus: status,
	}
}

func sampleDirectory(name string, status types.StatusCode, children ...*types.TreeNode) *types.TreeNode {
	if children == nil {
		children = []*types.TreeNode{}
	}
	return &types.TreeNode{
		Entry: types.Entry{
			Name:         name,
			AbsolutePath: "/work/" + name,
			Kind:         types.KindDirectory,
			Metadata:     types.Metadata{SizeBytes: 4096, Mode: fs.ModeDir | 0o755, Owner: sampleOwner},
		},
		GitStatus: status,
		Children:  children,
	}
}

// sampleTree is root/{a/{x}, b}.
func sampleTree() *types.TreeNode {
	nested := sampleDirectory("a", types.StatusModified, sampleFile("x", 7, types.StatusModified))
	return sampleDirectory("root", types.StatusModified, nested, sampleFile("b", 123, types.StatusUntracked))
}

func TestLayoutTreeGuides(testingHandle *testing.T) {
	records := output.Layout(sampleTree(), output.LayoutOptions{Tree: true})
	require.Len(testingHandle, records, 4)

	expected := []struct {
		name      string
		prefix    string
		connector string
		isRoot    bool
		isLast    bool
	}{
		{name: "root", isRoot: true, isLast: true},
		{name: "a", connector: "├── "},
		{name: "x", prefix: "│   ", connector: "└── ", isLast: true},
		{name: "b", connector: "└── ", isLast: true},
	}
	for index, expectation := range expected {
		record := records[index]
		assert.Equal(testingHandle, expectation.name, record.Name)
		assert.Equal(testingHandle, expectation.prefix, record.Prefix, expectation.name)
		assert.Equal(testingHandle, expectation.connector, record.Connector, expectation.name)
		assert.Equal(testingHandle, expectation.isRoot, record.IsRoot, expectation.name)
		assert.Equal(testingHandle, expectation.isLast, record.IsLast, expectation.name)
	}
	// "│   └── x" is the widest name column.
	assert.Equal(testingHandle, 9, records[0].Widths.Name)
	assert.Equal(testingHandle, records[0].Widths, records[3].Widths)
}

func TestLayoutFlatHasNoGuides(testingHandle *testing.T) {
	records := output.Layout(sampleTree(), output.LayoutOptions{})
	for _, record := range records {
		assert.Empty(testingHandle, record.Prefix)
		assert.Empty(testingHandle, record.Connector)
	}
	assert.Nil(testingHandle, output.Layout(nil, output.LayoutOptions{}))
}

func TestLayoutDisplayAndSizeText(testingHandle *testing.T) {
	targetKind := types.KindRegularFile
	link := &types.TreeNode{Entry: types.Entry{Name: "link", Kind: types.KindSymlink, TargetKind: &targetKind, LinkTarget: "b"}}
	sized := sampleDirectory("sized", types.StatusNone)
	total := int64(1500)
	sized.AggregatedSize = &total
	sized.SizeIncomplete = true
	unsized := sampleDirectory("unsized", types.StatusNone)
	unsized.AddWarning(types.Warning{Path: "/work/unsized", Kind: types.WarningAccessDenied})
	root := sampleDirectory("root", types.StatusNone, sized, unsized, sampleFile("b", 123, types.StatusNone), link)

	records := output.Layout(root, output.LayoutOptions{})
	require.Len(testingHandle, records, 5)
	assert.Equal(testingHandle, "sized/", records[1].DisplayName)
	assert.Equal(testingHandle, "1.5kB+", records[1].SizeText)
	assert.Equal(testingHandle, "-", records[2].SizeText)
	assert.True(testingHandle, records[2].Warned)
	assert.Equal(testingHandle, "123B", records[3].SizeText)
	assert.Equal(testingHandle, "-rw-r--r--", records[3].Permissions)
	assert.Equal(testingHandle, "link -> b", records[4].DisplayName)
	assert.Equal(testingHandle, len("1.5kB+"), records[0].Widths.Size)
	assert.Equal(testingHandle, len(sampleOwner), records[0].Widths.Owner)
}

func TestWriteRawShortViews(testingHandle *testing.T) {
	testCases := []struct {
		name     string
		root     *types.TreeNode
		options  output.RawOptions
		expected string
	}{
		{
			name:     "tree with status",
			root:     sampleTree(),
			options:  output.RawOptions{Tree: true, Git: true, RootLabel: "."},
			expected: "M .\n├── M a/\n│   └── M x\n└── ? b\n",
		},
		{
			name:     "tree without status",
			root:     sampleTree(),
			options:  output.RawOptions{Tree: true},
			expected: "root/\n├── a/\n│   └── x\n└── b\n",
		},
		{
			name:     "flat omits root directory",
			root:     sampleDirectory("root", types.StatusNone, sampleDirectory("a", types.StatusNone), sampleFile("b", 1, types.StatusNone)),
			options:  output.RawOptions{},
			expected: "a/\nb\n",
		},
		{
			name:     "flat file root",
			root:     sampleFile("only", 1, types.StatusNone),
			options:  output.RawOptions{},
			expected: "only\n",
		},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			records := output.Layout(testCase.root, output.LayoutOptions{Tree: testCase.options.Tree})
			var buffer bytes.Buffer
			require.NoError(testingHandle, output.WriteRaw(&buffer, records, testCase.options))
			assert.Equal(testingHandle, testCase.expected, buffer.String())
		})
	}
}

func TestWriteRawLongView(testingHandle *testing.T) {
	root := sampleDirectory("root", types.StatusNone, sampleFile("b", 123, types.StatusUntracked))
	records := output.Layout(root, output.LayoutOptions{Tree: true})
	var buffer bytes.Buffer
	require.NoError(testingHandle, output.WriteRaw(&buffer, records, output.RawOptions{Long: true, Tree: true, RootLabel: "."}))

	lines := strings.Split(strings.TrimSuffix(buffer.String(), "\n"), "\n")
	require.Len(testingHandle, lines, 4)
	emptyTimestamp := strings.Repeat(" ", 16)
	assert.Equal(testingHandle, "Permissions Owner  Size Last Modified    Git Name", lines[0])
	assert.Equal(testingHandle, "----------- -----  ---- ---------------- --- ----", lines[1])
	assert.Equal(testingHandle, "drwxr-xr-x  alice     - "+emptyTimestamp+"     .", lines[2])
	assert.Equal(testingHandle, "-rw-r--r--  alice  123B "+emptyTimestamp+" ?   └── b", lines[3])
}

func TestWriteRawColor(testingHandle *testing.T) {
	records := output.Layout(sampleTree(), output.LayoutOptions{Tree: true})

	var colored bytes.Buffer
	require.NoError(testingHandle, output.WriteRaw(&colored, records, output.RawOptions{Tree: true, Git: true, Color: true}))
	assert.Contains(testingHandle, colored.String(), "\x1b[")

	var plain bytes.Buffer
	require.NoError(testingHandle, output.WriteRaw(&plain, records, output.RawOptions{Tree: true, Git: true}))
	assert.NotContains(testingHandle, plain.String(), "\x1b[")
}

func sampleResult() types.BuildResult {
	root := sampleTree()
	total := int64(130)
	root.AggregatedSize = &total
	warning := types.Warning{Path: "/work/locked", Kind: types.WarningAccessDenied, Err: fs.ErrPermission}
	root.AddWarning(warning)
	return types.BuildResult{Root: root, Warnings: []types.Warning{warning}}
}

func TestWriteJSON(testingHandle *testing.T) {
	var buffer bytes.Buffer
	require.NoError(testingHandle, output.WriteJSON(&buffer, sampleResult()))

	var decoded map[string]any
	require.NoError(testingHandle, json.Unmarshal(buffer.Bytes(), &decoded))
	root := decoded["root"].(map[string]any)
	entry := root["entry"].(map[string]any)
	assert.Equal(testingHandle, "root", entry["name"])
	assert.Equal(testingHandle, "directory", entry["kind"])
	assert.Equal(testingHandle, "modified", root["gitStatus"])
	assert.EqualValues(testingHandle, 130, root["aggregatedSize"])
	assert.Len(testingHandle, root["children"], 2)
	warnings := decoded["warnings"].([]any)
	require.Len(testingHandle, warnings, 1)
	assert.Contains(testingHandle, warnings[0], "access denied: /work/locked")
}

func TestWriteYAML(testingHandle *testing.T) {
	var buffer bytes.Buffer
	require.NoError(testingHandle, output.WriteYAML(&buffer, sampleResult()))

	var decoded map[string]any
	require.NoError(testingHandle, yaml.Unmarshal(buffer.Bytes(), &decoded))
	root := decoded["root"].(map[string]any)
	entry := root["entry"].(map[string]any)
	assert.Equal(testingHandle, "root", entry["name"])
	assert.Equal(testingHandle, "modified", root["gitStatus"])
	children := root["children"].([]any)
	require.Len(testingHandle, children, 2)
	last := children[1].(map[string]any)
	assert.Equal(testingHandle, "untracked", last["gitStatus"])
}

func TestStructuredOutputDistinguishesUnexpandedDirectories(testingHandle *testing.T) {
	unexpanded := sampleDirectory("deep", types.StatusNone)
	unexpanded.Children = nil
	root := sampleDirectory("root", types.StatusNone, sampleDirectory("empty", types.StatusNone), unexpanded, sampleFile("f", 1, types.StatusNone))
	result := types.BuildResult{Root: root}

	var jsonBuffer bytes.Buffer
	require.NoError(testingHandle, output.WriteJSON(&jsonBuffer, result))
	var jsonDecoded map[string]any
	require.NoError(testingHandle, json.Unmarshal(jsonBuffer.Bytes(), &jsonDecoded))

	var yamlBuffer bytes.Buffer
	require.NoError(testingHandle, output.WriteYAML(&yamlBuffer, result))
	var yamlDecoded map[string]any
	require.NoError(testingHandle, yaml.Unmarshal(yamlBuffer.Bytes(), &yamlDecoded))

	for format, decoded := range map[string]map[string]any{"json": jsonDecoded, "yaml": yamlDecoded} {
		decodedRoot := decoded["root"].(map[string]any)
		assert.Equal(testingHandle, true, decodedRoot["expanded"], format)
		children := decodedRoot["children"].([]any)
		require.Len(testingHandle, children, 3, format)
		emptyDirectory := children[0].(map[string]any)
		assert.Equal(testingHandle, true, emptyDirectory["expanded"], format)
		assert.NotContains(testingHandle, emptyDirectory, "children", format)
		unexpandedDirectory := children[1].(map[string]any)
		assert.Equal(testingHandle, false, unexpandedDirectory["expanded"], format)
		assert.NotContains(testingHandle, children[2].(map[string]any), "expanded", format)
	}
}

func TestRenderDispatch(testingHandle *testing.T) {
	var buffer bytes.Buffer
	require.NoError(testingHandle, output.Render(&buffer, sampleResult(), output.RenderOptions{Format: types.FormatRaw, Tree: true}))
	assert.True(testingHandle, strings.HasPrefix(buffer.String(), "root/\n"))

	renderError := output.Render(&buffer, sampleResult(), output.RenderOptions{Format: "xml"})
	assert.True(testingHandle, errors.Is(renderError, output.ErrUnsupportedFormat))
	assert.NoError(testingHandle, output.ValidateFormat(types.FormatYAML))
	assert.ErrorIs(testingHandle, output.ValidateFormat("toml"), output.ErrUnsupportedFormat)
}

func TestShouldColorize(testingHandle *testing.T) {
	var buffer bytes.Buffer
	colorize, resolveError := output.ShouldColorize(types.ColorAlways, &buffer)
	require.NoError(testingHandle, resolveError)
	assert.True(testingHandle, colorize)

	colorize, resolveError = output.ShouldColorize(types.ColorNever, &buffer)
	require.NoError(testingHandle, resolveError)
	assert.False(testingHandle, colorize)

	colorize, resolveError = output.ShouldColorize(types.ColorAuto, &buffer)
	require.NoError(testingHandle, resolveError)
	assert.False(testingHandle, colorize)

	_, resolveError = output.ShouldColorize("sometimes", &buffer)
	assert.ErrorIs(testingHandle, resolveError, output.ErrUnsupportedColorMode)
}
