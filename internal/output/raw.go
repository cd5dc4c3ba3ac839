package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/temirov/lx/internal/types"
)

const (
	permissionsHeader = "Permissions"
	ownerHeader       = "Owner"
	sizeHeader        = "Size"
	modifiedHeader    = "Last Modified"
	statusHeader      = "Git"
	nameHeader        = "Name"

	permissionsColumnWidth = 11
	modifiedColumnWidth    = 16
	ownerColumnGap         = "  "
	columnGap              = " "
	headerRuleGlyph        = "-"
)

// RawOptions controls the plain-text renderer.
type RawOptions struct {
	Long bool
	Tree bool
	// Git adds the status column to the short view. The long view always
	// carries it.
	Git   bool
	Color bool
	// RootLabel replaces the root name on the first row of the tree view.
	RootLabel string
}

type palette struct {
	header    *color.Color
	directory *color.Color
	plain     *color.Color
	statuses  map[types.StatusCode]*color.Color
}

func newPalette(enabled bool) palette {
	build := func(attributes ...color.Attribute) *color.Color {
		colorizer := color.New(attributes...)
		if enabled {
			colorizer.EnableColor()
		} else {
			colorizer.DisableColor()
		}
		return colorizer
	}
	return palette{
		header:    build(color.FgGreen),
		directory: build(color.FgBlue, color.Bold),
		plain:     build(color.Reset),
		statuses: map[types.StatusCode]*color.Color{
			types.StatusAdded:      build(color.FgGreen),
			types.StatusRenamed:    build(color.FgGreen),
			types.StatusModified:   build(color.FgYellow),
			types.StatusDeleted:    build(color.FgRed),
			types.StatusConflicted: build(color.FgRed, color.Bold),
			types.StatusUntracked:  build(color.FgCyan),
			types.StatusIgnored:    build(color.FgHiBlack),
		},
	}
}

// nameColor prefers the status color over the directory color.
func (colors palette) nameColor(record types.RenderRecord) *color.Color {
	if statusColor, found := colors.statuses[record.Status]; found {
		return statusColor
	}
	if record.Kind == types.KindDirectory {
		return colors.directory
	}
	return colors.plain
}

func (colors palette) statusColor(status types.StatusCode) *color.Color {
	if statusColor, found := colors.statuses[status]; found {
		return statusColor
	}
	return colors.plain
}

// WriteRaw renders laid-out records as text. The tree view starts with the
// root row; the flat view lists only the root's contents unless the root is
// itself a file.
func WriteRaw(writer io.Writer, records []types.RenderRecord, options RawOptions) error {
	buffered := bufio.NewWriter(writer)
	colors := newPalette(options.Color)

	if options.Long && len(records) > 0 {
		writeLongHeader(buffered, records[0].Widths, colors)
	}
	for _, record := range records {
		if record.IsRoot {
			if !options.Tree && record.Kind == types.KindDirectory {
				continue
			}
			if options.Tree && options.RootLabel != "" {
				record.DisplayName = options.RootLabel
			}
		}
		if options.Long {
			writeLongRow(buffered, record, colors)
		} else {
			writeShortRow(buffered, record, options.Git, colors)
		}
	}
	return buffered.Flush()
}

func ownerWidth(widths types.ColumnWidths) int {
	return max(widths.Owner, runewidth.StringWidth(ownerHeader))
}

func sizeWidth(widths types.ColumnWidths) int {
	return max(widths.Size, runewidth.StringWidth(sizeHeader))
}

func statusWidth(widths types.ColumnWidths, long bool) int {
	if long {
		return max(widths.Status, runewidth.StringWidth(statusHeader))
	}
	return max(widths.Status, 1)
}

func writeLongHeader(writer *bufio.Writer, widths types.ColumnWidths, colors palette) {
	var header strings.Builder
	header.WriteString(runewidth.FillRight(permissionsHeader, permissionsColumnWidth) + columnGap)
	header.WriteString(runewidth.FillRight(ownerHeader, ownerWidth(widths)) + ownerColumnGap)
	header.WriteString(runewidth.FillLeft(sizeHeader, sizeWidth(widths)) + columnGap)
	header.WriteString(runewidth.FillRight(modifiedHeader, modifiedColumnWidth) + columnGap)
	header.WriteString(runewidth.FillRight(statusHeader, statusWidth(widths, true)) + columnGap)
	header.WriteString(nameHeader)

	var rule strings.Builder
	rule.WriteString(strings.Repeat(headerRuleGlyph, permissionsColumnWidth) + columnGap)
	rule.WriteString(strings.Repeat(headerRuleGlyph, ownerWidth(widths)) + ownerColumnGap)
	rule.WriteString(strings.Repeat(headerRuleGlyph, sizeWidth(widths)) + columnGap)
	rule.WriteString(strings.Repeat(headerRuleGlyph, modifiedColumnWidth) + columnGap)
	rule.WriteString(strings.Repeat(headerRuleGlyph, statusWidth(widths, true)) + columnGap)
	rule.WriteString(strings.Repeat(headerRuleGlyph, runewidth.StringWidth(nameHeader)))

	writer.WriteString(colors.header.Sprint(header.String()) + "\n")
	writer.WriteString(colors.header.Sprint(rule.String()) + "\n")
}

func writeLongRow(writer *bufio.Writer, record types.RenderRecord, colors palette) {
	writer.WriteString(runewidth.FillRight(record.Permissions, permissionsColumnWidth) + columnGap)
	writer.WriteString(runewidth.FillRight(record.Owner, ownerWidth(record.Widths)) + ownerColumnGap)
	writer.WriteString(runewidth.FillLeft(record.SizeText, sizeWidth(record.Widths)) + columnGap)
	writer.WriteString(runewidth.FillRight(record.Modified, modifiedColumnWidth) + columnGap)
	writer.WriteString(colors.statusColor(record.Status).Sprint(runewidth.FillRight(record.StatusText, statusWidth(record.Widths, true))) + columnGap)
	writer.WriteString(record.Prefix + record.Connector + colors.nameColor(record).Sprint(record.DisplayName) + "\n")
}

func writeShortRow(writer *bufio.Writer, record types.RenderRecord, git bool, colors palette) {
	writer.WriteString(record.Prefix + record.Connector)
	if git {
		writer.WriteString(colors.statusColor(record.Status).Sprint(runewidth.FillRight(record.StatusText, statusWidth(record.Widths, false))) + columnGap)
	}
	writer.WriteString(colors.nameColor(record).Sprint(record.DisplayName) + "\n")
}
