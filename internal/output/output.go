// Package output renders annotated trees as text, JSON or YAML.
package output

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/temirov/lx/internal/types"
)

const (
	noColorEnvironmentVariable = "NO_COLOR"

	unsupportedFormatErrorFormat    = "%w: %q (expected raw, json or yaml)"
	unsupportedColorModeErrorFormat = "%w: %q (expected auto, always or never)"
)

var (
	// ErrUnsupportedFormat is returned for unknown output formats.
	ErrUnsupportedFormat = errors.New("unsupported output format")
	// ErrUnsupportedColorMode is returned for unknown color modes.
	ErrUnsupportedColorMode = errors.New("unsupported color mode")
)

// RenderOptions selects the format and presentation of one render.
type RenderOptions struct {
	Format    string
	Long      bool
	Tree      bool
	Git       bool
	Color     bool
	RootLabel string
}

// Render writes the build result to writer in the requested format.
func Render(writer io.Writer, result types.BuildResult, options RenderOptions) error {
	switch options.Format {
	case types.FormatRaw, "":
		records := Layout(result.Root, LayoutOptions{Tree: options.Tree})
		return WriteRaw(writer, records, RawOptions{
			Long:      options.Long,
			Tree:      options.Tree,
			Git:       options.Git,
			Color:     options.Color,
			RootLabel: options.RootLabel,
		})
	case types.FormatJSON:
		return WriteJSON(writer, result)
	case types.FormatYAML:
		return WriteYAML(writer, result)
	default:
		return fmt.Errorf(unsupportedFormatErrorFormat, ErrUnsupportedFormat, options.Format)
	}
}

// ValidateFormat reports whether format names a known renderer.
func ValidateFormat(format string) error {
	switch format {
	case types.FormatRaw, types.FormatJSON, types.FormatYAML:
		return nil
	default:
		return fmt.Errorf(unsupportedFormatErrorFormat, ErrUnsupportedFormat, format)
	}
}

// ShouldColorize resolves a color mode against the destination. In auto mode
// color is used only for terminals and only when NO_COLOR is unset.
func ShouldColorize(mode string, destination io.Writer) (bool, error) {
	switch mode {
	case types.ColorAlways:
		return true, nil
	case types.ColorNever:
		return false, nil
	case types.ColorAuto, "":
		if _, disabled := os.LookupEnv(noColorEnvironmentVariable); disabled {
			return false, nil
		}
		file, isFile := destination.(*os.File)
		if !isFile {
			return false, nil
		}
		return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd()), nil
	default:
		return false, fmt.Errorf(unsupportedColorModeErrorFormat, ErrUnsupportedColorMode, mode)
	}
}
